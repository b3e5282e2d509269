package services

import (
	"context"

	"github.com/velharta/subweave/internal/models"
)

// TrackDownloader defines the interface for downloading subtitle candidates
type TrackDownloader interface {
	// Download fetches a candidate's payload, extracting the requested
	// episode's file when the payload is a season pack archive.
	// An episode of 0 returns the payload as-is.
	Download(ctx context.Context, candidate models.Candidate, episode int) (*models.DownloadResult, error)

	// Close releases any resources held by the downloader.
	Close() error
}
