package client

import (
	"context"

	"github.com/velharta/subweave/internal/models"
)

// DownloadCandidate fetches one candidate's payload. Season packs are
// resolved to the query's episode; plain payloads pass through untouched.
func (c *client) DownloadCandidate(ctx context.Context, candidate models.Candidate, query models.TrackQuery) (*models.DownloadResult, error) {
	episode := 0
	if candidate.IsSeasonPack {
		episode = query.Episode
	}
	return c.trackDownloader.Download(ctx, candidate, episode)
}
