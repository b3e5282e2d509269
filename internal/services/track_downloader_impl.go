package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nwaples/rardecode/v2"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/metrics"
	"github.com/velharta/subweave/internal/models"
)

// Archive magic headers. Zip archives may also be announced by Content-Type.
var (
	zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}
	rarMagic = []byte{0x52, 0x61, 0x72, 0x21}
)

// archiveCacheEntry represents a cached season pack archive
type archiveCacheEntry struct {
	content  []byte
	cachedAt time.Time
}

// DefaultTrackDownloader implements TrackDownloader with an LRU cache for
// season pack archives, so extracting several episodes from the same pack
// costs one provider download.
type DefaultTrackDownloader struct {
	httpClient   *http.Client
	archiveCache *lru.LRU[string, *archiveCacheEntry]
}

// NewTrackDownloader creates a downloader caching up to 100 archives for one hour.
func NewTrackDownloader(httpClient *http.Client) TrackDownloader {
	return &DefaultTrackDownloader{
		httpClient:   httpClient,
		archiveCache: lru.NewLRU[string, *archiveCacheEntry](100, nil, time.Hour),
	}
}

// Download fetches a candidate payload and, for season packs, extracts the
// requested episode's subtitle file from the zip or rar archive.
func (d *DefaultTrackDownloader) Download(ctx context.Context, candidate models.Candidate, episode int) (*models.DownloadResult, error) {
	logger := config.GetLogger()
	logger.Info().
		Str("url", candidate.DownloadURL).
		Str("candidateID", candidate.ID).
		Int("episode", episode).
		Msg("Downloading subtitle candidate")

	content, contentType, err := d.downloadFile(ctx, candidate.DownloadURL)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to download candidate %s: %w", candidate.ID, err)
	}

	isArchive := strings.Contains(contentType, "zip") ||
		bytes.HasPrefix(content, zipMagic) ||
		bytes.HasPrefix(content, rarMagic)

	if episode == 0 || !isArchive {
		metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()
		return &models.DownloadResult{
			Filename:    generateFilename(candidate.ID, contentType),
			Content:     content,
			ContentType: contentType,
			SourceURL:   candidate.DownloadURL,
		}, nil
	}

	logger.Info().
		Int("episode", episode).
		Int("archiveSize", len(content)).
		Msg("Extracting episode from season pack archive")

	result, err := d.extractEpisode(content, episode)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to extract episode %d: %w", episode, err)
	}
	result.SourceURL = candidate.DownloadURL

	metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()
	return result, nil
}

// Close releases downloader resources. The archive cache is in-memory only.
func (d *DefaultTrackDownloader) Close() error {
	return nil
}

// downloadFile downloads a file from the given URL, caching archive payloads.
func (d *DefaultTrackDownloader) downloadFile(ctx context.Context, url string) ([]byte, string, error) {
	logger := config.GetLogger()

	if cached, found := d.archiveCache.Get(url); found {
		logger.Debug().
			Str("url", url).
			Time("cachedAt", cached.cachedAt).
			Msg("Retrieved archive from cache")
		return cached.content, "application/zip", nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", &apperrors.ErrSubtitleResourceNotFound{URL: url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Cache archives; single-episode payloads are cheap to re-fetch and
	// usually requested once.
	if strings.Contains(contentType, "zip") || bytes.HasPrefix(content, zipMagic) || bytes.HasPrefix(content, rarMagic) {
		d.archiveCache.Add(url, &archiveCacheEntry{
			content:  content,
			cachedAt: time.Now(),
		})
		logger.Debug().
			Str("url", url).
			Int("size", len(content)).
			Msg("Cached archive payload")
	}

	return content, contentType, nil
}

// episodePattern matches episode numbers in filenames with word boundaries
// to prevent false positives. Matches S03E01, s03e01, 3x01, E01 — but not
// E010 when looking for E01.
func episodePattern(episode int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:s\d+e%02d(?:\D|$)|e%02d(?:\D|$)|\d+x%02d(?:\D|$))`, episode, episode, episode))
}

// extractEpisode dispatches on the archive format.
func (d *DefaultTrackDownloader) extractEpisode(content []byte, episode int) (*models.DownloadResult, error) {
	if bytes.HasPrefix(content, rarMagic) {
		return d.extractEpisodeFromRar(content, episode)
	}
	return d.extractEpisodeFromZip(content, episode)
}

// extractEpisodeFromZip extracts a specific episode's subtitle from a season pack zip.
func (d *DefaultTrackDownloader) extractEpisodeFromZip(zipContent []byte, episode int) (*models.DownloadResult, error) {
	logger := config.GetLogger()

	zipReader, err := zip.NewReader(bytes.NewReader(zipContent), int64(len(zipContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	pattern := episodePattern(episode)

	logger.Debug().
		Int("fileCount", len(zipReader.File)).
		Int("episode", episode).
		Msg("Searching for episode in zip archive")

	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		filename := filepath.Base(file.Name)
		if !pattern.MatchString(filename) {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s in zip: %w", file.Name, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s from zip: %w", file.Name, err)
		}

		logger.Info().
			Str("filename", filename).
			Int("size", len(content)).
			Msg("Extracted episode from season pack")

		return &models.DownloadResult{
			Filename:    filename,
			Content:     content,
			ContentType: getContentTypeFromFilename(filename),
		}, nil
	}

	return nil, &apperrors.ErrSubtitleNotFoundInArchive{Episode: episode, FileCount: len(zipReader.File)}
}

// extractEpisodeFromRar extracts a specific episode's subtitle from a season pack rar.
func (d *DefaultTrackDownloader) extractEpisodeFromRar(rarContent []byte, episode int) (*models.DownloadResult, error) {
	reader, err := rardecode.NewReader(bytes.NewReader(rarContent))
	if err != nil {
		return nil, fmt.Errorf("failed to open rar archive: %w", err)
	}

	pattern := episodePattern(episode)
	fileCount := 0

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rar archive: %w", err)
		}
		if header.IsDir {
			continue
		}
		fileCount++

		filename := filepath.Base(header.Name)
		if !pattern.MatchString(filename) {
			continue
		}

		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s from rar: %w", header.Name, err)
		}

		return &models.DownloadResult{
			Filename:    filename,
			Content:     content,
			ContentType: getContentTypeFromFilename(filename),
		}, nil
	}

	return nil, &apperrors.ErrSubtitleNotFoundInArchive{Episode: episode, FileCount: fileCount}
}

// generateFilename creates a filename with appropriate extension based on content type
func generateFilename(candidateID, contentType string) string {
	return fmt.Sprintf("%s%s", candidateID, getExtensionFromContentType(contentType))
}

// getExtensionFromContentType derives file extension from MIME type
func getExtensionFromContentType(contentType string) string {
	ctLower := strings.ToLower(contentType)

	// Check most specific patterns first to avoid false matches
	if strings.Contains(ctLower, "zip") {
		return ".zip"
	}
	if strings.Contains(ctLower, "x-subrip") || strings.Contains(ctLower, "srt") {
		return ".srt"
	}
	if strings.Contains(ctLower, "vtt") {
		return ".vtt"
	}
	if strings.Contains(ctLower, "gzip") {
		return ".gz"
	}

	// Default to .srt for subtitle files
	return ".srt"
}

// getContentTypeFromFilename derives MIME type from file extension
func getContentTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".srt":
		return "application/x-subrip"
	case ".vtt":
		return "text/vtt"
	case ".gz":
		return "application/gzip"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
