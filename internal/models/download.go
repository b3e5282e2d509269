package models

// DownloadResult represents the raw outcome of downloading one candidate.
// Content is the payload before encoding resolution; for season packs it is
// the extracted per-episode file, not the whole archive.
type DownloadResult struct {
	Filename    string // Name of the subtitle file
	Content     []byte // Raw bytes of the subtitle file
	ContentType string // MIME type (e.g., "application/x-subrip", "application/zip")
	SourceURL   string // URL the payload came from, used by the gzip heuristic
}
