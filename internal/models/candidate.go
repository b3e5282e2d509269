package models

import "fmt"

// Candidate is one upstream search result for a given language. Candidates
// are ranked by download count; the pipeline tries them in order until one
// is viable.
type Candidate struct {
	ID           string `json:"id"`
	Language     string `json:"language"`
	Release      string `json:"release"`
	DownloadURL  string `json:"downloadUrl"`
	Downloads    int    `json:"downloads"`
	Uploader     string `json:"uploader"`
	IsSeasonPack bool   `json:"isSeasonPack"`
}

// TrackQuery identifies the subtitle track wanted for one language.
type TrackQuery struct {
	ImdbID   string
	Season   int
	Episode  int
	Language string
}

// CacheKey returns a stable key for caching results of this query.
func (q TrackQuery) CacheKey() string {
	return fmt.Sprintf("%s:%d:%d:%s", q.ImdbID, q.Season, q.Episode, q.Language)
}

// MergeRequest pairs the two language queries of one bilingual track request.
// Primary timing is authoritative in the merged output.
type MergeRequest struct {
	Primary   TrackQuery
	Secondary TrackQuery
}

// CacheKey returns a stable key covering both languages of the request.
func (r MergeRequest) CacheKey() string {
	return r.Primary.CacheKey() + "+" + r.Secondary.Language
}
