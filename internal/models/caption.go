package models

import "time"

// CaptionRecord is a single timed caption entry parsed from a subtitle file.
// Within one sequence records are non-decreasing in Start; the source format
// guarantees ordering and the aligner relies on it without re-sorting.
type CaptionRecord struct {
	Index int           // Position in the source sequence, not stable after merge
	Start time.Duration // Offset from the beginning of the media
	End   time.Duration // Always >= Start
	Text  string        // May contain internal line breaks
}

// CaptionSequence is the ordered list of records parsed from one subtitle file.
type CaptionSequence []CaptionRecord

// MergedRecord is a caption on the primary timeline whose text is either the
// primary text alone or the primary text combined with a matched secondary
// caption. Timing always comes from the primary record; the secondary
// record's timing is discarded once matched.
type MergedRecord struct {
	Start   time.Duration
	End     time.Duration
	Text    string
	Matched bool
}

// MergedTrack is one bilingual output: every primary record merged against a
// single secondary candidate's sequence. Secondary is nil when no secondary
// candidate was viable and the track is a pass-through of the primary.
type MergedTrack struct {
	Primary   Candidate
	Secondary *Candidate
	Records   []MergedRecord
}

// MatchRatio reports the fraction of records that carry a matched secondary
// caption. Used for metrics; returns 0 for an empty track.
func (t *MergedTrack) MatchRatio() float64 {
	if len(t.Records) == 0 {
		return 0
	}
	matched := 0
	for _, r := range t.Records {
		if r.Matched {
			matched++
		}
	}
	return float64(matched) / float64(len(t.Records))
}
