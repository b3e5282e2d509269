package services

import (
	"time"

	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
)

// DefaultSubtitleAligner implements SubtitleAligner with a single forward
// pass over the primary track and a monotonic cursor into the secondary
// track. The cursor only advances past secondary records that can no longer
// match any future primary record, which keeps the scan amortized
// O(len(primary)+len(secondary)) for time-ordered tracks instead of
// quadratic.
type DefaultSubtitleAligner struct {
	threshold time.Duration
	composer  CaptionComposer
}

// NewSubtitleAligner creates an aligner with the given proximity threshold.
// A non-positive threshold selects the 500ms default.
func NewSubtitleAligner(threshold time.Duration, composer CaptionComposer) SubtitleAligner {
	if threshold <= 0 {
		threshold = config.DefaultAlignThreshold
	}
	return &DefaultSubtitleAligner{
		threshold: threshold,
		composer:  composer,
	}
}

// Align matches each primary record against candidate secondary records.
// Among the candidates that relate to a primary record, the one with the
// smallest absolute start-time difference wins; ties keep the first
// encountered (lowest secondary index).
func (a *DefaultSubtitleAligner) Align(primary, secondary models.CaptionSequence) []models.MergedRecord {
	merged := make([]models.MergedRecord, 0, len(primary))
	cursor := 0
	used := make(map[int]struct{}, len(secondary))

	for _, p := range primary {
		bestIdx := -1
		var bestDelta time.Duration

		for i := cursor; i < len(secondary); i++ {
			s := secondary[i]

			// A record at the cursor ending well before this primary starts
			// cannot match it or anything later. Only the cursor position
			// itself is skipped, one step per primary in the common case of
			// ordered, non-overlapping secondary records.
			if i == cursor && p.Start-s.End > 2*a.threshold {
				cursor++
			}

			// The secondary track is time-ordered: once a candidate starts
			// past the window, nothing later can be closer — whether or not
			// a match was already found.
			if s.Start > p.End+a.threshold {
				break
			}

			if _, taken := used[i]; taken {
				continue
			}
			if !a.relates(p, s) {
				continue
			}

			delta := absDuration(s.Start - p.Start)
			if bestIdx == -1 || delta < bestDelta {
				bestIdx = i
				bestDelta = delta
			}
		}

		record := models.MergedRecord{Start: p.Start, End: p.End}
		if bestIdx >= 0 {
			used[bestIdx] = struct{}{}
			record.Text = a.composer.Compose(p.Text, secondary[bestIdx].Text)
			record.Matched = true
		} else {
			record.Text = a.composer.Compose(p.Text, "")
		}
		merged = append(merged, record)
	}

	return merged
}

// relates classifies a secondary candidate against the primary's
// [start, end) interval. Any of the five relationships qualifies; an
// interval satisfying several at once (exactly equal intervals are both
// isWithin and contains) still counts as a single potential match.
func (a *DefaultSubtitleAligner) relates(p, s models.CaptionRecord) bool {
	startsOverlap := s.Start >= p.Start && s.Start < p.End
	endsOverlap := s.End > p.Start && s.End <= p.End
	isWithin := s.Start >= p.Start && s.End <= p.End
	contains := s.Start <= p.Start && s.End >= p.End

	// Near-miss on start times handles independently authored tracks whose
	// intervals never quite overlap.
	nearStart := absDuration(s.Start-p.Start) < a.threshold

	return startsOverlap || endsOverlap || isWithin || contains || nearStart
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
