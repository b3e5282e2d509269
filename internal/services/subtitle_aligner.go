package services

import (
	"github.com/velharta/subweave/internal/models"
)

// SubtitleAligner matches secondary-language captions onto the primary
// timeline and composes merged records. Alignment never fails: absence of a
// match is a normal per-record outcome, not an error.
type SubtitleAligner interface {
	// Align produces exactly one merged record per primary record, in
	// order. Each secondary record is matched at most once; secondary
	// records without a match are dropped. Timing of every output record
	// comes from its primary record.
	Align(primary, secondary models.CaptionSequence) []models.MergedRecord
}
