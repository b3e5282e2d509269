package services

// CaptionComposer combines a primary caption with an optional matched
// secondary caption into a single display payload.
type CaptionComposer interface {
	// Compose returns the display text for one merged record. An empty
	// secondaryText means the primary record had no match and passes
	// through flattened, without markup.
	Compose(primaryText, secondaryText string) string
}
