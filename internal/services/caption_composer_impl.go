package services

import (
	"fmt"
	"strings"
)

// StyledCaptionComposer renders the secondary language visually demoted
// below the primary line, wrapped in emphasis and a distinct color.
type StyledCaptionComposer struct {
	markupOpen  string
	markupClose string
}

// NewCaptionComposer creates a composer wrapping secondary text in the given
// style. The defaults used by the service are italic and yellow.
func NewCaptionComposer(color string, italic bool) CaptionComposer {
	var open, close string
	if color != "" {
		open = fmt.Sprintf("<font color=%q>", color)
		close = "</font>"
	}
	if italic {
		open = "<i>" + open
		close = close + "</i>"
	}
	return &StyledCaptionComposer{
		markupOpen:  open,
		markupClose: close,
	}
}

// Compose flattens both texts to one display line per language, then stacks
// the styled secondary line under the primary one. Pure text transformation;
// malformed input just flattens to the empty string.
func (c *StyledCaptionComposer) Compose(primaryText, secondaryText string) string {
	primary := flattenLines(primaryText)
	secondary := flattenLines(secondaryText)

	if secondary == "" {
		return primary
	}
	return primary + "\n" + c.markupOpen + secondary + c.markupClose
}

// flattenLines collapses internal line breaks and runs of whitespace into
// single spaces so multi-line captions cannot break renderer assumptions.
func flattenLines(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
