package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
)

// srtTimestampPattern matches one side of a well-formed SRT timing line,
// e.g. "00:02:16,612". A period separator is tolerated alongside the comma.
var srtTimestampPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)

// SRTParser parses and serializes SubRip subtitle text.
type SRTParser struct{}

// NewSRTParser creates a new SRT parser instance
func NewSRTParser() *SRTParser {
	return &SRTParser{}
}

// Parse converts SRT text into an ordered caption sequence.
//
// Timing fields that do not match the fixed HH:MM:SS,mmm pattern decode to
// zero with a warning rather than failing the whole track: upstream behavior
// expects degraded-but-present output over hard failure, even though zeroed
// timings can cluster spurious matches at the start of the track.
//
// A non-empty input that yields zero records is a ParseError.
func (p *SRTParser) Parse(text string) (models.CaptionSequence, error) {
	logger := config.GetLogger()

	var records models.CaptionSequence
	var current models.CaptionRecord
	var textLines []string

	state := "index" // possible values: "index", "time", "text"

	flush := func() {
		if len(textLines) > 0 {
			current.Index = len(records)
			current.Text = strings.Join(textLines, "\n")
			records = append(records, current)
		}
		current = models.CaptionRecord{}
		textLines = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			if _, err := strconv.Atoi(line); err != nil {
				continue // skip junk between caption blocks
			}
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, ok := p.parseTimingLine(line)
			if !ok {
				logger.Warn().Str("line", line).Msg("Expected SRT timing line, resetting block")
				state = "index"
				continue
			}
			current.Start = start
			current.End = end
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				flush()
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// Handle a final block with no trailing blank line
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, &apperrors.ParseError{Reason: fmt.Sprintf("failed to scan SRT text: %v", err)}
	}

	if len(records) == 0 && strings.TrimSpace(text) != "" {
		return nil, &apperrors.ParseError{Reason: "no caption records in non-empty input"}
	}

	return records, nil
}

// parseTimingLine splits "start --> end" and decodes both sides. The line
// must at least carry the arrow separator to count as a timing line; the
// timestamps themselves fall back to zero individually.
func (p *SRTParser) parseTimingLine(line string) (time.Duration, time.Duration, bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	return parseTimestamp(parts[0]), parseTimestamp(parts[1]), true
}

// parseTimestamp decodes one HH:MM:SS,mmm field. Malformed fields (wrong
// digit widths, missing separators) are treated as millisecond value 0,
// logged, and never fatal.
func parseTimestamp(raw string) time.Duration {
	trimmed := strings.TrimSpace(raw)
	m := srtTimestampPattern.FindStringSubmatch(trimmed)
	if m == nil {
		logger := config.GetLogger()
		logger.Warn().Str("timestamp", trimmed).Msg("Malformed SRT timestamp, treating as 0")
		return 0
	}

	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])

	return time.Duration(h)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// Serialize renders merged records back to SRT text. Entry ids are
// sequential integers starting at 1, independent of original indices.
func (p *SRTParser) Serialize(records []models.MergedRecord) string {
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(r.Start), formatTimestamp(r.End), r.Text)
	}
	return b.String()
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1_000
	ms %= 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
