package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/models"
)

func TestSRTParse_Basic(t *testing.T) {
	p := NewSRTParser()

	input := "1\n" +
		"00:00:01,000 --> 00:00:02,500\n" +
		"Hello\n" +
		"\n" +
		"2\n" +
		"00:00:03,000 --> 00:00:04,000\n" +
		"World\n" +
		"line two\n" +
		"\n"

	seq, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(seq) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(seq))
	}

	if seq[0].Start != time.Second || seq[0].End != 2500*time.Millisecond {
		t.Fatalf("Unexpected timing for record 0: %v --> %v", seq[0].Start, seq[0].End)
	}
	if seq[0].Text != "Hello" {
		t.Fatalf("Unexpected text for record 0: %q", seq[0].Text)
	}
	if seq[1].Text != "World\nline two" {
		t.Fatalf("Internal line breaks must be preserved at parse time, got %q", seq[1].Text)
	}
	if seq[0].Index != 0 || seq[1].Index != 1 {
		t.Fatalf("Indices must reflect source positions, got %d and %d", seq[0].Index, seq[1].Index)
	}
}

func TestSRTParse_FinalBlockWithoutTrailingBlankLine(t *testing.T) {
	p := NewSRTParser()

	input := "1\n00:00:01,000 --> 00:00:02,000\nlast caption"
	seq, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(seq) != 1 || seq[0].Text != "last caption" {
		t.Fatalf("Expected trailing block to be kept, got %+v", seq)
	}
}

func TestSRTParse_MalformedTimestampDefaultsToZero(t *testing.T) {
	p := NewSRTParser()

	// Wrong digit widths: parses to 0ms, logged, not thrown.
	input := "1\n1:2:3,4 --> 00:00:02,000\nHello\n\n"
	seq, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse should tolerate malformed timestamps: %v", err)
	}
	if len(seq) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(seq))
	}
	if seq[0].Start != 0 {
		t.Fatalf("Malformed start must default to 0, got %v", seq[0].Start)
	}
	if seq[0].End != 2*time.Second {
		t.Fatalf("Well-formed end must still parse, got %v", seq[0].End)
	}
}

func TestSRTParse_EmptyInput(t *testing.T) {
	p := NewSRTParser()

	seq, err := p.Parse("")
	if err != nil {
		t.Fatalf("Empty input must not error: %v", err)
	}
	if len(seq) != 0 {
		t.Fatalf("Expected no records, got %d", len(seq))
	}
}

func TestSRTParse_JunkInputIsParseError(t *testing.T) {
	p := NewSRTParser()

	_, err := p.Parse("<html><body>not a subtitle file</body></html>")
	if err == nil {
		t.Fatal("Expected ParseError for non-empty input with zero records")
	}
	if !errors.Is(err, &apperrors.ParseError{}) {
		t.Fatalf("Expected ParseError, got %T: %v", err, err)
	}
}

func TestSRTParse_PeriodMillisecondSeparator(t *testing.T) {
	p := NewSRTParser()

	input := "1\n00:00:01.000 --> 00:00:02.000\nHello\n\n"
	seq, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if seq[0].Start != time.Second {
		t.Fatalf("Period separator should parse, got %v", seq[0].Start)
	}
}

func TestSRTSerialize_RenumbersFromOne(t *testing.T) {
	p := NewSRTParser()

	records := []models.MergedRecord{
		{Start: 0, End: 2 * time.Second, Text: "Hello"},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "World"},
	}

	out := p.Serialize(records)

	expected := "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n" +
		"2\n00:00:03,000 --> 00:00:04,000\nWorld\n\n"
	if out != expected {
		t.Fatalf("Unexpected serialization:\n%q\nexpected:\n%q", out, expected)
	}
}

func TestSRTSerialize_RoundTrip(t *testing.T) {
	p := NewSRTParser()

	records := []models.MergedRecord{
		{Start: 61*time.Second + 250*time.Millisecond, End: 62 * time.Second, Text: "a\nb"},
	}

	seq, err := p.Parse(p.Serialize(records))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(seq) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(seq))
	}
	if seq[0].Start != records[0].Start || seq[0].End != records[0].End {
		t.Fatalf("Timing did not survive round trip: %v --> %v", seq[0].Start, seq[0].End)
	}
	if seq[0].Text != "a\nb" {
		t.Fatalf("Text did not survive round trip: %q", seq[0].Text)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "00:00:00,000"},
		{time.Millisecond, "00:00:00,001"},
		{time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, "01:02:03,004"},
		{-time.Second, "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := formatTimestamp(tt.d); got != tt.expected {
			t.Fatalf("formatTimestamp(%v) = %q, expected %q", tt.d, got, tt.expected)
		}
	}
}

func TestSRTParse_SkipsJunkBetweenBlocks(t *testing.T) {
	p := NewSRTParser()

	input := strings.Join([]string{
		"WEBVTT-like garbage header",
		"",
		"1",
		"00:00:01,000 --> 00:00:02,000",
		"Hello",
		"",
	}, "\n")

	seq, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(seq) != 1 {
		t.Fatalf("Expected junk lines to be skipped, got %d records", len(seq))
	}
}
