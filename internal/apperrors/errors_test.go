package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDecompressionError(t *testing.T) {
	inner := errors.New("gzip: invalid header")
	err := &DecompressionError{URL: "http://example.com/sub.srt.gz", Err: inner}

	if !errors.Is(err, &DecompressionError{}) {
		t.Fatal("errors.Is should match DecompressionError")
	}
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is should unwrap to the inner error")
	}

	wrapped := fmt.Errorf("candidate failed: %w", err)
	if !errors.Is(wrapped, &DecompressionError{}) {
		t.Fatal("errors.Is should match through wrapping")
	}
}

func TestDecodeError(t *testing.T) {
	inner := errors.New("invalid byte sequence")
	err := &DecodeError{Codec: "utf-16le", Err: inner}

	if !errors.Is(err, &DecodeError{}) {
		t.Fatal("errors.Is should match DecodeError")
	}
	if errors.Is(err, &DecompressionError{}) {
		t.Fatal("DecodeError should not match DecompressionError")
	}

	expected := `failed to decode subtitle payload with codec "utf-16le" (and latin-1 fallback): invalid byte sequence`
	if err.Error() != expected {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{Reason: "no caption records in non-empty input"}
	if !errors.Is(err, &ParseError{}) {
		t.Fatal("errors.Is should match ParseError")
	}
}

func TestNoViableCandidateError(t *testing.T) {
	err := &NoViableCandidateError{Language: "en", Attempted: 4}
	if !errors.Is(err, &NoViableCandidateError{}) {
		t.Fatal("errors.Is should match NoViableCandidateError")
	}

	expected := `no viable subtitle candidate for language "en" (attempted 4)`
	if err.Error() != expected {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestErrSubtitleNotFoundInArchive(t *testing.T) {
	err := &ErrSubtitleNotFoundInArchive{Episode: 3, FileCount: 12}
	if !errors.Is(err, &ErrSubtitleNotFoundInArchive{}) {
		t.Fatal("errors.Is should match ErrSubtitleNotFoundInArchive")
	}
}

func TestErrSubtitleResourceNotFound(t *testing.T) {
	err := &ErrSubtitleResourceNotFound{URL: "http://example.com/dl/42"}
	if !errors.Is(err, &ErrSubtitleResourceNotFound{}) {
		t.Fatal("errors.Is should match ErrSubtitleResourceNotFound")
	}
	if errors.Is(err, &NoViableCandidateError{}) {
		t.Fatal("should not match a different error type")
	}
}
