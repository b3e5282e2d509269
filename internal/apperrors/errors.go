package apperrors

import "fmt"

// DecompressionError is returned when a payload carries the gzip magic header
// (or a .gz URL) but cannot be decompressed. The candidate is unusable.
type DecompressionError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecompressionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("failed to decompress subtitle payload from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to decompress subtitle payload: %v", e.Err)
}

// Unwrap returns the underlying decompression error.
func (e *DecompressionError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *DecompressionError) Is(target error) bool {
	_, ok := target.(*DecompressionError)
	return ok
}

// DecodeError is returned when both the detected codec and the latin-1
// fallback failed to decode a subtitle payload.
type DecodeError struct {
	Codec string
	Err   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode subtitle payload with codec %q (and latin-1 fallback): %v", e.Codec, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *DecodeError) Is(target error) bool {
	_, ok := target.(*DecodeError)
	return ok
}

// ParseError is returned when decoded text is not structurally valid captions,
// including the case where a non-empty payload parses to zero records.
type ParseError struct {
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse captions: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ParseError) Is(target error) bool {
	_, ok := target.(*ParseError)
	return ok
}

// NoViableCandidateError is returned when every ranked candidate for a
// language failed fetch, decode, or parse.
type NoViableCandidateError struct {
	Language  string
	Attempted int
}

// Error implements the error interface.
func (e *NoViableCandidateError) Error() string {
	return fmt.Sprintf("no viable subtitle candidate for language %q (attempted %d)", e.Language, e.Attempted)
}

// Is allows for error checking with errors.Is().
func (e *NoViableCandidateError) Is(target error) bool {
	_, ok := target.(*NoViableCandidateError)
	return ok
}

// ErrSubtitleNotFoundInArchive is returned when the requested episode subtitle
// is not found inside a season pack archive.
type ErrSubtitleNotFoundInArchive struct {
	Episode   int
	FileCount int
}

// Error implements the error interface.
func (e *ErrSubtitleNotFoundInArchive) Error() string {
	return fmt.Sprintf("episode %d not found in season pack archive (searched %d files)", e.Episode, e.FileCount)
}

// Is allows for error checking with errors.Is().
func (e *ErrSubtitleNotFoundInArchive) Is(target error) bool {
	_, ok := target.(*ErrSubtitleNotFoundInArchive)
	return ok
}

// ErrSubtitleResourceNotFound is returned when the subtitle download URL returns HTTP 404.
type ErrSubtitleResourceNotFound struct {
	URL string
}

// Error implements the error interface.
func (e *ErrSubtitleResourceNotFound) Error() string {
	return fmt.Sprintf("subtitle resource not found at URL: %s", e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrSubtitleResourceNotFound) Is(target error) bool {
	_, ok := target.(*ErrSubtitleResourceNotFound)
	return ok
}
