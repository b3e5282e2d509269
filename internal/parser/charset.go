package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/config"
)

// gzipMagic is the two-byte header every gzip stream starts with.
var gzipMagic = []byte{0x1f, 0x8b}

// utf8BOM is the byte-order mark as encoded in UTF-8.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// codecAliases pins detector verdicts to the encodings used to decode them.
// Kept as data rather than branching so a new verdict is a one-line
// addition; names absent here go through the IANA index. A nil value means
// "decode as UTF-8".
//
// The windows codepages decode their ISO siblings safely (they replace the
// C1 control range with printable characters and match everywhere else), so
// ISO verdicts map to the windows superset. Turkish subtitles in particular
// are usually authored as windows-1254 even when detection reports
// iso-8859-9.
var codecAliases = map[string]encoding.Encoding{
	"utf-8":        nil,
	"iso-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"iso-8859-9":   charmap.Windows1254,
	"windows-1254": charmap.Windows1254,
	"iso-8859-2":   charmap.ISO8859_2,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// EncodingGuess is the outcome of resolving one payload: the codec that
// ultimately decoded the bytes and the clean text it produced.
type EncodingGuess struct {
	Codec string
	Text  string
}

// CharsetResolver turns raw upstream subtitle bytes into clean UTF-8 text.
// Upstream files are inconsistently encoded, sometimes gzip-compressed at
// rest, and frequently carry stray byte-order marks.
type CharsetResolver struct{}

// NewCharsetResolver creates a new charset resolver instance
func NewCharsetResolver() *CharsetResolver {
	return &CharsetResolver{}
}

// Resolve decodes raw subtitle bytes into text.
//
// The chain: gzip decompression when the payload (or its source URL) says
// so; valid UTF-8 accepted as-is; statistical charset detection otherwise,
// with the verdict normalized through the alias table (UTF-8 when nothing
// resolves); decode, one latin-1 retry on decode failure (latin-1 maps
// every byte value so it cannot itself fail); and a final leading-BOM strip
// for codec layers that left U+FEFF in place.
//
// Decompression failure is fatal for the input; there is no retry beyond
// the single latin-1 fallback.
func (r *CharsetResolver) Resolve(data []byte, sourceURL string) (*EncodingGuess, error) {
	logger := config.GetLogger()

	if bytes.HasPrefix(data, gzipMagic) || strings.HasSuffix(strings.ToLower(sourceURL), ".gz") {
		decompressed, err := gunzip(data)
		if err != nil {
			return nil, &apperrors.DecompressionError{URL: sourceURL, Err: err}
		}
		logger.Debug().Int("compressed", len(data)).Int("decompressed", len(decompressed)).Msg("Decompressed gzip subtitle payload")
		data = decompressed
	}

	// Valid UTF-8 input (pure ASCII included) never reaches the detector:
	// statistical models report a legacy codepage for ASCII-only text, and
	// decoding UTF-8 bytes with a single-byte codec mangles every multi-byte
	// character. NUL bytes are valid UTF-8 but never occur in caption text;
	// they defeat the shortcut so UTF-16 payloads fall through to detection.
	if bytes.IndexByte(data, 0) < 0 {
		if text, err := decodeBytes(nil, data); err == nil {
			return &EncodingGuess{Codec: "utf-8", Text: text}, nil
		}
	}

	name := detectCharset(data)
	enc, resolved := lookupCodec(name)

	logger.Debug().
		Str("guess", name).
		Str("codec", resolved).
		Msg("Resolved subtitle charset")

	text, err := decodeBytes(enc, data)
	if err != nil {
		logger.Warn().Err(err).Str("codec", resolved).Msg("Decoding failed, retrying with latin-1")
		text, err = decodeBytes(charmap.ISO8859_1, data)
		if err != nil {
			return nil, &apperrors.DecodeError{Codec: resolved, Err: err}
		}
		resolved = "latin-1"
	}

	// Codec layers don't reliably consume a leading BOM; without this the
	// U+FEFF ends up inside the first caption's text.
	text = strings.TrimPrefix(text, "\ufeff")

	return &EncodingGuess{Codec: resolved, Text: text}, nil
}

// detectCharset runs statistical detection over the payload and returns the
// winning charset name lowercased, or "" when no recognizer matches.
func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}

// lookupCodec maps a detector verdict to a decoding. Verdicts absent from
// the alias table are tried against the IANA index; anything unresolvable
// falls back to UTF-8. An empty verdict means the detector gave up, which
// is also the UTF-8 path.
func lookupCodec(name string) (encoding.Encoding, string) {
	if name == "" {
		return nil, "utf-8"
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := codecAliases[normalized]; ok {
		if enc == nil {
			return nil, "utf-8"
		}
		return enc, normalized
	}
	if enc, err := ianaindex.IANA.Encoding(normalized); err == nil && enc != nil {
		return enc, normalized
	}
	return nil, "utf-8"
}

// decodeBytes decodes data with the given encoding. A nil encoding selects
// the UTF-8 path, which strips a leading UTF-8 BOM manually and rejects
// invalid byte sequences so the caller can fall back to latin-1.
func decodeBytes(enc encoding.Encoding, data []byte) (string, error) {
	if enc == nil {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("payload is not valid UTF-8")
		}
		return string(data), nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return decompressed, nil
}

// NewUTF8Reader wraps an io.Reader with automatic character encoding detection
// and conversion to UTF-8, so provider HTML in any encoding is safe to parse
// with goquery. If the content is already UTF-8 this is a no-op wrapper.
func NewUTF8Reader(body io.Reader) (io.Reader, error) {
	// charset.NewReader automatically detects encoding and converts to UTF-8
	// contentType is empty because we want it to detect from the HTML content itself
	return charset.NewReader(body, "")
}
