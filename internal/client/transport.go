package client

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompressionTransport wraps an http.RoundTripper to transparently handle
// response decompression for gzip, brotli, and zstd encodings. Payload-level
// gzip (files compressed at rest, no Content-Encoding header) is not handled
// here; that belongs to the charset resolver.
type decompressionTransport struct {
	base http.RoundTripper
}

// newDecompressionTransport creates a transport handling automatic decompression
func newDecompressionTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decompressionTransport{base: base}
}

// RoundTrip executes a single HTTP transaction, advertising the supported
// compression formats and decompressing the response.
func (t *decompressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = cloneRequest(req)
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Nothing to decompress for HEAD, 204, 304 responses
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	encoding := lastContentEncoding(resp.Header.Get("Content-Encoding"))
	if encoding == "" {
		return resp, nil
	}

	reader, err := decoderFor(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if reader == nil {
		// Unknown encoding, return response as-is
		return resp, nil
	}

	resp.Body = &decompressReadCloser{reader: reader, originalBody: resp.Body}

	// The decompressed body invalidates these headers
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1

	return resp, nil
}

// decoderFor returns a reader decoding the given encoding, or nil when the
// encoding is not one we advertised.
func decoderFor(encoding string, body io.Reader) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return gz, nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, nil
	}
}

// decompressReadCloser closes both the decompressor and the original body.
type decompressReadCloser struct {
	reader       io.ReadCloser
	originalBody io.ReadCloser
}

func (d *decompressReadCloser) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decompressReadCloser) Close() error {
	readerErr := d.reader.Close()
	bodyErr := d.originalBody.Close()
	if readerErr != nil {
		return readerErr
	}
	return bodyErr
}

// cloneRequest creates a shallow copy of the request with deep-copied headers,
// since RoundTrippers must not modify the caller's request.
func cloneRequest(req *http.Request) *http.Request {
	r := new(http.Request)
	*r = *req
	r.Header = make(http.Header, len(req.Header))
	for k, v := range req.Header {
		r.Header[k] = append([]string(nil), v...)
	}
	return r
}

// lastContentEncoding extracts the outermost encoding from a Content-Encoding
// header. Comma-separated lists apply left to right, so the last entry must
// be removed first. Returns the lowercased encoding, or "" if none.
func lastContentEncoding(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
