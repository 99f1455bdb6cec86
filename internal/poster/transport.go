package poster

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// decompressionTransport advertises gzip, brotli and zstd support on outgoing
// requests and transparently decodes whichever the upstream picked, so the
// fetcher always reads plain image bytes.
type decompressionTransport struct {
	base http.RoundTripper
}

func newDecompressionTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decompressionTransport{base: base}
}

func (t *decompressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Work on a copy so retries of the original request see clean headers.
	req = req.Clone(req.Context())

	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	var reader io.ReadCloser
	switch lastEncoding(resp.Header.Get("Content-Encoding")) {
	case "":
		return resp, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		reader = gz
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		reader = zr.IOReadCloser()
	default:
		// Something we never asked for; hand it through untouched.
		return resp, nil
	}

	resp.Body = &stackedBody{decoded: reader, raw: resp.Body}

	// The encoding headers describe bytes that no longer exist.
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1

	return resp, nil
}

// lastEncoding returns the outermost coding from a Content-Encoding header,
// which is the one that must be undone first.
func lastEncoding(header string) string {
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}

// stackedBody reads from the decoder while making sure Close releases the
// decoder and the network body underneath it.
type stackedBody struct {
	decoded io.ReadCloser
	raw     io.ReadCloser
}

func (b *stackedBody) Read(p []byte) (int, error) {
	return b.decoded.Read(p)
}

func (b *stackedBody) Close() error {
	decodedErr := b.decoded.Close()
	rawErr := b.raw.Close()
	if decodedErr != nil {
		return decodedErr
	}
	return rawErr
}
