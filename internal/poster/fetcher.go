package poster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/failsafehttp"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"github.com/KamilDonda/MovieRecommender/internal/cache"
	"github.com/KamilDonda/MovieRecommender/internal/metrics"
)

var (
	// ErrUpstream means the poster host could not be reached or answered
	// with a non-200 status.
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrNotImage means the upstream answered with a content type outside
	// the image allowlist.
	ErrNotImage = errors.New("upstream did not return an image")

	// ErrTooLarge means the image body exceeded the configured byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// allowedTypes is the set of content types served to clients. Anything else
// from an upstream is refused rather than proxied blind.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Poster is a fetched image ready to serve.
type Poster struct {
	Data        []byte
	ContentType string

	// Cached reports whether the image was served from cache rather than
	// fetched from the upstream host.
	Cached bool
}

// Config carries the fetcher settings.
type Config struct {
	Cache     cache.Cache
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Logger    zerolog.Logger
}

// Fetcher downloads poster images and keeps them in a cache keyed by URL.
// Transient upstream failures are retried with backoff before giving up.
type Fetcher struct {
	client    *http.Client
	cache     cache.Cache
	maxBytes  int64
	userAgent string
	logger    zerolog.Logger
}

func NewFetcher(cfg Config) *Fetcher {
	retry := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= http.StatusInternalServerError
		}).
		WithBackoff(250*time.Millisecond, 2*time.Second).
		WithMaxRetries(2).
		Build()

	base := http.DefaultTransport.(*http.Transport).Clone()

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newDecompressionTransport(failsafehttp.NewRoundTripper(base, retry)),
		},
		cache:     cfg.Cache,
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// Fetch returns the image at url, serving from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Poster, error) {
	if entry, ok := f.cache.Get(url); ok {
		if contentType, data, ok := decodeEntry(entry); ok {
			metrics.PosterFetchesTotal.WithLabelValues("hit").Inc()
			return &Poster{Data: data, ContentType: contentType, Cached: true}, nil
		}
		// Corrupt entry: refetch and overwrite it below.
	}

	poster, err := f.download(ctx, url)
	if err != nil {
		metrics.PosterFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	f.cache.Set(url, encodeEntry(poster.ContentType, poster.Data))
	metrics.PosterFetchesTotal.WithLabelValues("fetched").Inc()

	f.logger.Debug().Str("url", url).Int("bytes", len(poster.Data)).Msg("poster fetched")

	return poster, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (*Poster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	contentType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %q", ErrNotImage, resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	return &Poster{Data: data, ContentType: contentType}, nil
}

// Cache entries hold the content type and raw bytes in one value, joined by
// a NUL byte that cannot occur in a media type.
func encodeEntry(contentType string, data []byte) []byte {
	entry := make([]byte, 0, len(contentType)+1+len(data))
	entry = append(entry, contentType...)
	entry = append(entry, 0)
	entry = append(entry, data...)
	return entry
}

func decodeEntry(entry []byte) (contentType string, data []byte, ok bool) {
	i := bytes.IndexByte(entry, 0)
	if i < 0 {
		return "", nil, false
	}
	return string(entry[:i]), entry[i+1:], true
}
