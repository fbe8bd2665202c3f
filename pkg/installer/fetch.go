package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tux/pkg/tuxerr"
)

const (
	// DefaultTimeout bounds a single artifact download.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent is sent with every artifact request.
	DefaultUserAgent = "tux/0.1.0"
)

// Fetcher opens the body of a remote artifact.
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher downloads artifacts over HTTP.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Open performs a GET request. Transport failures and non-2xx statuses
// are Network errors. The caller closes the returned body.
func (f *HTTPFetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindNetwork, err, "failed to create request for %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindNetwork, err, "failed to download %s", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, tuxerr.Wrap(tuxerr.KindNetwork,
			fmt.Errorf("status %d", resp.StatusCode), "failed to download %s", url)
	}

	return resp.Body, nil
}
