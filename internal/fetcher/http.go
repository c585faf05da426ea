package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ecobuild/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration

	// RatePerSecond and Burst bound requests across all hosts. Zero
	// RatePerSecond disables limiting.
	RatePerSecond float64
	Burst         int

	Retry resilience.RetryConfig
}

// HTTPFetcher implements Fetcher over net/http with a shared rate limit and
// retry on 429, 5xx and network timeouts.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ecobuild-refdata/1.0"
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "http_get")
	}

	limiter := rate.NewLimiter(rate.Inf, opts.Burst)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: limiter,
	}
}

// get issues a GET, retrying transient failures. A 304 is returned to the
// caller as a response; any other non-200 status is an error.
func (f *HTTPFetcher) get(ctx context.Context, rawURL, etag string) (*http.Response, error) {
	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (*http.Response, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "http: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "http: create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "http: get %s", rawURL)
		}

		switch {
		case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusNotModified && etag != "":
			return resp, nil
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			_ = resp.Body.Close()
			return nil, resilience.NewTransientError(
				eris.Errorf("http: status %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
		default:
			_ = resp.Body.Close()
			return nil, eris.Errorf("http: unexpected status %d from %s", resp.StatusCode, rawURL)
		}
	})
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, rawURL, "")
	if err != nil {
		return nil, eris.Wrap(err, "http: download")
	}
	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	return writeFile(path, body)
}

// DownloadIfChanged fetches the URL unless the server reports etag is still
// current. It returns the new ETag and whether a body was written.
func (f *HTTPFetcher) DownloadIfChanged(ctx context.Context, rawURL, etag, path string) (string, bool, error) {
	resp, err := f.get(ctx, rawURL, etag)
	if err != nil {
		return "", false, eris.Wrap(err, "http: download if changed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotModified {
		zap.L().Debug("http: not modified", zap.String("url", rawURL), zap.String("etag", etag))
		return etag, false, nil
	}

	if _, err := writeFile(path, resp.Body); err != nil {
		return "", false, err
	}
	return resp.Header.Get("ETag"), true, nil
}
