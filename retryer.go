package tap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// RateLimit requests are allowed per RateWindow, process wide.
	RateLimit  = 250
	RateWindow = 60 * time.Second

	DefaultTries         = 3
	DefaultRetryInterval = 10 * time.Second
	DefaultTimeout       = 5 * time.Minute
)

// sharedLimiter spaces requests evenly so that no window of RateWindow holds
// more than RateLimit requests.
var sharedLimiter = rate.NewLimiter(rate.Every(RateWindow/RateLimit), 1)

type DoerOptions struct {
	// Client defaults to an instrumented client with DefaultTimeout.
	Client *http.Client
	// Limiter defaults to the process wide limiter.
	Limiter *rate.Limiter
	// Tries is the total number of attempts per request, default DefaultTries.
	Tries int
	// Interval is the fixed delay between attempts, default DefaultRetryInterval.
	// Negative means no delay.
	Interval time.Duration
	Log      *slog.Logger
}

// Doer executes requests under the shared rate budget, retrying transport
// failures and 5xx/429 responses with a fixed delay. Any other non-2xx status
// is returned as *HTTPError.
type Doer struct {
	client   *http.Client
	limiter  *rate.Limiter
	tries    int
	interval time.Duration
	log      *slog.Logger
}

func NewDoer(opts DoerOptions) *Doer {
	d := &Doer{
		client:   opts.Client,
		limiter:  opts.Limiter,
		tries:    opts.Tries,
		interval: opts.Interval,
		log:      opts.Log,
	}
	if d.client == nil {
		d.client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport), Timeout: DefaultTimeout}
	}
	if d.limiter == nil {
		d.limiter = sharedLimiter
	}
	if d.tries <= 0 {
		d.tries = DefaultTries
	}
	if d.interval == 0 {
		d.interval = DefaultRetryInterval
	} else if d.interval < 0 {
		d.interval = 0
	}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

func DefaultRetryer(log *slog.Logger) *Doer {
	return NewDoer(DoerOptions{Log: log})
}

func (d *Doer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(ctx)
		req.Header.Set("Accept-Encoding", "gzip")
	}

	for attempt := 1; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := d.attempt(req)
		if err == nil {
			return resp, nil
		}

		var httpErr *HTTPError
		retryable := ctx.Err() == nil && (!errors.As(err, &httpErr) || retryableStatus(httpErr.StatusCode))
		if !retryable {
			return nil, err
		}
		if attempt >= d.tries {
			if httpErr != nil {
				httpErr.Attempts = attempt
			}
			return nil, err
		}

		d.log.Warn("request failed, retrying", "url", req.URL.Redacted(), "attempt", attempt, "tries", d.tries, "err", err)
		if err := sleep(ctx, d.interval); err != nil {
			return nil, err
		}
	}
}

func (d *Doer) attempt(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}

	resp, err := d.client.Do(r)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			Attempts:   1,
		}
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (b *gzipBody) Close() error {
	zerr := b.Reader.Close()
	if err := b.body.Close(); err != nil {
		return err
	}
	return zerr
}

func decodeBody(resp *http.Response) error {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return err
	}
	resp.Body = &gzipBody{Reader: zr, body: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}
