// Package fetch implements the HTTP transport capability consumed by
// the crawl workers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// ErrOffOriginRedirect is returned when following a redirect would
// leave the crawl origin. The redirect target's body is never fetched.
var ErrOffOriginRedirect = errors.New("redirect left the crawl origin")

// TransportError wraps network-level failures (DNS, connect, timeout).
// These are the retryable class of fetch errors.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is the transport's answer for one URL. FinalURL reflects
// any followed same-origin redirects; both URLs count as visited.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   urlutil.URL
	Redirected bool
}

// ContentType returns the declared Content-Type header, if any.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Fetcher is the capability the crawl engine consumes. Implementations
// must resolve redirects to a final URL before returning.
type Fetcher interface {
	Fetch(ctx context.Context, u urlutil.URL) (*Response, error)
}

// Options tune the HTTP client.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	ProxyURL     string

	// AllowRedirect vets every redirect hop. Returning false aborts the
	// chain with ErrOffOriginRedirect before the target is requested.
	AllowRedirect func(u urlutil.URL) bool
}

// Client fetches resources over HTTP(S).
type Client struct {
	http *http.Client
	opts Options
}

// NewClient builds the HTTP transport.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 16 * 1024 * 1024
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if opts.AllowRedirect == nil {
				return nil
			}
			target, err := urlutil.Parse(req.URL.String())
			if err != nil || !opts.AllowRedirect(target) {
				return ErrOffOriginRedirect
			}
			return nil
		},
	}

	return &Client{http: client, opts: opts}, nil
}

// Fetch retrieves u, following same-origin redirects. Non-2xx statuses
// are not errors at this layer; callers inspect Response.StatusCode.
func (c *Client) Fetch(ctx context.Context, u urlutil.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrOffOriginRedirect) {
			return nil, ErrOffOriginRedirect
		}
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}

	finalURL, err := urlutil.Parse(resp.Request.URL.String())
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   finalURL,
		Redirected: finalURL.Key() != u.Key(),
	}, nil
}

// Retryable reports whether a fetch outcome is a transient failure
// worth another attempt: transport errors and 5xx statuses qualify,
// 4xx and off-origin redirects are terminal.
func Retryable(resp *Response, err error) bool {
	if err != nil {
		var te *TransportError
		return errors.As(err, &te)
	}
	return resp.StatusCode >= 500
}
