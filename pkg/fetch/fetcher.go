// Package fetch is the HTTP boundary between the aggregator and package
// sources.
//
// A [Fetcher] issues one request per call and reports the outcome as a
// [Result]; it never retries. Only a completed transport with status 200 is
// a success. Connections resolve hosts through an in-process DNS cache and,
// when enabled, every source host gets its own circuit breaker so a vendor
// that keeps failing is skipped quickly until it recovers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

// DefaultMaxBodySize caps response bodies read into memory.
const DefaultMaxBodySize = 32 << 20

var (
	// ErrBodyTooLarge is returned when a response exceeds the body cap.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrCircuitOpen is returned while a host's circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Result is the outcome of one request.
//
// StatusCode and Status are zero when no response arrived. Body holds the
// (capped) response body whenever one was read, including for non-200
// answers.
type Result struct {
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

// OK reports whether the transport completed and the status was 200.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// ErrorText describes a failed result as "<status> <error>". It is empty
// for successful results.
func (r Result) ErrorText() string {
	if r.OK() {
		return ""
	}
	status := r.Status
	if status == "" {
		status = "no response"
	}
	if r.Err != nil {
		return status + " " + r.Err.Error()
	}
	return status + " unexpected response status"
}

// Fetcher performs catalog and icon requests.
//
// A Fetcher is safe for concurrent use. Call Close to stop the background
// DNS refresh.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	proxy       *url.URL
	maxBodySize int64
	breakers    *breakers

	stopOnce sync.Once
	stop     chan struct{}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. It replaces the DNS-caching
// transport and ignores WithProxy and WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithProxy routes every request through the given proxy.
func WithProxy(u *url.URL) Option {
	return func(f *Fetcher) {
		f.proxy = u
	}
}

// WithMaxBodySize sets the response body cap in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithCircuitBreaker enables per-host circuit breakers.
func WithCircuitBreaker(enabled bool) Option {
	return func(f *Fetcher) {
		if enabled {
			f.breakers = newBreakers()
		} else {
			f.breakers = nil
		}
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     30 * time.Second,
		maxBodySize: DefaultMaxBodySize,
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout:   f.timeout,
			Transport: f.newTransport(),
		}
	}
	return f
}

func (f *Fetcher) newTransport() *http.Transport {
	// Create DNS cache with 5 minute refresh interval
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-f.stop:
				return
			}
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no addresses for %s", host)
			}
			return nil, fmt.Errorf("failed to dial any resolved IP: %w", lastErr)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if f.proxy != nil {
		t.Proxy = http.ProxyURL(f.proxy)
	}
	return t
}

// Close stops the background DNS refresh.
func (f *Fetcher) Close() error {
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

// Post sends form as an application/x-www-form-urlencoded POST.
func (f *Fetcher) Post(ctx context.Context, rawURL string, form url.Values, userAgent string) Result {
	return f.do(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()), userAgent)
}

// Get issues a GET request.
func (f *Fetcher) Get(ctx context.Context, rawURL, userAgent string) Result {
	return f.do(ctx, http.MethodGet, rawURL, nil, userAgent)
}

// BreakerStates reports "open" or "closed" per host that has a breaker.
// It returns nil when breakers are disabled.
func (f *Fetcher) BreakerStates() map[string]string {
	if f.breakers == nil {
		return nil
	}
	return f.breakers.states()
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string, body io.Reader, userAgent string) Result {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Result{Err: fmt.Errorf("creating request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "*/*")

	if f.breakers == nil {
		return f.roundTrip(req)
	}
	return f.breakers.call(req.URL.Host, func() Result {
		return f.roundTrip(req)
	})
}

func (f *Fetcher) roundTrip(req *http.Request) Result {
	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode, Status: resp.Status}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		res.Err = fmt.Errorf("reading body: %w", err)
		return res
	}
	if int64(len(data)) > f.maxBodySize {
		res.Err = fmt.Errorf("%w (limit %d bytes)", ErrBodyTooLarge, f.maxBodySize)
		return res
	}
	res.Body = data
	return res
}
