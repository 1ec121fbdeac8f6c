package safehttp

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config - Fetch client configuration. All values are fixed constants from
// the application config, never derived from the environment at call time.
type Config struct {
	ConnectTimeout int // seconds
	ReadTimeout    int // seconds
	UserAgent      string
	MaxRedirects   int
	MaxBodyBytes   int64
	MaxRetries     int
	RetryBackoff   int // base delay in seconds, grows linearly per attempt
}

// FetchRequest - A single fetch operation. Immutable once constructed;
// redirect hops build new URLs internally, the request itself is never
// mutated.
type FetchRequest struct {
	Method  string // http.MethodGet or http.MethodHead
	URL     string
	Headers map[string]string
}

// Result - Terminal response of a fetch. Constructed only after the
// connecting address passed validation; there is no path that returns
// body content from an unvalidated destination.
type Result struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	FinalURL   string
}

// Client performs HTTP requests against caller-supplied hostnames without
// becoming an SSRF vector: every hop resolves the hostname fresh, validates
// the candidate addresses, and pins the socket connection to the validated
// address while the request URL keeps the hostname for virtual-hosting
// (Host header and SNI).
type Client struct {
	resolver     Resolver
	classify     func(netip.Addr) bool
	dialContext  func(ctx context.Context, network, addr string) (net.Conn, error)
	sleep        func(ctx context.Context, d time.Duration) error
	userAgent    string
	readTimeout  time.Duration
	maxRedirects int
	maxBodyBytes int64
	maxRetries   int
	retryBackoff time.Duration
}

// NewClient creates a fetch client using the system resolver.
func NewClient(cfg *Config) *Client {
	zap.S().Debugw("creating safe HTTP client",
		"connect_timeout", cfg.ConnectTimeout,
		"read_timeout", cfg.ReadTimeout,
		"max_redirects", cfg.MaxRedirects,
		"max_body_bytes", cfg.MaxBodyBytes,
		"max_retries", cfg.MaxRetries)

	dialer := &net.Dialer{Timeout: time.Duration(cfg.ConnectTimeout) * time.Second}

	return &Client{
		resolver:     SystemResolver(),
		classify:     ClassifyAddr,
		dialContext:  dialer.DialContext,
		sleep:        sleepCtx,
		userAgent:    cfg.UserAgent,
		readTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		maxRedirects: cfg.MaxRedirects,
		maxBodyBytes: cfg.MaxBodyBytes,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: time.Duration(cfg.RetryBackoff) * time.Second,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Get fetches a URL with the GET method.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Result, error) {
	return c.Do(ctx, FetchRequest{Method: http.MethodGet, URL: rawURL, Headers: headers})
}

// Head fetches a URL with the HEAD method. No body is ever read.
func (c *Client) Head(ctx context.Context, rawURL string, headers map[string]string) (*Result, error) {
	return c.Do(ctx, FetchRequest{Method: http.MethodHead, URL: rawURL, Headers: headers})
}

// Do performs the fetch with bounded retries. Transient transport failures
// retry the entire fetch including DNS re-resolution: the failure may be
// address-specific and a fresh resolution can select a different candidate.
// The redirect budget resets on each attempt.
func (c *Client) Do(ctx context.Context, req FetchRequest) (*Result, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, fetchErr(ReasonInvalidHostname, "unsupported method %q", req.Method)
	}

	var lastErr *FetchError
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBackoff * time.Duration(attempt)
			zap.S().Debugw("retrying fetch", "url", req.URL, "attempt", attempt, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, fetchErr(ReasonTimeout, "cancelled during retry backoff")
			}
		}

		res, ferr := c.fetchOnce(ctx, req)
		if ferr == nil {
			return res, nil
		}
		lastErr = ferr
		if !retryable(ferr.Reason) {
			return nil, ferr
		}
	}
	return nil, lastErr
}

// retryable reports whether a failure may be transient. Trust violations
// and protocol-level failures never retry.
func retryable(r FailureReason) bool {
	return r == ReasonConnectionError || r == ReasonTimeout
}

// fetchOnce drives one full hop chain with a fresh redirect budget.
func (c *Client) fetchOnce(ctx context.Context, req FetchRequest) (*Result, *FetchError) {
	currentURL := req.URL
	budget := c.maxRedirects

	for {
		res, location, ferr := c.doHop(ctx, req.Method, currentURL, req.Headers)
		if ferr != nil {
			return nil, ferr
		}
		if location == "" {
			return res, nil
		}

		budget--
		if budget < 0 {
			return nil, fetchErr(ReasonTooManyRedirects, "exceeded %d redirects", c.maxRedirects)
		}
		zap.S().Debugw("following redirect", "from", currentURL, "to", location, "budget", budget)
		currentURL = location
	}
}

// doHop performs one request/response exchange. Returns a non-empty
// location when the response is a redirect that should be followed; the
// next hop re-resolves and re-validates from scratch.
func (c *Client) doHop(ctx context.Context, method, rawURL string, extra map[string]string) (*Result, string, *FetchError) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, "", fetchErr(ReasonInvalidHostname, "missing hostname in %q", rawURL)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	hostname := u.Hostname()

	addr, ferr := c.resolveAndValidate(ctx, hostname)
	if ferr != nil {
		return nil, "", ferr
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, "", fetchErr(ReasonInvalidHostname, "building request: %v", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	for k, v := range extra {
		if http.CanonicalHeaderKey(k) == "Host" {
			continue // Host always tracks the target hostname
		}
		httpReq.Header.Set(k, v)
	}

	transport := c.pinnedTransport(addr, portFor(u))
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   c.readTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, "", transportFailure(err)
	}
	defer resp.Body.Close()

	var body []byte
	if method == http.MethodGet {
		// Read at most one byte past the cap so oversize bodies are
		// detected without buffering them.
		body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
		if err != nil {
			return nil, "", transportFailure(err)
		}
		if int64(len(body)) > c.maxBodyBytes {
			return nil, "", fetchErr(ReasonResponseTooLarge, "body exceeds %d bytes", c.maxBodyBytes)
		}
	}

	if isRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		if location != "" {
			next, err := u.Parse(location)
			if err != nil {
				return nil, "", fetchErr(ReasonInvalidHostname, "unparseable redirect location %q", location)
			}
			return nil, next.String(), nil
		}
		// Redirect without a Location header: terminal response.
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FinalURL:   u.String(),
	}, "", nil
}

// resolveAndValidate resolves the hostname and returns the first candidate
// address that classifies as public. An IP-literal hostname is classified
// directly without resolution.
func (c *Client) resolveAndValidate(ctx context.Context, hostname string) (netip.Addr, *FetchError) {
	if addr, err := netip.ParseAddr(hostname); err == nil {
		if !c.classify(addr) {
			zap.S().Debugw("blocked non-public destination", "host", hostname)
			return netip.Addr{}, fetchErr(ReasonBlockedAddress, "destination not publicly routable")
		}
		return addr.Unmap(), nil
	}

	candidates, err := c.resolver.LookupHost(ctx, hostname)
	if err != nil || len(candidates) == 0 {
		return netip.Addr{}, fetchErr(ReasonDNSFailure, "could not resolve %q", hostname)
	}

	for _, literal := range candidates {
		addr, err := netip.ParseAddr(literal)
		if err != nil {
			continue
		}
		if c.classify(addr) {
			return addr.Unmap(), nil
		}
	}

	zap.S().Debugw("blocked non-public destination", "host", hostname, "candidates", len(candidates))
	return netip.Addr{}, fetchErr(ReasonBlockedAddress, "destination not publicly routable")
}

// pinnedTransport dials the validated address regardless of the hostname
// in the request URL. DNS resolution and the socket target are pinned to
// the same validated value, so a rebinding between validation and connect
// cannot redirect the connection. The URL keeps the hostname, which gives
// correct Host header and TLS SNI for virtual hosting.
func (c *Client) pinnedTransport(addr netip.Addr, port string) *http.Transport {
	pinned := net.JoinHostPort(addr.String(), port)
	return &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			return c.dialContext(ctx, network, pinned)
		},
		// Certificate problems are a finding for the TLS probe, not a
		// fetch failure.
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		DisableKeepAlives: true,
	}
}

func portFor(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// transportFailure classifies a transport-level error as a timeout or a
// generic connection failure.
func transportFailure(err error) *FetchError {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fetchErr(ReasonTimeout, "request timed out")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fetchErr(ReasonTimeout, "request timed out")
	}
	return fetchErr(ReasonConnectionError, "%v", err)
}
