package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxBodySnippet bounds how much of an error body ends up in a Failure.
const maxBodySnippet = 512

// HTTPProber probes a provider with a single HTTP request. Any 2xx
// response is a success; other responses become a *Failure carrying the
// status code, a body snippet and any Retry-After delay.
type HTTPProber struct {
	// Client performs the request. Default: http.DefaultClient.
	Client *http.Client

	// Method is the request method. Default: GET.
	Method string

	// URL is the probe endpoint, typically a model listing endpoint.
	URL string

	// Header is added to every request, e.g. an Authorization header.
	Header http.Header

	// now is injectable for testing Retry-After dates.
	now func() time.Time
}

// NewHTTPProber creates an HTTP prober for url.
func NewHTTPProber(url string, header http.Header) *HTTPProber {
	return &HTTPProber{URL: url, Header: header}
}

// Probe issues the request and classifies the response.
func (p *HTTPProber) Probe(ctx context.Context) error {
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	for key, values := range p.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		message += ": " + snippet
	}

	return &Failure{
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), p.clock()),
		Message:    message,
	}
}

func (p *HTTPProber) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// ParseRetryAfter parses a Retry-After header value, either delay seconds
// or an HTTP date, relative to now. It returns 0 for empty, malformed or
// past values.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
