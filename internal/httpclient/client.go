package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/loadcli/internal/tracing"
)

// RequestBuilder produces GET requests carrying a fixed set of headers.
type RequestBuilder struct {
	headers   http.Header
	propagate bool
}

// NewRequestBuilder validates headers once so Build never fails on them.
func NewRequestBuilder(headers map[string]string) (*RequestBuilder, error) {
	h := http.Header{}
	for key, value := range headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(trimmedKey, "\r\n: ") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		h.Set(canonicalKey, value)
	}
	return &RequestBuilder{headers: h}, nil
}

// WithPropagation makes Build inject W3C trace context from the request
// context into every request.
func (b *RequestBuilder) WithPropagation(enabled bool) *RequestBuilder {
	b.propagate = enabled
	return b
}

func (b *RequestBuilder) Build(ctx context.Context, target *url.URL) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if target == nil {
		return nil, errors.New("target cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = b.headers.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}
	return req, nil
}

// NewClient returns a client tuned for one logical connection: a private
// transport that keeps up to idlePerHost sockets alive between requests.
// HTTP/2 is not attempted so every connection maps to its own socket.
func NewClient(timeout time.Duration, idlePerHost int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if idlePerHost < 1 {
		idlePerHost = 1
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     false,
		MaxIdleConns:          idlePerHost,
		MaxIdleConnsPerHost:   idlePerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		// Redirects are reported as their 3xx status.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
