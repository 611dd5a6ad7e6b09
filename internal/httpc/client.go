// Package httpc provides HTTP clients with sensible defaults for talking to
// the camera device. Use this instead of http.DefaultClient to ensure timeouts
// are set.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 5 * time.Second
	DefaultConnectTimeout  = 3 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second

	// DefaultUserAgent is what the camera firmware expects to see.
	DefaultUserAgent = "Mozilla/5.0"
)

// NewTransport returns a transport tuned for a single small device on the LAN.
func NewTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient creates a new HTTP client with the specified overall timeout.
// A non-empty userAgent is set on every request that does not carry one.
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var rt http.RoundTripper = NewTransport()
	if userAgent != "" {
		rt = &uaTransport{base: rt, ua: userAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// uaTransport stamps the User-Agent header on outgoing requests.
type uaTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}
