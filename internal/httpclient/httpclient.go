// Package httpclient builds the HTTP client used for outbound provider calls.
package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrInvalidProxy happens when the configured proxy is not a usable URL.
var ErrInvalidProxy = errors.New("invalid proxy")

// New returns a client that routes both HTTP and HTTPS traffic through proxy,
// or connects directly when proxy is empty. Proxy settings from the
// environment are ignored. No timeout is set.
func New(proxy string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	transport.Proxy = nil

	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: %q has no scheme or host", ErrInvalidProxy, proxy)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &http.Client{Transport: transport}, nil
}
