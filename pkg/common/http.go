package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version returns the embedded release version.
func Version() string {
	return strings.TrimSpace(version)
}

type headerTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip sets the User-Agent on a clone of req before delegating.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client that identifies itself as DayAhead and
// gives up after timeout.
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &headerTransport{
			transport: http.DefaultTransport,
			userAgent: "DayAhead/" + Version(),
		},
		Timeout: timeout,
	}
}
