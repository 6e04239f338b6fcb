// Package upstream talks to the PowerDNS authoritative API on behalf of the
// gateway, using the gateway's own credential regardless of which client
// token was presented.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/allisson/pdns-gateway/internal/errors"
)

// Response is the raw upstream reply, before classification.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Client proxies requests to the PowerDNS API.
type Client interface {
	Do(ctx context.Context, method, path string, query url.Values, body []byte) (*Response, error)
}

// Coordinates are the upstream endpoint and credential used for one request.
// The base URL must carry the scheme and host only; request paths are
// appended as-is.
type Coordinates struct {
	BaseURL   string
	APIToken  string
	VerifySSL bool
}

// CoordinatesFunc supplies the coordinates for the next request. The gateway
// backs it with the current policy snapshot, so a reloaded document changes
// the upstream target and credential without restarting.
type CoordinatesFunc func() Coordinates

// StaticCoordinates returns a CoordinatesFunc for a fixed endpoint.
func StaticCoordinates(baseURL, apiToken string, verifySSL bool) CoordinatesFunc {
	return func() Coordinates {
		return Coordinates{BaseURL: baseURL, APIToken: apiToken, VerifySSL: verifySSL}
	}
}

type httpClient struct {
	coords    CoordinatesFunc
	verifying *http.Client
	insecure  *http.Client
}

// NewClient builds a PowerDNS API client. Coordinates are read per request so
// that policy reloads take effect on the next upstream call. When VerifySSL is
// false the upstream certificate is not validated, which matches deployments
// that front PowerDNS with a self-signed listener.
func NewClient(coords CoordinatesFunc, timeout time.Duration) Client {
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &httpClient{
		coords: coords,
		verifying: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   timeout,
		},
		insecure: &http.Client{
			Transport: insecureTransport,
			Timeout:   timeout,
		},
	}
}

func (c *httpClient) Do(ctx context.Context, method, path string, query url.Values, body []byte) (*Response, error) {
	coords := c.coords()

	target := strings.TrimSuffix(coords.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create upstream request")
	}
	req.Header.Set("X-API-Key", coords.APIToken)
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.verifying
	if !coords.VerifySSL {
		client = c.insecure
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnhandled, err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnhandled, err.Error())
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        payload,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
