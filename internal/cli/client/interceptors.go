package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	// RefreshHeader carries a replacement token on any successful response
	RefreshHeader   = "X-New-Token"
	RequestIDHeader = "X-Request-ID"
	bearerPrefix    = "Bearer "
)

// Credentials is the session side of the request pipeline. The auth
// interceptor is its only caller on the response path.
type Credentials interface {
	// Token returns the persisted bearer token, if any
	Token() (string, bool)
	// RefreshToken persists a token handed back by the backend
	RefreshToken(token string)
	// Invalidate drops the persisted token and the in-memory user
	Invalidate()
}

// AuthTransport attaches the bearer credential to every outbound request and
// applies token refresh and invalidation to every inbound response.
type AuthTransport struct {
	Base        http.RoundTripper
	Credentials Credentials
	Logger      zerolog.Logger
}

// RoundTrip implements http.RoundTripper
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Credentials != nil {
		if token, ok := t.Credentials.Token(); ok {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", bearerPrefix+token)
		}
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil || t.Credentials == nil {
		return resp, err
	}

	if newToken := resp.Header.Get(RefreshHeader); newToken != "" {
		t.Logger.Debug().Str("path", req.URL.Path).Msg("Token refreshed by backend")
		t.Credentials.RefreshToken(newToken)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Logger.Info().Str("path", req.URL.Path).Msg("Session rejected by backend, clearing credentials")
		t.Credentials.Invalidate()
	}

	return resp, nil
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// LoggingTransport tags each request with a request ID and user agent and
// logs its outcome at debug level.
type LoggingTransport struct {
	Base      http.RoundTripper
	UserAgent string
	Logger    zerolog.Logger
}

// RoundTrip implements http.RoundTripper
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = ulid.Make().String()
		req.Header.Set(RequestIDHeader, requestID)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.Logger.Debug().
			Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", duration).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("request %s: %w", requestID, err)
	}

	t.Logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("HTTP request")

	return resp, nil
}
