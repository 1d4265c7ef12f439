package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/core/proxy"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs every outbound request with its status and duration.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.Get().With(
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
	)

	log.Debug("HTTP Request Started")

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		log.Warn("HTTP Request Failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// Option customizes the client built by NewClient.
type Option func(*http.Transport)

// WithProxy routes requests through the given proxy when it is enabled.
func WithProxy(settings proxy.Settings) Option {
	return func(t *http.Transport) {
		if !settings.HasProxy() {
			return
		}
		u, err := url.Parse(settings.FullURL())
		if err != nil {
			logger.Get().Warn("Ignoring invalid proxy settings", zap.Error(err))
			return
		}
		t.Proxy = http.ProxyURL(u)
	}
}

// NewClient returns an http.Client with logging middleware.
// Query strings are never logged because they may carry API keys.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	for _, opt := range opts {
		opt(transport)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: transport,
		},
		Timeout: timeout,
	}
}
