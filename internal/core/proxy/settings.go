package proxy

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrProxyDisabled is returned when a forwarder is requested without a usable proxy.
var ErrProxyDisabled = errors.New("proxy is not enabled")

// Settings contains the outbound proxy used by scrapers.
type Settings struct {
	Enabled  bool
	Hostname string
	Port     int
	Username string
	Password string
}

// HasProxy returns true if proxy is enabled and configured.
func (p Settings) HasProxy() bool {
	return p.Enabled && p.Hostname != "" && p.Port > 0
}

// HostPort returns the proxy URL without credentials (e.g., "http://proxy.local:3128").
func (p Settings) HostPort() string {
	if !p.HasProxy() {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", p.Hostname, p.Port)
}

// HasCredentials reports whether the proxy needs authentication.
func (p Settings) HasCredentials() bool {
	return p.Username != "" && p.Password != ""
}

// FullURL returns the proxy URL with credentials, for HTTP clients.
func (p Settings) FullURL() string {
	if !p.HasProxy() {
		return ""
	}
	if p.HasCredentials() {
		return (&url.URL{Scheme: "http", User: url.UserPassword(p.Username, p.Password), Host: fmt.Sprintf("%s:%d", p.Hostname, p.Port)}).String()
	}
	return p.HostPort()
}
