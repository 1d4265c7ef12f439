package proxy

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"container-tracker/internal/core/logger"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"
)

// ForwardingProxy is a local unauthenticated proxy that tunnels every connection
// through an upstream proxy with credentials. Chromium cannot take proxy
// credentials on the command line, so browser sessions point at this instead.
type ForwardingProxy struct {
	localPort   int
	upstreamURL *url.URL
	server      *http.Server
	listener    net.Listener
	logger      *zap.Logger
	mu          sync.Mutex
	running     bool
}

// NewForwardingProxy creates a forwarder for the configured upstream proxy.
func NewForwardingProxy(settings Settings) (*ForwardingProxy, error) {
	if !settings.HasProxy() {
		return nil, ErrProxyDisabled
	}

	parsed, err := url.Parse(settings.FullURL())
	if err != nil {
		return nil, fmt.Errorf("invalid upstream proxy URL: %w", err)
	}

	return &ForwardingProxy{
		upstreamURL: parsed,
		logger:      logger.Get(),
	}, nil
}

// Start launches the local proxy server on a random loopback port and
// returns its address for Chromium. Calling Start on a running proxy is a no-op.
func (fp *ForwardingProxy) Start() (string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.running {
		return fp.LocalAddr(), nil
	}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Verbose = false

	var proxyAuth string
	if fp.upstreamURL.User != nil {
		username := fp.upstreamURL.User.Username()
		password, _ := fp.upstreamURL.User.Password()
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		proxyAuth = "Basic " + credentials
	}

	upstreamHost := fp.upstreamURL.Host
	log := fp.logger

	dialThroughProxy := func(network, addr string) (net.Conn, error) {
		log.Debug("Tunneling through upstream proxy",
			zap.String("network", network),
			zap.String("target", addr),
			zap.String("upstream", upstreamHost),
		)

		conn, err := net.DialTimeout("tcp", upstreamHost, 30*time.Second)
		if err != nil {
			log.Error("Failed to dial upstream proxy",
				zap.String("upstream", upstreamHost),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to connect to upstream proxy %s: %w", upstreamHost, err)
		}

		connectReq := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n", addr, addr)
		if proxyAuth != "" {
			connectReq += fmt.Sprintf("Proxy-Authorization: %s\r\n", proxyAuth)
		}
		connectReq += "\r\n"

		if _, err := conn.Write([]byte(connectReq)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to send CONNECT request: %w", err)
		}

		br := bufio.NewReader(conn)
		resp, err := http.ReadResponse(br, nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to read CONNECT response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			conn.Close()
			log.Error("Upstream proxy rejected CONNECT",
				zap.Int("status", resp.StatusCode),
				zap.String("target", addr),
			)
			return nil, fmt.Errorf("upstream proxy CONNECT failed with status: %d", resp.StatusCode)
		}

		log.Debug("CONNECT tunnel established", zap.String("target", addr))
		return conn, nil
	}

	proxy.ConnectDial = dialThroughProxy
	proxy.Tr = &http.Transport{
		Dial: dialThroughProxy,
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to find available port: %w", err)
	}
	fp.listener = listener
	fp.localPort = listener.Addr().(*net.TCPAddr).Port

	fp.server = &http.Server{
		Handler: proxy,
	}

	fp.logger.Debug("Starting local proxy forwarder",
		zap.String("local_addr", fp.LocalAddr()),
		zap.String("upstream", upstreamHost),
	)

	go func() {
		if err := fp.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			fp.logger.Error("Local proxy server error", zap.Error(err))
		}
	}()

	fp.running = true

	return fp.LocalAddr(), nil
}

// Stop gracefully shuts down the local proxy server.
func (fp *ForwardingProxy) Stop() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if !fp.running {
		return nil
	}

	fp.logger.Debug("Stopping local proxy forwarder")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := fp.server.Shutdown(ctx); err != nil {
		fp.listener.Close()
		fp.running = false
		return fmt.Errorf("failed to stop local proxy: %w", err)
	}

	fp.running = false
	return nil
}

// LocalAddr returns the local proxy address for Chromium to connect to.
// Returns format "http://127.0.0.1:<port>"
func (fp *ForwardingProxy) LocalAddr() string {
	return fmt.Sprintf("http://127.0.0.1:%d", fp.localPort)
}

// IsRunning returns whether the proxy server is currently running.
func (fp *ForwardingProxy) IsRunning() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.running
}
