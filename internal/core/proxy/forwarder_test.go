package proxy

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startUpstream runs a minimal CONNECT proxy that requires the given credentials.
func startUpstream(t *testing.T, user, pass string) (int, *atomic.Int32) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	var tunnels atomic.Int32

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				br := bufio.NewReader(conn)
				req, err := http.ReadRequest(br)
				if err != nil || req.Method != http.MethodConnect {
					return
				}
				if req.Header.Get("Proxy-Authorization") != want {
					fmt.Fprint(conn, "HTTP/1.1 407 Proxy Authentication Required\r\nContent-Length: 0\r\n\r\n")
					return
				}
				target, err := net.Dial("tcp", req.Host)
				if err != nil {
					fmt.Fprint(conn, "HTTP/1.1 502 Bad Gateway\r\nContent-Length: 0\r\n\r\n")
					return
				}
				defer target.Close()
				tunnels.Add(1)
				fmt.Fprint(conn, "HTTP/1.1 200 Connection established\r\n\r\n")
				go io.Copy(target, br)
				io.Copy(conn, target)
			}(conn)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, &tunnels
}

func clientVia(t *testing.T, localAddr string) *http.Client {
	t.Helper()
	u, err := url.Parse(localAddr)
	require.NoError(t, err)
	return &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(u)}}
}

// TestNewForwardingProxy_Disabled verifies a forwarder needs an enabled proxy.
func TestNewForwardingProxy_Disabled(t *testing.T) {
	_, err := NewForwardingProxy(Settings{Enabled: false, Hostname: "proxy.local", Port: 3128})
	assert.ErrorIs(t, err, ErrProxyDisabled)
}

// TestForwardingProxy_TunnelsWithCredentials verifies requests reach the target through the authenticated upstream.
func TestForwardingProxy_TunnelsWithCredentials(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tracking page"))
	}))
	defer target.Close()

	port, tunnels := startUpstream(t, "scraper", "s3cret")

	fp, err := NewForwardingProxy(Settings{Enabled: true, Hostname: "127.0.0.1", Port: port, Username: "scraper", Password: "s3cret"})
	require.NoError(t, err)

	addr, err := fp.Start()
	require.NoError(t, err)
	defer fp.Stop()
	assert.True(t, fp.IsRunning())

	again, err := fp.Start()
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	resp, err := clientVia(t, addr).Get(target.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tracking page", string(body))
	assert.GreaterOrEqual(t, tunnels.Load(), int32(1))
}

// TestForwardingProxy_UpstreamRejects verifies wrong credentials never reach the target.
func TestForwardingProxy_UpstreamRejects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tracking page"))
	}))
	defer target.Close()

	port, tunnels := startUpstream(t, "scraper", "s3cret")

	fp, err := NewForwardingProxy(Settings{Enabled: true, Hostname: "127.0.0.1", Port: port, Username: "scraper", Password: "wrong"})
	require.NoError(t, err)

	addr, err := fp.Start()
	require.NoError(t, err)
	defer fp.Stop()

	resp, err := clientVia(t, addr).Get(target.URL)
	if err == nil {
		defer resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	}
	assert.Zero(t, tunnels.Load())
}

// TestForwardingProxy_Stop verifies Stop is idempotent.
func TestForwardingProxy_Stop(t *testing.T) {
	fp, err := NewForwardingProxy(Settings{Enabled: true, Hostname: "127.0.0.1", Port: 1})
	require.NoError(t, err)

	require.NoError(t, fp.Stop())

	_, err = fp.Start()
	require.NoError(t, err)
	require.NoError(t, fp.Stop())
	assert.False(t, fp.IsRunning())
	require.NoError(t, fp.Stop())
}
