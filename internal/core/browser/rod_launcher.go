package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"container-tracker/internal/core/logger"
	"container-tracker/internal/core/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// DefaultBlockedResources are never downloaded by scraping sessions.
var DefaultBlockedResources = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeStylesheet,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeMedia,
}

// Options configures RodLauncher.
type Options struct {
	// Headless runs Chromium without a window.
	Headless bool
	// Bin is an optional Chromium binary. Empty lets rod find or download one.
	Bin string
	// UserAgent overrides the browser user agent when set.
	UserAgent string
	// Proxy routes browser traffic through an outbound proxy.
	Proxy proxy.Settings
	// BlockedResources overrides DefaultBlockedResources. An empty, non-nil slice blocks nothing.
	BlockedResources []proto.NetworkResourceType
}

// RodLauncher starts one Chromium process per session using go-rod.
type RodLauncher struct {
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	forwarder *proxy.ForwardingProxy
}

// NewRodLauncher creates a new RodLauncher.
func NewRodLauncher(opts Options) *RodLauncher {
	if opts.BlockedResources == nil {
		opts.BlockedResources = DefaultBlockedResources
	}
	return &RodLauncher{
		opts:   opts,
		logger: logger.Get(),
	}
}

// Open launches Chromium bound to ctx and returns a session on a blank page.
func (l *RodLauncher) Open(ctx context.Context) (Session, error) {
	ln := launcher.New().
		Context(ctx).
		Headless(l.opts.Headless).
		NoSandbox(true)

	if l.opts.Bin != "" {
		ln = ln.Bin(l.opts.Bin)
	}

	if l.opts.Proxy.HasProxy() {
		addr, err := l.proxyAddr()
		if err != nil {
			return nil, err
		}
		ln = ln.Proxy(addr)
	}

	u, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(u)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s := &rodSession{browser: b, launcher: ln}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if l.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: l.opts.UserAgent}); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if len(l.opts.BlockedResources) > 0 {
		router := page.HijackRequests()
		for _, rt := range l.opts.BlockedResources {
			if err := router.Add("*", rt, blockRequest); err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to block %s requests: %w", rt, err)
			}
		}
		go router.Run()
		s.router = router
	}

	l.logger.Debug("Browser session opened",
		zap.Bool("headless", l.opts.Headless),
		zap.Bool("proxy_enabled", l.opts.Proxy.HasProxy()),
	)

	return s, nil
}

// Shutdown stops the shared proxy forwarder, if one was started.
func (l *RodLauncher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.forwarder == nil {
		return nil
	}
	return l.forwarder.Stop()
}

// proxyAddr returns the address Chromium should use. Authenticated proxies
// go through a local forwarder shared by all sessions.
func (l *RodLauncher) proxyAddr() (string, error) {
	if !l.opts.Proxy.HasCredentials() {
		return l.opts.Proxy.HostPort(), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.forwarder == nil {
		fp, err := proxy.NewForwardingProxy(l.opts.Proxy)
		if err != nil {
			return "", err
		}
		l.forwarder = fp
	}

	addr, err := l.forwarder.Start()
	if err != nil {
		return "", fmt.Errorf("failed to start proxy forwarder: %w", err)
	}
	return addr, nil
}

func blockRequest(h *rod.Hijack) {
	h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
}

// rodSession is a Session backed by a dedicated Chromium process.
type rodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	launcher *launcher.Launcher

	once     sync.Once
	closeErr error
}

func (s *rodSession) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for page load: %w", err)
	}
	return nil
}

func (s *rodSession) Fill(selector, value string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return fmt.Errorf("input %q not found: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("input %q not visible: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear input %q: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill input %q: %w", selector, err)
	}
	return nil
}

func (s *rodSession) Click(selector string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

func (s *rodSession) Settle(idle time.Duration) error {
	if err := s.page.WaitIdle(idle); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("page did not settle: %w", err)
	}
	return nil
}

func (s *rodSession) Text(selector string) (string, error) {
	el, err := s.page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %q not found: %w", selector, err)
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", selector, err)
	}
	return text, nil
}

func (s *rodSession) VisibleText(selector string) (string, bool) {
	has, el, err := s.page.Has(selector)
	if err != nil || !has {
		return "", false
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func (s *rodSession) Rows(rowSelector, cellSelector string) ([][]string, error) {
	rows, err := s.page.Elements(rowSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows %q: %w", rowSelector, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells, err := row.Elements(cellSelector)
		if err != nil {
			return nil, fmt.Errorf("failed to list cells %q: %w", cellSelector, err)
		}
		texts := make([]string, 0, len(cells))
		for _, cell := range cells {
			text, err := cell.Text()
			if err != nil {
				return nil, fmt.Errorf("failed to read cell: %w", err)
			}
			texts = append(texts, strings.TrimSpace(text))
		}
		out = append(out, texts)
	}
	return out, nil
}

func (s *rodSession) Close() error {
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}
