// Package browser owns headless Chromium sessions used by scraping adapters.
package browser

import (
	"context"
	"fmt"
	"time"

	"container-tracker/internal/core/logger"

	"go.uber.org/zap"
)

// Session is one isolated browser page. Callers must Close it.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(url string) error
	// Fill replaces the value of the input matching selector.
	Fill(selector, value string) error
	// Click clicks the element matching selector.
	Click(selector string) error
	// Settle waits until the page has no network activity for the given duration.
	Settle(idle time.Duration) error
	// Text returns the text of the first element matching selector.
	Text(selector string) (string, error)
	// VisibleText returns the element text if it exists and is visible.
	VisibleText(selector string) (string, bool)
	// Rows returns the cell texts of every row matching rowSelector.
	Rows(rowSelector, cellSelector string) ([][]string, error)
	// Close releases the page and the browser process. Safe to call more than once.
	Close() error
}

// Launcher opens browser sessions.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// WithSession opens a session, runs fn and closes the session on every exit path,
// including a panic inside fn. The panic is re-raised after Close.
func WithSession[T any](ctx context.Context, l Launcher, fn func(Session) (T, error)) (T, error) {
	var zero T

	s, err := l.Open(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Get().Warn("Failed to close browser session", zap.Error(cerr))
		}
	}()

	return fn(s)
}
