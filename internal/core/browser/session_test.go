package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSession struct {
	closes int
}

func (s *countingSession) Navigate(string) error                   { return nil }
func (s *countingSession) Fill(string, string) error               { return nil }
func (s *countingSession) Click(string) error                      { return nil }
func (s *countingSession) Settle(time.Duration) error              { return nil }
func (s *countingSession) Text(string) (string, error)             { return "", nil }
func (s *countingSession) VisibleText(string) (string, bool)       { return "", false }
func (s *countingSession) Rows(string, string) ([][]string, error) { return nil, nil }
func (s *countingSession) Close() error {
	s.closes++
	return nil
}

type stubLauncher struct {
	session *countingSession
	err     error
}

func (l *stubLauncher) Open(ctx context.Context) (Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

// TestWithSession_ClosesOnSuccess verifies the session is closed once after fn returns.
func TestWithSession_ClosesOnSuccess(t *testing.T) {
	l := &stubLauncher{session: &countingSession{}}

	got, err := WithSession(context.Background(), l, func(s Session) (string, error) {
		return "SAILING", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "SAILING", got)
	assert.Equal(t, 1, l.session.closes)
}

// TestWithSession_ClosesOnError verifies the session is closed once when fn fails.
func TestWithSession_ClosesOnError(t *testing.T) {
	l := &stubLauncher{session: &countingSession{}}
	parseErr := errors.New("status cell missing")

	_, err := WithSession(context.Background(), l, func(s Session) (int, error) {
		return 0, parseErr
	})

	assert.ErrorIs(t, err, parseErr)
	assert.Equal(t, 1, l.session.closes)
}

// TestWithSession_ClosesOnPanic verifies the session is closed once and the panic propagates.
func TestWithSession_ClosesOnPanic(t *testing.T) {
	l := &stubLauncher{session: &countingSession{}}

	assert.PanicsWithValue(t, "unexpected layout", func() {
		_, _ = WithSession(context.Background(), l, func(s Session) (int, error) {
			panic("unexpected layout")
		})
	})
	assert.Equal(t, 1, l.session.closes)
}

// TestWithSession_OpenFailure verifies fn is not called when the browser cannot start.
func TestWithSession_OpenFailure(t *testing.T) {
	l := &stubLauncher{err: errors.New("chromium not found")}
	called := false

	_, err := WithSession(context.Background(), l, func(s Session) (int, error) {
		called = true
		return 0, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open browser session")
	assert.False(t, called)
}
