package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_PassThrough(t *testing.T) {
	mock := NewMock()
	mock.SetPrice("WINFUT", 128000, 128350)
	g := NewGuard(mock, time.Second, nil, zerolog.Nop())

	tick, err := g.Tick(context.Background(), "WINFUT")
	require.NoError(t, err)
	assert.Equal(t, 128350.0, tick.Last)

	open, err := g.DailyOpen(context.Background(), "WINFUT")
	require.NoError(t, err)
	assert.Equal(t, 128000.0, open.Open)
}

func TestGuard_TimeoutAbandonsCall(t *testing.T) {
	mock := NewMock()
	mock.SetPrice("WINFUT", 128000, 128350)
	mock.SetDelay(200 * time.Millisecond)
	g := NewGuard(mock, 20*time.Millisecond, nil, zerolog.Nop())

	start := time.Now()
	_, err := g.Tick(context.Background(), "WINFUT")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// The caller must return at the ceiling, not wait for the worker.
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestGuard_ReconnectsAfterTimeout(t *testing.T) {
	mock := NewMock()
	mock.SetPrice("WINFUT", 128000, 128350)
	mock.SetDelay(100 * time.Millisecond)
	g := NewGuard(mock, 20*time.Millisecond, nil, zerolog.Nop())

	_, err := g.Tick(context.Background(), "WINFUT")
	require.ErrorIs(t, err, ErrTimeout)

	// Next call must reset the connection first.
	mock.SetDelay(0)
	time.Sleep(150 * time.Millisecond) // let the abandoned worker drain
	_, err = g.Tick(context.Background(), "WINFUT")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Reconnects())
}

func TestGuard_DenyList(t *testing.T) {
	mock := NewMock()
	mock.SetPrice("BAD11", 10, 11)
	g := NewGuard(mock, time.Second, []string{"BAD11"}, zerolog.Nop())

	_, err := g.Tick(context.Background(), "BAD11")
	assert.ErrorIs(t, err, ErrDenied)
	assert.True(t, g.Denied("BAD11"))
	assert.False(t, g.Denied("WINFUT"))
}

func TestGuard_ListFiltersDeniedCodes(t *testing.T) {
	mock := NewMock()
	mock.SetPrice("WING26", 128000, 128350)
	mock.SetPrice("WINQ25", 128000, 128350)
	g := NewGuard(mock, time.Second, []string{"WINQ25"}, zerolog.Nop())

	codes, err := g.ListInstruments(context.Background(), "WIN")
	require.NoError(t, err)
	assert.Equal(t, []string{"WING26"}, codes)
}

func TestGuard_ContextCancel(t *testing.T) {
	mock := NewMock()
	mock.SetDelay(200 * time.Millisecond)
	mock.SetPrice("WINFUT", 1, 2)
	g := NewGuard(mock, time.Second, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := g.Tick(ctx, "WINFUT")
	assert.True(t, errors.Is(err, context.Canceled))
}
