// Package feed defines the boundary to the external price data source and
// the guarded wrapper that protects the engine from its failure modes.
package feed

import (
	"context"
	"errors"
	"time"

	"MacroPulse/internal/model"
)

var (
	// ErrTimeout is returned when an external call exceeded the guard
	// ceiling and was abandoned.
	ErrTimeout = errors.New("feed: call timed out")
	// ErrDenied is returned for instruments on the deny-list.
	ErrDenied = errors.New("feed: instrument denied")
	// ErrNoData is returned when the source answered but had nothing.
	ErrNoData = errors.New("feed: no data")
)

// Source is the contract the engine consumes from the broker/data adapter.
// Implementations must treat a nil-safe, per-call contract: no call may
// retain references into the engine's data.
type Source interface {
	// SelectInstrument checks that the instrument exists and is visible.
	SelectInstrument(ctx context.Context, code string) (bool, error)
	// Tick returns the latest quote, or ErrNoData.
	Tick(ctx context.Context, code string) (*model.Tick, error)
	// DailyOpen returns the current session's daily candle, or ErrNoData.
	DailyOpen(ctx context.Context, code string) (*model.Candle, error)
	// Candles returns up to count bars ending at the most recent one.
	Candles(ctx context.Context, code string, tf model.Timeframe, count int) ([]model.Candle, error)
	// CandlesRange returns bars within [start, end].
	CandlesRange(ctx context.Context, code string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error)
	// ListInstruments enumerates visible instrument codes by prefix.
	ListInstruments(ctx context.Context, prefix string) ([]string, error)
	Connected() bool
	Reconnect(ctx context.Context) error
}
