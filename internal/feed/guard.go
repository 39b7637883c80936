package feed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/metrics"
	"MacroPulse/internal/model"
)

// Guard wraps a Source so that no call can block the caller beyond a fixed
// ceiling. Each call runs on a disposable goroutine; on timeout the result is
// abandoned (never joined) and the underlying connection is flagged for a
// reset before the next call, since a hung call leaves the terminal session
// in a state that cannot be trusted.
type Guard struct {
	src     Source
	timeout time.Duration
	deny    map[string]struct{}
	reset   atomic.Bool
	log     zerolog.Logger
}

// NewGuard builds a Guard with the given timeout ceiling and deny-list of
// known-problematic instrument codes.
func NewGuard(src Source, timeout time.Duration, denyList []string, log zerolog.Logger) *Guard {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deny := make(map[string]struct{}, len(denyList))
	for _, code := range denyList {
		deny[code] = struct{}{}
	}
	return &Guard{src: src, timeout: timeout, deny: deny, log: log}
}

// Denied reports whether code is on the deny-list.
func (g *Guard) Denied(code string) bool {
	_, ok := g.deny[code]
	return ok
}

type outcome[T any] struct {
	val T
	err error
}

func guarded[T any](g *Guard, ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if g.reset.CompareAndSwap(true, false) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		if err := g.src.Reconnect(rctx); err != nil {
			g.log.Warn().Err(err).Msg("feed reconnect failed")
		} else {
			metrics.FeedReconnectsTotal.Inc()
		}
		cancel()
	}

	// Buffered so the abandoned worker can always complete its send.
	ch := make(chan outcome[T], 1)
	go func() {
		v, err := fn(context.WithoutCancel(ctx))
		ch <- outcome[T]{val: v, err: err}
	}()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-time.After(g.timeout):
		metrics.FeedTimeoutsTotal.Inc()
		g.reset.Store(true)
		g.log.Warn().Str("op", op).Dur("timeout", g.timeout).Msg("feed call abandoned")
		return zero, ErrTimeout
	}
}

func (g *Guard) checkDeny(code string) error {
	if g.Denied(code) {
		metrics.FeedDeniedTotal.Inc()
		return ErrDenied
	}
	return nil
}

func (g *Guard) SelectInstrument(ctx context.Context, code string) (bool, error) {
	if err := g.checkDeny(code); err != nil {
		return false, err
	}
	return guarded(g, ctx, "select", func(ctx context.Context) (bool, error) {
		return g.src.SelectInstrument(ctx, code)
	})
}

func (g *Guard) Tick(ctx context.Context, code string) (*model.Tick, error) {
	if err := g.checkDeny(code); err != nil {
		return nil, err
	}
	return guarded(g, ctx, "tick", func(ctx context.Context) (*model.Tick, error) {
		return g.src.Tick(ctx, code)
	})
}

func (g *Guard) DailyOpen(ctx context.Context, code string) (*model.Candle, error) {
	if err := g.checkDeny(code); err != nil {
		return nil, err
	}
	return guarded(g, ctx, "daily_open", func(ctx context.Context) (*model.Candle, error) {
		return g.src.DailyOpen(ctx, code)
	})
}

func (g *Guard) Candles(ctx context.Context, code string, tf model.Timeframe, count int) ([]model.Candle, error) {
	if err := g.checkDeny(code); err != nil {
		return nil, err
	}
	return guarded(g, ctx, "candles", func(ctx context.Context) ([]model.Candle, error) {
		return g.src.Candles(ctx, code, tf, count)
	})
}

func (g *Guard) CandlesRange(ctx context.Context, code string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error) {
	if err := g.checkDeny(code); err != nil {
		return nil, err
	}
	return guarded(g, ctx, "candles_range", func(ctx context.Context) ([]model.Candle, error) {
		return g.src.CandlesRange(ctx, code, tf, start, end)
	})
}

// ListInstruments is a prefix query, not a per-instrument call, so the
// deny-list applies to the results: denied codes must never surface as
// resolution candidates.
func (g *Guard) ListInstruments(ctx context.Context, prefix string) ([]string, error) {
	codes, err := guarded(g, ctx, "list", func(ctx context.Context) ([]string, error) {
		return g.src.ListInstruments(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	out := codes[:0]
	for _, code := range codes {
		if !g.Denied(code) {
			out = append(out, code)
		}
	}
	return out, nil
}

func (g *Guard) Connected() bool { return g.src.Connected() }

func (g *Guard) Reconnect(ctx context.Context) error {
	_, err := guarded(g, ctx, "reconnect", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.src.Reconnect(ctx)
	})
	return err
}
