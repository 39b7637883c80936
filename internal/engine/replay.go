package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/history"
	"MacroPulse/internal/metrics"
	"MacroPulse/internal/model"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/resolver"
	"MacroPulse/internal/store"
)

// HistoryView is the replay-side data access boundary. history.BarView
// satisfies it; tests can inject a tripwire implementation to prove the
// engine never reaches past the bar being scored.
type HistoryView interface {
	At() time.Time
	Candles(instrument string, n int) []model.Candle
	Price(instrument string) (float64, bool)
	SessionOpen(instrument string) (float64, bool)
}

// Replay re-runs the live scoring logic bar by bar against pre-loaded
// session data. It is CPU-bound and deterministic: the same session replayed
// twice yields identical result sequences.
type Replay struct {
	reg  *registry.Registry
	data *history.SessionData
	cfg  Config
	rec  store.Recorder
	log  zerolog.Logger

	sessionID string
}

// NewReplay builds a replay over one loaded session. rec may be a noop.
func NewReplay(reg *registry.Registry, data *history.SessionData, cfg Config, rec store.Recorder, log zerolog.Logger) *Replay {
	return &Replay{
		reg:  reg,
		data: data,
		cfg:  cfg,
		rec:  rec,
		log:  log,
		// Deterministic id so repeated replays of one session collide in
		// storage instead of duplicating rows.
		sessionID: "replay-" + data.Date.Format("2006-01-02"),
	}
}

// BarCount is the number of replayable bars in the session.
func (r *Replay) BarCount() int { return r.data.BarCount() }

// EvaluateAt scores the session at reference bar index i, consulting only
// data timestamped at or before that bar.
func (r *Replay) EvaluateAt(ctx context.Context, i int) (*model.AggregateResult, error) {
	view, err := r.data.View(i)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return r.EvaluateView(ctx, view), nil
}

// EvaluateView runs the scoring pass against an explicit view.
func (r *Replay) EvaluateView(ctx context.Context, view HistoryView) *model.AggregateResult {
	res := &pinnedResolver{data: r.data}
	q := &replayQuotes{view: view}
	agg := evaluatePass(ctx, r.reg, res, q, r.cfg, view.At(), r.sessionID)
	metrics.EvaluationsTotal.WithLabelValues("replay").Inc()
	return agg
}

// Run replays the whole session in order, persisting each result.
func (r *Replay) Run(ctx context.Context) ([]*model.AggregateResult, error) {
	out := make([]*model.AggregateResult, 0, r.data.BarCount())
	for i := 0; i < r.data.BarCount(); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		agg, err := r.EvaluateAt(ctx, i)
		if err != nil {
			return out, err
		}
		if err := r.rec.SaveAggregate(agg); err != nil {
			return out, fmt.Errorf("replay: persist bar %d: %w", i, err)
		}
		out = append(out, agg)
	}
	r.log.Info().
		Str("session", r.sessionID).
		Int("bars", len(out)).
		Msg("replay complete")
	return out, nil
}

// pinnedResolver serves the resolutions frozen at session load time, so a
// replay can never re-resolve against the live market.
type pinnedResolver struct {
	data *history.SessionData
}

func (p *pinnedResolver) Resolve(_ context.Context, symbol string) (resolver.Resolution, bool) {
	return p.data.Resolution(symbol)
}

// replayQuotes adapts a HistoryView to the pass interface.
type replayQuotes struct {
	view HistoryView
}

func (r *replayQuotes) SessionOpen(_ context.Context, instrument string) (float64, bool) {
	return r.view.SessionOpen(instrument)
}

func (r *replayQuotes) Price(_ context.Context, instrument string) (float64, bool) {
	return r.view.Price(instrument)
}

func (r *replayQuotes) Candles(_ context.Context, instrument string, n int) []model.Candle {
	return r.view.Candles(instrument, n)
}
