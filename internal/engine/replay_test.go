package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/history"
	"MacroPulse/internal/model"
	"MacroPulse/internal/resolver"
	"MacroPulse/internal/store"
)

func replaySession(t *testing.T) (*history.SessionData, *Replay) {
	t.Helper()
	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	start := day.Add(12 * time.Hour)

	bars := func(open float64, step float64, n int) []model.Candle {
		out := make([]model.Candle, n)
		p := open
		for i := range out {
			out[i] = model.Candle{
				Time:      start.Add(time.Duration(i) * 5 * time.Minute),
				Open:      p,
				High:      p + step + 10,
				Low:       p - 10,
				Close:     p + step,
				Volume:    1000,
				Timeframe: model.TimeframeM5,
			}
			p += step
		}
		return out
	}

	win := bars(130000, 50, 12)
	spx := bars(5000, 5, 12)

	data := history.NewSessionData(day, "WINFUT", win)
	data.AddInstrument("WINFUT", win, 130000)
	data.AddInstrument("SPX", spx, 5000)
	data.PinResolution("WIN", resolver.Resolution{Instrument: "WINFUT"})
	data.PinResolution("SPX", resolver.Resolution{Instrument: "SPX"})

	reg := mustRegistry(t,
		mustItem(t, 1, "SPX", model.Direct, 2.0, model.PriceVsOpenParams{MinMovePoints: 1}),
	)
	rep := NewReplay(reg, data, DefaultConfig(), store.NewNoop(), zerolog.Nop())
	return data, rep
}

func TestReplay_Deterministic(t *testing.T) {
	_, rep := replaySession(t)

	first, err := rep.Run(context.Background())
	require.NoError(t, err)
	second, err := rep.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, first, rep.BarCount())
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].SessionID, second[i].SessionID)
		assert.Equal(t, first[i].At, second[i].At)
		assert.Equal(t, first[i].Signal, second[i].Signal)
		assert.Equal(t, first[i].FinalScore, second[i].FinalScore)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
	assert.Equal(t, "replay-2025-07-10", first[0].SessionID)
}

func TestReplay_NoLookAheadThroughViews(t *testing.T) {
	// Every candle the pass reads must sit at or before the bar under
	// evaluation; a single future bar fails the run.
	data, rep := replaySession(t)

	for i := 0; i < data.BarCount(); i++ {
		view, err := data.View(i)
		require.NoError(t, err)
		tw := &tripwireView{t: t, inner: view}
		rep.EvaluateView(context.Background(), tw)
	}
}

func TestReplay_RefPriceTracksTimeline(t *testing.T) {
	// The reference price at each bar is that bar's close, so it rises
	// monotonically through this upward session.
	_, rep := replaySession(t)

	first, err := rep.EvaluateAt(context.Background(), 0)
	require.NoError(t, err)
	last, err := rep.EvaluateAt(context.Background(), rep.BarCount()-1)
	require.NoError(t, err)

	assert.Equal(t, model.SignalBuy, first.Signal)
	assert.Equal(t, model.SignalBuy, last.Signal)
	assert.Greater(t, last.RefPrice, first.RefPrice)
}

func TestReplay_IndexOutOfRange(t *testing.T) {
	_, rep := replaySession(t)
	_, err := rep.EvaluateAt(context.Background(), rep.BarCount())
	assert.Error(t, err)
	_, err = rep.EvaluateAt(context.Background(), -1)
	assert.Error(t, err)
}

// tripwireView wraps a BarView and fails the test if any returned candle is
// timestamped after the view's anchor.
type tripwireView struct {
	t     *testing.T
	inner *history.BarView
}

func (v *tripwireView) At() time.Time { return v.inner.At() }

func (v *tripwireView) Candles(instrument string, n int) []model.Candle {
	bars := v.inner.Candles(instrument, n)
	for _, c := range bars {
		if c.Time.After(v.inner.At()) {
			v.t.Fatalf("look-ahead: bar at %s served for view anchored at %s", c.Time, v.inner.At())
		}
	}
	return bars
}

func (v *tripwireView) Price(instrument string) (float64, bool) {
	return v.inner.Price(instrument)
}

func (v *tripwireView) SessionOpen(instrument string) (float64, bool) {
	return v.inner.SessionOpen(instrument)
}
