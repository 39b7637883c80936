// Package engine orchestrates registry, resolver, indicator scorer and the
// price data source into one aggregated directional signal. The same scoring
// pass serves both live evaluation and historical replay; only the data
// access behind it differs.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MacroPulse/internal/feed"
	"MacroPulse/internal/indicator"
	"MacroPulse/internal/metrics"
	"MacroPulse/internal/model"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/resolver"
)

// symbolResolver is what a scoring pass needs from symbol resolution: the
// live engine hands in a fresh session resolver, replay a pinned set.
type symbolResolver interface {
	Resolve(ctx context.Context, symbol string) (resolver.Resolution, bool)
}

// quotes is the per-pass data access surface. Live it is backed by the
// guarded feed, in replay by a no-look-ahead bar view.
type quotes interface {
	SessionOpen(ctx context.Context, instrument string) (float64, bool)
	Price(ctx context.Context, instrument string) (float64, bool)
	Candles(ctx context.Context, instrument string, n int) []model.Candle
}

// Engine computes live aggregate signals.
type Engine struct {
	reg *registry.Registry
	src feed.Source
	cfg Config
	log zerolog.Logger
}

func New(reg *registry.Registry, src feed.Source, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{reg: reg, src: src, cfg: cfg, log: log}
}

// Evaluate runs one full live scoring pass. A result is always produced:
// per-item failures only reduce coverage, they never abort the pass.
func (e *Engine) Evaluate(ctx context.Context) (*model.AggregateResult, error) {
	at := time.Now().UTC()
	res := resolver.New(e.src, at, e.log)
	q := &liveQuotes{src: e.src, tf: e.cfg.CandleTimeframe}

	agg := evaluatePass(ctx, e.reg, res, q, e.cfg, at, uuid.NewString())
	metrics.EvaluationsTotal.WithLabelValues("live").Inc()
	e.log.Info().
		Str("signal", string(agg.Signal)).
		Float64("score", agg.FinalScore).
		Float64("confidence", agg.Confidence).
		Int("available", agg.Available).
		Int("total", agg.Total).
		Msg("evaluation complete")
	return agg, nil
}

// liveQuotes adapts the guarded feed to the pass interface.
type liveQuotes struct {
	src feed.Source
	tf  model.Timeframe
}

func (l *liveQuotes) SessionOpen(ctx context.Context, instrument string) (float64, bool) {
	c, err := l.src.DailyOpen(ctx, instrument)
	if err != nil || c == nil {
		return 0, false
	}
	return c.Open, true
}

func (l *liveQuotes) Price(ctx context.Context, instrument string) (float64, bool) {
	t, err := l.src.Tick(ctx, instrument)
	if err != nil || t == nil || t.Last <= 0 {
		return 0, false
	}
	return t.Last, true
}

func (l *liveQuotes) Candles(ctx context.Context, instrument string, n int) []model.Candle {
	bars, err := l.src.Candles(ctx, instrument, l.tf, n)
	if err != nil {
		return nil
	}
	return bars
}

// evaluatePass is the single scoring pass shared by live and replay.
func evaluatePass(ctx context.Context, reg *registry.Registry, res symbolResolver, q quotes, cfg Config, at time.Time, sessionID string) *model.AggregateResult {
	agg := &model.AggregateResult{
		SessionID: sessionID,
		At:        at,
		Total:     reg.Total(),
	}

	for _, it := range reg.Items() {
		r := scoreItem(ctx, it, res, q, cfg)
		agg.Items = append(agg.Items, r)
		if !r.Available {
			agg.Unavailable++
			metrics.ItemsScoredTotal.WithLabelValues("unavailable").Inc()
			continue
		}
		agg.Available++
		metrics.ItemsScoredTotal.WithLabelValues("available").Inc()
		switch {
		case r.Weighted > 0:
			agg.BullishSum += r.Weighted
		case r.Weighted < 0:
			agg.BearishSum += -r.Weighted
		default:
			agg.NeutralHits++
		}
	}

	agg.FinalScore = agg.BullishSum - agg.BearishSum
	agg.Signal = cfg.signalFor(agg.FinalScore)

	coverage := 0.0
	if agg.Total > 0 {
		coverage = float64(agg.Available) / float64(agg.Total)
	}
	unanimity := 0.0
	if denom := agg.BullishSum + agg.BearishSum; denom > 0 {
		unanimity = math.Abs(agg.BullishSum-agg.BearishSum) / denom
	}
	magnitude := 0.0
	if cfg.MagnitudeCeiling > 0 {
		magnitude = math.Min(math.Abs(agg.FinalScore)/cfg.MagnitudeCeiling, 1)
	}
	agg.Confidence = cfg.confidence(coverage, unanimity, magnitude)

	if ref, ok := res.Resolve(ctx, reg.Reference()); ok {
		if p, ok := q.Price(ctx, ref.Instrument); ok {
			agg.RefPrice = p
		}
	}
	agg.Summary = fmt.Sprintf("%s %+.2f conf %.2f (%d/%d items, bull %.2f bear %.2f)",
		agg.Signal, agg.FinalScore, agg.Confidence, agg.Available, agg.Total,
		agg.BullishSum, agg.BearishSum)
	return agg
}

// scoreItem resolves and scores one item. Every failure path returns an
// unavailable result; nothing here may abort the pass.
func scoreItem(ctx context.Context, it model.Item, res symbolResolver, q quotes, cfg Config) model.ItemScoreResult {
	switch p := it.Params.(type) {
	case model.PriceVsOpenParams:
		return scorePriceVsOpen(ctx, it, p, res, q)
	case model.SpreadCurveParams:
		return scoreSpreadCurve(ctx, it, p, res, q)
	case model.IndicatorParams:
		return scoreIndicator(ctx, it, p.Type, p.Window, p.Thresholds, res, q, cfg)
	case model.FlowParams:
		return scoreIndicator(ctx, it, p.Type, p.Window, model.Thresholds{}, res, q, cfg)
	default:
		return model.Unavailable(it, "unknown scoring method")
	}
}

func scorePriceVsOpen(ctx context.Context, it model.Item, p model.PriceVsOpenParams, res symbolResolver, q quotes) model.ItemScoreResult {
	r, ok := res.Resolve(ctx, it.Symbol)
	if !ok {
		return model.Unavailable(it, "unresolved symbol")
	}
	open, ok := q.SessionOpen(ctx, r.Instrument)
	if !ok {
		return unavailableAt(it, r.Instrument, "no session open")
	}
	price, ok := q.Price(ctx, r.Instrument)
	if !ok {
		return unavailableAt(it, r.Instrument, "no current price")
	}

	raw := ternary(price-open, p.MinMovePoints)
	// When USD is the numerator a rising quote means the item's own
	// currency weakened, so the naive direction flips.
	if r.Convention == resolver.USDIsNumerator {
		raw = -raw
	}
	return finalize(it, r.Instrument, open, price, raw,
		fmt.Sprintf("price %.4f vs open %.4f", price, open))
}

func scoreSpreadCurve(ctx context.Context, it model.Item, p model.SpreadCurveParams, res symbolResolver, q quotes) model.ItemScoreResult {
	shortRes, ok := res.Resolve(ctx, p.ShortVertex)
	if !ok {
		return model.Unavailable(it, fmt.Sprintf("short vertex %s unresolved", p.ShortVertex))
	}
	longRes, ok := res.Resolve(ctx, p.LongVertex)
	if !ok {
		return model.Unavailable(it, fmt.Sprintf("long vertex %s unresolved", p.LongVertex))
	}

	shortOpen, ok1 := q.SessionOpen(ctx, shortRes.Instrument)
	longOpen, ok2 := q.SessionOpen(ctx, longRes.Instrument)
	shortNow, ok3 := q.Price(ctx, shortRes.Instrument)
	longNow, ok4 := q.Price(ctx, longRes.Instrument)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return unavailableAt(it, shortRes.Instrument+"/"+longRes.Instrument, "missing vertex quote")
	}

	// Rates are quoted in percentage points; the dead band comes in bps.
	spreadChange := (longNow - shortNow) - (longOpen - shortOpen)
	raw := ternary(spreadChange, p.MinMoveBps/100)
	return finalize(it, shortRes.Instrument+"/"+longRes.Instrument, longOpen-shortOpen, longNow-shortNow, raw,
		fmt.Sprintf("spread %.4f vs open %.4f", longNow-shortNow, longOpen-shortOpen))
}

func scoreIndicator(ctx context.Context, it model.Item, typ model.IndicatorType, window int, th model.Thresholds, res symbolResolver, q quotes, cfg Config) model.ItemScoreResult {
	r, ok := res.Resolve(ctx, it.Symbol)
	if !ok {
		return model.Unavailable(it, "unresolved symbol")
	}
	depth := cfg.CandleDepth
	if min := indicator.MinLookback(typ, window); depth < min {
		depth = min
	}
	candles := q.Candles(ctx, r.Instrument, depth)
	if len(candles) == 0 {
		return unavailableAt(it, r.Instrument, "no candle data")
	}
	raw := indicator.Score(typ, window, th, candles)
	out := finalize(it, r.Instrument, 0, 0, raw,
		fmt.Sprintf("%s(%d) over %d bars -> %s", typ, window, len(candles), raw))
	out.HasPrices = false
	return out
}

// finalize applies correlation and weight to a raw score.
func finalize(it model.Item, instrument string, open, price float64, raw model.Score, detail string) model.ItemScoreResult {
	final := it.Correlation.Apply(raw)
	return model.ItemScoreResult{
		ItemID:     it.ID,
		Symbol:     it.Symbol,
		Instrument: instrument,
		OpenPrice:  open,
		LastPrice:  price,
		HasPrices:  true,
		RawScore:   raw,
		FinalScore: final,
		Weight:     it.Weight,
		Weighted:   float64(final.Int()) * it.Weight.Float(),
		Available:  true,
		Detail:     detail,
	}
}

func unavailableAt(it model.Item, instrument, detail string) model.ItemScoreResult {
	out := model.Unavailable(it, detail)
	out.Instrument = instrument
	return out
}

// ternary maps a signed move through a symmetric dead band.
func ternary(delta, band float64) model.Score {
	switch {
	case delta > band:
		return model.ScoreBullish
	case delta < -band:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}
