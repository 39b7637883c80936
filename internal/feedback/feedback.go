// Package feedback compares past aggregate signals to realized price moves
// at a fixed horizon, estimating per-item predictive accuracy for offline
// weight re-tuning. Nothing here sits on the live decision path.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/feed"
	"MacroPulse/internal/metrics"
	"MacroPulse/internal/model"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/resolver"
	"MacroPulse/internal/store"
)

// Evaluator closes pending feedback records once their horizon elapses.
type Evaluator struct {
	rec store.Recorder
	src feed.Source
	reg *registry.Registry
	log zerolog.Logger

	// FlatThreshold is the minimum absolute move, in points, for a realized
	// direction to count as UP or DOWN instead of noise.
	FlatThreshold float64
	// Window is how many evaluated decisions back ItemAccuracy looks.
	Window int
}

func New(rec store.Recorder, src feed.Source, reg *registry.Registry, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		rec:           rec,
		src:           src,
		reg:           reg,
		log:           log,
		FlatThreshold: 50,
		Window:        50,
	}
}

// RecordDecision snapshots one aggregate result for later evaluation.
func (e *Evaluator) RecordDecision(res *model.AggregateResult) error {
	rec := &model.FeedbackRecord{
		SessionID:  res.SessionID,
		Signal:     res.Signal,
		Score:      res.FinalScore,
		Confidence: res.Confidence,
		RefPrice:   res.RefPrice,
		DecidedAt:  res.At,
	}
	if _, err := e.rec.RecordDecision(rec); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// EvaluatePending closes every open record whose horizon has elapsed and
// returns how many were evaluated.
func (e *Evaluator) EvaluatePending(ctx context.Context, horizon time.Duration) (int, error) {
	now := time.Now().UTC()
	pending, err := e.rec.PendingDecisions(now.Add(-horizon))
	if err != nil {
		return 0, fmt.Errorf("evaluate pending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	res := resolver.New(e.src, now, e.log)
	ref, ok := res.Resolve(ctx, e.reg.Reference())
	if !ok {
		return 0, fmt.Errorf("evaluate pending: reference %q unresolved", e.reg.Reference())
	}
	tick, err := e.src.Tick(ctx, ref.Instrument)
	if err != nil || tick == nil || tick.Last <= 0 {
		return 0, fmt.Errorf("evaluate pending: no realized price for %s: %w", ref.Instrument, err)
	}
	realized := tick.Last

	count := 0
	for _, rec := range pending {
		dir := e.classify(realized - rec.RefPrice)
		correct := correctFor(rec.Signal, dir)
		if err := e.rec.MarkEvaluated(rec.ID, realized, dir, correct, now); err != nil {
			e.log.Warn().Err(err).Int64("id", rec.ID).Msg("mark evaluated failed")
			continue
		}
		count++
		metrics.FeedbackEvaluatedTotal.Inc()
	}
	e.log.Info().Int("evaluated", count).Float64("realized", realized).Msg("feedback sweep complete")
	return count, nil
}

func (e *Evaluator) classify(move float64) model.Direction {
	switch {
	case move > e.FlatThreshold:
		return model.DirectionUp
	case move < -e.FlatThreshold:
		return model.DirectionDown
	default:
		return model.DirectionFlat
	}
}

func correctFor(sig model.Signal, dir model.Direction) bool {
	switch sig {
	case model.SignalBuy:
		return dir == model.DirectionUp
	case model.SignalSell:
		return dir == model.DirectionDown
	default:
		return dir == model.DirectionFlat
	}
}

// ItemAccuracy returns the fraction of the item's recent non-neutral scores
// whose sign matched the realized direction, over the configured window.
// The boolean is false when no evaluated history exists for the item.
func (e *Evaluator) ItemAccuracy(itemID int) (float64, bool) {
	outcomes, err := e.rec.ItemOutcomes(itemID, e.Window)
	if err != nil || len(outcomes) == 0 {
		return 0, false
	}
	hits := 0
	for _, o := range outcomes {
		if (o.FinalScore > 0 && o.Realized == model.DirectionUp) ||
			(o.FinalScore < 0 && o.Realized == model.DirectionDown) {
			hits++
		}
	}
	return float64(hits) / float64(len(outcomes)), true
}

// Suggestion is an offline weight re-tuning hint.
type Suggestion struct {
	ItemID   int
	Symbol   string
	Accuracy float64
	Action   string // "RAISE" or "LOWER"
}

// SuggestWeightAdjustments flags items whose recent accuracy sits far from
// coin-flip. The thresholds are deliberately wide; this feeds a human, not
// an automatic re-weighter.
func (e *Evaluator) SuggestWeightAdjustments() []Suggestion {
	var out []Suggestion
	for _, it := range e.reg.Items() {
		acc, ok := e.ItemAccuracy(it.ID)
		if !ok {
			continue
		}
		switch {
		case acc >= 0.6:
			out = append(out, Suggestion{ItemID: it.ID, Symbol: it.Symbol, Accuracy: acc, Action: "RAISE"})
		case acc <= 0.4:
			out = append(out, Suggestion{ItemID: it.ID, Symbol: it.Symbol, Accuracy: acc, Action: "LOWER"})
		}
	}
	return out
}
