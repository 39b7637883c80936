package model

import "time"

// ItemScoreResult is the per-item outcome of one evaluation instant. Results
// are produced fresh on every pass and never mutated afterwards.
type ItemScoreResult struct {
	ItemID     int
	Symbol     string
	Instrument string // resolved concrete instrument, empty if unresolved
	OpenPrice  float64
	LastPrice  float64
	HasPrices  bool
	RawScore   Score // pre-correlation
	FinalScore Score // post-correlation
	Weight     Weight
	Weighted   float64 // FinalScore × Weight; always 0 when unavailable
	Available  bool
	Detail     string
}

// Unavailable builds the degraded result for an item that could not be
// scored. Its weighted contribution is exactly zero regardless of weight.
func Unavailable(it Item, detail string) ItemScoreResult {
	return ItemScoreResult{
		ItemID: it.ID,
		Symbol: it.Symbol,
		Weight: it.Weight,
		Detail: detail,
	}
}

// AggregateResult is the immutable snapshot of one full evaluation pass.
type AggregateResult struct {
	SessionID   string
	At          time.Time
	Items       []ItemScoreResult
	Total       int
	Available   int
	Unavailable int
	BullishSum  float64 // sum of positive weighted contributions
	BearishSum  float64 // absolute sum of negative weighted contributions
	NeutralHits int     // available items that scored 0
	FinalScore  float64 // BullishSum - BearishSum
	Signal      Signal
	Confidence  float64 // always in [0, 1]
	RefPrice    float64
	Summary     string
}

// FeedbackRecord snapshots one decision for later horizon evaluation. It is
// created at decision time and mutated exactly once when the horizon elapses.
type FeedbackRecord struct {
	ID         int64
	SessionID  string
	Signal     Signal
	Score      float64
	Confidence float64
	RefPrice   float64
	DecidedAt  time.Time

	RealizedPrice float64
	Realized      Direction
	Correct       bool
	Evaluated     bool
	EvaluatedAt   time.Time
}
