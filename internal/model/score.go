package model

import (
	"fmt"
	"math"
)

// Score is a ternary directional signal contribution: -1, 0 or +1.
type Score int8

const (
	ScoreBearish Score = -1
	ScoreNeutral Score = 0
	ScoreBullish Score = 1
)

// NewScore validates that v is a legal ternary value.
// Anything outside {-1, 0, 1} is a programming error, not a data problem.
func NewScore(v int) (Score, error) {
	if v < -1 || v > 1 {
		return 0, fmt.Errorf("score must be -1, 0 or 1, got %d", v)
	}
	return Score(v), nil
}

func (s Score) Int() int { return int(s) }

func (s Score) String() string {
	switch s {
	case ScoreBullish:
		return "+1"
	case ScoreBearish:
		return "-1"
	default:
		return "0"
	}
}

// Weight is a non-negative multiplier applied to an item's score.
type Weight float64

// NewWeight rejects negative and non-finite weights at construction time.
func NewWeight(v float64) (Weight, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("weight must be finite, got %v", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("weight must be non-negative, got %v", v)
	}
	return Weight(v), nil
}

func (w Weight) Float() float64 { return float64(w) }

// CorrelationSign states whether an item's own direction maps directly or
// inversely onto the reference instrument's expected direction.
type CorrelationSign int

const (
	Direct CorrelationSign = iota
	Inverse
)

// Apply maps a raw score through the correlation sign. Inverse negates,
// Direct is the identity; zero stays zero either way.
func (c CorrelationSign) Apply(s Score) Score {
	if c == Inverse {
		return -s
	}
	return s
}

func (c CorrelationSign) String() string {
	if c == Inverse {
		return "INVERSE"
	}
	return "DIRECT"
}

// Signal is the final aggregated decision.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// Direction classifies a realized price move when a feedback record is
// evaluated after its horizon.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)
