package engine

import "MacroPulse/internal/model"

// Config carries the tunable aggregation constants. The confidence blend
// weights and the magnitude ceiling are empirically chosen and deliberately
// configurable rather than re-derived.
type Config struct {
	// NeutralBand is the symmetric dead zone around zero on the final
	// weighted sum inside which the signal is NEUTRAL.
	NeutralBand float64 `yaml:"neutral_band"`

	// Confidence blend weights. Magnitude is part of the blend because
	// coverage plus unanimity alone saturate near a mid-range value and
	// never reflect how extreme the evidence is.
	CoverageWeight  float64 `yaml:"coverage_weight"`
	UnanimityWeight float64 `yaml:"unanimity_weight"`
	MagnitudeWeight float64 `yaml:"magnitude_weight"`

	// MagnitudeCeiling normalizes |final score| into [0,1].
	MagnitudeCeiling float64 `yaml:"magnitude_ceiling"`

	// CandleTimeframe and CandleDepth shape the indicator input windows.
	CandleTimeframe model.Timeframe `yaml:"candle_timeframe"`
	CandleDepth     int             `yaml:"candle_depth"`
}

func DefaultConfig() Config {
	return Config{
		NeutralBand:      0,
		CoverageWeight:   0.40,
		UnanimityWeight:  0.35,
		MagnitudeWeight:  0.25,
		MagnitudeCeiling: 25,
		CandleTimeframe:  model.TimeframeM5,
		CandleDepth:      120,
	}
}

// confidence blends coverage, unanimity and magnitude into [0,1]. It is
// monotonically non-decreasing in each factor holding the others fixed.
func (c Config) confidence(coverage, unanimity, magnitude float64) float64 {
	v := c.CoverageWeight*coverage + c.UnanimityWeight*unanimity + c.MagnitudeWeight*magnitude
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// signalFor maps the final weighted sum through the neutral band.
func (c Config) signalFor(sum float64) model.Signal {
	switch {
	case sum > c.NeutralBand:
		return model.SignalBuy
	case sum < -c.NeutralBand:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}
