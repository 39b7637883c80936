// Package indicator computes ternary signals from candle series. Every
// scorer is a pure function of its inputs: no I/O, no state, and a series
// shorter than the indicator's lookback degrades to neutral instead of
// erroring, so partial data can never abort an evaluation pass.
package indicator

import "MacroPulse/internal/model"

// Defaults for the tunable thresholds. These are empirically chosen values
// carried over from live tuning; they are inputs, not derived truths.
const (
	defaultRSILow      = 30
	defaultRSIHigh     = 70
	defaultStochLow    = 20
	defaultStochHigh   = 80
	defaultADXTrendMin = 25
	defaultVWAPBand    = 0.001
	defaultFlowBand    = 0.15
	defaultVolumeRatio = 1.5
	defaultLargeRatio  = 2.0
)

// Score computes the ternary signal for one indicator type. window <= 0
// selects the indicator's default period; zero thresholds select defaults.
func Score(typ model.IndicatorType, window int, th model.Thresholds, candles []model.Candle) model.Score {
	if window <= 0 {
		window = defaultWindow(typ)
	}
	if len(candles) < MinLookback(typ, window) {
		return model.ScoreNeutral
	}
	switch typ {
	case model.IndicatorRSI:
		return scoreRSI(candles, window, th)
	case model.IndicatorStochastic:
		return scoreStochastic(candles, window, th)
	case model.IndicatorMACD:
		return scoreMACD(candles)
	case model.IndicatorEMACross:
		return scoreEMACross(candles, window, th)
	case model.IndicatorBollinger:
		return scoreBollinger(candles, window)
	case model.IndicatorADX:
		return scoreADX(candles, window, th)
	case model.IndicatorVWAP:
		return scoreVWAP(candles, th)
	case model.IndicatorMomentum:
		return scoreMomentum(candles, window, th)
	case model.IndicatorVolume:
		return scoreVolume(candles, window, th)
	case model.IndicatorDelta:
		return scoreDelta(candles, window, th)
	case model.IndicatorImbalance:
		return scoreImbalance(candles, th)
	case model.IndicatorAggression:
		return scoreAggression(candles, window, th)
	case model.IndicatorTapeSpeed:
		return scoreTapeSpeed(candles, window)
	case model.IndicatorLargeTrades:
		return scoreLargeTrades(candles, window, th)
	default:
		return model.ScoreNeutral
	}
}

// MinLookback returns the minimum series length for the indicator to emit a
// non-degraded score.
func MinLookback(typ model.IndicatorType, window int) int {
	if window <= 0 {
		window = defaultWindow(typ)
	}
	switch typ {
	case model.IndicatorRSI, model.IndicatorMomentum:
		return window + 1
	case model.IndicatorStochastic, model.IndicatorBollinger, model.IndicatorVolume,
		model.IndicatorDelta, model.IndicatorAggression, model.IndicatorLargeTrades:
		return window
	case model.IndicatorMACD:
		return macdSlow + macdSignal
	case model.IndicatorEMACross:
		return window * 2
	case model.IndicatorADX:
		return window*2 + 1
	case model.IndicatorVWAP:
		return 2
	case model.IndicatorTapeSpeed:
		return window * 2
	default:
		return window
	}
}

func defaultWindow(typ model.IndicatorType) int {
	switch typ {
	case model.IndicatorRSI, model.IndicatorStochastic, model.IndicatorADX:
		return 14
	case model.IndicatorBollinger:
		return 20
	case model.IndicatorEMACross:
		return 21
	case model.IndicatorMomentum:
		return 10
	case model.IndicatorVolume, model.IndicatorDelta, model.IndicatorAggression,
		model.IndicatorTapeSpeed, model.IndicatorLargeTrades:
		return 10
	default:
		return 14
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func direction(delta, band float64) model.Score {
	switch {
	case delta > band:
		return model.ScoreBullish
	case delta < -band:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

func closes(bars []model.Candle) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func sma(vals []float64, period int) float64 {
	sum := 0.0
	for i := len(vals) - period; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(period)
}

// emaSeries returns the EMA sequence seeded with the SMA of the first period.
func emaSeries(vals []float64, period int) []float64 {
	if len(vals) < period {
		return nil
	}
	out := make([]float64, 0, len(vals)-period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += vals[i]
	}
	seed /= float64(period)
	out = append(out, seed)
	k := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(vals); i++ {
		prev = vals[i]*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}
