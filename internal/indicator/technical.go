package indicator

import (
	"math"

	"MacroPulse/internal/model"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// scoreRSI is a mean-reversion rule: oversold is a buy, overbought a sell.
func scoreRSI(bars []model.Candle, period int, th model.Thresholds) model.Score {
	rsi := wilderRSI(closes(bars), period)
	switch {
	case rsi <= orDefault(th.Low, defaultRSILow):
		return model.ScoreBullish
	case rsi >= orDefault(th.High, defaultRSIHigh):
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

// wilderRSI computes the Wilder-smoothed RSI over the full series.
func wilderRSI(cl []float64, period int) float64 {
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := cl[i] - cl[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(cl); i++ {
		change := cl[i] - cl[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func scoreStochastic(bars []model.Candle, period int, th model.Thresholds) model.Score {
	window := bars[len(bars)-period:]
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range window {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	if high == low {
		return model.ScoreNeutral
	}
	k := (bars[len(bars)-1].Close - low) / (high - low) * 100
	switch {
	case k <= orDefault(th.Low, defaultStochLow):
		return model.ScoreBullish
	case k >= orDefault(th.High, defaultStochHigh):
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

// scoreMACD is trend-confirming: bullish only when the MACD line is above
// its signal line and above zero, mirrored on the downside.
func scoreMACD(bars []model.Candle) model.Score {
	cl := closes(bars)
	fast := emaSeries(cl, macdFast)
	slow := emaSeries(cl, macdSlow)
	if fast == nil || slow == nil {
		return model.ScoreNeutral
	}
	// Align the two EMA tails and build the MACD line.
	n := len(slow)
	macd := make([]float64, n)
	off := len(fast) - n
	for i := 0; i < n; i++ {
		macd[i] = fast[off+i] - slow[i]
	}
	sig := emaSeries(macd, macdSignal)
	if sig == nil {
		return model.ScoreNeutral
	}
	m := macd[len(macd)-1]
	s := sig[len(sig)-1]
	switch {
	case m > s && m > 0:
		return model.ScoreBullish
	case m < s && m < 0:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

func scoreEMACross(bars []model.Candle, slow int, th model.Thresholds) model.Score {
	fast := slow / 2
	if fast < 2 {
		fast = 2
	}
	cl := closes(bars)
	fs := emaSeries(cl, fast)
	ss := emaSeries(cl, slow)
	if fs == nil || ss == nil {
		return model.ScoreNeutral
	}
	f := fs[len(fs)-1]
	s := ss[len(ss)-1]
	band := th.Band * s
	return direction(f-s, band)
}

// scoreBollinger is mean-reverting: a close outside the two-sigma band
// signals a snap-back.
func scoreBollinger(bars []model.Candle, period int) model.Score {
	cl := closes(bars)
	mean := sma(cl, period)
	variance := 0.0
	for i := len(cl) - period; i < len(cl); i++ {
		d := cl[i] - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	if sd == 0 {
		return model.ScoreNeutral
	}
	last := cl[len(cl)-1]
	switch {
	case last < mean-2*sd:
		return model.ScoreBullish
	case last > mean+2*sd:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

// scoreADX only emits a signal when ADX confirms a trend; direction comes
// from the dominant directional index.
func scoreADX(bars []model.Candle, period int, th model.Thresholds) model.Score {
	adx, plusDI, minusDI := adxValues(bars, period)
	if adx < orDefault(th.High, defaultADXTrendMin) {
		return model.ScoreNeutral
	}
	if plusDI > minusDI {
		return model.ScoreBullish
	}
	if minusDI > plusDI {
		return model.ScoreBearish
	}
	return model.ScoreNeutral
}

func adxValues(bars []model.Candle, period int) (adx, plusDI, minusDI float64) {
	n := len(bars)
	var trSum, plusSum, minusSum float64
	dxs := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		cur, prev := bars[i], bars[i-1]
		tr := math.Max(cur.High-cur.Low,
			math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		// Wilder smoothing over the running sums.
		if i <= period {
			trSum += tr
			plusSum += plusDM
			minusSum += minusDM
		} else {
			trSum = trSum - trSum/float64(period) + tr
			plusSum = plusSum - plusSum/float64(period) + plusDM
			minusSum = minusSum - minusSum/float64(period) + minusDM
		}
		if i >= period && trSum > 0 {
			pdi := 100 * plusSum / trSum
			mdi := 100 * minusSum / trSum
			plusDI, minusDI = pdi, mdi
			if pdi+mdi > 0 {
				dxs = append(dxs, 100*math.Abs(pdi-mdi)/(pdi+mdi))
			}
		}
	}
	if len(dxs) == 0 {
		return 0, plusDI, minusDI
	}
	take := period
	if take > len(dxs) {
		take = len(dxs)
	}
	sum := 0.0
	for _, d := range dxs[len(dxs)-take:] {
		sum += d
	}
	return sum / float64(take), plusDI, minusDI
}

// scoreVWAP compares the last close to the session VWAP beyond a small
// tolerance band expressed as a fraction of the VWAP.
func scoreVWAP(bars []model.Candle, th model.Thresholds) model.Score {
	var pv, vol float64
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return model.ScoreNeutral
	}
	vwap := pv / vol
	band := orDefault(th.Band, defaultVWAPBand) * vwap
	return direction(bars[len(bars)-1].Close-vwap, band)
}

func scoreMomentum(bars []model.Candle, period int, th model.Thresholds) model.Score {
	cl := closes(bars)
	last := cl[len(cl)-1]
	ref := cl[len(cl)-1-period]
	if ref == 0 {
		return model.ScoreNeutral
	}
	band := th.Band * ref
	return direction(last-ref, band)
}
