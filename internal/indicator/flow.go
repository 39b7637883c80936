package indicator

import "MacroPulse/internal/model"

// The flow scorers derive order-flow proxies from OHLCV, since the data
// source exposes candles rather than raw book or tape events. Each proxy
// maps a ratio to {-1, 0, +1} through fixed, configurable thresholds.

// closePosition returns where the close sits in the bar's range, in [0, 1].
func closePosition(b model.Candle) (float64, bool) {
	r := b.Range()
	if r <= 0 {
		return 0, false
	}
	return (b.Close - b.Low) / r, true
}

// scoreVolume flags a volume spike in the direction of the spiking bar.
func scoreVolume(bars []model.Candle, window int, th model.Thresholds) model.Score {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	avg := sma(vols, window)
	if avg == 0 {
		return model.ScoreNeutral
	}
	last := bars[len(bars)-1]
	ratio := last.Volume / avg
	if ratio < orDefault(th.High, defaultVolumeRatio) {
		return model.ScoreNeutral
	}
	return direction(last.Close-last.Open, 0)
}

// scoreDelta approximates the aggressor delta of each bar from where it
// closed within its range, accumulates it over the window and normalizes by
// traded volume.
func scoreDelta(bars []model.Candle, window int, th model.Thresholds) model.Score {
	var delta, vol float64
	for _, b := range bars[len(bars)-window:] {
		pos, ok := closePosition(b)
		if !ok {
			continue
		}
		delta += b.Volume * (2*pos - 1)
		vol += b.Volume
	}
	if vol == 0 {
		return model.ScoreNeutral
	}
	return direction(delta/vol, orDefault(th.Band, defaultFlowBand))
}

// scoreImbalance is a book-imbalance proxy: a close in the upper third of
// the bar's range reads as bid pressure, the lower third as ask pressure.
func scoreImbalance(bars []model.Candle, th model.Thresholds) model.Score {
	pos, ok := closePosition(bars[len(bars)-1])
	if !ok {
		return model.ScoreNeutral
	}
	low := orDefault(th.Low, 1.0/3.0)
	high := orDefault(th.High, 2.0/3.0)
	switch {
	case pos >= high:
		return model.ScoreBullish
	case pos <= low:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}

// scoreAggression averages the signed body-to-range ratio weighted by
// volume: persistent full-bodied bars on volume read as aggressive flow.
func scoreAggression(bars []model.Candle, window int, th model.Thresholds) model.Score {
	var signed, vol float64
	for _, b := range bars[len(bars)-window:] {
		r := b.Range()
		if r <= 0 {
			continue
		}
		signed += b.Volume * (b.Close - b.Open) / r
		vol += b.Volume
	}
	if vol == 0 {
		return model.ScoreNeutral
	}
	return direction(signed/vol, orDefault(th.Band, defaultFlowBand))
}

// scoreTapeSpeed compares traded volume in the recent half-window against
// the prior half: an accelerating tape confirms the current direction.
func scoreTapeSpeed(bars []model.Candle, window int) model.Score {
	recent := bars[len(bars)-window:]
	prior := bars[len(bars)-2*window : len(bars)-window]
	var rv, pv float64
	for _, b := range recent {
		rv += b.Volume
	}
	for _, b := range prior {
		pv += b.Volume
	}
	if pv == 0 || rv/pv < defaultVolumeRatio {
		return model.ScoreNeutral
	}
	last := recent[len(recent)-1]
	first := recent[0]
	return direction(last.Close-first.Open, 0)
}

// scoreLargeTrades looks for outsized-volume bars ("large prints") within
// the window and follows their net direction when one side dominates.
func scoreLargeTrades(bars []model.Candle, window int, th model.Thresholds) model.Score {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	avg := sma(vols, window)
	if avg == 0 {
		return model.ScoreNeutral
	}
	ratio := orDefault(th.High, defaultLargeRatio)
	net := 0
	for _, b := range bars[len(bars)-window:] {
		if b.Volume < avg*ratio {
			continue
		}
		if b.Close > b.Open {
			net++
		} else if b.Close < b.Open {
			net--
		}
	}
	switch {
	case net > 0:
		return model.ScoreBullish
	case net < 0:
		return model.ScoreBearish
	default:
		return model.ScoreNeutral
	}
}
