package model

import "time"

// Timeframe identifies a candle aggregation period.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeH1  Timeframe = "H1"
	TimeframeD1  Timeframe = "D1"
)

// Duration returns the wall-clock span of one bar of this timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM1:
		return time.Minute
	case TimeframeM5:
		return 5 * time.Minute
	case TimeframeM15:
		return 15 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Candle represents a single OHLCV bar.
type Candle struct {
	Time      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timeframe Timeframe
}

// Range returns the high-low span of the bar.
func (c Candle) Range() float64 { return c.High - c.Low }

// Tick is a single quote snapshot from the price data source.
type Tick struct {
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
	At     time.Time
}
