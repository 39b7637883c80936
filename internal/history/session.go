package history

import (
	"fmt"
	"time"

	"MacroPulse/internal/model"
	"MacroPulse/internal/resolver"
)

// SessionData is the immutable result of pre-loading one trading session.
// It carries everything a replay needs so the replay itself never touches
// the external source, keeping runs deterministic.
type SessionData struct {
	Date        time.Time // session day, midnight UTC
	Reference   string    // resolved reference instrument
	Timeline    []model.Candle
	bars        map[string][]model.Candle // ascending, includes prior-day seed bars
	opens       map[string]float64
	resolutions map[string]resolver.Resolution
	Reports     []LoadReport
}

// LoadReport is the observable outcome of loading one item's data.
type LoadReport struct {
	Symbol     string
	Instrument string
	Cached     int
	Fetched    int
	Seeded     int
	Err        error
}

// NewSessionData builds an empty session shell. The loader is the normal
// producer; this constructor also lets harnesses assemble sessions directly.
func NewSessionData(date time.Time, reference string, timeline []model.Candle) *SessionData {
	return &SessionData{
		Date:        date,
		Reference:   reference,
		Timeline:    timeline,
		bars:        make(map[string][]model.Candle),
		opens:       make(map[string]float64),
		resolutions: make(map[string]resolver.Resolution),
	}
}

// AddInstrument installs the bar series and session open for one instrument.
// Bars must be ascending by timestamp.
func (s *SessionData) AddInstrument(instrument string, bars []model.Candle, open float64) {
	s.bars[instrument] = bars
	s.opens[instrument] = open
}

// PinResolution freezes one symbol's resolution for the session.
func (s *SessionData) PinResolution(symbol string, res resolver.Resolution) {
	s.resolutions[symbol] = res
}

// BarCount is the number of reference bars available for replay.
func (s *SessionData) BarCount() int { return len(s.Timeline) }

// Resolution returns the session-pinned resolution for a registry symbol.
func (s *SessionData) Resolution(symbol string) (resolver.Resolution, bool) {
	res, ok := s.resolutions[symbol]
	return res, ok
}

// View returns the no-look-ahead window onto the session at reference bar
// index i: only bars timestamped at or before bar i are reachable through it.
func (s *SessionData) View(i int) (*BarView, error) {
	if i < 0 || i >= len(s.Timeline) {
		return nil, fmt.Errorf("bar index %d out of range [0,%d)", i, len(s.Timeline))
	}
	return &BarView{s: s, cutoff: s.Timeline[i].Time, idx: i}, nil
}

// BarView exposes session data truncated at one bar's timestamp.
type BarView struct {
	s      *SessionData
	cutoff time.Time
	idx    int
}

// At is the timestamp of the bar this view is anchored on.
func (v *BarView) At() time.Time { return v.cutoff }

// Index is the reference bar position this view is anchored on.
func (v *BarView) Index() int { return v.idx }

// Candles returns up to n bars for the instrument, ending at the cutoff.
func (v *BarView) Candles(instrument string, n int) []model.Candle {
	bars := v.s.bars[instrument]
	// Bars are ascending; cut at the first timestamp past the cutoff.
	hi := len(bars)
	for hi > 0 && bars[hi-1].Time.After(v.cutoff) {
		hi--
	}
	lo := hi - n
	if lo < 0 {
		lo = 0
	}
	return bars[lo:hi]
}

// Price returns the close of the last bar at or before the cutoff.
func (v *BarView) Price(instrument string) (float64, bool) {
	bars := v.Candles(instrument, 1)
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// SessionOpen returns the instrument's daily open for the session date.
func (v *BarView) SessionOpen(instrument string) (float64, bool) {
	open, ok := v.s.opens[instrument]
	return open, ok
}
