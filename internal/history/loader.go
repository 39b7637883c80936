package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/feed"
	"MacroPulse/internal/model"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/resolver"
)

// Loader pre-populates a session's bars for every registry item plus the
// reference instrument. Cache first, external source only for gaps, and
// anything fetched is written back so the next load is cheaper.
type Loader struct {
	store *Store
	src   feed.Source
	reg   *registry.Registry
	log   zerolog.Logger

	// Timeframe of the replay bars.
	Timeframe model.Timeframe
	// SeedBars is how many prior-session bars to keep for indicator lookbacks.
	SeedBars int
	// MinSessionBars below which the cache is considered insufficient.
	MinSessionBars int
}

func NewLoader(store *Store, src feed.Source, reg *registry.Registry, log zerolog.Logger) *Loader {
	return &Loader{
		store:          store,
		src:            src,
		reg:            reg,
		log:            log,
		Timeframe:      model.TimeframeM5,
		SeedBars:       60,
		MinSessionBars: 10,
	}
}

// LoadSession builds the immutable SessionData for the given trading day.
// Partial failures are normal: items that could not be loaded simply stay
// absent and degrade to unavailable during replay.
func (l *Loader) LoadSession(ctx context.Context, date time.Time) (*SessionData, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	sessionEnd := day.Add(24 * time.Hour).Add(-time.Second)
	// Reach back over a weekend for the prior-session seed.
	priorStart := day.AddDate(0, 0, -4)

	res := resolver.New(l.src, day, l.log)

	refRes, ok := res.Resolve(ctx, l.reg.Reference())
	if !ok {
		return nil, fmt.Errorf("load session: reference symbol %q unresolved", l.reg.Reference())
	}

	sd := &SessionData{
		Date:        day,
		Reference:   refRes.Instrument,
		bars:        make(map[string][]model.Candle),
		opens:       make(map[string]float64),
		resolutions: make(map[string]resolver.Resolution),
	}
	sd.resolutions[l.reg.Reference()] = refRes

	// Resolve every item up front so the session pins one resolution set.
	wanted := map[string]string{l.reg.Reference(): refRes.Instrument}
	for _, it := range l.reg.Items() {
		switch p := it.Params.(type) {
		case model.SpreadCurveParams:
			for _, vertex := range []string{p.ShortVertex, p.LongVertex} {
				if r, ok := res.Resolve(ctx, vertex); ok {
					sd.resolutions[vertex] = r
					wanted[vertex] = r.Instrument
				} else {
					sd.Reports = append(sd.Reports, LoadReport{Symbol: vertex, Err: errors.New("unresolved")})
				}
			}
		default:
			if _, done := wanted[it.Symbol]; done {
				continue
			}
			if r, ok := res.Resolve(ctx, it.Symbol); ok {
				sd.resolutions[it.Symbol] = r
				wanted[it.Symbol] = r.Instrument
			} else {
				sd.Reports = append(sd.Reports, LoadReport{Symbol: it.Symbol, Err: errors.New("unresolved")})
			}
		}
	}

	for symbol, instrument := range wanted {
		rep := l.loadInstrument(ctx, symbol, instrument, day, priorStart, sessionEnd, sd)
		sd.Reports = append(sd.Reports, rep)
		evt := l.log.Info()
		if rep.Err != nil {
			evt = l.log.Warn().Err(rep.Err)
		}
		evt.Str("symbol", symbol).Str("instrument", instrument).
			Int("cached", rep.Cached).Int("fetched", rep.Fetched).Int("seeded", rep.Seeded).
			Msg("session item loaded")
	}

	refBars := sd.bars[refRes.Instrument]
	for _, b := range refBars {
		if !b.Time.Before(day) && !b.Time.After(sessionEnd) {
			sd.Timeline = append(sd.Timeline, b)
		}
	}
	if len(sd.Timeline) == 0 {
		return nil, fmt.Errorf("load session: no bars for reference instrument %q on %s",
			refRes.Instrument, day.Format("2006-01-02"))
	}
	return sd, nil
}

// loadInstrument runs the fallback chain for one instrument: cached session
// bars, cached prior-session seed, then a bounded external fetch for gaps.
func (l *Loader) loadInstrument(ctx context.Context, symbol, instrument string, day, priorStart, sessionEnd time.Time, sd *SessionData) LoadReport {
	rep := LoadReport{Symbol: symbol, Instrument: instrument}

	dayBars, err := l.store.Bars(instrument, l.Timeframe, day, sessionEnd)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Cached = len(dayBars)

	if len(dayBars) < l.MinSessionBars {
		fetched, err := l.src.CandlesRange(ctx, instrument, l.Timeframe, priorStart, sessionEnd)
		switch {
		case errors.Is(err, feed.ErrDenied):
			// Deny-listed: the cache is all we get. Only fatal for scoring
			// if nothing cached satisfies the need.
			l.log.Debug().Str("instrument", instrument).Msg("external fetch denied, cache only")
		case err != nil:
			rep.Err = fmt.Errorf("external fetch: %w", err)
		default:
			if _, err := l.store.SaveBars(instrument, fetched); err != nil {
				rep.Err = fmt.Errorf("persist bars: %w", err)
				return rep
			}
			rep.Fetched = len(fetched)
			if dayBars, err = l.store.Bars(instrument, l.Timeframe, day, sessionEnd); err != nil {
				rep.Err = err
				return rep
			}
		}
	}

	seed, err := l.store.Bars(instrument, l.Timeframe, priorStart, day.Add(-time.Second))
	if err != nil {
		rep.Err = err
		return rep
	}
	if len(seed) > l.SeedBars {
		seed = seed[len(seed)-l.SeedBars:]
	}
	rep.Seeded = len(seed)

	sd.bars[instrument] = append(seed, dayBars...)

	// Session open: cached daily candle first, else the first session bar.
	if c, ok, err := l.store.DailyOpen(instrument, day); err == nil && ok {
		sd.opens[instrument] = c.Open
	} else if len(dayBars) > 0 {
		first := dayBars[0]
		sd.opens[instrument] = first.Open
		daily := model.Candle{
			Time: first.Time, Open: first.Open,
			High: first.High, Low: first.Low, Close: first.Close,
			Timeframe: model.TimeframeD1,
		}
		if err := l.store.SaveDailyOpen(instrument, day, daily); err != nil {
			l.log.Warn().Err(err).Str("instrument", instrument).Msg("persist daily open failed")
		}
	}

	if len(sd.bars[instrument]) == 0 {
		rep.Err = errors.New("no bars available")
	}
	return rep
}
