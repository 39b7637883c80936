// Package resolver maps registry symbols to concrete, currently quotable
// instrument codes: rolling futures roots to the nearest live contract and
// currency codes to a pair plus its quoting convention.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/feed"
)

// QuotingConvention states which side of a currency pair quote is the
// numerator. When USD is the numerator a price increase means the other
// currency weakened, so the naive price-up-is-bullish rule must be inverted
// downstream.
type QuotingConvention int

const (
	BaseIsNumerator QuotingConvention = iota
	USDIsNumerator
)

// Resolution is the outcome of resolving one registry symbol.
type Resolution struct {
	Instrument string
	Convention QuotingConvention
}

// monthCodes is the standard futures month-letter table (Jan..Dec).
var monthCodes = [12]byte{'F', 'G', 'H', 'J', 'K', 'M', 'N', 'Q', 'U', 'V', 'X', 'Z'}

// maxCandidates bounds the dated-contract probe pool so a dead root cannot
// stall a whole evaluation pass.
const maxCandidates = 5

type futuresRoot struct {
	continuous string // rolling-contract alias, empty if the root has none
	cycle      string // month letters the root actually lists
}

// futuresRoots lists the roots that need dated-contract resolution.
var futuresRoots = map[string]futuresRoot{
	"WIN": {continuous: "WINFUT", cycle: "GJMQVZ"},
	"IND": {continuous: "INDFUT", cycle: "GJMQVZ"},
	"WDO": {continuous: "WDOFUT", cycle: "FGHJKMNQUVXZ"},
	"DOL": {continuous: "DOLFUT", cycle: "FGHJKMNQUVXZ"},
	"BGI": {continuous: "BGIFUT", cycle: "GJKMQUVX"},
	"CCM": {continuous: "CCMFUT", cycle: "FHKNUX"},
	"ICF": {continuous: "ICFFUT", cycle: "HKNUZ"},
	"DI1": {continuous: "", cycle: "FJNV"},
}

type currencyPair struct {
	pair       string
	convention QuotingConvention
}

// currencyPairs maps a currency code to its instrument and quoting side.
var currencyPairs = map[string]currencyPair{
	"EUR": {"EURUSD", BaseIsNumerator},
	"GBP": {"GBPUSD", BaseIsNumerator},
	"AUD": {"AUDUSD", BaseIsNumerator},
	"NZD": {"NZDUSD", BaseIsNumerator},
	"JPY": {"USDJPY", USDIsNumerator},
	"CHF": {"USDCHF", USDIsNumerator},
	"CAD": {"USDCAD", USDIsNumerator},
	"MXN": {"USDMXN", USDIsNumerator},
	"ZAR": {"USDZAR", USDIsNumerator},
	"CNY": {"USDCNH", USDIsNumerator},
	"BRL": {"USDBRL", USDIsNumerator},
}

type cacheEntry struct {
	res Resolution
	ok  bool
}

// Resolver resolves symbols against one price source. It is scoped to a
// single evaluation session: results (including misses) are cached so each
// symbol is probed at most once, and a fresh Resolver is constructed per
// session to keep replay runs isolated.
type Resolver struct {
	src   feed.Source
	now   time.Time
	cache map[string]cacheEntry
	log   zerolog.Logger
}

// New builds a session-scoped resolver anchored at now (contract filtering
// is relative to this instant, not the wall clock, so replay stays honest).
func New(src feed.Source, now time.Time, log zerolog.Logger) *Resolver {
	return &Resolver{
		src:   src,
		now:   now,
		cache: make(map[string]cacheEntry),
		log:   log,
	}
}

// Resolve maps a registry symbol to a concrete instrument. The boolean is
// false when nothing quotable was found; failures are non-fatal and cached.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (Resolution, bool) {
	if e, hit := r.cache[symbol]; hit {
		return e.res, e.ok
	}
	res, ok := r.resolve(ctx, symbol)
	r.cache[symbol] = cacheEntry{res: res, ok: ok}
	if !ok {
		r.log.Debug().Str("symbol", symbol).Msg("symbol unresolved")
	}
	return res, ok
}

func (r *Resolver) resolve(ctx context.Context, symbol string) (Resolution, bool) {
	if cp, isCurrency := currencyPairs[symbol]; isCurrency {
		if r.probe(ctx, cp.pair) {
			return Resolution{Instrument: cp.pair, Convention: cp.convention}, true
		}
		return Resolution{}, false
	}

	if root, isFutures := futuresRoots[symbol]; isFutures {
		return r.resolveFutures(ctx, symbol, root)
	}

	// Plain symbol: quote it directly, else fall back to a prefix search.
	if r.probe(ctx, symbol) {
		return Resolution{Instrument: symbol}, true
	}
	return r.prefixSearch(ctx, symbol)
}

func (r *Resolver) resolveFutures(ctx context.Context, root string, fr futuresRoot) (Resolution, bool) {
	if fr.continuous != "" && r.probe(ctx, fr.continuous) {
		return Resolution{Instrument: fr.continuous}, true
	}
	for _, code := range r.datedCandidates(root, fr.cycle) {
		if r.probe(ctx, code) {
			return Resolution{Instrument: code}, true
		}
	}
	return r.prefixSearch(ctx, root)
}

// datedCandidates enumerates the nearest contracts at or after the current
// month, already sorted by temporal proximity and capped at maxCandidates.
func (r *Resolver) datedCandidates(root, cycle string) []string {
	var out []string
	y, m, _ := r.now.Date()
	for i := 0; i < 36 && len(out) < maxCandidates; i++ {
		month := (int(m) - 1 + i) % 12
		year := y + (int(m)-1+i)/12
		code := monthCodes[month]
		if !containsByte(cycle, code) {
			continue
		}
		out = append(out, fmt.Sprintf("%s%c%02d", root, code, year%100))
	}
	return out
}

// prefixSearch lists instruments by prefix and probes them in order,
// bounded by the same candidate cap as the dated search.
func (r *Resolver) prefixSearch(ctx context.Context, prefix string) (Resolution, bool) {
	codes, err := r.src.ListInstruments(ctx, prefix)
	if err != nil {
		return Resolution{}, false
	}
	if len(codes) > maxCandidates {
		codes = codes[:maxCandidates]
	}
	for _, code := range codes {
		if r.probe(ctx, code) {
			return Resolution{Instrument: code}, true
		}
	}
	return Resolution{}, false
}

// probe confirms an instrument is both selectable and quotable.
func (r *Resolver) probe(ctx context.Context, code string) bool {
	ok, err := r.src.SelectInstrument(ctx, code)
	if err != nil || !ok {
		return false
	}
	tick, err := r.src.Tick(ctx, code)
	return err == nil && tick != nil && tick.Last > 0
}

// Cached returns the session cache snapshot, for session pinning in replay.
func (r *Resolver) Cached() map[string]Resolution {
	out := make(map[string]Resolution, len(r.cache))
	for sym, e := range r.cache {
		if e.ok {
			out[sym] = e.res
		}
	}
	return out
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
