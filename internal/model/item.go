package model

import "fmt"

// Category groups tracked items by market segment.
type Category string

const (
	CategoryIndex     Category = "INDEX"
	CategoryEquity    Category = "EQUITY"
	CategoryCurrency  Category = "CURRENCY"
	CategoryCommodity Category = "COMMODITY"
	CategoryRateCurve Category = "RATE_CURVE"
	CategoryTechnical Category = "TECHNICAL"
	CategoryFlow      Category = "FLOW"
)

// ScoringMethod selects how an item's raw score is computed.
type ScoringMethod string

const (
	MethodPriceVsOpen        ScoringMethod = "PRICE_VS_OPEN"
	MethodTechnicalIndicator ScoringMethod = "TECHNICAL_INDICATOR"
	MethodSpreadCurve        ScoringMethod = "SPREAD_CURVE"
	MethodFlowIndicator      ScoringMethod = "FLOW_INDICATOR"
)

// IndicatorType names one of the ternary indicator rules. The flow types
// derive their inputs from OHLCV proxies rather than book/tape data.
type IndicatorType string

const (
	IndicatorRSI        IndicatorType = "RSI"
	IndicatorStochastic IndicatorType = "STOCHASTIC"
	IndicatorMACD       IndicatorType = "MACD"
	IndicatorEMACross   IndicatorType = "EMA_CROSS"
	IndicatorBollinger  IndicatorType = "BOLLINGER"
	IndicatorADX        IndicatorType = "ADX"
	IndicatorVWAP       IndicatorType = "VWAP"
	IndicatorMomentum   IndicatorType = "MOMENTUM"

	IndicatorVolume      IndicatorType = "VOLUME"
	IndicatorDelta       IndicatorType = "DELTA"
	IndicatorImbalance   IndicatorType = "IMBALANCE"
	IndicatorAggression  IndicatorType = "AGGRESSION"
	IndicatorTapeSpeed   IndicatorType = "TAPE_SPEED"
	IndicatorLargeTrades IndicatorType = "LARGE_TRADES"
)

// Thresholds carries the tunable cut lines for an indicator rule. Zero values
// mean "use the indicator's empirical default"; the constants were inherited
// from live tuning and are deliberately configurable rather than re-derived.
type Thresholds struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
	Band float64 `yaml:"band"`
}

// MethodParams is the tagged union of per-method parameter shapes, so each
// scorer receives a statically known configuration instead of an untyped map.
type MethodParams interface {
	Method() ScoringMethod
}

// PriceVsOpenParams configures the simple price-vs-session-open comparison.
type PriceVsOpenParams struct {
	// MinMovePoints is the dead band below which the move counts as flat.
	MinMovePoints float64
}

func (PriceVsOpenParams) Method() ScoringMethod { return MethodPriceVsOpen }

// IndicatorParams configures a technical indicator item.
type IndicatorParams struct {
	Type       IndicatorType
	Window     int
	Thresholds Thresholds
}

func (IndicatorParams) Method() ScoringMethod { return MethodTechnicalIndicator }

// SpreadCurveParams names the two rate-curve vertices whose spread is scored.
type SpreadCurveParams struct {
	ShortVertex string
	LongVertex  string
	// MinMoveBps is the dead band, in basis points, on the spread change.
	MinMoveBps float64
}

func (SpreadCurveParams) Method() ScoringMethod { return MethodSpreadCurve }

// FlowParams configures an order-flow proxy item.
type FlowParams struct {
	Type   IndicatorType
	Window int
}

func (FlowParams) Method() ScoringMethod { return MethodFlowIndicator }

// Item is one tracked market instrument or indicator contributing to the
// aggregate signal. Items are built once at startup and never mutated.
type Item struct {
	ID          int
	Symbol      string
	Name        string
	Category    Category
	Correlation CorrelationSign
	Weight      Weight
	Params      MethodParams
}

// NewItem validates the item configuration. A failure here is fatal by
// design: it indicates a broken catalog, not a data-availability issue.
func NewItem(id int, symbol, name string, cat Category, corr CorrelationSign, weight float64, params MethodParams) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("item %q: id must be positive, got %d", symbol, id)
	}
	if symbol == "" {
		return Item{}, fmt.Errorf("item %d: symbol must not be empty", id)
	}
	w, err := NewWeight(weight)
	if err != nil {
		return Item{}, fmt.Errorf("item %q: %w", symbol, err)
	}
	if params == nil {
		return Item{}, fmt.Errorf("item %q: method params must not be nil", symbol)
	}
	return Item{
		ID:          id,
		Symbol:      symbol,
		Name:        name,
		Category:    cat,
		Correlation: corr,
		Weight:      w,
		Params:      params,
	}, nil
}

// Method is a convenience accessor for the scoring method tag.
func (it Item) Method() ScoringMethod { return it.Params.Method() }
