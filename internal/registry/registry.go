// Package registry holds the static catalog of tracked items. The catalog is
// built once at startup; an invalid entry is a programming error and fails
// construction rather than degrading at runtime.
package registry

import (
	"fmt"

	"MacroPulse/internal/model"
)

// Registry is the immutable item catalog for one process.
type Registry struct {
	items     []model.Item
	byID      map[int]model.Item
	reference string
}

type def struct {
	symbol string
	name   string
	cat    model.Category
	corr   model.CorrelationSign
	weight float64
	params model.MethodParams
}

func pvo(points float64) model.MethodParams {
	return model.PriceVsOpenParams{MinMovePoints: points}
}

func ind(typ model.IndicatorType, window int) model.MethodParams {
	return model.IndicatorParams{Type: typ, Window: window}
}

func flow(typ model.IndicatorType, window int) model.MethodParams {
	return model.FlowParams{Type: typ, Window: window}
}

// referenceSymbol is the target futures instrument whose direction the
// aggregate signal predicts.
const referenceSymbol = "WIN"

// catalog is the full tracked-item table. Weights reflect each item's
// historical influence on the reference instrument and are re-tuned offline
// from feedback accuracy, not derived here.
var catalog = []def{
	// Global indices
	{"SP500", "S&P 500", model.CategoryIndex, model.Direct, 3.0, pvo(2)},
	{"NASDAQ", "Nasdaq 100", model.CategoryIndex, model.Direct, 2.5, pvo(5)},
	{"DOWJONES", "Dow Jones Industrial", model.CategoryIndex, model.Direct, 2.0, pvo(20)},
	{"RUSSELL", "Russell 2000", model.CategoryIndex, model.Direct, 1.0, pvo(2)},
	{"DAX", "DAX 40", model.CategoryIndex, model.Direct, 1.5, pvo(10)},
	{"FTSE", "FTSE 100", model.CategoryIndex, model.Direct, 1.0, pvo(5)},
	{"CAC40", "CAC 40", model.CategoryIndex, model.Direct, 0.8, pvo(5)},
	{"EUROSTOXX", "Euro Stoxx 50", model.CategoryIndex, model.Direct, 1.2, pvo(4)},
	{"NIKKEI", "Nikkei 225", model.CategoryIndex, model.Direct, 1.0, pvo(30)},
	{"HANGSENG", "Hang Seng", model.CategoryIndex, model.Direct, 0.8, pvo(30)},
	{"SHANGHAI", "Shanghai Composite", model.CategoryIndex, model.Direct, 0.6, pvo(3)},
	{"VIX", "CBOE Volatility Index", model.CategoryIndex, model.Inverse, 2.5, pvo(0.3)},

	// Local futures complex
	{"IND", "Full-size index future", model.CategoryIndex, model.Direct, 2.5, pvo(50)},
	{"DOL", "Full-size dollar future", model.CategoryCurrency, model.Inverse, 2.5, pvo(3)},
	{"WDO", "Mini dollar future", model.CategoryCurrency, model.Inverse, 2.0, pvo(3)},

	// Large-cap equities
	{"PETR4", "Petrobras PN", model.CategoryEquity, model.Direct, 2.0, pvo(0.05)},
	{"VALE3", "Vale ON", model.CategoryEquity, model.Direct, 2.0, pvo(0.05)},
	{"ITUB4", "Itau Unibanco PN", model.CategoryEquity, model.Direct, 1.5, pvo(0.04)},
	{"BBDC4", "Bradesco PN", model.CategoryEquity, model.Direct, 1.2, pvo(0.03)},
	{"BBAS3", "Banco do Brasil ON", model.CategoryEquity, model.Direct, 1.0, pvo(0.04)},
	{"B3SA3", "B3 ON", model.CategoryEquity, model.Direct, 0.8, pvo(0.02)},
	{"ABEV3", "Ambev ON", model.CategoryEquity, model.Direct, 0.7, pvo(0.02)},
	{"WEGE3", "WEG ON", model.CategoryEquity, model.Direct, 0.7, pvo(0.05)},
	{"ELET3", "Eletrobras ON", model.CategoryEquity, model.Direct, 0.6, pvo(0.04)},
	{"ITSA4", "Itausa PN", model.CategoryEquity, model.Direct, 0.6, pvo(0.02)},
	{"RENT3", "Localiza ON", model.CategoryEquity, model.Direct, 0.5, pvo(0.05)},
	{"SUZB3", "Suzano ON", model.CategoryEquity, model.Direct, 0.5, pvo(0.05)},
	{"GGBR4", "Gerdau PN", model.CategoryEquity, model.Direct, 0.5, pvo(0.03)},
	{"CSNA3", "CSN ON", model.CategoryEquity, model.Direct, 0.4, pvo(0.03)},
	{"USIM5", "Usiminas PNA", model.CategoryEquity, model.Direct, 0.4, pvo(0.02)},
	{"JBSS3", "JBS ON", model.CategoryEquity, model.Direct, 0.4, pvo(0.04)},
	{"RAIL3", "Rumo ON", model.CategoryEquity, model.Direct, 0.4, pvo(0.03)},
	{"PRIO3", "PetroRio ON", model.CategoryEquity, model.Direct, 0.5, pvo(0.06)},
	{"EMBR3", "Embraer ON", model.CategoryEquity, model.Direct, 0.4, pvo(0.05)},
	{"MGLU3", "Magazine Luiza ON", model.CategoryEquity, model.Direct, 0.3, pvo(0.02)},
	{"LREN3", "Lojas Renner ON", model.CategoryEquity, model.Direct, 0.3, pvo(0.03)},
	{"BPAC11", "BTG Pactual UNT", model.CategoryEquity, model.Direct, 0.4, pvo(0.04)},

	// Currencies (quoting convention handled by the resolver)
	{"EUR", "Euro", model.CategoryCurrency, model.Direct, 1.0, pvo(0.0005)},
	{"GBP", "British pound", model.CategoryCurrency, model.Direct, 0.7, pvo(0.0006)},
	{"JPY", "Japanese yen", model.CategoryCurrency, model.Inverse, 1.0, pvo(0.05)},
	{"CHF", "Swiss franc", model.CategoryCurrency, model.Inverse, 0.6, pvo(0.0005)},
	{"AUD", "Australian dollar", model.CategoryCurrency, model.Direct, 1.0, pvo(0.0005)},
	{"NZD", "New Zealand dollar", model.CategoryCurrency, model.Direct, 0.5, pvo(0.0005)},
	{"CAD", "Canadian dollar", model.CategoryCurrency, model.Direct, 0.6, pvo(0.0006)},
	{"MXN", "Mexican peso", model.CategoryCurrency, model.Direct, 0.8, pvo(0.03)},
	{"ZAR", "South African rand", model.CategoryCurrency, model.Direct, 0.7, pvo(0.04)},
	{"CNY", "Chinese yuan", model.CategoryCurrency, model.Inverse, 0.8, pvo(0.008)},
	{"BRL", "Brazilian real", model.CategoryCurrency, model.Inverse, 2.0, pvo(0.01)},

	// Commodities
	{"BRENT", "Brent crude", model.CategoryCommodity, model.Direct, 1.5, pvo(0.3)},
	{"WTI", "WTI crude", model.CategoryCommodity, model.Direct, 1.2, pvo(0.3)},
	{"XAUUSD", "Gold", model.CategoryCommodity, model.Inverse, 1.2, pvo(3)},
	{"XAGUSD", "Silver", model.CategoryCommodity, model.Inverse, 0.5, pvo(0.08)},
	{"COPPER", "Copper", model.CategoryCommodity, model.Direct, 1.0, pvo(0.01)},
	{"IRONORE", "Iron ore", model.CategoryCommodity, model.Direct, 1.5, pvo(0.5)},
	{"SOYBEAN", "Soybeans", model.CategoryCommodity, model.Direct, 0.5, pvo(3)},
	{"CORN", "Corn (CBOT)", model.CategoryCommodity, model.Direct, 0.3, pvo(2)},
	{"SUGAR", "Sugar no. 11", model.CategoryCommodity, model.Direct, 0.4, pvo(0.08)},
	{"BGI", "Live cattle future", model.CategoryCommodity, model.Direct, 0.4, pvo(0.5)},
	{"CCM", "Corn future (local)", model.CategoryCommodity, model.Direct, 0.3, pvo(0.3)},
	{"ICF", "Arabica coffee future", model.CategoryCommodity, model.Direct, 0.3, pvo(1)},

	// Rate curve vertex spreads: steepening reads as risk-off.
	{"DI_SHORT_SPREAD", "DI curve front spread", model.CategoryRateCurve, model.Inverse, 1.5,
		model.SpreadCurveParams{ShortVertex: "DI1F27", LongVertex: "DI1F29", MinMoveBps: 2}},
	{"DI_BELLY_SPREAD", "DI curve belly spread", model.CategoryRateCurve, model.Inverse, 1.2,
		model.SpreadCurveParams{ShortVertex: "DI1F27", LongVertex: "DI1F31", MinMoveBps: 2}},
	{"DI_LONG_SPREAD", "DI curve long spread", model.CategoryRateCurve, model.Inverse, 1.0,
		model.SpreadCurveParams{ShortVertex: "DI1F26", LongVertex: "DI1F33", MinMoveBps: 3}},

	// Technical indicators on the reference instrument
	{referenceSymbol, "RSI 14", model.CategoryTechnical, model.Direct, 2.0, ind(model.IndicatorRSI, 14)},
	{referenceSymbol, "Stochastic 14", model.CategoryTechnical, model.Direct, 1.2, ind(model.IndicatorStochastic, 14)},
	{referenceSymbol, "MACD 12/26/9", model.CategoryTechnical, model.Direct, 1.8, ind(model.IndicatorMACD, 0)},
	{referenceSymbol, "EMA cross 9/21", model.CategoryTechnical, model.Direct, 1.5, ind(model.IndicatorEMACross, 21)},
	{referenceSymbol, "Bollinger 20", model.CategoryTechnical, model.Direct, 1.0, ind(model.IndicatorBollinger, 20)},
	{referenceSymbol, "ADX 14", model.CategoryTechnical, model.Direct, 1.0, ind(model.IndicatorADX, 14)},
	{referenceSymbol, "VWAP session", model.CategoryTechnical, model.Direct, 2.0, ind(model.IndicatorVWAP, 0)},
	{referenceSymbol, "Momentum 10", model.CategoryTechnical, model.Direct, 1.2, ind(model.IndicatorMomentum, 10)},

	// Order-flow proxies on the reference instrument
	{referenceSymbol, "Volume spike", model.CategoryFlow, model.Direct, 1.2, flow(model.IndicatorVolume, 10)},
	{referenceSymbol, "Aggressor delta", model.CategoryFlow, model.Direct, 2.0, flow(model.IndicatorDelta, 10)},
	{referenceSymbol, "Book imbalance", model.CategoryFlow, model.Direct, 1.5, flow(model.IndicatorImbalance, 1)},
	{referenceSymbol, "Aggression", model.CategoryFlow, model.Direct, 1.5, flow(model.IndicatorAggression, 10)},
	{referenceSymbol, "Tape speed", model.CategoryFlow, model.Direct, 1.0, flow(model.IndicatorTapeSpeed, 10)},
	{referenceSymbol, "Large trades", model.CategoryFlow, model.Direct, 1.0, flow(model.IndicatorLargeTrades, 10)},
}

// Default builds the standard catalog.
func Default() (*Registry, error) {
	items := make([]model.Item, 0, len(catalog))
	for i, d := range catalog {
		it, err := model.NewItem(i+1, d.symbol, d.name, d.cat, d.corr, d.weight, d.params)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		items = append(items, it)
	}
	return New(referenceSymbol, items)
}

// New builds a registry from an explicit item list, validating uniqueness.
func New(reference string, items []model.Item) (*Registry, error) {
	if reference == "" {
		return nil, fmt.Errorf("registry: reference symbol must not be empty")
	}
	byID := make(map[int]model.Item, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate item id %d", it.ID)
		}
		byID[it.ID] = it
	}
	return &Registry{items: items, byID: byID, reference: reference}, nil
}

// Items returns the catalog in declaration order. Callers must not mutate
// the returned slice.
func (r *Registry) Items() []model.Item { return r.items }

// ByID looks an item up by its identifier.
func (r *Registry) ByID(id int) (model.Item, bool) {
	it, ok := r.byID[id]
	return it, ok
}

// ByCategory filters the catalog by market segment.
func (r *Registry) ByCategory(cat model.Category) []model.Item {
	var out []model.Item
	for _, it := range r.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// Reference is the registry symbol of the target futures instrument.
func (r *Registry) Reference() string { return r.reference }

// Total is the number of tracked items.
func (r *Registry) Total() int { return len(r.items) }
