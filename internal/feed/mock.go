package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"MacroPulse/internal/model"
)

// MockInstrument is the controllable state for one instrument in the Mock.
type MockInstrument struct {
	Tick    *model.Tick
	Open    *model.Candle
	Candles []model.Candle
}

// Mock returns fixed, controllable data for development and testing.
type Mock struct {
	mu          sync.Mutex
	instruments map[string]*MockInstrument
	connected   bool
	reconnects  int
	delay       time.Duration
}

func NewMock() *Mock {
	return &Mock{instruments: make(map[string]*MockInstrument), connected: true}
}

// Set installs or replaces the state for one instrument code.
func (m *Mock) Set(code string, ins MockInstrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[code] = &ins
}

// SetPrice is a shorthand installing a last price plus a matching daily open.
func (m *Mock) SetPrice(code string, open, last float64) {
	now := time.Now()
	m.Set(code, MockInstrument{
		Tick: &model.Tick{Bid: last, Ask: last, Last: last, At: now},
		Open: &model.Candle{Time: now.Truncate(24 * time.Hour), Open: open, High: last, Low: open, Close: last, Timeframe: model.TimeframeD1},
	})
}

// Reconnects reports how many times Reconnect was called.
func (m *Mock) Reconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnects
}

// SetDelay makes every subsequent call sleep, to exercise the guard's
// timeout path. Abandoned workers may still be reading it, so it is kept
// behind the mutex.
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *Mock) sleep() {
	m.mu.Lock()
	d := m.delay
	m.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func (m *Mock) get(code string) *MockInstrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instruments[code]
}

func (m *Mock) SelectInstrument(_ context.Context, code string) (bool, error) {
	m.sleep()
	return m.get(code) != nil, nil
}

func (m *Mock) Tick(_ context.Context, code string) (*model.Tick, error) {
	m.sleep()
	ins := m.get(code)
	if ins == nil || ins.Tick == nil {
		return nil, ErrNoData
	}
	t := *ins.Tick
	return &t, nil
}

func (m *Mock) DailyOpen(_ context.Context, code string) (*model.Candle, error) {
	m.sleep()
	ins := m.get(code)
	if ins == nil || ins.Open == nil {
		return nil, ErrNoData
	}
	c := *ins.Open
	return &c, nil
}

func (m *Mock) Candles(_ context.Context, code string, tf model.Timeframe, count int) ([]model.Candle, error) {
	m.sleep()
	ins := m.get(code)
	if ins == nil {
		return nil, ErrNoData
	}
	bars := filterTimeframe(ins.Candles, tf)
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func (m *Mock) CandlesRange(_ context.Context, code string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error) {
	m.sleep()
	ins := m.get(code)
	if ins == nil {
		return nil, ErrNoData
	}
	var out []model.Candle
	for _, c := range filterTimeframe(ins.Candles, tf) {
		if !c.Time.Before(start) && !c.Time.After(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Mock) ListInstruments(_ context.Context, prefix string) ([]string, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for code := range m.instruments {
		if strings.HasPrefix(code, prefix) {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) Reconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
	m.connected = true
	return nil
}

func filterTimeframe(bars []model.Candle, tf model.Timeframe) []model.Candle {
	out := make([]model.Candle, 0, len(bars))
	for _, c := range bars {
		if c.Timeframe == tf || c.Timeframe == "" {
			out = append(out, c)
		}
	}
	return out
}
