package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fiveMinBars(start time.Time, n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{
			Time:      start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    10,
			Timeframe: model.TimeframeM5,
		}
	}
	return out
}

func TestSaveBars_Idempotent(t *testing.T) {
	s := testStore(t)
	start := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	bars := fiveMinBars(start, 6)

	n, err := s.SaveBars("WINQ25", bars)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// Saving the same bars again inserts nothing.
	n, err = s.SaveBars("WINQ25", bars)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// A partially overlapping batch only adds the new tail.
	n, err = s.SaveBars("WINQ25", fiveMinBars(start.Add(20*time.Minute), 4))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBars_RangeAndOrder(t *testing.T) {
	s := testStore(t)
	start := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	_, err := s.SaveBars("WINQ25", fiveMinBars(start, 10))
	require.NoError(t, err)

	got, err := s.Bars("WINQ25", model.TimeframeM5, start.Add(10*time.Minute), start.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Time.After(got[i-1].Time), "bars must come back ascending")
	}
	assert.Equal(t, start.Add(10*time.Minute), got[0].Time)
	assert.InDelta(t, 102.0, got[0].Open, 1e-9)
}

func TestBars_TimeframeIsolation(t *testing.T) {
	s := testStore(t)
	start := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	m5 := fiveMinBars(start, 3)
	m1 := fiveMinBars(start, 3)
	for i := range m1 {
		m1[i].Timeframe = model.TimeframeM1
	}
	_, err := s.SaveBars("WINQ25", m5)
	require.NoError(t, err)
	_, err = s.SaveBars("WINQ25", m1)
	require.NoError(t, err)

	got, err := s.Bars("WINQ25", model.TimeframeM1, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, model.TimeframeM1, c.Timeframe)
	}
}

func TestDailyOpen_RoundTrip(t *testing.T) {
	s := testStore(t)
	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	_, ok, err := s.DailyOpen("WINQ25", day)
	require.NoError(t, err)
	assert.False(t, ok, "missing day should report absent, not error")

	c := model.Candle{Time: day, Open: 130000, High: 131000, Low: 129500, Close: 130800}
	require.NoError(t, s.SaveDailyOpen("WINQ25", day, c))

	got, ok, err := s.DailyOpen("WINQ25", day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 130000.0, got.Open, 1e-9)

	// Re-saving replaces rather than duplicating.
	c.Open = 130100
	require.NoError(t, s.SaveDailyOpen("WINQ25", day, c))
	got, ok, err = s.DailyOpen("WINQ25", day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 130100.0, got.Open, 1e-9)
}
