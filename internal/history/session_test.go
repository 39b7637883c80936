package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
	"MacroPulse/internal/resolver"
)

func sessionFixture(t *testing.T) *SessionData {
	t.Helper()
	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	seed := fiveMinBars(day.Add(-2*time.Hour), 6)    // prior-session tail
	session := fiveMinBars(day.Add(12*time.Hour), 8) // replayable bars

	sd := NewSessionData(day, "WINFUT", session)
	sd.AddInstrument("WINFUT", append(append([]model.Candle{}, seed...), session...), 130000)
	sd.PinResolution("WIN", resolver.Resolution{Instrument: "WINFUT"})
	return sd
}

func TestView_TruncatesAtCutoff(t *testing.T) {
	sd := sessionFixture(t)

	view, err := sd.View(2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Index())
	assert.Equal(t, sd.Timeline[2].Time, view.At())

	// Seed bars plus session bars 0..2 are reachable, nothing later.
	bars := view.Candles("WINFUT", 100)
	require.Len(t, bars, 9)
	for _, c := range bars {
		assert.False(t, c.Time.After(view.At()), "bar %s leaks past cutoff %s", c.Time, view.At())
	}
	assert.Equal(t, view.At(), bars[len(bars)-1].Time)
}

func TestView_LimitsRequestedDepth(t *testing.T) {
	sd := sessionFixture(t)
	view, err := sd.View(5)
	require.NoError(t, err)

	bars := view.Candles("WINFUT", 3)
	require.Len(t, bars, 3)
	// The window ends at the cutoff bar and reaches back, not forward.
	assert.Equal(t, view.At(), bars[2].Time)
}

func TestView_PriceAndOpen(t *testing.T) {
	sd := sessionFixture(t)
	view, err := sd.View(0)
	require.NoError(t, err)

	price, ok := view.Price("WINFUT")
	require.True(t, ok)
	assert.InDelta(t, sd.Timeline[0].Close, price, 1e-9)

	open, ok := view.SessionOpen("WINFUT")
	require.True(t, ok)
	assert.InDelta(t, 130000.0, open, 1e-9)

	_, ok = view.Price("UNKNOWN")
	assert.False(t, ok)
	_, ok = view.SessionOpen("UNKNOWN")
	assert.False(t, ok)
}

func TestView_IndexOutOfRange(t *testing.T) {
	sd := sessionFixture(t)
	_, err := sd.View(-1)
	assert.Error(t, err)
	_, err = sd.View(sd.BarCount())
	assert.Error(t, err)
}

func TestResolution_PinnedOnly(t *testing.T) {
	sd := sessionFixture(t)
	res, ok := sd.Resolution("WIN")
	require.True(t, ok)
	assert.Equal(t, "WINFUT", res.Instrument)

	_, ok = sd.Resolution("SPX")
	assert.False(t, ok)
}
