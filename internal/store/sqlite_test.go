package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAggregate(session string, at time.Time) *model.AggregateResult {
	w, _ := model.NewWeight(2.0)
	return &model.AggregateResult{
		SessionID:   session,
		At:          at,
		Total:       2,
		Available:   1,
		Unavailable: 1,
		BullishSum:  2.0,
		FinalScore:  2.0,
		Signal:      model.SignalBuy,
		Confidence:  0.7,
		RefPrice:    130200,
		Summary:     "BUY +2.00",
		Items: []model.ItemScoreResult{
			{
				ItemID: 1, Symbol: "SPX", Instrument: "SPX",
				RawScore: model.ScoreBullish, FinalScore: model.ScoreBullish,
				Weight: w, Weighted: 2.0, Available: true,
			},
			{ItemID: 2, Symbol: "GHOST", Available: false, Detail: "unresolved symbol"},
		},
	}
}

func TestSaveAggregate_RetrySafe(t *testing.T) {
	s := testSQLite(t)
	at := time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)
	agg := sampleAggregate("replay-2025-07-10", at)

	require.NoError(t, s.SaveAggregate(agg))
	require.NoError(t, s.SaveAggregate(agg), "same session and timestamp must not error")

	var aggs, items int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM aggregates`).Scan(&aggs))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM item_scores`).Scan(&items))
	assert.Equal(t, 1, aggs, "duplicate aggregate rows must be skipped")
	assert.Equal(t, 2, items, "duplicate item rows must be skipped")
}

func TestFeedbackLifecycle(t *testing.T) {
	s := testSQLite(t)
	decided := time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)

	id, err := s.RecordDecision(&model.FeedbackRecord{
		SessionID: "live-1", Signal: model.SignalBuy,
		Score: 2.0, Confidence: 0.7, RefPrice: 130000, DecidedAt: decided,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	// Not yet due.
	pending, err := s.PendingDecisions(decided.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = s.PendingDecisions(decided.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, model.SignalBuy, pending[0].Signal)
	assert.Equal(t, decided, pending[0].DecidedAt)

	evalAt := decided.Add(time.Hour)
	require.NoError(t, s.MarkEvaluated(id, 130400, model.DirectionUp, true, evalAt))

	// Exactly-once: the second mark fails and the row stays evaluated.
	err = s.MarkEvaluated(id, 999, model.DirectionDown, false, evalAt)
	assert.Error(t, err)

	pending, err = s.PendingDecisions(decided.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Empty(t, pending, "evaluated rows leave the pending set")
}

func TestItemOutcomes(t *testing.T) {
	s := testSQLite(t)
	base := time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)

	// Three decisions in distinct sessions: up, down, and flat realized.
	for i, tc := range []struct {
		dir   model.Direction
		score model.Score
	}{
		{model.DirectionUp, model.ScoreBullish},
		{model.DirectionDown, model.ScoreBullish},
		{model.DirectionFlat, model.ScoreBullish},
	} {
		session := "live-" + string(rune('a'+i))
		at := base.Add(time.Duration(i) * time.Hour)
		agg := sampleAggregate(session, at)
		agg.Items[0].RawScore = tc.score
		agg.Items[0].FinalScore = tc.score
		require.NoError(t, s.SaveAggregate(agg))

		id, err := s.RecordDecision(&model.FeedbackRecord{
			SessionID: session, Signal: model.SignalBuy, RefPrice: 130000, DecidedAt: at,
		})
		require.NoError(t, err)
		require.NoError(t, s.MarkEvaluated(id, 130400, tc.dir, tc.dir == model.DirectionUp, at.Add(time.Hour)))
	}

	out, err := s.ItemOutcomes(1, 50)
	require.NoError(t, err)
	// Flat realizations are excluded; the rest come back newest first.
	require.Len(t, out, 2)
	assert.Equal(t, model.DirectionDown, out[0].Realized)
	assert.Equal(t, model.DirectionUp, out[1].Realized)
	assert.Equal(t, 1, out[0].FinalScore)

	// The unavailable item never accrues outcomes.
	out, err = s.ItemOutcomes(2, 50)
	require.NoError(t, err)
	assert.Empty(t, out)

	// Limit caps the window.
	out, err = s.ItemOutcomes(1, 1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
