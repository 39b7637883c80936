package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/feed"
	"MacroPulse/internal/model"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/store"
)

// fakeRecorder is an in-memory Recorder for exercising the evaluator
// without sqlite.
type fakeRecorder struct {
	records  []model.FeedbackRecord
	outcomes map[int][]store.ItemOutcome
}

func (f *fakeRecorder) SaveAggregate(_ *model.AggregateResult) error { return nil }

func (f *fakeRecorder) RecordDecision(rec *model.FeedbackRecord) (int64, error) {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return rec.ID, nil
}

func (f *fakeRecorder) PendingDecisions(before time.Time) ([]model.FeedbackRecord, error) {
	var out []model.FeedbackRecord
	for _, r := range f.records {
		if !r.Evaluated && !r.DecidedAt.After(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecorder) MarkEvaluated(id int64, realized float64, dir model.Direction, correct bool, at time.Time) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].RealizedPrice = realized
			f.records[i].Realized = dir
			f.records[i].Correct = correct
			f.records[i].Evaluated = true
			f.records[i].EvaluatedAt = at
			return nil
		}
	}
	return nil
}

func (f *fakeRecorder) ItemOutcomes(itemID int, limit int) ([]store.ItemOutcome, error) {
	out := f.outcomes[itemID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecorder) Close() error { return nil }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	sp, err := model.NewItem(1, "SPX", "S&P 500", model.CategoryIndex, model.Direct, 2.0,
		model.PriceVsOpenParams{MinMovePoints: 1})
	require.NoError(t, err)
	vix, err := model.NewItem(2, "VIX", "Volatility index", model.CategoryIndex, model.Inverse, 1.5,
		model.PriceVsOpenParams{MinMovePoints: 0.5})
	require.NoError(t, err)
	reg, err := registry.New("WIN", []model.Item{sp, vix})
	require.NoError(t, err)
	return reg
}

func TestEvaluatePending_CorrectAndIncorrect(t *testing.T) {
	rec := &fakeRecorder{}
	src := feed.NewMock()
	src.SetPrice("WINFUT", 130000, 130400) // realized price well above both refs

	ev := New(rec, src, testRegistry(t), zerolog.Nop())

	decided := time.Now().UTC().Add(-2 * time.Hour)
	rec.records = []model.FeedbackRecord{
		{ID: 1, SessionID: "a", Signal: model.SignalBuy, RefPrice: 130000, DecidedAt: decided},
		{ID: 2, SessionID: "b", Signal: model.SignalSell, RefPrice: 130000, DecidedAt: decided},
	}

	n, err := ev.EvaluatePending(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, rec.records[0].Evaluated)
	assert.Equal(t, model.DirectionUp, rec.records[0].Realized)
	assert.True(t, rec.records[0].Correct, "BUY before an up move should be correct")
	assert.False(t, rec.records[1].Correct, "SELL before an up move should be incorrect")
	assert.Equal(t, 130400.0, rec.records[1].RealizedPrice)
}

func TestEvaluatePending_SkipsYoungDecisions(t *testing.T) {
	rec := &fakeRecorder{}
	src := feed.NewMock()
	src.SetPrice("WINFUT", 130000, 130400)

	ev := New(rec, src, testRegistry(t), zerolog.Nop())
	rec.records = []model.FeedbackRecord{
		{ID: 1, Signal: model.SignalBuy, RefPrice: 130000, DecidedAt: time.Now().UTC()},
	}

	n, err := ev.EvaluatePending(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, rec.records[0].Evaluated)
}

func TestEvaluatePending_FlatInsideThreshold(t *testing.T) {
	rec := &fakeRecorder{}
	src := feed.NewMock()
	src.SetPrice("WINFUT", 130000, 130030) // +30 points, under the 50 point floor

	ev := New(rec, src, testRegistry(t), zerolog.Nop())
	decided := time.Now().UTC().Add(-2 * time.Hour)
	rec.records = []model.FeedbackRecord{
		{ID: 1, Signal: model.SignalNeutral, RefPrice: 130000, DecidedAt: decided},
	}

	n, err := ev.EvaluatePending(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, model.DirectionFlat, rec.records[0].Realized)
	assert.True(t, rec.records[0].Correct, "NEUTRAL into a flat move should be correct")
}

func TestItemAccuracy(t *testing.T) {
	rec := &fakeRecorder{outcomes: map[int][]store.ItemOutcome{
		1: {
			{FinalScore: 1, Realized: model.DirectionUp},
			{FinalScore: 1, Realized: model.DirectionDown},
			{FinalScore: -1, Realized: model.DirectionDown},
			{FinalScore: -1, Realized: model.DirectionUp},
		},
	}}
	ev := New(rec, feed.NewMock(), testRegistry(t), zerolog.Nop())

	acc, ok := ev.ItemAccuracy(1)
	require.True(t, ok)
	assert.InDelta(t, 0.5, acc, 1e-9)

	_, ok = ev.ItemAccuracy(99)
	assert.False(t, ok, "no history should report ok=false")
}

func TestSuggestWeightAdjustments(t *testing.T) {
	rec := &fakeRecorder{outcomes: map[int][]store.ItemOutcome{
		1: { // 3/4 hits
			{FinalScore: 1, Realized: model.DirectionUp},
			{FinalScore: 1, Realized: model.DirectionUp},
			{FinalScore: -1, Realized: model.DirectionDown},
			{FinalScore: 1, Realized: model.DirectionDown},
		},
		2: { // 0/3 hits
			{FinalScore: 1, Realized: model.DirectionDown},
			{FinalScore: -1, Realized: model.DirectionUp},
			{FinalScore: 1, Realized: model.DirectionDown},
		},
	}}
	ev := New(rec, feed.NewMock(), testRegistry(t), zerolog.Nop())

	sugg := ev.SuggestWeightAdjustments()
	require.Len(t, sugg, 2)
	assert.Equal(t, "RAISE", sugg[0].Action)
	assert.Equal(t, "SPX", sugg[0].Symbol)
	assert.Equal(t, "LOWER", sugg[1].Action)
	assert.Equal(t, "VIX", sugg[1].Symbol)
}
