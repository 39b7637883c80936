package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func TestDefault_CatalogIsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	assert.Greater(t, reg.Total(), 70, "catalog should track the full item universe")
	assert.Equal(t, "WIN", reg.Reference())

	seen := make(map[int]bool)
	for _, it := range reg.Items() {
		assert.False(t, seen[it.ID], "duplicate id %d", it.ID)
		seen[it.ID] = true
		assert.NotEmpty(t, it.Symbol)
		assert.GreaterOrEqual(t, it.Weight.Float(), 0.0)
		assert.NotNil(t, it.Params)
	}
}

func TestDefault_CoversAllMethods(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	methods := make(map[model.ScoringMethod]int)
	for _, it := range reg.Items() {
		methods[it.Method()]++
	}
	assert.NotZero(t, methods[model.MethodPriceVsOpen])
	assert.NotZero(t, methods[model.MethodTechnicalIndicator])
	assert.NotZero(t, methods[model.MethodSpreadCurve])
	assert.NotZero(t, methods[model.MethodFlowIndicator])
}

func TestByCategoryAndByID(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	curve := reg.ByCategory(model.CategoryRateCurve)
	require.Len(t, curve, 3)
	for _, it := range curve {
		p, ok := it.Params.(model.SpreadCurveParams)
		require.True(t, ok)
		assert.NotEmpty(t, p.ShortVertex)
		assert.NotEmpty(t, p.LongVertex)
	}

	it, ok := reg.ByID(1)
	require.True(t, ok)
	assert.Equal(t, "SP500", it.Symbol)

	_, ok = reg.ByID(99999)
	assert.False(t, ok)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	a, err := model.NewItem(1, "A", "", model.CategoryIndex, model.Direct, 1, model.PriceVsOpenParams{})
	require.NoError(t, err)
	b, err := model.NewItem(1, "B", "", model.CategoryIndex, model.Direct, 1, model.PriceVsOpenParams{})
	require.NoError(t, err)

	_, err = New("WIN", []model.Item{a, b})
	assert.Error(t, err)
}
