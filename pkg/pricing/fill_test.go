package pricing

import (
	"testing"

	"github.com/raterudder/dayahead/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	t.Run("interpolates and clamps", func(t *testing.T) {
		series := Fill([]types.Sample{{Hour: 5, Price: 0.10}, {Hour: 10, Price: 0.20}})
		require.NoError(t, series.Validate())

		assert.InDelta(t, 0.10, series[2].Price, 1e-9)
		assert.InDelta(t, 0.10, series[5].Price, 1e-9)
		assert.InDelta(t, 0.14, series[7].Price, 1e-9)
		assert.InDelta(t, 0.20, series[10].Price, 1e-9)
		assert.InDelta(t, 0.20, series[15].Price, 1e-9)
		assert.InDelta(t, 0.20, series[23].Price, 1e-9)
	})

	t.Run("unordered samples", func(t *testing.T) {
		series := Fill([]types.Sample{{Hour: 18, Price: 0.4}, {Hour: 0, Price: 0.1}, {Hour: 12, Price: 0.3}, {Hour: 6, Price: 0.2}})
		require.NoError(t, series.Validate())
		assert.InDelta(t, 0.1, series[0].Price, 1e-9)
		assert.InDelta(t, 0.15, series[3].Price, 1e-9)
		assert.InDelta(t, 0.25, series[9].Price, 1e-9)
		assert.InDelta(t, 0.35, series[15].Price, 1e-9)
		assert.InDelta(t, 0.4, series[23].Price, 1e-9)
	})

	t.Run("first duplicate wins", func(t *testing.T) {
		series := Fill([]types.Sample{{Hour: 3, Price: 0.3}, {Hour: 3, Price: 0.9}})
		for _, p := range series {
			assert.InDelta(t, 0.3, p.Price, 1e-9)
		}
	})

	t.Run("no samples", func(t *testing.T) {
		series := Fill(nil)
		require.NoError(t, series.Validate())
		for _, p := range series {
			assert.Equal(t, FallbackPrice, p.Price)
		}
	})

	t.Run("out of range hours are ignored", func(t *testing.T) {
		series := Fill([]types.Sample{{Hour: -1, Price: 5}, {Hour: 24, Price: 5}, {Hour: 12, Price: 0.2}})
		require.NoError(t, series.Validate())
		for _, p := range series {
			assert.InDelta(t, 0.2, p.Price, 1e-9)
		}
	})

	t.Run("complete input is unchanged", func(t *testing.T) {
		var samples []types.Sample
		for h := types.HoursPerDay - 1; h >= 0; h-- {
			samples = append(samples, types.Sample{Hour: h, Price: float64(h) / 100})
		}
		series := Fill(samples)
		require.NoError(t, series.Validate())
		for h, p := range series {
			assert.Equal(t, h, p.Hour)
			assert.Equal(t, float64(h)/100, p.Price)
			assert.Equal(t, types.IsPeakHour(h), p.IsPeak)
		}
	})
}
