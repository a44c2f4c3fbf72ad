package pricing

import (
	"cmp"
	"slices"

	"github.com/raterudder/dayahead/pkg/types"
)

// Summarize computes the mean price over the whole series and over its peak
// and off-peak hours. A bucket with no hours has a mean of 0.
func Summarize(series types.HourlyPriceSeries) types.PricingSummary {
	var all, peak, offPeak, peakN, offPeakN float64
	for _, p := range series {
		all += p.Price
		if p.IsPeak {
			peak += p.Price
			peakN++
		} else {
			offPeak += p.Price
			offPeakN++
		}
	}
	return types.PricingSummary{
		Average: mean(all, peakN+offPeakN),
		Peak:    mean(peak, peakN),
		OffPeak: mean(offPeak, offPeakN),
	}
}

func mean(sum, n float64) float64 {
	if n == 0 {
		return 0
	}
	return sum / n
}

// Cheapest returns the n lowest priced hours of series, cheapest first. Ties
// are broken by the earlier hour. n is clamped to the length of the series.
func Cheapest(series types.HourlyPriceSeries, n int) []types.HourlyPricePoint {
	n = min(max(n, 0), len(series))
	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b types.HourlyPricePoint) int {
		if c := cmp.Compare(a.Price, b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return sorted[:n]
}
