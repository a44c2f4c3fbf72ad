package pricing

import (
	"github.com/raterudder/dayahead/pkg/types"
)

// FallbackPrice is used for every hour when there are no samples at all.
const FallbackPrice = 0.01

// Fill completes a sparse sample set into a full day. When an hour appears
// more than once the first sample wins. Missing hours are linearly
// interpolated between the nearest sampled hours on either side, or take the
// price of the only neighbor when they sit before the first or after the last
// sample.
func Fill(samples []types.Sample) types.HourlyPriceSeries {
	var known [types.HoursPerDay]bool
	var prices [types.HoursPerDay]float64
	for _, s := range samples {
		if s.Hour < 0 || s.Hour >= types.HoursPerDay || known[s.Hour] {
			continue
		}
		known[s.Hour] = true
		prices[s.Hour] = s.Price
	}

	series := make(types.HourlyPriceSeries, 0, types.HoursPerDay)
	for h := 0; h < types.HoursPerDay; h++ {
		if known[h] {
			series = append(series, types.NewHourlyPricePoint(h, prices[h]))
			continue
		}

		lo := -1
		for i := h - 1; i >= 0; i-- {
			if known[i] {
				lo = i
				break
			}
		}
		hi := -1
		for i := h + 1; i < types.HoursPerDay; i++ {
			if known[i] {
				hi = i
				break
			}
		}

		var price float64
		switch {
		case lo >= 0 && hi >= 0:
			slope := (prices[hi] - prices[lo]) / float64(hi-lo)
			price = prices[lo] + slope*float64(h-lo)
		case lo >= 0:
			price = prices[lo]
		case hi >= 0:
			price = prices[hi]
		default:
			price = FallbackPrice
		}
		series = append(series, types.NewHourlyPricePoint(h, price))
	}
	return series
}
