package pricing

import (
	"math/rand/v2"
	"time"

	"github.com/raterudder/dayahead/pkg/types"
	"github.com/shopspring/decimal"
)

type syntheticPeriod struct {
	name      string
	hourStart int
	hourEnd   int // exclusive
	price     float64
}

// syntheticPeriods are the base prices of the fallback curve in dollars per
// kWh.
var syntheticPeriods = []syntheticPeriod{
	{name: "overnight", hourStart: 0, hourEnd: 6, price: 0.12},
	{name: "morning", hourStart: 6, hourEnd: 10, price: 0.18},
	{name: "midday", hourStart: 10, hourEnd: 16, price: 0.22},
	{name: "evening", hourStart: 16, hourEnd: 21, price: 0.38},
	{name: "night", hourStart: 21, hourEnd: 24, price: 0.20},
}

const (
	weekendFactor    = 0.8
	syntheticNoise   = 0.05
	syntheticDecimal = 5
)

func basePrice(hour int) float64 {
	for _, p := range syntheticPeriods {
		if hour >= p.hourStart && hour < p.hourEnd {
			return p.price
		}
	}
	return syntheticPeriods[len(syntheticPeriods)-1].price
}

// dateSeed sums the bytes of date.
func dateSeed(date string) uint64 {
	var seed uint64
	for i := 0; i < len(date); i++ {
		seed += uint64(date[i])
	}
	return seed
}

// Synthetic generates a plausible price curve for date. The same date always
// produces the same series. Saturdays and Sundays are discounted and every
// hour carries up to 5% of noise. A date that cannot be parsed is priced as a
// weekday.
func Synthetic(date string) types.HourlyPriceSeries {
	seed := dateSeed(date)
	rng := rand.New(rand.NewPCG(seed, seed))

	factor := 1.0
	if d, err := time.Parse(types.DateLayout, date); err == nil {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			factor = weekendFactor
		}
	}

	series := make(types.HourlyPriceSeries, 0, types.HoursPerDay)
	for h := 0; h < types.HoursPerDay; h++ {
		noise := 1 + (rng.Float64()*2-1)*syntheticNoise
		price := decimal.NewFromFloat(basePrice(h) * factor * noise).
			Round(syntheticDecimal).
			InexactFloat64()
		series = append(series, types.NewHourlyPricePoint(h, price))
	}
	return series
}
