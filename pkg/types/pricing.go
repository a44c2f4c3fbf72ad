package types

import (
	"fmt"
	"math"
)

// HoursPerDay is the number of points in a complete series.
const HoursPerDay = 24

// Peak window bounds, inclusive. The UI labels this window "4pm-9pm" but the
// 8pm hour is the last one counted.
const (
	PeakStartHour = 16
	PeakEndHour   = 20
)

// IsPeakHour reports whether hour falls in the daily peak window.
func IsPeakHour(hour int) bool {
	return hour >= PeakStartHour && hour <= PeakEndHour
}

// Source identifies where a series came from.
type Source string

const (
	SourceUpstream  Source = "upstream"
	SourceSynthetic Source = "synthetic"
)

// Sample is a single hourly price extracted from an upstream response. A set
// of samples may be sparse, unordered and contain duplicate hours.
type Sample struct {
	Hour  int
	Price float64
}

// HourlyPricePoint is the price for one hour of the day in dollars per kWh.
type HourlyPricePoint struct {
	Hour   int     `json:"hour"`
	Price  float64 `json:"price"`
	IsPeak bool    `json:"isPeak"`
}

// NewHourlyPricePoint builds a point whose peak flag is derived from hour.
func NewHourlyPricePoint(hour int, price float64) HourlyPricePoint {
	return HourlyPricePoint{
		Hour:   hour,
		Price:  price,
		IsPeak: IsPeakHour(hour),
	}
}

// HourlyPriceSeries is a full day of prices, one point per hour in ascending
// order.
type HourlyPriceSeries []HourlyPricePoint

// Validate checks that the series has exactly one non-negative price for every
// hour 0 through 23 in order and that every peak flag matches IsPeakHour.
func (s HourlyPriceSeries) Validate() error {
	if len(s) != HoursPerDay {
		return fmt.Errorf("series has %d points, expected %d", len(s), HoursPerDay)
	}
	for i, p := range s {
		if p.Hour != i {
			return fmt.Errorf("point %d has hour %d", i, p.Hour)
		}
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("hour %d has non-finite price", p.Hour)
		}
		if p.Price < 0 {
			return fmt.Errorf("hour %d has negative price %f", p.Hour, p.Price)
		}
		if p.IsPeak != IsPeakHour(p.Hour) {
			return fmt.Errorf("hour %d has isPeak=%t", p.Hour, p.IsPeak)
		}
	}
	return nil
}

// Clone returns a copy of the series that shares no memory with s.
func (s HourlyPriceSeries) Clone() HourlyPriceSeries {
	if s == nil {
		return nil
	}
	c := make(HourlyPriceSeries, len(s))
	copy(c, s)
	return c
}

// PricingSummary holds the mean prices of a series.
type PricingSummary struct {
	Average float64 `json:"average"`
	Peak    float64 `json:"peak"`
	OffPeak float64 `json:"offPeak"`
}
