package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/raterudder/dayahead/pkg/types"
	"github.com/shopspring/decimal"
)

// ExtractStrategy pulls samples out of one known upstream response shape. A
// strategy returns nil when the shape is absent and skips entries it cannot
// parse.
type ExtractStrategy struct {
	Name    string
	Extract func(raw json.RawMessage) []types.Sample
}

// DefaultStrategies lists the known GridX response shapes in the order they
// are tried.
var DefaultStrategies = []ExtractStrategy{
	{Name: "pricingInfoIntervals", Extract: extractPricingInfoIntervals},
	{Name: "priceDetails", Extract: extractPriceDetails},
	{Name: "dataPricing", Extract: extractDataPricing},
	{Name: "topLevelPricing", Extract: extractTopLevelPricing},
}

// Extract runs DefaultStrategies against raw and returns the samples from the
// first one that finds any. An empty result means the response had no usable
// prices.
func Extract(raw []byte) []types.Sample {
	samples, _ := ExtractWith(DefaultStrategies, raw)
	return samples
}

// ExtractWith is like Extract but takes the strategy list and also returns the
// name of the strategy that matched.
func ExtractWith(strategies []ExtractStrategy, raw []byte) ([]types.Sample, string) {
	for _, s := range strategies {
		if samples := s.Extract(raw); len(samples) > 0 {
			return samples, s.Name
		}
	}
	return nil, ""
}

// field returns the raw value of key in the JSON object raw, or nil when raw
// is not an object or has no such key.
func field(raw json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[key]
}

// list returns the elements of the JSON array raw, or nil when raw is not an
// array.
func list(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

// data[].pricingInfo[].intervals[]
func extractPricingInfoIntervals(raw json.RawMessage) []types.Sample {
	var samples []types.Sample
	for _, item := range list(field(raw, "data")) {
		for _, info := range list(field(item, "pricingInfo")) {
			for _, iv := range list(field(info, "intervals")) {
				if s, ok := parseInterval(iv); ok {
					samples = append(samples, s)
				}
			}
		}
	}
	return samples
}

// data[].priceDetails[]
func extractPriceDetails(raw json.RawMessage) []types.Sample {
	var samples []types.Sample
	for _, item := range list(field(raw, "data")) {
		for _, iv := range list(field(item, "priceDetails")) {
			if s, ok := parseInterval(iv); ok {
				samples = append(samples, s)
			}
		}
	}
	return samples
}

// data[].pricing[]
func extractDataPricing(raw json.RawMessage) []types.Sample {
	var samples []types.Sample
	for _, item := range list(field(raw, "data")) {
		for _, e := range list(field(item, "pricing")) {
			if s, ok := parseFlat(e); ok {
				samples = append(samples, s)
			}
		}
	}
	return samples
}

// pricing[]
func extractTopLevelPricing(raw json.RawMessage) []types.Sample {
	var samples []types.Sample
	for _, e := range list(field(raw, "pricing")) {
		if s, ok := parseFlat(e); ok {
			samples = append(samples, s)
		}
	}
	return samples
}

type gridxInterval struct {
	StartIntervalTimeStamp string          `json:"startIntervalTimeStamp"`
	IntervalPrice          json.RawMessage `json:"intervalPrice"`
}

// timestampLayouts are tried in order. GridX sends a numeric offset without a
// colon, e.g. 2025-03-29T00:00:00-0700.
var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseInterval(raw json.RawMessage) (types.Sample, bool) {
	var iv gridxInterval
	if err := json.Unmarshal(raw, &iv); err != nil {
		return types.Sample{}, false
	}
	hour, ok := intervalHour(iv.StartIntervalTimeStamp)
	if !ok {
		return types.Sample{}, false
	}
	return types.Sample{Hour: hour, Price: parsePrice(iv.IntervalPrice)}, true
}

// intervalHour returns the hour of day of ts in the offset it was written in.
func intervalHour(ts string) (int, bool) {
	if ts == "" {
		return 0, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

// parsePrice decodes a string or numeric price. Missing, empty and
// unparseable prices are 0 and negative prices are clamped to 0.
func parsePrice(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	str := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0
		}
	}
	d, err := decimal.NewFromString(str)
	if err != nil || d.IsNegative() {
		return 0
	}
	// values like 1e400 parse as decimals but overflow float64
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

type flatEntry struct {
	Hour  *int     `json:"hour"`
	Price *float64 `json:"price"`
}

func parseFlat(raw json.RawMessage) (types.Sample, bool) {
	var e flatEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return types.Sample{}, false
	}
	if e.Hour == nil || e.Price == nil {
		return types.Sample{}, false
	}
	if *e.Hour < 0 || *e.Hour >= types.HoursPerDay {
		return types.Sample{}, false
	}
	return types.Sample{Hour: *e.Hour, Price: max(*e.Price, 0)}, true
}
