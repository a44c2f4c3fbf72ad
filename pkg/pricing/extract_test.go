package pricing

import (
	"encoding/json"
	"testing"

	"github.com/raterudder/dayahead/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		strategy string
		want     []types.Sample
	}{
		{
			name: "pricing info intervals",
			body: `{"data":[{"pricingInfo":[{"intervals":[
				{"startIntervalTimeStamp":"2025-03-29T00:00:00-0700","intervalPrice":"0.10"},
				{"startIntervalTimeStamp":"2025-03-29T06:00:00-0700","intervalPrice":"0.16"}
			]}]}]}`,
			strategy: "pricingInfoIntervals",
			want:     []types.Sample{{Hour: 0, Price: 0.10}, {Hour: 6, Price: 0.16}},
		},
		{
			name: "price details",
			body: `{"data":[{"priceDetails":[
				{"startIntervalTimeStamp":"2025-03-29T13:00:00-0700","intervalPrice":"0.21346"},
				{"startIntervalTimeStamp":"2025-03-29T14:00:00-07:00","intervalPrice":"0.3"}
			]}]}`,
			strategy: "priceDetails",
			want:     []types.Sample{{Hour: 13, Price: 0.21346}, {Hour: 14, Price: 0.3}},
		},
		{
			name:     "nested flat pricing",
			body:     `{"data":[{"pricing":[{"hour":3,"price":0.12},{"hour":4,"price":0.13}]}]}`,
			strategy: "dataPricing",
			want:     []types.Sample{{Hour: 3, Price: 0.12}, {Hour: 4, Price: 0.13}},
		},
		{
			name:     "top level pricing",
			body:     `{"pricing":[{"hour":23,"price":0.2},{"hour":1,"price":0.11}]}`,
			strategy: "topLevelPricing",
			want:     []types.Sample{{Hour: 23, Price: 0.2}, {Hour: 1, Price: 0.11}},
		},
		{
			name: "intervals win over flat pricing",
			body: `{"pricing":[{"hour":1,"price":9}],"data":[{"priceDetails":[
				{"startIntervalTimeStamp":"2025-03-29T01:00:00-0700","intervalPrice":"0.5"}
			]}]}`,
			strategy: "priceDetails",
			want:     []types.Sample{{Hour: 1, Price: 0.5}},
		},
		{
			name: "empty nested shape falls through",
			body: `{"data":[{"priceDetails":[]}],"pricing":[{"hour":2,"price":0.3}]}`,
			strategy: "topLevelPricing",
			want:     []types.Sample{{Hour: 2, Price: 0.3}},
		},
		{
			name: "malformed entries are skipped",
			body: `{"data":[{"priceDetails":[
				"garbage",
				{"startIntervalTimeStamp":"not a time","intervalPrice":"0.4"},
				{"intervalPrice":"0.4"},
				{"startIntervalTimeStamp":"2025-03-29T05:00:00","intervalPrice":"0.15"}
			]}]}`,
			strategy: "priceDetails",
			want:     []types.Sample{{Hour: 5, Price: 0.15}},
		},
		{
			name:     "flat entries missing fields or out of range are skipped",
			body:     `{"pricing":[{"hour":24,"price":1},{"hour":-1,"price":1},{"price":1},{"hour":2},{"hour":"3","price":1},{"hour":7,"price":0.2}]}`,
			strategy: "topLevelPricing",
			want:     []types.Sample{{Hour: 7, Price: 0.2}},
		},
		{
			name:     "data is not an array",
			body:     `{"data":{"priceDetails":[]}}`,
			strategy: "",
			want:     nil,
		},
		{
			name:     "not json",
			body:     `<html>bad gateway</html>`,
			strategy: "",
			want:     nil,
		},
		{
			name:     "top level array",
			body:     `[{"hour":1,"price":0.1}]`,
			strategy: "",
			want:     nil,
		},
		{
			name:     "empty",
			body:     ``,
			strategy: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy := ExtractWith(DefaultStrategies, []byte(tt.body))
			assert.Equal(t, tt.strategy, strategy)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, Extract([]byte(tt.body)))
		})
	}
}

func TestExtractPricePolicy(t *testing.T) {
	body := `{"data":[{"priceDetails":[
		{"startIntervalTimeStamp":"2025-03-29T00:00:00-0700","intervalPrice":"abc"},
		{"startIntervalTimeStamp":"2025-03-29T01:00:00-0700","intervalPrice":""},
		{"startIntervalTimeStamp":"2025-03-29T02:00:00-0700"},
		{"startIntervalTimeStamp":"2025-03-29T03:00:00-0700","intervalPrice":null},
		{"startIntervalTimeStamp":"2025-03-29T04:00:00-0700","intervalPrice":"-0.02"},
		{"startIntervalTimeStamp":"2025-03-29T05:00:00-0700","intervalPrice":0.25},
		{"startIntervalTimeStamp":"2025-03-29T06:00:00-0700","intervalPrice":"0.125"}
	]}]}`

	got := Extract([]byte(body))
	assert.Equal(t, []types.Sample{
		{Hour: 0, Price: 0},
		{Hour: 1, Price: 0},
		{Hour: 2, Price: 0},
		{Hour: 3, Price: 0},
		{Hour: 4, Price: 0},
		{Hour: 5, Price: 0.25},
		{Hour: 6, Price: 0.125},
	}, got)

	t.Run("overflowing price is zero", func(t *testing.T) {
		got := Extract([]byte(`{"data":[{"priceDetails":[
			{"startIntervalTimeStamp":"2025-03-29T00:00:00-0700","intervalPrice":"0.1"},
			{"startIntervalTimeStamp":"2025-03-29T01:00:00-0700","intervalPrice":"1e400"},
			{"startIntervalTimeStamp":"2025-03-29T02:00:00-0700","intervalPrice":"0.12"}
		]}]}`))
		assert.Equal(t, []types.Sample{
			{Hour: 0, Price: 0.1},
			{Hour: 1, Price: 0},
			{Hour: 2, Price: 0.12},
		}, got)
		assert.NoError(t, Fill(got).Validate())
	})

	t.Run("overflowing flat price is skipped", func(t *testing.T) {
		got := Extract([]byte(`{"pricing":[{"hour":1,"price":1e400},{"hour":2,"price":0.2}]}`))
		assert.Equal(t, []types.Sample{{Hour: 2, Price: 0.2}}, got)
	})

	t.Run("negative flat price is clamped", func(t *testing.T) {
		got := Extract([]byte(`{"pricing":[{"hour":1,"price":-3}]}`))
		assert.Equal(t, []types.Sample{{Hour: 1, Price: 0}}, got)
	})
}

func TestExtractWithCustomStrategy(t *testing.T) {
	called := false
	custom := ExtractStrategy{
		Name: "custom",
		Extract: func(raw json.RawMessage) []types.Sample {
			called = true
			return []types.Sample{{Hour: 9, Price: 1}}
		},
	}
	got, name := ExtractWith(append([]ExtractStrategy{custom}, DefaultStrategies...), []byte(`{}`))
	assert.True(t, called)
	assert.Equal(t, "custom", name)
	assert.Equal(t, []types.Sample{{Hour: 9, Price: 1}}, got)
}

func TestIntervalHour(t *testing.T) {
	tests := []struct {
		ts   string
		hour int
		ok   bool
	}{
		{"2025-03-29T00:00:00-0700", 0, true},
		{"2025-03-29T23:00:00-0800", 23, true},
		{"2025-03-29T18:00:00Z", 18, true},
		{"2025-03-29T18:00:00+05:30", 18, true},
		{"2025-03-29T07:00:00", 7, true},
		{"2025-03-29", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		hour, ok := intervalHour(tt.ts)
		assert.Equal(t, tt.ok, ok, tt.ts)
		assert.Equal(t, tt.hour, hour, tt.ts)
	}
}
