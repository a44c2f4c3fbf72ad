package utility

import (
	"context"

	"github.com/raterudder/dayahead/pkg/types"
)

// Feed fetches the raw day-ahead pricing response for a single day.
type Feed interface {
	// FetchPricing returns the undecoded response body. The body's shape is
	// not trusted and is left to the caller to interpret.
	FetchPricing(ctx context.Context, params types.QueryParameters) ([]byte, error)
}
