package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raterudder/dayahead/pkg/log"
	"github.com/raterudder/dayahead/pkg/pricing"
	"github.com/raterudder/dayahead/pkg/types"
)

const defaultCheapestCount = 3

// parseParams reads the pricing parameters from r, writing a 400 and
// returning false when they are invalid.
func parseParams(w http.ResponseWriter, r *http.Request) (types.QueryParameters, bool) {
	params, err := types.ParseQueryParameters(r.URL.Query())
	if err != nil {
		var reqErr *types.RequestError
		if errors.As(err, &reqErr) {
			writeJSONError(w, "Invalid request parameters. "+reqErr.Message, http.StatusBadRequest)
		} else {
			writeJSONError(w, "Invalid request parameters", http.StatusBadRequest)
		}
		return types.QueryParameters{}, false
	}
	return params, true
}

func setResultHeaders(w http.ResponseWriter, res pricing.Result) {
	w.Header().Set(priceSourceHeader, string(res.Source))
	if res.Cached {
		w.Header().Set(cacheHeader, "HIT")
	} else {
		w.Header().Set(cacheHeader, "MISS")
	}
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, ok := parseParams(w, r)
	if !ok {
		return
	}

	res, err := s.prices.Prices(ctx, params)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to resolve prices", slog.String("date", params.Date), slog.Any("error", err))
		writeJSONError(w, "Failed to fetch pricing data", http.StatusInternalServerError)
		return
	}

	setResultHeaders(w, res)
	writeJSON(w, res.Series)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, ok := parseParams(w, r)
	if !ok {
		return
	}

	res, summary, err := s.prices.Summary(ctx, params)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to summarize prices", slog.String("date", params.Date), slog.Any("error", err))
		writeJSONError(w, "Failed to fetch pricing data", http.StatusInternalServerError)
		return
	}

	setResultHeaders(w, res)
	writeJSON(w, summary)
}

func (s *Server) handleCheapest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, ok := parseParams(w, r)
	if !ok {
		return
	}

	count := defaultCheapestCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > types.HoursPerDay {
			writeJSONError(w, fmt.Sprintf("Invalid request parameters. count must be between 1 and %d", types.HoursPerDay), http.StatusBadRequest)
			return
		}
		count = n
	}

	res, err := s.prices.Prices(ctx, params)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to resolve prices", slog.String("date", params.Date), slog.Any("error", err))
		writeJSONError(w, "Failed to fetch pricing data", http.StatusInternalServerError)
		return
	}

	setResultHeaders(w, res)
	writeJSON(w, pricing.Cheapest(res.Series, count))
}
