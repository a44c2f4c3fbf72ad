package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/log"
	"github.com/raterudder/dayahead/pkg/pricing"
	"github.com/raterudder/dayahead/pkg/storage"
	"github.com/raterudder/dayahead/pkg/types"
	"github.com/raterudder/dayahead/pkg/utility"
)

// seed resolves prices for a run of days so a shared (firestore) cache is
// warm before traffic arrives.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}

	feed := utility.Configured()
	cache := storage.Configured()
	svc := pricing.Configured(feed, cache)

	start := lflag.String("seed-start", "", "First date to seed in YYYY-MM-DD format (defaults to today)")
	days := lflag.Int("seed-days", 2, "Number of consecutive days to seed")
	rateName := lflag.String("seed-rate-name", types.DefaultRateName, "Rate name to seed")
	circuitID := lflag.String("seed-circuit-id", types.DefaultCircuitID, "Representative circuit ID to seed")
	cca := lflag.String("seed-cca", types.DefaultCCA, "CCA to seed")
	lflag.Configure()

	defer func() {
		if err := cache.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close cache", slog.Any("error", err))
		}
	}()

	first := time.Now()
	if *start != "" {
		var err error
		first, err = time.Parse(types.DateLayout, *start)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "invalid seed-start", slog.String("start", *start), slog.Any("error", err))
			os.Exit(1)
		}
	}

	log.Ctx(ctx).InfoContext(ctx, "seeding price cache", slog.String("start", first.Format(types.DateLayout)), slog.Int("days", *days))

	counts := map[types.Source]int{}
	for i := 0; i < *days; i++ {
		params := types.QueryParameters{
			Date:      first.AddDate(0, 0, i).Format(types.DateLayout),
			RateName:  *rateName,
			CircuitID: *circuitID,
			CCA:       *cca,
		}
		if err := params.Validate(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "invalid seed parameters", slog.Any("error", err))
			os.Exit(1)
		}
		res, err := svc.Prices(ctx, params)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed prices", slog.String("date", params.Date), slog.Any("error", err))
			os.Exit(1)
		}
		counts[res.Source]++
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"seeded price cache successfully",
		slog.Int("upstream", counts[types.SourceUpstream]),
		slog.Int("synthetic", counts[types.SourceSynthetic]),
	)
}
