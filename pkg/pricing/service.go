package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/log"
	"github.com/raterudder/dayahead/pkg/storage"
	"github.com/raterudder/dayahead/pkg/types"
	"github.com/raterudder/dayahead/pkg/utility"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a single upstream request.
const DefaultFetchTimeout = 10 * time.Second

// ErrNoSamples is returned when an upstream response has no recognizable
// prices.
var ErrNoSamples = errors.New("no price samples in upstream response")

// Result is a resolved series and where it came from.
type Result struct {
	Series types.HourlyPriceSeries
	Source types.Source
	Cached bool
}

// Service resolves complete price series, preferring the upstream feed and
// falling back to a synthetic curve whenever the feed cannot produce one.
type Service struct {
	feed         utility.Feed
	cache        storage.Cache
	strategies   []ExtractStrategy
	fetchTimeout time.Duration
	now          func() time.Time

	group singleflight.Group
}

// NewService creates a Service backed by feed and cache.
func NewService(feed utility.Feed, cache storage.Cache, fetchTimeout time.Duration) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Service{
		feed:         feed,
		cache:        cache,
		strategies:   DefaultStrategies,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// Configured creates a Service with its fetch timeout taken from flags.
func Configured(feed utility.Feed, cache storage.Cache) *Service {
	s := NewService(feed, cache, DefaultFetchTimeout)
	timeout := lflag.Duration("upstream-timeout", DefaultFetchTimeout, "Maximum time to wait for the upstream pricing feed before using synthetic prices")

	lflag.Do(func() {
		if *timeout <= 0 {
			panic(fmt.Sprintf("upstream-timeout must be positive: %s", *timeout))
		}
		s.fetchTimeout = *timeout
	})

	return s
}

// Prices returns the complete series for params. Upstream failures never
// produce an error. Prices fails only when ctx is done before a series is
// ready or when the synthetic series fails validation. A caller going away
// does not cancel the upstream fetch other callers may be sharing.
func (s *Service) Prices(ctx context.Context, params types.QueryParameters) (Result, error) {
	key := params.CacheKey()
	ctx = log.WithAttrs(ctx, slog.String("cacheKey", key))

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to read price cache", slog.Any("error", err))
	} else if ok {
		log.Ctx(ctx).DebugContext(ctx, "price cache hit", slog.String("source", string(entry.Source)))
		return Result{
			Series: entry.Series,
			Source: entry.Source,
			Cached: true,
		}, nil
	}

	// the shared resolution outlives any one caller; only fetchTimeout bounds it
	resolveCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.resolve(resolveCtx, params, key)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		res := r.Val.(Result)
		// singleflight hands the same value to every waiter
		res.Series = res.Series.Clone()
		return res, nil
	}
}

// Summary returns the series for params together with its summary.
func (s *Service) Summary(ctx context.Context, params types.QueryParameters) (Result, types.PricingSummary, error) {
	res, err := s.Prices(ctx, params)
	if err != nil {
		return Result{}, types.PricingSummary{}, err
	}
	return res, Summarize(res.Series), nil
}

func (s *Service) resolve(ctx context.Context, params types.QueryParameters, key string) (Result, error) {
	res := Result{Source: types.SourceUpstream}
	series, err := s.fromUpstream(ctx, params)
	if err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"using synthetic prices",
			slog.String("date", params.Date),
			slog.Any("error", err),
		)
		series = Synthetic(params.Date)
		if err := series.Validate(); err != nil {
			return Result{}, fmt.Errorf("synthetic series for %s is invalid: %w", params.Date, err)
		}
		res.Source = types.SourceSynthetic
	}
	res.Series = series

	if err := s.cache.Put(ctx, key, storage.Entry{
		Series:    series,
		Source:    res.Source,
		CreatedAt: s.now(),
	}); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to store prices in cache", slog.Any("error", err))
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"resolved prices",
		slog.String("date", params.Date),
		slog.String("source", string(res.Source)),
	)
	return res, nil
}

// fromUpstream fetches, extracts, fills and validates a series from the feed.
func (s *Service) fromUpstream(ctx context.Context, params types.QueryParameters) (types.HourlyPriceSeries, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	raw, err := s.feed.FetchPricing(fetchCtx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upstream prices: %w", err)
	}

	samples, strategy := ExtractWith(s.strategies, raw)
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"extracted upstream samples",
		slog.String("strategy", strategy),
		slog.Int("count", len(samples)),
	)

	series := Fill(samples)
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("upstream series failed validation: %w", err)
	}
	return series, nil
}
