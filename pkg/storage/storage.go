package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/types"
)

// DefaultTTL is how long a resolved series stays fresh.
const DefaultTTL = 30 * time.Minute

// Entry is a resolved series and when it was resolved.
type Entry struct {
	Series    types.HourlyPriceSeries `json:"series"`
	Source    types.Source            `json:"source"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Cache stores resolved series by cache key. Get reports a miss for entries
// that are older than the cache's TTL.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error

	// Sweep removes stale entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	Close() error
}

// fresh reports whether an entry created at createdAt is still usable at now.
func fresh(createdAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(createdAt) < ttl
}

// Configured sets up the Cache based on flags.
func Configured() Cache {
	provider := lflag.String("cache-provider", "memory", "Cache backend for resolved prices (available: memory, firestore)")
	ttl := lflag.Duration("cache-ttl", DefaultTTL, "How long a resolved price series is served from cache")
	maxEntries := lflag.Int("cache-max-entries", 1024, "Maximum number of series held by the memory cache")

	var c struct{ Cache }

	fs := configuredFirestore()

	lflag.Do(func() {
		if *ttl <= 0 {
			panic(fmt.Sprintf("cache-ttl must be positive: %s", *ttl))
		}
		switch *provider {
		case "memory":
			m, err := NewMemoryCache(*maxEntries, *ttl)
			if err != nil {
				panic(fmt.Sprintf("memory cache init failed: %v", err))
			}
			c.Cache = m
		case "firestore":
			fs.ttl = *ttl
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			c.Cache = fs
		default:
			panic(fmt.Sprintf("unknown cache provider: %s", *provider))
		}
	})

	return &c
}
