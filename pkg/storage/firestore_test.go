package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/raterudder/dayahead/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreCache(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// Use a random database for isolation
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	now := time.Now().UTC().Truncate(time.Millisecond)
	f := &FirestoreCache{
		projectID: "test-project-id",
		database:  randDB,
		ttl:       DefaultTTL,
		now:       func() time.Time { return now },
	}

	ctx := context.Background()
	require.NoError(t, f.Validate())
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	key := "pricing_2025-03-29_EV2A_013921103/odd_PCE"

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := f.Get(ctx, "nothing-here")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		require.NoError(t, f.Put(ctx, key, Entry{Series: testSeries(0.15), Source: types.SourceSynthetic, CreatedAt: now}))

		e, ok, err := f.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, testSeries(0.15), e.Series)
		assert.Equal(t, types.SourceSynthetic, e.Source)
		assert.True(t, now.Equal(e.CreatedAt))
	})

	t.Run("Expiry", func(t *testing.T) {
		f.now = func() time.Time { return now.Add(DefaultTTL) }
		defer func() { f.now = func() time.Time { return now } }()

		_, ok, err := f.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("InvalidSeriesIsMiss", func(t *testing.T) {
		badKey := "pricing_2025-03-30_EV2A_013921103_PCE"
		_, err := f.client.Collection(cacheCollection).Doc(docID(badKey)).Set(ctx, map[string]interface{}{
			"key":       badKey,
			"json":      `{"series":[{"hour":0,"price":0.1,"isPeak":false}],"source":"upstream"}`,
			"source":    "upstream",
			"createdAt": now,
			"expiresAt": now.Add(DefaultTTL),
		})
		require.NoError(t, err)

		_, ok, err := f.Get(ctx, badKey)
		require.NoError(t, err)
		assert.False(t, ok)

		bad := testSeries(0.1)
		bad[3].Price = -1
		require.NoError(t, f.Put(ctx, badKey, Entry{Series: bad, Source: types.SourceUpstream, CreatedAt: now}))
		_, ok, err = f.Get(ctx, badKey)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, f.Put(ctx, badKey, Entry{Series: testSeries(0.1), Source: types.SourceUpstream, CreatedAt: now}))
	})

	t.Run("Sweep", func(t *testing.T) {
		require.NoError(t, f.Put(ctx, "stale", Entry{Series: testSeries(0.1), CreatedAt: now.Add(-time.Hour)}))

		removed, err := f.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, ok, err := f.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "fresh entry should survive a sweep")
	})
}

func TestDecodeEntry(t *testing.T) {
	good, err := json.Marshal(Entry{Series: testSeries(0.2), Source: types.SourceUpstream})
	require.NoError(t, err)
	e, err := decodeEntry(string(good))
	require.NoError(t, err)
	assert.Equal(t, testSeries(0.2), e.Series)
	assert.Equal(t, types.SourceUpstream, e.Source)

	short := `{"series":[{"hour":0,"price":0.1,"isPeak":false}],"source":"upstream"}`
	_, err = decodeEntry(short)
	assert.ErrorIs(t, err, errInvalidSeries)

	flipped := testSeries(0.2)
	flipped[17].IsPeak = false
	raw, err := json.Marshal(Entry{Series: flipped})
	require.NoError(t, err)
	_, err = decodeEntry(string(raw))
	assert.ErrorIs(t, err, errInvalidSeries)

	_, err = decodeEntry("{not json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errInvalidSeries)
}

func TestDocID(t *testing.T) {
	assert.Len(t, docID("a/b"), 64)
	assert.Equal(t, docID("same"), docID("same"))
	assert.NotEqual(t, docID("a"), docID("b"))
}
