package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const cacheCollection = "pricing_cache"

// FirestoreCache implements Cache using Google Cloud Firestore so that
// multiple instances share resolved series.
type FirestoreCache struct {
	client    *firestore.Client
	projectID string
	database  string
	ttl       time.Duration
	now       func() time.Time
}

// configuredFirestore sets up the Firestore cache.
// It registers flags for configuration.
func configuredFirestore() *FirestoreCache {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreCache{
		ttl: DefaultTTL,
		now: time.Now,
	}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the cache is properly configured.
func (f *FirestoreCache) Validate() error {
	if f.ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %s", f.ttl)
	}
	return nil
}

// Init creates the Firestore client. It must be called before using the cache.
func (f *FirestoreCache) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreCache) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// docID hashes key so that identifiers containing slashes or other reserved
// characters still form a valid document ID.
func docID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get reads the entry for key. Missing and stale documents are misses.
func (f *FirestoreCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	doc, err := f.client.Collection(cacheCollection).Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to fetch cache doc: %w", err)
	}

	v, err := doc.DataAt("createdAt")
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache doc missing 'createdAt' field: %w", err)
	}
	createdAt, ok := v.(time.Time)
	if !ok {
		return Entry{}, false, fmt.Errorf("cache 'createdAt' field is not a timestamp")
	}
	if !fresh(createdAt, f.now(), f.ttl) {
		return Entry{}, false, nil
	}

	val, err := doc.DataAt("json")
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache doc missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return Entry{}, false, fmt.Errorf("cache 'json' field is not a string")
	}

	e, err := decodeEntry(jsonStr)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "ignoring unusable cached series", slog.String("key", key), slog.Any("error", err))
		if errors.Is(err, errInvalidSeries) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	e.CreatedAt = createdAt
	return e, true, nil
}

var errInvalidSeries = errors.New("cached series is invalid")

// decodeEntry parses a document's json field and validates its series.
func decodeEntry(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal cache json: %w", err)
	}
	if err := e.Series.Validate(); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errInvalidSeries, err)
	}
	return e, nil
}

// Put writes entry for key, replacing any previous document.
func (f *FirestoreCache) Put(ctx context.Context, key string, entry Entry) error {
	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	_, err = f.client.Collection(cacheCollection).Doc(docID(key)).Set(ctx, map[string]interface{}{
		"key":       key,
		"json":      string(jsonBytes),
		"source":    string(entry.Source),
		"createdAt": entry.CreatedAt,
		"expiresAt": entry.CreatedAt.Add(f.ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// Sweep deletes every document whose expiresAt has passed.
func (f *FirestoreCache) Sweep(ctx context.Context) (int, error) {
	iter := f.client.Collection(cacheCollection).
		Where("expiresAt", "<=", f.now()).
		Documents(ctx)
	defer iter.Stop()

	var removed int
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("failed to iterate stale cache docs: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return removed, fmt.Errorf("failed to delete cache doc %s: %w", doc.Ref.ID, err)
		}
		removed++
	}
	return removed, nil
}

var _ Cache = (*FirestoreCache)(nil)
