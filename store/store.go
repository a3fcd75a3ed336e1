package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"

	"github.com/richardwooding/spurs-feed-mcp/metrics"
	"github.com/richardwooding/spurs-feed-mcp/model"
)

// FeedFetcher is implemented by Fetcher and by test doubles.
type FeedFetcher interface {
	Fetch(ctx context.Context) (*FetchResult, error)
	FeedURL() string
}

// Config configures a Store.
type Config struct {
	Fetcher FeedFetcher
	// CacheTTL keeps the raw feed body for this long. Zero fetches on every call.
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Store hands out the raw feed body, optionally through a short-lived cache.
// Entries are never cached; callers parse and classify on every request.
type Store struct {
	fetcher FeedFetcher
	ttl     time.Duration
	cache   *cache.LoadableCache[string]
	logger  *slog.Logger
}

type loadMarker struct{}

func NewStore(config Config) (*Store, error) {
	if config.Fetcher == nil {
		return nil, errors.New("a feed fetcher must be specified")
	}

	if config.CacheTTL < 0 {
		return nil, model.NewFeedError(model.ErrorTypeConfiguration, "cache TTL cannot be negative")
	}

	if config.Logger == nil {
		config.Logger = model.DiscardLogger()
	}

	s := &Store{
		fetcher: config.Fetcher,
		ttl:     config.CacheTTL,
		logger:  config.Logger.With(slog.String("component", "store")),
	}

	if s.ttl == 0 {
		return s, nil
	}

	ristrettoCache, err := ristretto.NewCache[string, string](&ristretto.Config[string, string]{
		NumCounters: 100,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		if marker, ok := ctx.Value(loadMarker{}).(*atomic.Bool); ok {
			marker.Store(true)
		}
		result, err := s.fetcher.Fetch(ctx)
		if err != nil {
			return "", nil, err
		}
		body := string(result.Body)
		return body, []store.Option{
			store.WithExpiration(s.ttl),
			store.WithCost(int64(len(body))),
		}, nil
	}

	s.cache = cache.NewLoadable[string](
		loadFunction,
		cache.New[string](ristretto_store.NewRistretto(ristrettoCache)),
	)

	return s, nil
}

// FeedURL returns the URL of the underlying feed.
func (s *Store) FeedURL() string {
	return s.fetcher.FeedURL()
}

// FetchFeed returns the raw feed document.
func (s *Store) FetchFeed(ctx context.Context) ([]byte, error) {
	if s.cache == nil {
		result, err := s.fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return result.Body, nil
	}

	loaded := &atomic.Bool{}
	body, err := s.cache.Get(context.WithValue(ctx, loadMarker{}, loaded), s.fetcher.FeedURL())
	if err != nil {
		return nil, err
	}

	metrics.RecordCache(!loaded.Load())
	if !loaded.Load() {
		s.logger.Debug("served feed from cache", slog.Int("bytes", len(body)))
	}

	return []byte(body), nil
}

// Close releases the cache.
func (s *Store) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
