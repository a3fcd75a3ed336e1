package store

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

type countingFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (c *countingFetcher) Fetch(context.Context) (*FetchResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &FetchResult{Body: []byte(c.body), StatusCode: http.StatusOK}, nil
}

func (c *countingFetcher) FeedURL() string { return "https://www.poundingtherock.com/rss/current.xml" }

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(Config{})
	require.Error(t, err)

	_, err = NewStore(Config{Fetcher: &countingFetcher{}, CacheTTL: -time.Second})
	require.Error(t, err)
	assert.Equal(t, model.ErrorTypeConfiguration, model.AsFeedError(err).ErrorType)
}

func TestStore_NoCacheFetchesEveryTime(t *testing.T) {
	f := &countingFetcher{body: sampleFeed}
	s, err := NewStore(Config{Fetcher: f})
	require.NoError(t, err)
	defer s.Close()

	for range 3 {
		body, err := s.FetchFeed(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sampleFeed, string(body))
	}
	assert.Equal(t, int32(3), f.calls.Load())
	assert.Equal(t, f.FeedURL(), s.FeedURL())
}

func TestStore_CacheServesRepeatCalls(t *testing.T) {
	f := &countingFetcher{body: sampleFeed}
	s, err := NewStore(Config{Fetcher: f, CacheTTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	body, err := s.FetchFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, string(body))

	// Cache writes are asynchronous; eventually a call is served without fetching.
	require.Eventually(t, func() bool {
		before := f.calls.Load()
		body, err := s.FetchFeed(context.Background())
		return err == nil && string(body) == sampleFeed && f.calls.Load() == before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_ErrorsAreNotCached(t *testing.T) {
	f := &countingFetcher{err: model.NewFeedError(model.ErrorTypeHTTPServerError, "Server error: 500")}
	s, err := NewStore(Config{Fetcher: f, CacheTTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	for range 2 {
		_, err := s.FetchFeed(context.Background())
		require.Error(t, err)
		assert.Equal(t, model.FetchErrorKind, model.AsFeedError(err).Kind())
	}
	assert.Equal(t, int32(2), f.calls.Load())
}
