// Package cmd holds the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"

	"github.com/richardwooding/spurs-feed-mcp/mcpserver"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/query"
	"github.com/richardwooding/spurs-feed-mcp/store"
)

// Vars are the interpolation values the RunCmd flag defaults refer to.
func Vars() kong.Vars {
	return kong.Vars{
		"feed_url":  store.DefaultFeedURL,
		"http_addr": mcpserver.DefaultHTTPAddr,
	}
}

// RunCmd starts the MCP server over the Pounding The Rock feed.
type RunCmd struct {
	Transport         string        `name:"transport" default:"stdio" enum:"stdio,http-with-sse" env:"SPURS_MCP_TRANSPORT" help:"Transport to use for the MCP server."`
	FeedURL           string        `name:"feed-url" default:"${feed_url}" env:"SPURS_MCP_FEED_URL" help:"RSS feed to serve."`
	Timeout           time.Duration `name:"timeout" default:"10s" env:"SPURS_MCP_TIMEOUT" help:"Timeout for fetching the feed and post pages."`
	CacheTTL          time.Duration `name:"cache-ttl" default:"0s" env:"SPURS_MCP_CACHE_TTL" help:"Keep the fetched feed for this long (0 fetches on every request)."`
	HTTPAddr          string        `name:"http-addr" default:"${http_addr}" env:"SPURS_MCP_HTTP_ADDR" help:"Listen address for the http-with-sse transport."`
	ShutdownTimeout   time.Duration `name:"shutdown-timeout" default:"10s" env:"SPURS_MCP_SHUTDOWN_TIMEOUT" help:"Time allowed for a graceful HTTP shutdown."`
	AllowPrivateIPs   bool          `name:"allow-private-ips" env:"SPURS_MCP_ALLOW_PRIVATE_IPS" help:"Allow a feed URL that resolves to a private or loopback address."`
	RequestsPerSecond float64       `name:"requests-per-second" default:"2" env:"SPURS_MCP_REQUESTS_PER_SECOND" help:"Rate limit for feed requests."`
	BurstCapacity     int           `name:"burst-capacity" default:"5" env:"SPURS_MCP_BURST_CAPACITY" help:"Burst size for the feed rate limiter."`
	CircuitBreaker    bool          `name:"circuit-breaker" default:"true" negatable:"" env:"SPURS_MCP_CIRCUIT_BREAKER" help:"Stop calling the feed after repeated failures."`
	UserAgent         string        `name:"user-agent" env:"SPURS_MCP_USER_AGENT" help:"User-Agent for outbound requests (defaults to spurs-feed-mcp/<version>)."`
}

// Run builds the pipeline and serves until ctx is canceled.
func (c *RunCmd) Run(globals *model.Globals, ctx context.Context) error {
	logger := globals.Log()

	server, feedStore, err := c.newServer(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := feedStore.Close(); err != nil {
			logger.Warn("closing feed store", slog.String("error", err.Error()))
		}
	}()

	return server.Run(ctx)
}

func (c *RunCmd) newServer(ctx context.Context, logger *slog.Logger) (*mcpserver.Server, *store.Store, error) {
	transport, err := model.ParseTransport(c.Transport)
	if err != nil {
		return nil, nil, err
	}

	if err := model.ValidateFeedURL(ctx, c.FeedURL, c.AllowPrivateIPs); err != nil {
		return nil, nil, fmt.Errorf("feed URL %q: %w", c.FeedURL, err)
	}

	circuitBreaker := c.CircuitBreaker
	fetcher, err := store.NewFetcher(store.FetcherConfig{
		FeedURL:               c.FeedURL,
		Timeout:               c.Timeout,
		UserAgent:             c.UserAgent,
		RequestsPerSecond:     c.RequestsPerSecond,
		BurstCapacity:         c.BurstCapacity,
		CircuitBreakerEnabled: &circuitBreaker,
		Logger:                logger,
	})
	if err != nil {
		return nil, nil, err
	}

	feedStore, err := store.NewStore(store.Config{
		Fetcher:  fetcher,
		CacheTTL: c.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	service, err := query.NewService(query.Config{
		Source: feedStore,
		Scraper: query.NewPostScraper(query.PostScraperConfig{
			UserAgent: c.UserAgent,
			Timeout:   c.Timeout,
		}),
		Logger: logger,
	})
	if err != nil {
		_ = feedStore.Close()
		return nil, nil, err
	}

	server, err := mcpserver.NewServer(mcpserver.Config{
		Service:         service,
		Transport:       transport,
		HTTPAddr:        c.HTTPAddr,
		ShutdownTimeout: c.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		_ = feedStore.Close()
		return nil, nil, err
	}

	logger.Debug("server configured",
		slog.String("transport", transport.String()),
		slog.String("feed_url", c.FeedURL),
		slog.Duration("cache_ttl", c.CacheTTL),
		slog.Bool("circuit_breaker", circuitBreaker))

	return server, feedStore, nil
}
