package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/richardwooding/spurs-feed-mcp/metrics"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/version"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultFeedURL is the Pounding The Rock syndication feed.
const DefaultFeedURL = "https://www.poundingtherock.com/rss/current.xml"

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// FetcherConfig configures a Fetcher. Zero values get defaults.
type FetcherConfig struct {
	FeedURL                        string
	Timeout                        time.Duration
	UserAgent                      string
	HTTPClient                     *http.Client
	RequestsPerSecond              float64
	BurstCapacity                  int
	CircuitBreakerEnabled          *bool
	CircuitBreakerMaxRequests      uint32
	CircuitBreakerInterval         time.Duration
	CircuitBreakerTimeout          time.Duration
	CircuitBreakerFailureThreshold uint32
	Logger                         *slog.Logger
}

// FetchResult is the raw outcome of one successful GET.
type FetchResult struct {
	Body        []byte
	StatusCode  int
	ContentType string
}

// Fetcher retrieves the raw feed document. It never retries.
type Fetcher struct {
	feedURL   string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// RateLimitedTransport wraps an http.RoundTripper with rate limiting
type RateLimitedTransport struct {
	transport   http.RoundTripper
	rateLimiter *rate.Limiter
}

// rateLimitError marks a request that never left because the limiter refused it.
type rateLimitError struct {
	err error
}

func (e *rateLimitError) Error() string { return "rate limiter: " + e.err.Error() }
func (e *rateLimitError) Unwrap() error { return e.err }

// RoundTrip implements the http.RoundTripper interface with rate limiting
func (r *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.rateLimiter.Wait(req.Context()); err != nil {
		return nil, &rateLimitError{err: err}
	}

	return r.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient(requestsPerSecond float64, burstCapacity int) *http.Client {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstCapacity)

	return &http.Client{
		Transport: &RateLimitedTransport{
			transport:   http.DefaultTransport,
			rateLimiter: limiter,
		},
	}
}

// NewFetcher validates the config, fills in defaults and builds the breaker.
func NewFetcher(config FetcherConfig) (*Fetcher, error) {
	if config.FeedURL == "" {
		config.FeedURL = DefaultFeedURL
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}

	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2.0
	}

	if config.BurstCapacity <= 0 {
		config.BurstCapacity = 5
	}

	if config.CircuitBreakerMaxRequests == 0 {
		config.CircuitBreakerMaxRequests = 1
	}
	if config.CircuitBreakerInterval <= 0 {
		config.CircuitBreakerInterval = 60 * time.Second
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}
	if config.CircuitBreakerFailureThreshold == 0 {
		config.CircuitBreakerFailureThreshold = 3
	}

	if config.Logger == nil {
		config.Logger = model.DiscardLogger()
	}

	if config.HTTPClient == nil {
		config.HTTPClient = NewRateLimitedHTTPClient(config.RequestsPerSecond, config.BurstCapacity)
	}

	f := &Fetcher{
		feedURL:   config.FeedURL,
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		client:    config.HTTPClient,
		logger:    config.Logger.With(slog.String("component", "fetcher")),
	}

	// Enabled unless explicitly disabled
	if config.CircuitBreakerEnabled == nil || *config.CircuitBreakerEnabled {
		threshold := config.CircuitBreakerFailureThreshold
		f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "feed-" + config.FeedURL,
			MaxRequests: config.CircuitBreakerMaxRequests,
			Interval:    config.CircuitBreakerInterval,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: isBreakerSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.SetCircuitBreakerState(int(to))
				f.logger.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		})
	}

	return f, nil
}

// FeedURL returns the configured feed location.
func (f *Fetcher) FeedURL() string {
	return f.feedURL
}

// BreakerState reports the circuit breaker state, "disabled" when off.
func (f *Fetcher) BreakerState() string {
	if f.breaker == nil {
		return "disabled"
	}
	return f.breaker.State().String()
}

// Fetch performs one GET of the feed bounded by the configured timeout.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	start := time.Now()

	result, err := f.execute(ctx)

	outcome := "ok"
	if err != nil {
		fe := model.AsFeedError(err)
		outcome = string(fe.ErrorType)
		model.LogFeedError(f.logger, fe)
		err = fe
	} else {
		f.logger.Debug("fetched feed",
			slog.String("url", f.feedURL),
			slog.Int("bytes", len(result.Body)),
			slog.Duration("duration", time.Since(start)))
	}
	metrics.RecordFetch(outcome, time.Since(start).Seconds())

	return result, err
}

func (f *Fetcher) execute(ctx context.Context) (*FetchResult, error) {
	if f.breaker == nil {
		return f.get(ctx)
	}

	out, err := f.breaker.Execute(func() (interface{}, error) {
		return f.get(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, model.CreateCircuitBreakerError(f.feedURL, "open", err)
		}
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, model.CreateCircuitBreakerError(f.feedURL, "half-open", err)
		}
		return nil, err
	}

	result, ok := out.(*FetchResult)
	if !ok {
		return nil, model.NewFeedError(model.ErrorTypeInternal, "unexpected result type from circuit breaker")
	}
	return result, nil
}

func (f *Fetcher) get(ctx context.Context) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, model.CreateValidationError(errors.Join(model.ErrInvalidURL, err), f.feedURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		var rlErr *rateLimitError
		if errors.As(err, &rlErr) && !errors.Is(err, context.Canceled) {
			return nil, model.CreateRateLimitError(f.feedURL, err)
		}
		return nil, model.CreateNetworkError(err, f.feedURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, model.CreateHTTPError(resp, f.feedURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.CreateNetworkError(err, f.feedURL)
	}

	return &FetchResult{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// isBreakerSuccess reports whether err leaves the breaker counts alone.
// Caller cancellation, local rate limiting and bad arguments are not feed failures.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	fe := model.AsFeedError(err)
	return fe.Kind() == model.ValidationErrorKind ||
		fe.ErrorType == model.ErrorTypeCanceled ||
		fe.ErrorType == model.ErrorTypeRateLimit
}
