// Package query answers questions about the feed by running the
// fetch, parse and classify pipeline and shaping the result.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/richardwooding/spurs-feed-mcp/classifier"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/parser"
)

const (
	// DefaultLimit is used when the caller omits a limit.
	DefaultLimit = 5
	// MaxLimit caps every limit; larger values are clamped.
	MaxLimit = 25
)

// FeedSource returns the raw feed document.
type FeedSource interface {
	FetchFeed(ctx context.Context) ([]byte, error)
	FeedURL() string
}

// PageScraper fetches the readable text of a post page.
type PageScraper interface {
	Scrape(ctx context.Context, link string) (string, error)
}

// Config holds the collaborators of a Service.
type Config struct {
	Source     FeedSource
	Parser     *parser.Parser
	Classifier *classifier.Classifier
	Scraper    PageScraper
	Logger     *slog.Logger
}

// Service runs one full pipeline per call. It keeps no entries between calls.
type Service struct {
	source     FeedSource
	parser     *parser.Parser
	classifier *classifier.Classifier
	scraper    PageScraper
	logger     *slog.Logger
}

// NewService creates a Service. Parser, Classifier and Scraper default when nil.
func NewService(config Config) (*Service, error) {
	if config.Source == nil {
		return nil, model.NewFeedError(model.ErrorTypeConfiguration, "feed source is required").
			WithOperation("create_service").
			WithComponent("query_service")
	}
	if config.Logger == nil {
		config.Logger = model.DiscardLogger()
	}
	if config.Parser == nil {
		config.Parser = parser.New(parser.WithLogger(config.Logger), parser.WithSource(config.Source.FeedURL()))
	}
	if config.Classifier == nil {
		config.Classifier = classifier.New(config.Logger)
	}
	if config.Scraper == nil {
		config.Scraper = NewPostScraper(PostScraperConfig{})
	}
	return &Service{
		source:     config.Source,
		parser:     config.Parser,
		classifier: config.Classifier,
		scraper:    config.Scraper,
		logger:     config.Logger.With(slog.String("component", "query_service")),
	}, nil
}

// PostsResult is the answer to get_latest_posts.
type PostsResult struct {
	Entries []model.FeedEntry `json:"entries"`
	Count   int               `json:"count"`
}

// GameResultLookup reports the newest game result, if any. Result carries the
// extracted score when the recap states one.
type GameResultLookup struct {
	Found  bool                   `json:"found"`
	Entry  *model.FeedEntry       `json:"entry"`
	Result *classifier.GameResult `json:"result,omitempty"`
}

// SearchHit is a matching entry plus a highlighted excerpt.
type SearchHit struct {
	model.FeedEntry
	Snippet string `json:"snippet"`
}

// SearchResult is the answer to search_posts.
type SearchResult struct {
	Keyword string      `json:"keyword"`
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

// RecentResults lists extracted game results, newest first.
type RecentResults struct {
	Results []classifier.GameResult `json:"results"`
	Count   int                     `json:"count"`
}

// PlayerSummary is one line of the player list.
type PlayerSummary struct {
	Name         string `json:"name"`
	MentionCount int    `json:"mention_count"`
}

// PlayerList lists the roster players mentioned in the feed, most mentioned first.
type PlayerList struct {
	Players []PlayerSummary `json:"players"`
	Count   int             `json:"count"`
}

// PostResult is a single entry and, when requested, the text of its page.
type PostResult struct {
	Entry    model.FeedEntry `json:"entry"`
	FullText string          `json:"full_text,omitempty"`
}

// FeedURL returns the URL of the feed being queried.
func (s *Service) FeedURL() string {
	return s.source.FeedURL()
}

// Entries fetches, parses and classifies the feed, newest first.
func (s *Service) Entries(ctx context.Context) ([]model.FeedEntry, error) {
	raw, err := s.source.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.parser.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.classifier.ClassifyAll(entries)
	model.SortNewestFirst(entries)

	s.logger.Debug("loaded entries", slog.Int("count", len(entries)))
	return entries, nil
}

// GetLatestPosts returns up to limit entries, newest first.
func (s *Service) GetLatestPosts(ctx context.Context, limit *int) (*PostsResult, error) {
	n, err := resolveLimit("get_latest_posts", limit)
	if err != nil {
		return nil, err
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	entries = entries[:min(n, len(entries))]
	return &PostsResult{Entries: entries, Count: len(entries)}, nil
}

// GetLatestGameResult returns the newest GAME_RESULT entry. An empty feed or
// one with no results is reported with Found false, not as an error.
func (s *Service) GetLatestGameResult(ctx context.Context) (*GameResultLookup, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Category != model.CategoryGameResult {
			continue
		}
		lookup := &GameResultLookup{Found: true, Entry: &entries[i]}
		if result, ok := classifier.ExtractGameResult(entries[i]); ok {
			lookup.Result = &result
		}
		return lookup, nil
	}

	return &GameResultLookup{}, nil
}

// Search matches keyword case-insensitively against title and summary.
func (s *Service) Search(ctx context.Context, keyword string, limit *int) (*SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, model.CreateArgumentError("search_posts", "keyword must not be empty")
	}

	n, err := resolveLimit("search_posts", limit)
	if err != nil {
		return nil, err
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	hits := []SearchHit{}
	for _, e := range entries {
		if len(hits) == n {
			break
		}
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Summary), needle) {
			continue
		}
		hits = append(hits, SearchHit{
			FeedEntry: e,
			Snippet:   Snippet(e.Title+" "+e.Content, keyword, SnippetRadius),
		})
	}

	return &SearchResult{Keyword: keyword, Results: hits, Count: len(hits)}, nil
}

// GetRecentResults extracts scores from up to limit GAME_RESULT entries.
// Recaps without a recognisable score are skipped.
func (s *Service) GetRecentResults(ctx context.Context, limit *int) (*RecentResults, error) {
	n, err := resolveLimit("get_recent_results", limit)
	if err != nil {
		return nil, err
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	results := []classifier.GameResult{}
	for _, e := range entries {
		if len(results) == n {
			break
		}
		if e.Category != model.CategoryGameResult {
			continue
		}
		if r, ok := classifier.ExtractGameResult(e); ok {
			results = append(results, r)
		}
	}

	return &RecentResults{Results: results, Count: len(results)}, nil
}

// GetPlayerInfo returns the sentences mentioning a roster player. The name
// may be a full name, a last name or a nickname.
func (s *Service) GetPlayerInfo(ctx context.Context, name string) (*classifier.PlayerInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.CreateArgumentError("get_player_info", "player_name must not be empty")
	}

	player, ok := classifier.ResolvePlayer(name)
	if !ok {
		return nil, model.NewFeedError(model.ErrorTypeNotFound, fmt.Sprintf("%q is not on the tracked Spurs roster", name)).
			WithOperation("get_player_info").
			WithComponent("query_service")
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	if info, ok := classifier.ExtractPlayerMentions(entries)[player.Name]; ok {
		return info, nil
	}
	return &classifier.PlayerInfo{Name: player.Name, Mentions: []classifier.Mention{}}, nil
}

// ListPlayers returns every roster player mentioned in the feed.
func (s *Service) ListPlayers(ctx context.Context) (*PlayerList, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	mentions := classifier.ExtractPlayerMentions(entries)
	players := []PlayerSummary{}
	for _, name := range classifier.MentionedPlayers(mentions) {
		players = append(players, PlayerSummary{Name: name, MentionCount: len(mentions[name].Mentions)})
	}

	return &PlayerList{Players: players, Count: len(players)}, nil
}

// GetPost finds the entry whose link is link. With fullPage the post page is
// scraped as well; only pages on the feed's own site are fetched.
func (s *Service) GetPost(ctx context.Context, link string, fullPage bool) (*PostResult, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, model.CreateArgumentError("get_post", "link must not be empty")
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range entries {
		if entries[i].Link == link {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, model.NewFeedError(model.ErrorTypeNotFound, "no post with that link in the current feed").
			WithURL(link).
			WithOperation("get_post").
			WithComponent("query_service")
	}

	result := &PostResult{Entry: entries[idx]}
	if !fullPage {
		return result, nil
	}

	if err := model.SameSite(s.source.FeedURL(), link); err != nil {
		return nil, model.CreateValidationError(err, link)
	}

	text, err := s.scraper.Scrape(ctx, link)
	if err != nil {
		var fe *model.FeedError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, model.CreateNetworkError(err, link)
	}
	result.FullText = text

	return result, nil
}

func resolveLimit(operation string, limit *int) (int, error) {
	if limit == nil {
		return DefaultLimit, nil
	}
	if *limit <= 0 {
		return 0, model.CreateArgumentError(operation, fmt.Sprintf("limit must be a positive integer, got %d", *limit))
	}
	return min(*limit, MaxLimit), nil
}
