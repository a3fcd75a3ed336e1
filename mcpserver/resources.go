package mcpserver

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

// URI constants for the resources this server exposes
const (
	LatestArticlesURI         = "articles://latest"
	LatestArticlesFilteredURI = "articles://latest{?since,until,category,author,search,limit,offset}"
	ArticleURI                = "articles://{articleId}"
	RecentResultsURI          = "gameresults://recent"
	PlayersURI                = "players://list"
)

const (
	latestArticlesLimit = 10
	recentResultsLimit  = 5
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// ResourceManager serves the read-only MCP resources
type ResourceManager struct {
	service QueryService
}

// NewResourceManager creates a new ResourceManager
func NewResourceManager(service QueryService) *ResourceManager {
	return &ResourceManager{service: service}
}

// ListResources returns the fixed resources
func (rm *ResourceManager) ListResources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         LatestArticlesURI,
			Name:        "Latest Articles",
			Description: "The most recent Pounding The Rock articles",
			MIMEType:    "application/json",
		},
		{
			URI:         RecentResultsURI,
			Name:        "Recent Game Results",
			Description: "Recent Spurs game results with scores",
			MIMEType:    "application/json",
		},
		{
			URI:         PlayersURI,
			Name:        "Mentioned Players",
			Description: "Spurs players mentioned in recent articles",
			MIMEType:    "application/json",
		},
	}
}

// ListResourceTemplates returns the parameterised resources
func (rm *ResourceManager) ListResourceTemplates() []*mcp.ResourceTemplate {
	return []*mcp.ResourceTemplate{
		{
			URITemplate: LatestArticlesFilteredURI,
			Name:        "Filtered Articles",
			Description: "Latest articles filtered by date, category, author or search term",
			MIMEType:    "application/json",
		},
		{
			URITemplate: ArticleURI,
			Name:        "Article",
			Description: "A single article with its full text, by the id listed in articles://latest",
			MIMEType:    "application/json",
		},
	}
}

// ReadResource reads content for a specific resource
func (rm *ResourceManager) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	base, _, _ := strings.Cut(uri, "?")

	switch {
	case base == LatestArticlesURI:
		return rm.readLatestArticles(ctx, uri)
	case base == RecentResultsURI:
		return rm.readRecentResults(ctx, uri)
	case base == PlayersURI:
		return rm.readPlayers(ctx, uri)
	case matchesTemplate(base, ArticleURI):
		return rm.readArticle(ctx, base)
	default:
		return nil, model.NewFeedError(model.ErrorTypeValidation, "Unknown resource URI").
			WithURL(uri).
			WithOperation("read_resource").
			WithComponent("resource_manager")
	}
}

// articleSummary is one line of articles://latest
type articleSummary struct {
	ID string `json:"id"`
	model.FeedEntry
}

func (rm *ResourceManager) readLatestArticles(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	filters, err := ParseURIParameters(uri)
	if err != nil {
		return nil, err
	}
	if filters.Limit == nil {
		limit := latestArticlesLimit
		filters.Limit = &limit
	}

	entries, err := rm.service.Entries(ctx)
	if err != nil {
		return nil, err
	}

	filtered := ApplyFilters(entries, filters)
	articles := make([]articleSummary, 0, len(filtered))
	for _, e := range filtered {
		articles = append(articles, articleSummary{ID: ArticleID(e.Link), FeedEntry: e})
	}

	content := map[string]any{
		"articles":   articles,
		"count":      len(articles),
		"filters":    CreateFilterSummary(len(entries), len(articles), filters),
		"updated_at": time.Now().UTC(),
	}

	return jsonResource(uri, content), nil
}

func (rm *ResourceManager) readArticle(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	articleID, err := extractArticleIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	entries, err := rm.service.Entries(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if ArticleID(e.Link) != articleID {
			continue
		}
		content := map[string]any{
			"id":      articleID,
			"article": e,
			"content": e.Content,
		}
		return jsonResource(uri, content), nil
	}

	return nil, mcp.ResourceNotFoundError(uri)
}

func (rm *ResourceManager) readRecentResults(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	limit := recentResultsLimit
	results, err := rm.service.GetRecentResults(ctx, &limit)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, results), nil
}

func (rm *ResourceManager) readPlayers(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	players, err := rm.service.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, players), nil
}

// addResourceHandlers registers the resources and templates on srv
func (s *Server) addResourceHandlers(srv *mcp.Server) {
	handler := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.resourceManager.ReadResource(ctx, req.Params.URI)
	}
	for _, r := range s.resourceManager.ListResources() {
		srv.AddResource(r, handler)
	}
	for _, t := range s.resourceManager.ListResourceTemplates() {
		srv.AddResourceTemplate(t, handler)
	}
}

// ArticleID derives a stable, readable id from a post link: the last path
// segment as a slug, or a hash when the link has no usable path.
func ArticleID(link string) string {
	if parsedURL, err := url.Parse(link); err == nil {
		segments := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
		slug := strings.ToLower(segments[len(segments)-1])
		slug = strings.TrimSuffix(slug, ".html")
		slug = nonSlugChars.ReplaceAllString(slug, "-")
		slug = strings.Trim(dashRuns.ReplaceAllString(slug, "-"), "-")
		if slug != "" {
			return slug
		}
	}

	return fmt.Sprintf("article-%x", md5.Sum([]byte(link)))[:16]
}

// matchesTemplate checks if a URI matches a template pattern
func matchesTemplate(uri, template string) bool {
	pattern := regexp.QuoteMeta(template)
	pattern = regexp.MustCompile(`\\\{[^}]+\\\}`).ReplaceAllString(pattern, `[^/?]+`)
	matched, _ := regexp.MatchString("^"+pattern+"$", uri)
	return matched
}

// extractArticleIDFromURI extracts the articleId parameter from an article URI
func extractArticleIDFromURI(uri string) (string, error) {
	articleID, ok := strings.CutPrefix(uri, "articles://")
	if !ok || articleID == "" || strings.ContainsAny(articleID, "/?") {
		return "", model.NewFeedError(model.ErrorTypeValidation, "Could not extract article ID from URI").
			WithURL(uri).
			WithOperation("extract_article_id").
			WithComponent("resource_manager")
	}
	return articleID, nil
}

func jsonResource(uri string, v any) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     mustMarshalJSON(v),
			},
		},
	}
}

// mustMarshalJSON marshals an object to JSON string, panicking on error
func mustMarshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal JSON: %v", err))
	}
	return string(data)
}
