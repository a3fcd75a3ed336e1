// Package parser turns a raw syndication document into FeedEntry values.
package parser

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/richardwooding/spurs-feed-mcp/metrics"
	"github.com/richardwooding/spurs-feed-mcp/model"
)

// MaxSummaryRunes bounds FeedEntry.Summary, excluding the ellipsis.
const MaxSummaryRunes = 300

// blockTag matches tags that separate words once markup is gone.
var blockTag = regexp.MustCompile(`(?i)<(/?)(p|br|div|li|ul|ol|h[1-6]|tr|td|th|blockquote|figure|figcaption|section|article)\b`)

// Parser converts feed documents into entries. It is safe for concurrent use.
type Parser struct {
	policy *bluemonday.Policy
	logger *slog.Logger
	source string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSource records the feed URL on parse errors.
func WithSource(feedURL string) Option {
	return func(p *Parser) { p.source = feedURL }
}

func New(opts ...Option) *Parser {
	p := &Parser{
		policy: bluemonday.StrictPolicy(),
		logger: model.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "parser"))
	return p
}

// Parse returns entries in document order. Items without a link and later
// duplicates of a link are dropped. Category is left for the classifier.
func (p *Parser) Parse(ctx context.Context, raw []byte) ([]model.FeedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.CreateNetworkError(err, p.source)
	}

	// gofeed.Parser is not safe for concurrent use; build one per call.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, model.CreateParsingError(err, p.source, string(raw))
	}

	entries := make([]model.FeedEntry, 0, len(feed.Items))
	seen := make(map[string]struct{}, len(feed.Items))

	for i, item := range feed.Items {
		if item == nil {
			continue
		}

		link := strings.TrimSpace(item.Link)
		if link == "" {
			p.logger.Debug("dropping item without link", slog.Int("index", i), slog.String("title", item.Title))
			continue
		}
		if _, dup := seen[link]; dup {
			p.logger.Debug("dropping duplicate link", slog.Int("index", i), slog.String("link", link))
			continue
		}
		seen[link] = struct{}{}

		entries = append(entries, p.toEntry(item, link))
	}

	metrics.RecordParse(len(entries))
	return entries, nil
}

func (p *Parser) toEntry(item *gofeed.Item, link string) model.FeedEntry {
	description := p.PlainText(item.Description)
	content := p.PlainText(item.Content)

	summarySource := description
	if summarySource == "" {
		summarySource = content
	}
	if content == "" {
		content = description
	}

	entry := model.FeedEntry{
		Title:   strings.TrimSpace(html.UnescapeString(item.Title)),
		Link:    link,
		Summary: Truncate(summarySource, MaxSummaryRunes),
		Author:  authorName(item),
		Content: content,
	}

	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		entry.PublishedAt = &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		entry.PublishedAt = &t
	}

	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			entry.Tags = append(entry.Tags, c)
		}
	}

	return entry
}

// PlainText strips markup, unescapes entities and collapses whitespace.
func (p *Parser) PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = blockTag.ReplaceAllString(s, " <$1$2")
	s = html.UnescapeString(p.policy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to limit runes at most, appending "..." when it cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}

func authorName(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if item.Author != nil {
		return strings.TrimSpace(item.Author.Name)
	}
	return ""
}
