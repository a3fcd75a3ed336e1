// Package classifier assigns a Category to feed entries and extracts game
// results and player mentions from them.
package classifier

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/richardwooding/spurs-feed-mcp/metrics"
	"github.com/richardwooding/spurs-feed-mcp/model"
)

// Rule is one step of the ordered classification list.
type Rule interface {
	Name() string
	// Match reports whether the rule fires for the lowercased entry text.
	Match(text string) bool
	Category() model.Category
}

// KeywordRule fires when any keyword appears on word boundaries.
type KeywordRule struct {
	name     string
	category model.Category
	patterns []*regexp.Regexp
}

// NewKeywordRule compiles keywords into case-insensitive word-boundary
// patterns. Spaces inside a keyword match any run of whitespace.
func NewKeywordRule(name string, category model.Category, keywords ...string) KeywordRule {
	r := KeywordRule{name: name, category: category}
	for _, kw := range keywords {
		parts := strings.Fields(strings.ToLower(kw))
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		r.patterns = append(r.patterns, regexp.MustCompile(`(?i)\b`+strings.Join(parts, `\s+`)+`\b`))
	}
	return r
}

func (r KeywordRule) Name() string             { return r.name }
func (r KeywordRule) Category() model.Category { return r.category }

func (r KeywordRule) Match(text string) bool {
	for _, p := range r.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var scorePattern = regexp.MustCompile(`\b(\d{2,3})\s*[-–]\s*(\d{2,3})\b`)

// ScorePatternRule fires on an "NNN-NN" pair where both sides look like
// basketball scores.
type ScorePatternRule struct {
	MinScore int
}

func (r ScorePatternRule) Name() string             { return "score-pattern" }
func (r ScorePatternRule) Category() model.Category { return model.CategoryGameResult }

func (r ScorePatternRule) Match(text string) bool {
	for _, m := range scorePattern.FindAllStringSubmatch(text, -1) {
		a, errA := strconv.Atoi(m[1])
		b, errB := strconv.Atoi(m[2])
		if errA == nil && errB == nil && a >= r.MinScore && b >= r.MinScore {
			return true
		}
	}
	return false
}

// DefaultRule always fires.
type DefaultRule struct{}

func (DefaultRule) Name() string             { return "default" }
func (DefaultRule) Category() model.Category { return model.CategoryGeneralPost }
func (DefaultRule) Match(string) bool        { return true }

// DefaultRules is the ordered rule list used by New.
func DefaultRules() []Rule {
	return []Rule{
		NewKeywordRule("recap-keywords", model.CategoryGameResult,
			"recap", "final score", "postgame", "post-game"),
		ScorePatternRule{MinScore: 50},
		NewKeywordRule("result-verbs", model.CategoryGameResult,
			"defeat", "defeats", "defeated", "beat", "beats",
			"win over", "wins over", "victory over",
			"fall to", "falls to", "lose to", "loses to",
			"outlast", "outlasts", "top the", "tops the"),
		DefaultRule{},
	}
}

// Classifier applies rules in order; the first match wins. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules  []Rule
	logger *slog.Logger
}

// New returns a classifier over rules, or DefaultRules when none are given.
func New(logger *slog.Logger, rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = model.DiscardLogger()
	}
	return &Classifier{rules: rules, logger: logger.With(slog.String("component", "classifier"))}
}

// Classify returns the category of entry.
func (c *Classifier) Classify(entry model.FeedEntry) model.Category {
	category, _ := c.Explain(entry)
	return category
}

// Explain returns the category and the name of the rule that produced it.
func (c *Classifier) Explain(entry model.FeedEntry) (model.Category, string) {
	text := strings.ToLower(entry.Title + " " + entry.Summary)
	for _, r := range c.rules {
		if r.Match(text) {
			return r.Category(), r.Name()
		}
	}
	return model.CategoryGeneralPost, DefaultRule{}.Name()
}

// ClassifyAll sets Category on every entry in place and returns entries.
func (c *Classifier) ClassifyAll(entries []model.FeedEntry) []model.FeedEntry {
	for i := range entries {
		category, rule := c.Explain(entries[i])
		entries[i].Category = category
		metrics.RecordClassification(string(category))
		c.logger.Debug("classified entry",
			slog.String("link", entries[i].Link),
			slog.String("category", string(category)),
			slog.String("rule", rule))
	}
	return entries
}
