package classifier

import (
	"regexp"
	"slices"
	"strings"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

// Player is a roster entry with the extra names writers use for them.
type Player struct {
	Name      string
	Nicknames []string
}

// Roster is the tracked list of Spurs players.
var Roster = []Player{
	{Name: "Victor Wembanyama", Nicknames: []string{"Wemby"}},
	{Name: "Devin Vassell"},
	{Name: "Jeremy Sochan"},
	{Name: "Keldon Johnson"},
	{Name: "Tre Jones"},
	{Name: "Julian Champagnie"},
	{Name: "Zach Collins"},
	{Name: "Malaki Branham"},
	{Name: "Blake Wesley"},
	{Name: "Sandro Mamukelashvili"},
	{Name: "Dominick Barlow"},
	{Name: "Charles Bassey"},
	{Name: "Harrison Barnes"},
	{Name: "Stephon Castle"},
	{Name: "Chris Paul", Nicknames: []string{"CP3"}},
}

// Mention is one sentence naming a player.
type Mention struct {
	Text         string `json:"text"`
	ArticleTitle string `json:"article_title"`
	ArticleLink  string `json:"article_link"`
}

// PlayerInfo collects the mentions of a player across the feed.
type PlayerInfo struct {
	Name     string    `json:"name"`
	Mentions []Mention `json:"mentions"`
}

// Terms returns every name the player is matched by: full name, last name
// and nicknames.
func (p Player) Terms() []string {
	terms := []string{p.Name}
	if parts := strings.Fields(p.Name); len(parts) >= 2 {
		terms = append(terms, parts[len(parts)-1])
	}
	return append(terms, p.Nicknames...)
}

func (p Player) pattern() *regexp.Regexp {
	quoted := make([]string, 0, len(p.Terms()))
	for _, t := range p.Terms() {
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var rosterPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Roster))
	for i, p := range Roster {
		out[i] = p.pattern()
	}
	return out
}()

// ResolvePlayer maps a full name, last name or nickname to the roster entry.
func ResolvePlayer(name string) (Player, bool) {
	name = strings.TrimSpace(name)
	for _, p := range Roster {
		for _, t := range p.Terms() {
			if strings.EqualFold(t, name) {
				return p, true
			}
		}
	}
	return Player{}, false
}

// ExtractPlayerMentions scans entries for roster players and returns the
// matching sentences keyed by full name. Players never mentioned are absent.
func ExtractPlayerMentions(entries []model.FeedEntry) map[string]*PlayerInfo {
	out := make(map[string]*PlayerInfo)

	for _, entry := range entries {
		text := entry.Content
		if text == "" {
			text = entry.Summary
		}
		if text == "" {
			continue
		}
		sentences := SplitSentences(text)

		for i, p := range Roster {
			re := rosterPatterns[i]
			if !re.MatchString(text) {
				continue
			}
			info, ok := out[p.Name]
			if !ok {
				info = &PlayerInfo{Name: p.Name, Mentions: []Mention{}}
				out[p.Name] = info
			}
			for _, s := range sentences {
				if re.MatchString(s) {
					info.Mentions = append(info.Mentions, Mention{
						Text:         s,
						ArticleTitle: entry.Title,
						ArticleLink:  entry.Link,
					})
				}
			}
		}
	}

	return out
}

// MentionedPlayers returns the names in mentions, most mentioned first.
func MentionedPlayers(mentions map[string]*PlayerInfo) []string {
	names := make([]string, 0, len(mentions))
	for name := range mentions {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if d := len(mentions[b].Mentions) - len(mentions[a].Mentions); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return names
}

// SplitSentences splits on '.', '!' or '?' followed by whitespace.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if isSpace(text[i+1]) {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
