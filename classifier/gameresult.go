package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

// GameResult is a Spurs game outcome pulled out of a recap.
type GameResult struct {
	Date     *time.Time `json:"date"`
	Title    string     `json:"title"`
	Link     string     `json:"link"`
	Opponent string     `json:"opponent"`
	Score    string     `json:"score"`
	Result   string     `json:"result"`
	Location string     `json:"location"`
}

const (
	ResultWin  = "Win"
	ResultLoss = "Loss"

	LocationHome    = "Home"
	LocationAway    = "Away"
	LocationUnknown = "Unknown"
)

// NBATeams lists franchise nicknames in lookup order.
var NBATeams = []string{
	"76ers", "Bucks", "Bulls", "Cavaliers", "Celtics", "Clippers", "Grizzlies",
	"Hawks", "Heat", "Hornets", "Jazz", "Kings", "Knicks", "Lakers", "Magic",
	"Mavericks", "Nets", "Nuggets", "Pacers", "Pelicans", "Pistons", "Raptors",
	"Rockets", "Spurs", "Suns", "Thunder", "Timberwolves", "Trail Blazers",
	"Warriors", "Wizards",
}

// teamCities maps a city to its team. Los Angeles resolves to the Clippers
// unless the nickname is present.
var teamCities = []struct {
	city string
	team string
}{
	{"Philadelphia", "76ers"}, {"Milwaukee", "Bucks"}, {"Chicago", "Bulls"},
	{"Cleveland", "Cavaliers"}, {"Boston", "Celtics"}, {"Los Angeles", "Clippers"},
	{"Memphis", "Grizzlies"}, {"Atlanta", "Hawks"}, {"Miami", "Heat"},
	{"Charlotte", "Hornets"}, {"Utah", "Jazz"}, {"Sacramento", "Kings"},
	{"New York", "Knicks"}, {"Orlando", "Magic"}, {"Dallas", "Mavericks"},
	{"Brooklyn", "Nets"}, {"Denver", "Nuggets"}, {"Indiana", "Pacers"},
	{"New Orleans", "Pelicans"}, {"Detroit", "Pistons"}, {"Toronto", "Raptors"},
	{"Houston", "Rockets"}, {"San Antonio", "Spurs"}, {"Phoenix", "Suns"},
	{"Oklahoma City", "Thunder"}, {"Minnesota", "Timberwolves"},
	{"Portland", "Trail Blazers"}, {"Golden State", "Warriors"},
	{"Washington", "Wizards"},
}

const (
	spurs = `(?:Spurs|San Antonio)`
	team  = `(\w+(?:\s+\w+)?)`
	pts   = `(\d{2,3})`
	dash  = `\s*[-–]\s*`
)

var (
	// "Spurs 120, Lakers 110" and "Lakers 110, Spurs 120"
	directScore = regexp.MustCompile(`(?i)` + spurs + `\s+` + pts + `[,\s]+` + team + `\s+` + pts +
		`|` + team + `\s+` + pts + `[,\s]+` + spurs + `\s+` + pts)

	// "Final Score: Clippers 122-117 Spurs" and "Final Score: Spurs 117-122 Clippers"
	finalScore = regexp.MustCompile(`(?i)final\s+score:?\s+(?:` + team + `\s+` + pts + dash + pts + `\s+` + spurs +
		`|` + spurs + `\s+` + pts + dash + pts + `\s+` + team + `)`)

	// "Clippers to a 122-117 win over the Spurs"
	opponentWin = regexp.MustCompile(`(?i)` + team + `\s+to\s+a\s+` + pts + dash + pts +
		`\s+win\s+(?:\w+\s+){0,2}(?:over|against)\s+(?:the\s+)?` + spurs)

	// "Spurs vs. Clippers: 117-122" and "Clippers @ Spurs: 122-117"
	versusScore = regexp.MustCompile(`(?i)` + spurs + `\s+(?:vs\.?|versus|@|at)\s+` + team + `[^0-9]*` + pts + dash + pts +
		`|` + team + `\s+(?:vs\.?|versus|@|at)\s+` + spurs + `[^0-9]*` + pts + dash + pts)

	// "Spurs defeat Lakers 112-98" and "Lakers beat the Spurs 120-104"
	verbScore = regexp.MustCompile(`(?i)` + spurs + `\s+` + resultVerb + `\s+(?:the\s+)?` + team + `[,:\s]+` + pts + dash + pts +
		`|` + team + `\s+` + resultVerb + `\s+(?:the\s+)?` + spurs + `[,:\s]+` + pts + dash + pts)

	spursWinPhrase  = regexp.MustCompile(`(?i)\b` + spurs + `\s+win\b`)
	spursLossPhrase = regexp.MustCompile(`(?i)\b` + spurs + `\s+loss\b`)

	locationPatterns = []struct {
		re       *regexp.Regexp
		location string
	}{
		{regexp.MustCompile(`(?i)(?:played|playing|game)\s+at\s+home`), LocationHome},
		{regexp.MustCompile(`(?i)(?:played|playing|game)\s+on\s+the\s+road`), LocationAway},
		{regexp.MustCompile(`(?i)in\s+San\s+Antonio`), LocationHome},
		{regexp.MustCompile(`(?i)at\s+the\s+(?:AT&T|Frost\s+Bank)\s+Center`), LocationHome},
		{regexp.MustCompile(`(?i)away\s+game`), LocationAway},
		{regexp.MustCompile(`(?i)host(?:s|ing|ed)\s+the`), LocationHome},
		{regexp.MustCompile(`(?i)visit(?:s|ing|ed)\s+the`), LocationAway},
	}
)

const resultVerb = `(defeats?|defeated|beats?|tops?|outlasts?|downs?|edges?|routs?|falls?\s+to|loses?\s+to|lost\s+to)`

var lossVerb = regexp.MustCompile(`(?i)^(?:falls?|loses?|lost)\b`)

// ExtractGameResult looks for a final score and derives opponent, result and
// location. It reports false when no score can be found.
func ExtractGameResult(entry model.FeedEntry) (GameResult, bool) {
	body := entry.Content
	if body == "" {
		body = entry.Summary
	}
	text := body + " " + entry.Title

	spursScore, oppScore, opponent, ok := findScore(text)
	if !ok {
		return GameResult{}, false
	}

	result := ResultLoss
	if spursScore > oppScore {
		result = ResultWin
	}

	return GameResult{
		Date:     entry.PublishedAt,
		Title:    entry.Title,
		Link:     entry.Link,
		Opponent: opponent,
		Score:    fmt.Sprintf("Spurs %d, %s %d", spursScore, opponent, oppScore),
		Result:   result,
		Location: findLocation(text, opponent),
	}, true
}

func findScore(text string) (spursScore, oppScore int, opponent string, ok bool) {
	if g := directScore.FindStringSubmatch(text); g != nil {
		if g[1] != "" {
			return atoi(g[1]), atoi(g[3]), NormalizeTeam(g[2]), true
		}
		return atoi(g[6]), atoi(g[5]), NormalizeTeam(g[4]), true
	}

	if g := finalScore.FindStringSubmatch(text); g != nil {
		if g[1] != "" {
			return atoi(g[3]), atoi(g[2]), NormalizeTeam(g[1]), true
		}
		return atoi(g[4]), atoi(g[5]), NormalizeTeam(g[6]), true
	}

	if g := opponentWin.FindStringSubmatch(text); g != nil {
		return atoi(g[3]), atoi(g[2]), NormalizeTeam(g[1]), true
	}

	if g := versusScore.FindStringSubmatch(text); g != nil {
		if g[1] != "" {
			first, second := atoi(g[2]), atoi(g[3])
			s, o := orderByPhrase(text, first, second)
			return s, o, NormalizeTeam(g[1]), true
		}
		first, second := atoi(g[5]), atoi(g[6])
		// Without a phrase the Spurs score is taken in the order the teams were named.
		s, o := orderByPhrase(text, second, first)
		return s, o, NormalizeTeam(g[4]), true
	}

	if g := verbScore.FindStringSubmatch(text); g != nil {
		if g[1] != "" {
			hi, lo := maxMin(atoi(g[3]), atoi(g[4]))
			if lossVerb.MatchString(g[1]) {
				return lo, hi, NormalizeTeam(g[2]), true
			}
			return hi, lo, NormalizeTeam(g[2]), true
		}
		hi, lo := maxMin(atoi(g[7]), atoi(g[8]))
		if lossVerb.MatchString(g[6]) {
			return hi, lo, NormalizeTeam(g[5]), true
		}
		return lo, hi, NormalizeTeam(g[5]), true
	}

	return 0, 0, "", false
}

// orderByPhrase returns (spurs, opponent). An explicit "Spurs win" or
// "Spurs loss" decides; otherwise the defaults stand.
func orderByPhrase(text string, spursDefault, oppDefault int) (int, int) {
	hi, lo := maxMin(spursDefault, oppDefault)
	switch {
	case spursWinPhrase.MatchString(text):
		return hi, lo
	case spursLossPhrase.MatchString(text):
		return lo, hi
	default:
		return spursDefault, oppDefault
	}
}

func findLocation(text, opponent string) string {
	for _, lp := range locationPatterns {
		if lp.re.MatchString(text) {
			return lp.location
		}
	}

	if opponent == "" {
		return LocationUnknown
	}
	quoted := regexp.QuoteMeta(opponent)
	if regexp.MustCompile(`(?i)` + spurs + `\s+@\s+` + quoted).MatchString(text) {
		return LocationAway
	}
	if regexp.MustCompile(`(?i)` + quoted + `\s+@\s+` + spurs).MatchString(text) {
		return LocationHome
	}
	return LocationUnknown
}

// NormalizeTeam maps a raw team or city mention to the franchise nickname.
// Unrecognised names are returned trimmed.
func NormalizeTeam(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Unknown"
	}
	lower := strings.ToLower(raw)

	for _, t := range NBATeams {
		if strings.Contains(lower, strings.ToLower(t)) {
			return t
		}
	}

	for _, tc := range teamCities {
		if strings.Contains(lower, strings.ToLower(tc.city)) {
			return tc.team
		}
	}

	return raw
}

func maxMin(a, b int) (int, int) {
	if a >= b {
		return a, b
	}
	return b, a
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
