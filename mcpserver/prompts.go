package mcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardwooding/spurs-feed-mcp/classifier"
	"github.com/richardwooding/spurs-feed-mcp/model"
)

const (
	defaultNewsDays = 7
	maxNewsDays     = 90
	// promptHeadlines bounds the feed context appended to a prompt.
	promptHeadlines = 10
)

// addPrompts registers the prompt templates on srv
func (s *Server) addPrompts(srv *mcp.Server) {
	srv.AddPrompt(&mcp.Prompt{
		Name:        "player_comparison",
		Description: "Compare two Spurs players using their recent coverage",
		Arguments: []*mcp.PromptArgument{
			{Name: "player1", Description: "First player (name, last name or nickname)", Required: true},
			{Name: "player2", Description: "Second player (name, last name or nickname)", Required: true},
		},
	}, s.handlePlayerComparison)

	srv.AddPrompt(&mcp.Prompt{
		Name:        "team_news",
		Description: "Summarise recent Spurs news from the blog",
		Arguments: []*mcp.PromptArgument{
			{Name: "days", Description: "How many days back to cover (default 7)"},
		},
	}, s.handleTeamNews)

	srv.AddPrompt(&mcp.Prompt{
		Name:        "nba_news",
		Description: "Ask for league news affecting the Spurs from the official NBA site",
	}, s.handleNBANews)
}

// handlePlayerComparison asks for a comparison of two players, with the
// feed sentences that mention each of them.
func (s *Server) handlePlayerComparison(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	player1 := strings.TrimSpace(getStringArg(req.Params.Arguments, "player1", ""))
	player2 := strings.TrimSpace(getStringArg(req.Params.Arguments, "player2", ""))
	if player1 == "" || player2 == "" {
		return createErrorPromptResult("both player1 and player2 are required"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Please compare the following San Antonio Spurs players based on their recent performances, stats, and mentions in articles:

Player 1: %s
Player 2: %s

Consider their:
- Statistical production
- Impact on winning
- Role on the team
- Recent trends in performance
- Media and fan perceptions
`, player1, player2)

	for _, name := range []string{player1, player2} {
		b.WriteString(s.playerContext(ctx, name))
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Comparison of %s and %s", player1, player2),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: b.String()},
			},
		},
	}, nil
}

// playerContext lists what the feed says about name, or nothing when the
// player is unknown or the feed cannot be read.
func (s *Server) playerContext(ctx context.Context, name string) string {
	if _, ok := classifier.ResolvePlayer(name); !ok {
		return ""
	}
	info, err := s.service.GetPlayerInfo(ctx, name)
	if err != nil {
		model.LogFeedError(s.logger, model.AsFeedError(err))
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n## Recent mentions of %s (%d)\n", info.Name, len(info.Mentions))
	for i, m := range info.Mentions {
		if i == promptHeadlines {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", m.Text, m.ArticleTitle)
	}
	return b.String()
}

// handleTeamNews asks for a summary of the last N days, listing the posts
// the feed holds for that window.
func (s *Server) handleTeamNews(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := getIntArg(req.Params.Arguments, "days", defaultNewsDays)
	if days < 1 || days > maxNewsDays {
		return createErrorPromptResult(fmt.Sprintf("days must be between 1 and %d, got %d", maxNewsDays, days)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Please provide a summary of the most important San Antonio Spurs news and developments from the past %d days. Include:

- Game results and highlights
- Player performances
- Injury updates
- Team trends
- Front office moves
- Upcoming schedule
`, days)

	entries, err := s.service.Entries(ctx)
	if err != nil {
		model.LogFeedError(s.logger, model.AsFeedError(err))
	} else {
		since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
		recent := ApplyFilters(entries, &FilterParams{Since: &since})
		if len(recent) > 0 {
			fmt.Fprintf(&b, "\n## Posts from Pounding The Rock\n")
			for i, e := range recent {
				if i == promptHeadlines {
					break
				}
				fmt.Fprintf(&b, "- [%s] %s (%s)\n", e.Category, e.Title, e.Link)
			}
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Spurs news from the past %d days", days),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: b.String()},
			},
		},
	}, nil
}

func (s *Server) handleNBANews(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "League news affecting the Spurs",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: `Please use the NBA official website to find the latest news related to:

1. San Antonio Spurs standings in the Western Conference
2. Upcoming games on the Spurs schedule
3. Any league-wide news that affects the Spurs
4. Updates on Victor Wembanyama's season and awards race
5. Trade rumors or roster changes involving the Spurs`,
				},
			},
		},
	}, nil
}

// Helper functions

func createErrorPromptResult(errorMsg string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: "Error in prompt execution",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf("Error: %s\n\nPlease check your parameters and try again.", errorMsg),
				},
			},
		},
	}
}

func getStringArg(args map[string]string, key, defaultValue string) string {
	if val, ok := args[key]; ok {
		return val
	}
	return defaultValue
}

func getIntArg(args map[string]string, key string, defaultValue int) int {
	if val, ok := args[key]; ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultValue
}
