package mcpserver

import (
	"context"

	"github.com/richardwooding/spurs-feed-mcp/classifier"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/query"
)

// QueryService answers the questions behind every tool, resource and prompt.
// *query.Service implements it.
type QueryService interface {
	FeedURL() string
	Entries(ctx context.Context) ([]model.FeedEntry, error)
	GetLatestPosts(ctx context.Context, limit *int) (*query.PostsResult, error)
	GetLatestGameResult(ctx context.Context) (*query.GameResultLookup, error)
	Search(ctx context.Context, keyword string, limit *int) (*query.SearchResult, error)
	GetRecentResults(ctx context.Context, limit *int) (*query.RecentResults, error)
	GetPlayerInfo(ctx context.Context, name string) (*classifier.PlayerInfo, error)
	ListPlayers(ctx context.Context) (*query.PlayerList, error)
	GetPost(ctx context.Context, link string, fullPage bool) (*query.PostResult, error)
}

var _ QueryService = (*query.Service)(nil)
