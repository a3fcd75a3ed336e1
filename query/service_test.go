package query

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/spurs-feed-mcp/classifier"
	"github.com/richardwooding/spurs-feed-mcp/model"
)

const testFeedURL = "https://www.poundingtherock.com/rss/current.xml"

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Pounding The Rock</title>
  <item>
    <title>Final Score: Clippers 122-117 Spurs</title>
    <link>https://www.poundingtherock.com/2026/1/8/clippers-spurs</link>
    <pubDate>Thu, 08 Jan 2026 04:00:00 GMT</pubDate>
    <description>The Spurs were playing on the road. Castle had 20.</description>
  </item>
  <item>
    <title>Mailbag</title>
    <link>https://www.poundingtherock.com/mailbag</link>
    <description>Reader questions about the draft.</description>
  </item>
  <item>
    <title>Spurs defeat Lakers 112-98</title>
    <link>https://www.poundingtherock.com/2026/1/10/spurs-lakers</link>
    <pubDate>Sat, 10 Jan 2026 04:00:00 GMT</pubDate>
    <description>&lt;p&gt;Victor Wembanyama scored 30 as the Spurs won in San Antonio. Wemby added 12 rebounds.&lt;/p&gt;</description>
  </item>
  <item>
    <title>Front office roster notes</title>
    <link>https://www.poundingtherock.com/2026/1/11/roster-notes</link>
    <pubDate>Sun, 11 Jan 2026 04:00:00 GMT</pubDate>
    <description>Notes on Devin Vassell and the front office.</description>
  </item>
</channel>
</rss>`

type stubSource struct {
	body  string
	err   error
	calls atomic.Int32
}

func (s *stubSource) FetchFeed(context.Context) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (s *stubSource) FeedURL() string { return testFeedURL }

type stubScraper struct {
	text  string
	err   error
	links []string
}

func (s *stubScraper) Scrape(_ context.Context, link string) (string, error) {
	s.links = append(s.links, link)
	return s.text, s.err
}

func newTestService(t *testing.T, body string) (*Service, *stubSource) {
	t.Helper()
	src := &stubSource{body: body}
	svc, err := NewService(Config{Source: src})
	require.NoError(t, err)
	return svc, src
}

func intPtr(n int) *int { return &n }

func generatedFeed(n int) string {
	var b strings.Builder
	b.WriteString(`<rss version="2.0"><channel><title>t</title>`)
	for i := range n {
		fmt.Fprintf(&b, `<item><title>Post %d</title><link>https://www.poundingtherock.com/p/%d</link><pubDate>Mon, 05 Jan 2026 %02d:00:00 GMT</pubDate></item>`, i, i, i%24)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func titles(entries []model.FeedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestNewService_RequiresSource(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)
	assert.Equal(t, model.ErrorTypeConfiguration, model.AsFeedError(err).ErrorType)
}

func TestGetLatestPosts_NewestFirstUndatedLast(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	result, err := svc.GetLatestPosts(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Count)
	assert.Equal(t, []string{
		"Front office roster notes",
		"Spurs defeat Lakers 112-98",
		"Final Score: Clippers 122-117 Spurs",
		"Mailbag",
	}, titles(result.Entries))
	assert.Nil(t, result.Entries[3].PublishedAt)
}

func TestGetLatestPosts_Classification(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	result, err := svc.GetLatestPosts(context.Background(), nil)
	require.NoError(t, err)

	categories := map[string]model.Category{}
	for _, e := range result.Entries {
		categories[e.Title] = e.Category
	}
	assert.Equal(t, map[string]model.Category{
		"Front office roster notes":           model.CategoryGeneralPost,
		"Spurs defeat Lakers 112-98":          model.CategoryGameResult,
		"Final Score: Clippers 122-117 Spurs": model.CategoryGameResult,
		"Mailbag":                             model.CategoryGeneralPost,
	}, categories)
}

func TestGetLatestPosts_Limits(t *testing.T) {
	svc, _ := newTestService(t, generatedFeed(30))

	tests := []struct {
		name  string
		limit *int
		want  int
	}{
		{name: "default", limit: nil, want: DefaultLimit},
		{name: "explicit", limit: intPtr(3), want: 3},
		{name: "max", limit: intPtr(MaxLimit), want: MaxLimit},
		{name: "clamped", limit: intPtr(100), want: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetLatestPosts(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Count)
			assert.Len(t, result.Entries, tt.want)
		})
	}
}

func TestGetLatestPosts_InvalidLimitSkipsFetch(t *testing.T) {
	for _, limit := range []int{0, -1} {
		svc, src := newTestService(t, testFeed)

		_, err := svc.GetLatestPosts(context.Background(), intPtr(limit))
		require.Error(t, err)

		fe := model.AsFeedError(err)
		assert.Equal(t, model.ValidationErrorKind, fe.Kind())
		assert.Equal(t, model.ErrorTypeInvalidArgument, fe.ErrorType)
		assert.Zero(t, src.calls.Load())
	}
}

func TestGetLatestPosts_EmptyFeed(t *testing.T) {
	svc, _ := newTestService(t, "<rss></rss>")

	result, err := svc.GetLatestPosts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.NotNil(t, result.Entries)
}

func TestPipelineErrorsPropagate(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		src := &stubSource{err: model.NewFeedError(model.ErrorTypeHTTPServerError, "Server error: 500 Internal Server Error")}
		svc, err := NewService(Config{Source: src})
		require.NoError(t, err)

		_, err = svc.GetLatestPosts(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, model.FetchErrorKind, model.AsFeedError(err).Kind())
	})

	t.Run("parse", func(t *testing.T) {
		svc, _ := newTestService(t, "this is not a feed")

		_, err := svc.GetLatestGameResult(context.Background())
		require.Error(t, err)
		fe := model.AsFeedError(err)
		assert.Equal(t, model.ParseErrorKind, fe.Kind())
		assert.Equal(t, testFeedURL, fe.URL)
	})
}

func TestEachCallRunsThePipeline(t *testing.T) {
	svc, src := newTestService(t, testFeed)

	_, err := svc.GetLatestPosts(context.Background(), nil)
	require.NoError(t, err)
	_, err = svc.GetLatestGameResult(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestGetLatestGameResult(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	lookup, err := svc.GetLatestGameResult(context.Background())
	require.NoError(t, err)

	require.True(t, lookup.Found)
	require.NotNil(t, lookup.Entry)
	assert.Equal(t, "Spurs defeat Lakers 112-98", lookup.Entry.Title)
	require.NotNil(t, lookup.Result)
	assert.Equal(t, "Lakers", lookup.Result.Opponent)
	assert.Equal(t, classifier.ResultWin, lookup.Result.Result)
	assert.Equal(t, "Spurs 112, Lakers 98", lookup.Result.Score)
	assert.Equal(t, classifier.LocationHome, lookup.Result.Location)
}

func TestGetLatestGameResult_NoneFound(t *testing.T) {
	for name, body := range map[string]string{
		"empty":        "<rss></rss>",
		"only general": `<rss version="2.0"><channel><item><title>Draft notes</title><link>https://www.poundingtherock.com/d</link></item></channel></rss>`,
	} {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, body)

			lookup, err := svc.GetLatestGameResult(context.Background())
			require.NoError(t, err)
			assert.False(t, lookup.Found)
			assert.Nil(t, lookup.Entry)
			assert.Nil(t, lookup.Result)
		})
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	result, err := svc.Search(context.Background(), "LAKERS", nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "LAKERS", result.Keyword)
	assert.Equal(t, "Spurs defeat Lakers 112-98", result.Results[0].Title)
	assert.Contains(t, result.Results[0].Snippet, "**Lakers**")

	result, err = svc.Search(context.Background(), "front office", nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "Front office roster notes", result.Results[0].Title)

	result, err = svc.Search(context.Background(), "spurs", intPtr(1))
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "Spurs defeat Lakers 112-98", result.Results[0].Title)

	result, err = svc.Search(context.Background(), "timberwolves", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.NotNil(t, result.Results)
}

func TestSearch_Validation(t *testing.T) {
	svc, src := newTestService(t, testFeed)

	_, err := svc.Search(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.Equal(t, model.ValidationErrorKind, model.AsFeedError(err).Kind())

	_, err = svc.Search(context.Background(), "spurs", intPtr(0))
	require.Error(t, err)
	assert.Equal(t, model.ValidationErrorKind, model.AsFeedError(err).Kind())

	assert.Zero(t, src.calls.Load())
}

func TestGetRecentResults(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	recent, err := svc.GetRecentResults(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, recent.Count)

	assert.Equal(t, "Lakers", recent.Results[0].Opponent)
	assert.Equal(t, classifier.ResultWin, recent.Results[0].Result)

	assert.Equal(t, "Clippers", recent.Results[1].Opponent)
	assert.Equal(t, classifier.ResultLoss, recent.Results[1].Result)
	assert.Equal(t, "Spurs 117, Clippers 122", recent.Results[1].Score)
	assert.Equal(t, classifier.LocationAway, recent.Results[1].Location)

	recent, err = svc.GetRecentResults(context.Background(), intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, recent.Count)
}

func TestGetPlayerInfo(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	info, err := svc.GetPlayerInfo(context.Background(), "wemby")
	require.NoError(t, err)
	assert.Equal(t, "Victor Wembanyama", info.Name)
	require.Len(t, info.Mentions, 2)
	assert.Equal(t, "Victor Wembanyama scored 30 as the Spurs won in San Antonio.", info.Mentions[0].Text)
	assert.Equal(t, "Wemby added 12 rebounds.", info.Mentions[1].Text)
	assert.Equal(t, "https://www.poundingtherock.com/2026/1/10/spurs-lakers", info.Mentions[0].ArticleLink)

	info, err = svc.GetPlayerInfo(context.Background(), "Keldon Johnson")
	require.NoError(t, err)
	assert.Equal(t, "Keldon Johnson", info.Name)
	assert.NotNil(t, info.Mentions)
	assert.Empty(t, info.Mentions)
}

func TestGetPlayerInfo_Errors(t *testing.T) {
	svc, src := newTestService(t, testFeed)

	_, err := svc.GetPlayerInfo(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, model.ErrorTypeInvalidArgument, model.AsFeedError(err).ErrorType)

	_, err = svc.GetPlayerInfo(context.Background(), "Tim Duncan")
	require.Error(t, err)
	fe := model.AsFeedError(err)
	assert.Equal(t, model.ErrorTypeNotFound, fe.ErrorType)
	assert.Equal(t, model.ValidationErrorKind, fe.Kind())

	assert.Zero(t, src.calls.Load())
}

func TestListPlayers(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	list, err := svc.ListPlayers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []PlayerSummary{
		{Name: "Victor Wembanyama", MentionCount: 2},
		{Name: "Devin Vassell", MentionCount: 1},
		{Name: "Stephon Castle", MentionCount: 1},
	}, list.Players)
	assert.Equal(t, 3, list.Count)
}

func TestGetPost(t *testing.T) {
	const link = "https://www.poundingtherock.com/2026/1/10/spurs-lakers"

	t.Run("entry only", func(t *testing.T) {
		scraper := &stubScraper{text: "unused"}
		svc, err := NewService(Config{Source: &stubSource{body: testFeed}, Scraper: scraper})
		require.NoError(t, err)

		post, err := svc.GetPost(context.Background(), " "+link+" ", false)
		require.NoError(t, err)
		assert.Equal(t, "Spurs defeat Lakers 112-98", post.Entry.Title)
		assert.Empty(t, post.FullText)
		assert.Empty(t, scraper.links)
	})

	t.Run("full page", func(t *testing.T) {
		scraper := &stubScraper{text: "Full recap text."}
		svc, err := NewService(Config{Source: &stubSource{body: testFeed}, Scraper: scraper})
		require.NoError(t, err)

		post, err := svc.GetPost(context.Background(), link, true)
		require.NoError(t, err)
		assert.Equal(t, "Full recap text.", post.FullText)
		assert.Equal(t, []string{link}, scraper.links)
	})

	t.Run("scrape failure", func(t *testing.T) {
		scraper := &stubScraper{err: model.NewFeedError(model.ErrorTypeHTTPClientError, "Client error: 404 Not Found")}
		svc, err := NewService(Config{Source: &stubSource{body: testFeed}, Scraper: scraper})
		require.NoError(t, err)

		_, err = svc.GetPost(context.Background(), link, true)
		require.Error(t, err)
		assert.Equal(t, model.FetchErrorKind, model.AsFeedError(err).Kind())
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := newTestService(t, testFeed)

		_, err := svc.GetPost(context.Background(), "https://www.poundingtherock.com/missing", false)
		require.Error(t, err)
		assert.Equal(t, model.ErrorTypeNotFound, model.AsFeedError(err).ErrorType)
	})

	t.Run("foreign host is never scraped", func(t *testing.T) {
		body := `<rss version="2.0"><channel><item><title>Elsewhere</title><link>https://evil.example/post</link></item></channel></rss>`
		scraper := &stubScraper{}
		svc, err := NewService(Config{Source: &stubSource{body: body}, Scraper: scraper})
		require.NoError(t, err)

		_, err = svc.GetPost(context.Background(), "https://evil.example/post", true)
		require.Error(t, err)
		fe := model.AsFeedError(err)
		assert.Equal(t, model.ValidationErrorKind, fe.Kind())
		assert.ErrorIs(t, err, model.ErrForeignHost)
		assert.Empty(t, scraper.links)
	})

	t.Run("blank link", func(t *testing.T) {
		svc, _ := newTestService(t, testFeed)

		_, err := svc.GetPost(context.Background(), "", false)
		require.Error(t, err)
		assert.Equal(t, model.ErrorTypeInvalidArgument, model.AsFeedError(err).ErrorType)
	})
}

func TestCanceledContext(t *testing.T) {
	svc, _ := newTestService(t, testFeed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetLatestPosts(ctx, nil)
	require.Error(t, err)
	fe := model.AsFeedError(err)
	assert.Equal(t, model.ErrorTypeCanceled, fe.ErrorType)
	assert.Equal(t, model.FetchErrorKind, fe.Kind())
}

func TestResolveLimit(t *testing.T) {
	n, err := resolveLimit("op", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, n)

	n, err = resolveLimit("op", intPtr(26))
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, n)

	_, err = resolveLimit("op", intPtr(-3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-3")
}
