package parser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
	<channel>
		<title>Pounding The Rock</title>
		<item>
			<title>Spurs defeat Lakers 112-98</title>
			<link> https://www.poundingtherock.com/recap-lakers </link>
			<description>&lt;p&gt;Wembanyama had &lt;b&gt;30&lt;/b&gt; points.&lt;/p&gt;&lt;p&gt;Fox added 20 &amp;amp; 10.&lt;/p&gt;</description>
			<pubDate>Tue, 05 Mar 2024 04:30:00 GMT</pubDate>
			<category>Game Recaps</category>
			<author>jesus@example.com (J. Gomez)</author>
		</item>
		<item>
			<title>No link here</title>
			<description>dropped</description>
		</item>
		<item>
			<link>https://www.poundingtherock.com/untitled</link>
			<description>An item with no title.</description>
		</item>
		<item>
			<title>Duplicate of the recap</title>
			<link>https://www.poundingtherock.com/recap-lakers</link>
		</item>
		<item>
			<title>Content only</title>
			<link>https://www.poundingtherock.com/content-only</link>
			<content:encoded><![CDATA[<div>Front office <em>roster</em> notes</div>]]></content:encoded>
		</item>
	</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Pounding The Rock</title>
	<entry>
		<title>Open Thread: Spurs at Clippers</title>
		<link rel="alternate" href="https://www.poundingtherock.com/open-thread"/>
		<id>tag:poundingtherock.com,2024:1</id>
		<updated>2024-03-06T19:00:00-06:00</updated>
		<content type="html">&lt;p&gt;Game day.&lt;/p&gt;</content>
		<author><name>Mark Barrington</name></author>
	</entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	entries, err := New().Parse(context.Background(), []byte(rssFeed))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	recap := entries[0]
	assert.Equal(t, "Spurs defeat Lakers 112-98", recap.Title)
	assert.Equal(t, "https://www.poundingtherock.com/recap-lakers", recap.Link)
	assert.Equal(t, "Wembanyama had 30 points. Fox added 20 & 10.", recap.Summary)
	require.NotNil(t, recap.PublishedAt)
	assert.True(t, recap.PublishedAt.Equal(time.Date(2024, 3, 5, 4, 30, 0, 0, time.UTC)))
	assert.Equal(t, []string{"Game Recaps"}, recap.Tags)
	assert.Empty(t, string(recap.Category), "parser leaves classification to the classifier")

	untitled := entries[1]
	assert.Equal(t, "", untitled.Title)
	assert.Equal(t, "https://www.poundingtherock.com/untitled", untitled.Link)
	assert.Nil(t, untitled.PublishedAt)

	contentOnly := entries[2]
	assert.Equal(t, "Front office roster notes", contentOnly.Summary)
	assert.Equal(t, "Front office roster notes", contentOnly.Content)
}

func TestParse_FirstDuplicateWins(t *testing.T) {
	entries, err := New().Parse(context.Background(), []byte(rssFeed))
	require.NoError(t, err)

	seen := map[string]int{}
	for _, e := range entries {
		seen[e.Link]++
	}
	for link, n := range seen {
		assert.Equal(t, 1, n, "link %s appears more than once", link)
	}
	assert.Equal(t, "Spurs defeat Lakers 112-98", entries[0].Title)
}

func TestParse_Atom(t *testing.T) {
	entries, err := New().Parse(context.Background(), []byte(atomFeed))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "https://www.poundingtherock.com/open-thread", e.Link)
	assert.Equal(t, "Game day.", e.Summary)
	assert.Equal(t, "Mark Barrington", e.Author)
	require.NotNil(t, e.PublishedAt, "updated is used when published is absent")
	assert.True(t, e.PublishedAt.Equal(time.Date(2024, 3, 7, 1, 0, 0, 0, time.UTC)))
}

func TestParse_EmptyChannel(t *testing.T) {
	entries, err := New().Parse(context.Background(), []byte(`<rss></rss>`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty body": "",
		"html page":  "<html><body>Not a feed</body></html>",
		"plain text": "service unavailable",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			entries, err := New(WithSource("https://example.com/rss")).Parse(context.Background(), []byte(body))
			assert.Nil(t, entries)
			fe := model.AsFeedError(err)
			require.NotNil(t, fe)
			assert.Equal(t, model.ParseErrorKind, fe.Kind())
			assert.Equal(t, "https://example.com/rss", fe.URL)
		})
	}
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Parse(ctx, []byte(rssFeed))
	require.Error(t, err)
	assert.Equal(t, model.ErrorTypeCanceled, model.AsFeedError(err).ErrorType)
}

func TestSummaryTruncation(t *testing.T) {
	long := strings.Repeat("é", MaxSummaryRunes+50)
	feed := `<rss version="2.0"><channel><item><title>t</title><link>https://x.test/a</link><description>` +
		long + `</description></item></channel></rss>`

	entries, err := New().Parse(context.Background(), []byte(feed))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.True(t, strings.HasSuffix(entries[0].Summary, "..."))
	assert.Equal(t, MaxSummaryRunes+3, len([]rune(entries[0].Summary)))
	assert.Equal(t, MaxSummaryRunes+50, len([]rune(entries[0].Content)), "content keeps the full text")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 6))
}

func TestPlainText(t *testing.T) {
	p := New()
	assert.Equal(t, "", p.PlainText(""))
	assert.Equal(t, "one two", p.PlainText("<p>one</p><p>two</p>"))
	assert.Equal(t, "Spurs 120, Lakers 110", p.PlainText("Spurs&nbsp;120, <a href='#'>Lakers</a> 110"))
	assert.Equal(t, "alert", p.PlainText("<script>alert('x')</script>alert"))
}
