package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestSortNewestFirst(t *testing.T) {
	entries := []FeedEntry{
		{Link: "undated-1"},
		{Link: "old", PublishedAt: at("2024-01-01T00:00:00Z")},
		{Link: "new", PublishedAt: at("2024-03-01T00:00:00Z")},
		{Link: "undated-2"},
		{Link: "tie-a", PublishedAt: at("2024-02-01T00:00:00Z")},
		{Link: "tie-b", PublishedAt: at("2024-02-01T00:00:00Z")},
	}

	SortNewestFirst(entries)

	var links []string
	for _, e := range entries {
		links = append(links, e.Link)
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old", "undated-1", "undated-2"}, links)
}

func TestFeedEntryJSON(t *testing.T) {
	entry := FeedEntry{
		Title:    "Spurs defeat Lakers 112-98",
		Link:     "https://www.poundingtherock.com/recap",
		Summary:  "Wemby had 30.",
		Category: CategoryGameResult,
		Content:  "full body",
	}

	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Nil(t, decoded["published_at"], "undated entries serialize published_at as null")
	assert.Contains(t, decoded, "published_at")
	assert.Equal(t, "GAME_RESULT", decoded["category"])
	assert.NotContains(t, decoded, "Content")
	assert.NotContains(t, decoded, "tags")
}

func TestFeedEntryText(t *testing.T) {
	e := FeedEntry{Title: "Title", Summary: "sum", Content: "body"}
	assert.Equal(t, "Title sum body", e.Text())

	e.Content = "sum"
	assert.Equal(t, "Title sum", e.Text())
}
