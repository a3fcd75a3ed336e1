package model

import (
	"slices"
	"time"
)

// Category is the classification assigned to every FeedEntry.
type Category string

const (
	CategoryGameResult  Category = "GAME_RESULT"
	CategoryGeneralPost Category = "GENERAL_POST"
)

// FeedEntry is one post from the blog feed, normalized and classified.
type FeedEntry struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"published_at"`
	Summary     string     `json:"summary"`
	Category    Category   `json:"category"`
	Tags        []string   `json:"tags,omitempty"`
	Author      string     `json:"author,omitempty"`

	// Content is the full plain-text body, kept for extraction and snippets.
	Content string `json:"-"`
}

// Text returns title, summary and content joined for matching.
func (e FeedEntry) Text() string {
	text := e.Title + " " + e.Summary
	if e.Content != "" && e.Content != e.Summary {
		text += " " + e.Content
	}
	return text
}

// SortNewestFirst orders entries by PublishedAt descending. Undated entries
// go last and ties keep their feed order.
func SortNewestFirst(entries []FeedEntry) {
	slices.SortStableFunc(entries, func(a, b FeedEntry) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return 0
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		default:
			return b.PublishedAt.Compare(*a.PublishedAt)
		}
	})
}
