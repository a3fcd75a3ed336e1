package mcpserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/query"
)

// FilterParams represents parsed URI parameters for filtering articles
type FilterParams struct {
	Since    *time.Time // Filter entries published at or after this time
	Until    *time.Time // Filter entries published at or before this time
	Limit    *int       // Maximum number of entries to return
	Offset   *int       // Number of entries to skip (for pagination)
	Category string     // GAME_RESULT, GENERAL_POST or a feed tag
	Author   string     // Filter by author
	Search   string     // Search in title, summary and content
}

// ParseURIParameters extracts and validates filter parameters from a resource URI
func ParseURIParameters(resourceURI string) (*FilterParams, error) {
	parsedURL, err := url.Parse(resourceURI)
	if err != nil {
		return nil, model.NewFeedError(model.ErrorTypeValidation, "Invalid URI format").
			WithURL(resourceURI).
			WithOperation("parse_uri_parameters").
			WithComponent("resource_filters")
	}

	params := &FilterParams{}
	values := parsedURL.Query()

	if err := parseTimeParameters(values, params, resourceURI); err != nil {
		return nil, err
	}

	if err := parseNumericParameters(values, params, resourceURI); err != nil {
		return nil, err
	}

	parseStringParameters(values, params)

	if err := validateParameterCombinations(params, resourceURI); err != nil {
		return nil, err
	}

	return params, nil
}

// parseTimeParameters handles since and until date parameter parsing
func parseTimeParameters(values url.Values, params *FilterParams, resourceURI string) error {
	if sinceStr := values.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return model.NewFeedError(model.ErrorTypeValidation, fmt.Sprintf("Invalid 'since' date format: %s", err.Error())).
				WithURL(resourceURI).
				WithOperation("parse_since_parameter").
				WithComponent("resource_filters")
		}
		params.Since = &since
	}

	if untilStr := values.Get("until"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return model.NewFeedError(model.ErrorTypeValidation, fmt.Sprintf("Invalid 'until' date format: %s", err.Error())).
				WithURL(resourceURI).
				WithOperation("parse_until_parameter").
				WithComponent("resource_filters")
		}
		params.Until = &until
	}

	return nil
}

// parseNumericParameters handles limit and offset parameter parsing
func parseNumericParameters(values url.Values, params *FilterParams, resourceURI string) error {
	if limitStr := values.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return model.NewFeedError(model.ErrorTypeInvalidArgument, "Invalid 'limit' value: must be a positive integer").
				WithURL(resourceURI).
				WithOperation("parse_limit_parameter").
				WithComponent("resource_filters")
		}
		limit = min(limit, query.MaxLimit)
		params.Limit = &limit
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return model.NewFeedError(model.ErrorTypeInvalidArgument, "Invalid 'offset' value: must be non-negative integer").
				WithURL(resourceURI).
				WithOperation("parse_offset_parameter").
				WithComponent("resource_filters")
		}
		params.Offset = &offset
	}

	return nil
}

// parseStringParameters handles category, author, and search parameter parsing
func parseStringParameters(values url.Values, params *FilterParams) {
	params.Category = strings.TrimSpace(values.Get("category"))
	params.Author = strings.TrimSpace(values.Get("author"))
	params.Search = strings.TrimSpace(values.Get("search"))
}

// validateParameterCombinations validates that parameter combinations are valid
func validateParameterCombinations(params *FilterParams, resourceURI string) error {
	if params.Since != nil && params.Until != nil && params.Since.After(*params.Until) {
		return model.NewFeedError(model.ErrorTypeValidation, "'since' date must be before 'until' date").
			WithURL(resourceURI).
			WithOperation("validate_date_range").
			WithComponent("resource_filters")
	}

	return nil
}

// ApplyFilters applies the filter parameters to entries, keeping their order.
// Undated entries pass the date filters.
func ApplyFilters(entries []model.FeedEntry, filters *FilterParams) []model.FeedEntry {
	if filters == nil {
		return entries
	}

	filtered := []model.FeedEntry{}
	for _, entry := range entries {
		if shouldIncludeEntry(entry, filters) {
			filtered = append(filtered, entry)
		}
	}

	if filters.Offset != nil {
		offset := *filters.Offset
		if offset >= len(filtered) {
			return []model.FeedEntry{}
		}
		filtered = filtered[offset:]
	}

	if filters.Limit != nil && *filters.Limit < len(filtered) {
		filtered = filtered[:*filters.Limit]
	}

	return filtered
}

func shouldIncludeEntry(entry model.FeedEntry, filters *FilterParams) bool {
	if filters.Since != nil && entry.PublishedAt != nil && entry.PublishedAt.Before(*filters.Since) {
		return false
	}

	if filters.Until != nil && entry.PublishedAt != nil && entry.PublishedAt.After(*filters.Until) {
		return false
	}

	if filters.Category != "" && !hasCategory(entry, filters.Category) {
		return false
	}

	if filters.Author != "" && !strings.EqualFold(entry.Author, filters.Author) {
		return false
	}

	if filters.Search != "" && !strings.Contains(strings.ToLower(entry.Text()), strings.ToLower(filters.Search)) {
		return false
	}

	return true
}

// hasCategory matches the classifier category or any feed tag.
func hasCategory(entry model.FeedEntry, category string) bool {
	if strings.EqualFold(string(entry.Category), category) {
		return true
	}
	for _, tag := range entry.Tags {
		if strings.EqualFold(tag, category) {
			return true
		}
	}
	return false
}

// FilterSummary provides information about applied filters and results
type FilterSummary struct {
	TotalItems     int            `json:"total_items"`
	FilteredItems  int            `json:"filtered_items"`
	AppliedFilters map[string]any `json:"applied_filters,omitempty"`
}

// CreateFilterSummary creates a summary of the filtering operation
func CreateFilterSummary(originalCount, filteredCount int, filters *FilterParams) *FilterSummary {
	summary := &FilterSummary{
		TotalItems:    originalCount,
		FilteredItems: filteredCount,
	}

	if filters == nil {
		return summary
	}

	applied := make(map[string]any)
	if filters.Since != nil {
		applied["since"] = filters.Since.Format(time.RFC3339)
	}
	if filters.Until != nil {
		applied["until"] = filters.Until.Format(time.RFC3339)
	}
	if filters.Limit != nil {
		applied["limit"] = *filters.Limit
	}
	if filters.Offset != nil {
		applied["offset"] = *filters.Offset
	}
	if filters.Category != "" {
		applied["category"] = filters.Category
	}
	if filters.Author != "" {
		applied["author"] = filters.Author
	}
	if filters.Search != "" {
		applied["search"] = filters.Search
	}
	if len(applied) > 0 {
		summary.AppliedFilters = applied
	}

	return summary
}
