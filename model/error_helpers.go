// Package model provides helper functions for creating structured errors.
package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
)

// ErrorResult is the payload handed back to the assistant when an operation fails.
type ErrorResult struct {
	ErrorKind  ErrorKind `json:"error_kind"`
	Message    string    `json:"message"`
	ErrorType  ErrorType `json:"error_type,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	ID         string    `json:"id,omitempty"`
}

// NewErrorResult converts any error into the structured result shape.
func NewErrorResult(err error) *ErrorResult {
	fe := AsFeedError(err)
	if fe == nil {
		return nil
	}
	return &ErrorResult{
		ErrorKind:  fe.Kind(),
		Message:    fe.Message,
		ErrorType:  fe.ErrorType,
		Suggestion: fe.Suggestion,
		ID:         fe.ID,
	}
}

// CreateNetworkError creates a FeedError for network-related issues
func CreateNetworkError(err error, feedURL string) *FeedError {
	errorType := ErrorTypeNetwork
	message := "Network error occurred"

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			errorType = ErrorTypeCanceled
			message = "Request was canceled"
		case isTimeoutError(err):
			errorType = ErrorTypeTimeout
			message = "Request timed out"
		case isDNSError(err):
			errorType = ErrorTypeDNSResolution
			message = "DNS resolution failed"
		case isConnectionError(err):
			errorType = ErrorTypeConnectionFailed
			message = "Connection failed"
		}
	}

	fe := NewFeedErrorWithCause(errorType, message, err).
		WithURL(feedURL).
		WithOperation("fetch_feed").
		WithComponent("http_client")
	if err != nil {
		fe.WithNetworkError(err.Error())
	}
	return fe
}

// CreateHTTPError creates a FeedError for HTTP response errors
func CreateHTTPError(resp *http.Response, feedURL string) *FeedError {
	var errorType ErrorType
	var message string

	status := resp.StatusCode

	switch {
	case status >= 400 && status < 500:
		errorType = ErrorTypeHTTPClientError
		message = fmt.Sprintf("Client error: %s", resp.Status)
	case status >= 500:
		errorType = ErrorTypeHTTPServerError
		message = fmt.Sprintf("Server error: %s", resp.Status)
	case status >= 300 && status < 400:
		errorType = ErrorTypeHTTPRedirect
		message = fmt.Sprintf("Redirect error: %s", resp.Status)
	default:
		errorType = ErrorTypeHTTP
		message = fmt.Sprintf("HTTP error: %s", resp.Status)
	}

	return NewFeedError(errorType, message).
		WithURL(feedURL).
		WithOperation("fetch_feed").
		WithComponent("http_client").
		WithHTTP(status, resp.Header)
}

// CreateParsingError creates a FeedError for feed parsing issues
func CreateParsingError(err error, feedURL, content string) *FeedError {
	errorType := ErrorTypeParsing
	message := "Failed to parse feed"

	if err != nil {
		errStr := strings.ToLower(err.Error())

		switch {
		case strings.Contains(errStr, "failed to detect feed type"):
			errorType = ErrorTypeInvalidFormat
			message = "Document is not an RSS, Atom, or JSON feed"
		case strings.Contains(errStr, "xml"):
			errorType = ErrorTypeMalformedXML
			message = "Feed contains malformed XML"
		case strings.Contains(errStr, "json"):
			errorType = ErrorTypeMalformedJSON
			message = "Feed contains malformed JSON"
		}
	}

	fe := NewFeedErrorWithCause(errorType, message, err).
		WithURL(feedURL).
		WithOperation("parse_feed").
		WithComponent("feed_parser")

	if parseCtx := extractParseContext(err, content); parseCtx != nil {
		fe.WithParseContext(parseCtx)
	}

	return fe
}

// CreateValidationError creates a FeedError for URL validation issues
func CreateValidationError(err error, feedURL string) *FeedError {
	errorType := ErrorTypeValidation
	message := "URL validation failed"

	switch {
	case errors.Is(err, ErrInvalidURL):
		errorType = ErrorTypeInvalidURL
		message = "Invalid URL format"
	case errors.Is(err, ErrUnsupportedScheme):
		errorType = ErrorTypeUnsupportedScheme
		message = "Unsupported URL scheme"
	case errors.Is(err, ErrPrivateIPBlocked):
		errorType = ErrorTypePrivateIP
		message = "Private IP address blocked"
	case errors.Is(err, ErrMissingHost):
		errorType = ErrorTypeInvalidURL
		message = "URL missing host"
	case errors.Is(err, ErrEmptyURL):
		errorType = ErrorTypeInvalidURL
		message = "URL cannot be empty"
	case errors.Is(err, ErrForeignHost):
		errorType = ErrorTypeValidation
		message = "URL is not on the feed's site"
	}

	return NewFeedErrorWithCause(errorType, message, err).
		WithURL(feedURL).
		WithOperation("validate_url").
		WithComponent("url_validator")
}

// CreateArgumentError creates a FeedError for a caller-supplied argument out of range
func CreateArgumentError(operation, message string) *FeedError {
	return NewFeedError(ErrorTypeInvalidArgument, message).
		WithOperation(operation).
		WithComponent("query_service")
}

// CreateCircuitBreakerError creates a FeedError for circuit breaker events
func CreateCircuitBreakerError(feedURL string, state string, cause error) *FeedError {
	message := fmt.Sprintf("Circuit breaker is %s", state)

	return NewFeedErrorWithCause(ErrorTypeCircuitBreaker, message, cause).
		WithURL(feedURL).
		WithOperation("fetch_feed").
		WithComponent("circuit_breaker")
}

// CreateRateLimitError creates a FeedError for rate limiting
func CreateRateLimitError(feedURL string, cause error) *FeedError {
	return NewFeedErrorWithCause(ErrorTypeRateLimit, "Request rate limit exceeded", cause).
		WithURL(feedURL).
		WithOperation("fetch_feed").
		WithComponent("rate_limiter")
}

// isTimeoutError checks if the error is related to timeouts
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	timeoutKeywords := []string{"timeout", "deadline exceeded", "timed out"}
	for _, keyword := range timeoutKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isDNSError checks if the error is related to DNS resolution
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	dnsKeywords := []string{
		"no such host", "name resolution",
		"name or service not known", "nodename nor servname provided",
	}
	for _, keyword := range dnsKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isConnectionError checks if the error is related to connection issues
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	errStr := strings.ToLower(err.Error())
	connKeywords := []string{
		"connection refused", "connection reset", "connection aborted",
		"host unreachable", "network unreachable", "no route to host",
	}
	for _, keyword := range connKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// extractParseContext attempts to extract parsing context from error messages
func extractParseContext(err error, content string) *ParseContext {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	ctx := &ParseContext{}

	// Format: "XML syntax error on line X: ..."
	if strings.Contains(errStr, "line") {
		parts := strings.Fields(errStr)
		for i, part := range parts {
			if part == "line" && i+1 < len(parts) {
				if lineNum, parseErr := strconv.Atoi(strings.TrimSuffix(parts[i+1], ":")); parseErr == nil {
					ctx.LineNumber = lineNum
					break
				}
			}
		}
	}

	contentLower := strings.TrimSpace(strings.ToLower(content))
	if strings.HasPrefix(contentLower, "{") {
		ctx.FeedFormat = "JSON"
	} else if strings.HasPrefix(contentLower, "<") {
		switch {
		case strings.Contains(contentLower, "<rss"):
			ctx.FeedFormat = "RSS"
		case strings.Contains(contentLower, "<feed"):
			ctx.FeedFormat = "Atom"
		default:
			ctx.FeedFormat = "XML"
		}
	}

	if ctx.LineNumber > 0 && content != "" {
		lines := strings.Split(content, "\n")
		if ctx.LineNumber <= len(lines) {
			start := max(0, ctx.LineNumber-3)
			end := min(len(lines), ctx.LineNumber+2)
			ctx.ContentSnippet = strings.Join(lines[start:end], "\n")
		}
	}

	if ctx.LineNumber > 0 || ctx.FeedFormat != "" || ctx.ContentSnippet != "" {
		return ctx
	}

	return nil
}
