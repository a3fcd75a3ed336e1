// Package model provides logging utilities for enhanced error context.
package model

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerOptions controls how NewLogger builds its handler.
type LoggerOptions struct {
	Level    slog.Level
	Debug    bool
	JSONMode bool
}

// LoggerOptionsFromEnv reads SPURS_MCP_DEBUG, SPURS_MCP_LOG_LEVEL and SPURS_MCP_JSON_LOGS.
func LoggerOptionsFromEnv() LoggerOptions {
	opts := LoggerOptions{Level: slog.LevelInfo}

	if debugMode := os.Getenv("SPURS_MCP_DEBUG"); debugMode != "" {
		opts.Debug = isTruthy(debugMode)
	}

	if logLevel := os.Getenv("SPURS_MCP_LOG_LEVEL"); logLevel != "" {
		opts.Level = ParseLogLevel(logLevel)
	}

	if jsonMode := os.Getenv("SPURS_MCP_JSON_LOGS"); jsonMode != "" {
		opts.JSONMode = isTruthy(jsonMode)
	}

	if opts.Debug {
		opts.Level = slog.LevelDebug
	}

	return opts
}

// NewLogger returns a logger configured from the environment, writing to stderr.
// Stdout is reserved for the stdio transport.
func NewLogger() *slog.Logger {
	return NewLoggerWithOptions(os.Stderr, LoggerOptionsFromEnv())
}

// NewLoggerWithOptions returns a logger writing to w.
func NewLoggerWithOptions(w io.Writer, opts LoggerOptions) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSONMode {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// DiscardLogger returns a logger that drops everything. Handy in tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LogFeedError logs a FeedError with full context
func LogFeedError(logger *slog.Logger, feedErr *FeedError) {
	if logger == nil || feedErr == nil {
		return
	}

	attrs := []any{
		slog.String("error_id", feedErr.ID),
		slog.String("error_type", string(feedErr.ErrorType)),
		slog.String("error_kind", string(feedErr.Kind())),
		slog.String("suggestion", feedErr.Suggestion),
	}

	if feedErr.Component != "" {
		attrs = append(attrs, slog.String("component", feedErr.Component))
	}

	if feedErr.Operation != "" {
		attrs = append(attrs, slog.String("operation", feedErr.Operation))
	}

	if feedErr.URL != "" {
		attrs = append(attrs, slog.String("url", feedErr.URL))
	}

	if feedErr.HTTPStatus != 0 {
		attrs = append(attrs, slog.Int("http_status", feedErr.HTTPStatus))
	}

	if len(feedErr.HTTPHeaders) > 0 {
		attrs = append(attrs, slog.Any("http_headers", feedErr.HTTPHeaders))
	}

	if feedErr.ParseContext != nil {
		attrs = append(attrs,
			slog.Int("parse_line", feedErr.ParseContext.LineNumber),
			slog.String("feed_format", feedErr.ParseContext.FeedFormat))
	}

	if feedErr.Cause != nil {
		attrs = append(attrs, slog.String("cause", feedErr.Cause.Error()))
	}

	// Caller mistakes are not server faults.
	if feedErr.Kind() == ValidationErrorKind {
		logger.Warn(feedErr.Message, attrs...)
		return
	}
	logger.Error(feedErr.Message, attrs...)
}

// ParseLogLevel parses error|warn|info|debug, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return slog.LevelError
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "DEBUG":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isTruthy(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}
