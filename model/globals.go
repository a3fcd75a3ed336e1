package model

import "log/slog"

// Globals contains global flags for the CLI.
type Globals struct {
	Version VersionFlag `name:"version" help:"Print version information and quit"`

	// Logger is built in main from the SPURS_MCP_* logging variables.
	Logger *slog.Logger `kong:"-"`
}

// Log returns the configured logger, or a discarding one.
func (g *Globals) Log() *slog.Logger {
	if g == nil || g.Logger == nil {
		return DiscardLogger()
	}
	return g.Logger
}
