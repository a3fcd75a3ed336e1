// Package mcpserver exposes the Spurs feed queries over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richardwooding/spurs-feed-mcp/metrics"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/version"
)

const (
	// DefaultHTTPAddr is where the HTTP transport listens when none is configured.
	DefaultHTTPAddr = "127.0.0.1:8080"
	// DefaultShutdownTimeout bounds the graceful HTTP shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the configuration for creating a new MCP server
type Config struct {
	Service         QueryService
	Transport       model.Transport
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server implements an MCP server for the Spurs blog feed
type Server struct {
	service         QueryService
	resourceManager *ResourceManager
	transport       model.Transport
	httpAddr        string
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a new MCP server with the given configuration
func NewServer(config Config) (*Server, error) {
	if config.Transport == model.UndefinedTransport {
		return nil, model.NewFeedError(model.ErrorTypeTransport, "transport must be specified").
			WithOperation("create_server").
			WithComponent("mcp_server")
	}
	if config.Service == nil {
		return nil, model.NewFeedError(model.ErrorTypeConfiguration, "QueryService is required").
			WithOperation("create_server").
			WithComponent("mcp_server")
	}
	if config.HTTPAddr == "" {
		config.HTTPAddr = DefaultHTTPAddr
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if config.Logger == nil {
		config.Logger = model.DiscardLogger()
	}

	logger := config.Logger.With(slog.String("component", "mcp_server"))
	return &Server{
		service:         config.Service,
		resourceManager: NewResourceManager(config.Service),
		transport:       config.Transport,
		httpAddr:        config.HTTPAddr,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// LimitParams contains parameters for tools that take an optional limit.
type LimitParams struct {
	Limit *int `json:"limit,omitempty"`
}

// SearchParams contains parameters for the search_posts tool.
type SearchParams struct {
	Keyword string `json:"keyword"`
	Limit   *int   `json:"limit,omitempty"`
}

// PlayerParams contains parameters for the get_player_info tool.
type PlayerParams struct {
	PlayerName string `json:"player_name"`
}

// PostParams contains parameters for the get_post tool.
type PostParams struct {
	Link     string `json:"link"`
	FullPage bool   `json:"full_page,omitempty"`
}

var limitSchema = &jsonschema.Schema{
	Type:        "integer",
	Description: "Maximum number of results (default 5, values above 25 are clamped to 25)",
}

// MCPServer builds the protocol server with every tool, resource and prompt registered.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "Spurs Blog Assistant",
			Version: version.GetVersion(),
		},
		&mcp.ServerOptions{
			Instructions: "Answers questions about the San Antonio Spurs using the Pounding The Rock blog feed.",
			HasResources: true,
		},
	)

	s.addTools(srv)
	s.addResourceHandlers(srv)
	s.addPrompts(srv)

	return srv
}

func (s *Server) addTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_latest_posts",
		Description: "Get the latest Pounding The Rock posts, newest first",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"limit": limitSchema},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LimitParams) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.GetLatestPosts(ctx, args.Limit)
		return s.respond("get_latest_posts", start, result, err)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_latest_game_result",
		Description: "Get the most recent Spurs game result post, with the score when the recap states one",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args any) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.GetLatestGameResult(ctx)
		return s.respond("get_latest_game_result", start, result, err)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_posts",
		Description: "Search post titles and summaries for a keyword (case-insensitive)",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"keyword"},
			Properties: map[string]*jsonschema.Schema{
				"keyword": {
					Type:        "string",
					Description: "Word or phrase to look for",
				},
				"limit": limitSchema,
			},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchParams) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.Search(ctx, args.Keyword, args.Limit)
		return s.respond("search_posts", start, result, err)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_recent_results",
		Description: "Get recent Spurs game results with opponent, score, win or loss and location",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"limit": limitSchema},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LimitParams) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.GetRecentResults(ctx, args.Limit)
		return s.respond("get_recent_results", start, result, err)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_player_info",
		Description: "Get recent mentions of a Spurs player (full name, last name or nickname)",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"player_name"},
			Properties: map[string]*jsonschema.Schema{
				"player_name": {
					Type:        "string",
					Description: "Player name, e.g. Victor Wembanyama, Wembanyama or Wemby",
				},
			},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerParams) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.GetPlayerInfo(ctx, args.PlayerName)
		return s.respond("get_player_info", start, result, err)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_post",
		Description: "Get a single post by link, optionally with the full text of its page",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"link"},
			Properties: map[string]*jsonschema.Schema{
				"link": {
					Type:        "string",
					Description: "Post link as returned by the other tools",
				},
				"full_page": {
					Type:        "boolean",
					Description: "Also fetch the post page and return its paragraphs",
				},
			},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PostParams) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		result, err := s.service.GetPost(ctx, args.Link, args.FullPage)
		return s.respond("get_post", start, result, err)
	})
}

// respond turns a query outcome into a tool result. Query failures become an
// ErrorResult with IsError set so the assistant can read them.
func (s *Server) respond(tool string, start time.Time, v any, err error) (*mcp.CallToolResult, any, error) {
	status := "ok"
	defer func() {
		metrics.RecordToolCall(tool, status, time.Since(start).Seconds())
	}()

	if err != nil {
		status = "error"
		result := model.NewErrorResult(err)
		s.logger.Debug("tool call failed",
			slog.String("tool", tool),
			slog.String("error_kind", string(result.ErrorKind)),
			slog.String("error_type", string(result.ErrorType)),
			slog.String("error_id", result.ID))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: mustMarshalJSON(result)}},
		}, nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		status = "error"
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// Run starts the MCP server and handles client connections until context is canceled
func (s *Server) Run(ctx context.Context) error {
	srv := s.MCPServer()

	switch s.transport {
	case model.StdioTransport:
		s.logger.Info("serving MCP over stdio", slog.String("feed_url", s.service.FeedURL()))
		err := srv.Run(ctx, &mcp.StdioTransport{})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case model.HTTPWithSSETransport:
		return s.runHTTP(ctx, srv)
	default:
		return model.NewFeedError(model.ErrorTypeTransport, "unsupported transport").
			WithOperation("run_server").
			WithComponent("mcp_server")
	}
}

// Handler returns the HTTP routes: the streamable MCP endpoint at /mcp and
// prometheus metrics at /metrics.
func (s *Server) Handler(srv *mcp.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) runHTTP(ctx context.Context, srv *mcp.Server) error {
	listener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return model.NewFeedErrorWithCause(model.ErrorTypeTransport, "failed to listen on "+s.httpAddr, err).
			WithOperation("run_server").
			WithComponent("mcp_server")
	}
	return s.serveHTTP(ctx, listener, srv)
}

func (s *Server) serveHTTP(ctx context.Context, listener net.Listener, srv *mcp.Server) error {
	httpServer := &http.Server{
		Handler:           s.Handler(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	s.logger.Info("serving MCP over HTTP",
		slog.String("addr", listener.Addr().String()),
		slog.String("feed_url", s.service.FeedURL()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server", slog.Duration("timeout", s.shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return model.NewFeedErrorWithCause(model.ErrorTypeTransport, "graceful shutdown did not complete", err).
			WithOperation("shutdown_server").
			WithComponent("mcp_server")
	}
	return nil
}
