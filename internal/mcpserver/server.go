package mcpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
	"github.com/MidOSresearch/midos-mcp/internal/config"
	"github.com/MidOSresearch/midos-mcp/internal/embed"
	"github.com/MidOSresearch/midos-mcp/internal/handshake"
	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/search"
	"github.com/MidOSresearch/midos-mcp/internal/synapse"
	"github.com/MidOSresearch/midos-mcp/pkg/version"
)

// ServerName is reported through the MCP initialize response.
const ServerName = "midos"

// Deps are the collaborators the server dispatches into. Gate and
// Library are required; Search and Embedder may be nil, in which case
// semantic tools degrade to keyword behavior.
type Deps struct {
	Gate      *auth.Gate
	Search    *search.Engine
	Embedder  embed.Embedder
	Library   *knowledge.Library
	Handshake *handshake.Engine
	Inbox     *synapse.Inbox
	Episodic  *synapse.Episodic
	Pool      *synapse.Pool
	Config    *config.Config
	Logger    *slog.Logger
}

// Server bridges MCP clients with the knowledge library, the hybrid
// search engine, and the synapse coordination files.
type Server struct {
	mcp       *mcp.Server
	gate      *auth.Gate
	engine    *search.Engine
	embedder  embed.Embedder
	lib       *knowledge.Library
	handshake *handshake.Engine
	inbox     *synapse.Inbox
	episodic  *synapse.Episodic
	pool      *synapse.Pool
	cfg       *config.Config
	logger    *slog.Logger
	started   time.Time
}

// NewServer creates the MCP server and registers all tools and the
// skill resource.
func NewServer(deps Deps) (*Server, error) {
	if deps.Gate == nil {
		return nil, errors.New("request gate is required")
	}
	if deps.Library == nil {
		return nil, errors.New("knowledge library is required")
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		gate:      deps.Gate,
		engine:    deps.Search,
		embedder:  deps.Embedder,
		lib:       deps.Library,
		handshake: deps.Handshake,
		inbox:     deps.Inbox,
		episodic:  deps.Episodic,
		pool:      deps.Pool,
		cfg:       deps.Config,
		logger:    deps.Logger,
		started:   time.Now(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// Serve starts the server with the specified transport. addr is only
// used by the http transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("starting MCP server",
		slog.String("transport", transport),
		slog.String("addr", addr))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	case "http":
		return s.serveHTTP(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
	}
}

// observe logs the start of a tool call and returns the completion
// callback. Every invocation gets a short request id for correlation.
func (s *Server) observe(tool string) func() {
	requestID := generateRequestID()
	start := time.Now()
	s.logger.Debug("tool call started",
		slog.String("request_id", requestID),
		slog.String("tool", tool))
	return func() {
		s.logger.Info("tool call completed",
			slog.String("request_id", requestID),
			slog.String("tool", tool),
			slog.Duration("duration", time.Since(start)))
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
