// Package mcpserver exposes the trading facade as MCP tools. The tool
// table, argument schemas, and result payloads live here; the facade owns
// all trading semantics.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/logger"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/trading"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
	"go.uber.org/zap"
)

const serverName = "ibkr-mcp-server"

// Server hosts the tool table over one or more MCP transports. Stdio and
// streamable HTTP share the same registered tools.
type Server struct {
	mcp    *mcp.Server
	facade *trading.Facade
	logger *logger.Logger
}

// NewServer builds the MCP server and registers every tool.
func NewServer(facade *trading.Facade, log *logger.Logger, version string) *Server {
	s := &Server{
		facade: facade,
		logger: log,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	for _, def := range s.toolDefs() {
		s.register(def)
	}

	return s
}

// register wires one tool definition into the protocol server.
func (s *Server) register(def toolDef) {
	s.mcp.AddTool(def.tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := rawArguments(req.Params.Arguments)
		if err != nil {
			return s.toolError(def.tool.Name, err), nil
		}

		return def.handler(ctx, raw)
	})
}

// Tools returns the exposed tool definitions in registration order.
func (s *Server) Tools() []*mcp.Tool {
	defs := s.toolDefs()
	tools := make([]*mcp.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, def.tool)
	}

	return tools
}

// Catalog returns the tool definitions without standing up a server.
func Catalog() []*mcp.Tool {
	var s Server
	return s.Tools()
}

// toolError logs a failed call and renders it as an in-band error payload.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed",
		zap.String("tool", tool),
		zap.String("kind", string(errors.KindOf(err))),
		zap.Error(err),
	)

	return errorResult(err)
}

// ServeStdio serves the protocol on stdin/stdout until the client
// disconnects or the context is canceled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler exposes the server over streamable HTTP under /mcp, with a
// liveness probe at /healthz.
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	router.PathPrefix("/mcp").Handler(streamable)

	return router
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Connect attaches the server to a single transport and returns the live
// session. Tests drive the server through in-memory pipes this way.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, transport, nil)
}
