// Package mcpserver assembles the MCP-facing surface of the adapter: one
// mcp.Server carrying the CRM tool and prompt catalog, plus the three
// transport dispatchers (stdio pipe, streamed SSE connection, stateless
// streamable HTTP) that differ only in how a caller's session is established
// and how replies are delivered. Every message, on every transport, runs with
// the resolved session identifier bound into its context before it reaches a
// handler.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/salespipe/crm-mcp-server/pkg/authgate"
	"github.com/salespipe/crm-mcp-server/pkg/session"
)

// stdioSessionID is the pipe transport's single implicit session: one process,
// one caller.
const stdioSessionID = "stdio"

// Server binds the tool catalog, session store, and auth gate to a transport.
type Server struct {
	opts   Options
	pol    policy
	store  *session.Store
	gate   *authgate.Gate
	logger *slog.Logger

	mcpServer *mcp.Server
}

// New builds a Server. The store is required; a nil gate behaves as a
// disabled gate.
func New(store *session.Store, gate *authgate.Gate, opts *Options) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("mcpserver: session store is required")
	}
	options := opts.withDefaults()
	if gate == nil {
		var err error
		gate, err = authgate.New(authgate.Config{}, options.Logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		opts:   options,
		pol:    policyFor(options.Mode),
		store:  store,
		gate:   gate,
		logger: options.Logger,
	}

	s.mcpServer = mcp.NewServer(options.Implementation, &mcp.ServerOptions{
		HasTools:   true,
		HasPrompts: true,
	})
	s.mcpServer.AddReceivingMiddleware(s.identityMiddleware)
	s.registerTools()
	s.registerPrompts()
	return s, nil
}

// Mode reports the configured transport.
func (s *Server) Mode() TransportMode { return s.opts.Mode }

// identityMiddleware guarantees that every MCP method handler runs with the
// active session identifier in its context. The HTTP dispatchers bind the
// identifier upstream of the protocol layer; this middleware covers the pipe
// transport's fixed session and falls back to the wire-level session id.
func (s *Server) identityMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if session.IDFromContext(ctx) == "" {
			id := s.pol.fixedSessionID
			if id == "" {
				if sess := req.GetSession(); sess != nil {
					id = sess.ID()
				}
			}
			if id != "" {
				ctx = session.WithID(ctx, id)
			}
		}
		return next(ctx, method, req)
	}
}

// Run starts the configured dispatcher and blocks until ctx is cancelled or
// the dispatcher stops.
func (s *Server) Run(ctx context.Context) error {
	switch s.opts.Mode {
	case ModeStdio:
		return s.runStdio(ctx)
	case ModeSSE, ModeStreamable:
		return s.ListenAndServe(ctx)
	default:
		return fmt.Errorf("mcpserver: unknown transport mode %q", s.opts.Mode)
	}
}

// runStdio serves the pipe transport. The implicit session is bound from the
// configured default credentials when they are complete; otherwise the server
// still starts and every tool call fails with a credentials-required error.
func (s *Server) runStdio(ctx context.Context) error {
	if creds := s.opts.DefaultCredentials; creds.Complete() {
		if _, err := s.store.Resolve(stdioSessionID, creds); err != nil {
			return fmt.Errorf("mcpserver: bind stdio session: %w", err)
		}
	} else {
		s.logger.Warn("stdio transport started without default credentials; tool calls will fail until configured")
	}
	defer s.store.Release(stdioSessionID)

	s.logger.Info("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
