package mcpserver

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/salespipe/crm-mcp-server/pkg/session"
)

// TransportMode selects which dispatcher a Server runs.
type TransportMode string

const (
	// ModeStdio serves a single implicit caller over the process pipe.
	ModeStdio TransportMode = "stdio"
	// ModeSSE serves long-lived event-stream connections with a separate
	// message POST endpoint.
	ModeSSE TransportMode = "sse"
	// ModeStreamable serves fully self-contained request/response exchanges.
	ModeStreamable TransportMode = "streamable"
)

// Options configure a Server instance.
type Options struct {
	// Implementation identifies the server's MCP implementation metadata.
	Implementation *mcp.Implementation
	// Mode selects the transport dispatcher. Defaults to ModeStdio.
	Mode TransportMode
	// Addr controls the listen address used by ListenAndServe for the HTTP
	// modes. Defaults to ":3000".
	Addr string
	// SSEPath is where the streamed transport accepts connections. Defaults
	// to "/sse".
	SSEPath string
	// MessagePath is where the streamed transport accepts POSTed messages.
	// Defaults to "/messages".
	MessagePath string
	// StreamablePath mounts the stateless handler. Defaults to "/mcp".
	StreamablePath string
	// DefaultCredentials seed the stdio transport's implicit session. The
	// HTTP modes ignore them.
	DefaultCredentials session.Credentials
	// Logger receives structured diagnostics.
	Logger *slog.Logger
}

func (o *Options) withDefaults() Options {
	if o == nil {
		o = &Options{}
	}
	opts := *o
	if opts.Implementation == nil {
		opts.Implementation = &mcp.Implementation{
			Name:    "crm-mcp-server",
			Title:   "CRM MCP Server",
			Version: "1.0.0",
		}
	} else {
		impl := *opts.Implementation
		opts.Implementation = &impl
	}
	if opts.Mode == "" {
		opts.Mode = ModeStdio
	}
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}
	if opts.SSEPath == "" {
		opts.SSEPath = "/sse"
	}
	if opts.MessagePath == "" {
		opts.MessagePath = "/messages"
	}
	if opts.StreamablePath == "" {
		opts.StreamablePath = "/mcp"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// policy captures the facts that differ between the three dispatchers, so the
// shared handling code branches on data instead of re-implementing each
// transport.
type policy struct {
	// fixedSessionID pins every message to one implicit session (stdio).
	fixedSessionID string
	// inlineCredentials requires complete credentials on every request.
	inlineCredentials bool
	// allowRebind permits a message POST carrying fresh credentials to
	// replace the session bound at connect time.
	allowRebind bool
	// releaseAfterRequest destroys the session once the request's reply is
	// written.
	releaseAfterRequest bool
}

func policyFor(mode TransportMode) policy {
	switch mode {
	case ModeSSE:
		return policy{allowRebind: true}
	case ModeStreamable:
		return policy{inlineCredentials: true, releaseAfterRequest: true}
	default:
		return policy{fixedSessionID: stdioSessionID}
	}
}
