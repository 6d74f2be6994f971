// Command crm-mcp-server exposes a CRM tenant's API over the Model Context
// Protocol. It speaks three transports (stdio, sse, streamable), selected by
// configuration, and is configured entirely through CRM_-prefixed environment
// variables with a handful of flag overrides.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/salespipe/crm-mcp-server/pkg/authgate"
	"github.com/salespipe/crm-mcp-server/pkg/config"
	"github.com/salespipe/crm-mcp-server/pkg/crm"
	"github.com/salespipe/crm-mcp-server/pkg/mcpserver"
	"github.com/salespipe/crm-mcp-server/pkg/ratelimit"
	"github.com/salespipe/crm-mcp-server/pkg/session"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		transport   string
		port        int
		messagePath string
	)

	cmd := &cobra.Command{
		Use:           "crm-mcp-server",
		Short:         "MCP server exposing a CRM tenant's deals, contacts, and pipelines as tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Transport = config.Transport(transport)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("message-path") {
				cfg.MessagePath = messagePath
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "transport to serve: stdio, sse, or streamable (overrides CRM_TRANSPORT)")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port for sse and streamable (overrides CRM_PORT)")
	cmd.Flags().StringVar(&messagePath, "message-path", "", "message POST path for sse (overrides CRM_MESSAGE_PATH)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout belongs to the protocol on the pipe transport, so diagnostics
	// always go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	limiter := ratelimit.New(&ratelimit.Options{
		MinInterval:   cfg.RateMinInterval,
		MaxConcurrent: cfg.RateMaxConcurrent,
	})

	// Every session shares the one limiter; per-session clients only differ
	// in which tenant they talk to.
	factory := func(creds session.Credentials) (*crm.Client, error) {
		return crm.New(creds.CompanyDomain, creds.APIToken, &crm.Options{Limiter: limiter})
	}
	store, err := session.NewStore(factory, &session.StoreOptions{Logger: logger})
	if err != nil {
		return err
	}

	gate, err := authgate.New(cfg.Auth, logger)
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(store, gate, &mcpserver.Options{
		Mode:        mcpserver.TransportMode(cfg.Transport),
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		MessagePath: cfg.MessagePath,
		DefaultCredentials: session.Credentials{
			APIToken:      cfg.APIToken,
			CompanyDomain: cfg.CompanyDomain,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
