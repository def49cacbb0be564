package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MidOSresearch/midos-mcp/internal/config"
	"github.com/MidOSresearch/midos-mcp/internal/logging"
)

type serveOptions struct {
	http bool
	addr string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio or streamable HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.http, "http", false, "Serve the streamable HTTP transport instead of stdio")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (default from config)")

	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(cfg.Root)
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.LogFilePath()
	// Stdio reserves the console for the protocol and its launcher.
	logCfg.WriteToStderr = opts.http
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCleanup()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	transport := "stdio"
	addr := ""
	if opts.http {
		transport = "http"
		addr = opts.addr
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
	}

	return app.Server.Serve(ctx, transport, addr)
}

// episodicPath and poolPath locate the synapse state files shared with
// sibling daemons.
func episodicPath(cfg *config.Config) string {
	return filepath.Join(cfg.SynapseDir(), "episodic_memory.jsonl")
}

func poolPath(cfg *config.Config) string {
	return filepath.Join(cfg.SynapseDir(), "instance_pool.json")
}
