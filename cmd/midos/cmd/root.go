// Package cmd provides the CLI commands for midos.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MidOSresearch/midos-mcp/pkg/version"
)

// NewRootCmd creates the root command for the midos CLI. Running the
// bare binary serves MCP over stdio, which is what MCP client configs
// expect to launch.
func NewRootCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "midos",
		Short: "MCP knowledge server for AI coding agents",
		Long: `midos serves a curated knowledge base (chunks, skills, EUREKA findings)
to AI coding assistants over the Model Context Protocol.

Run 'midos' with no arguments to serve over stdio, or 'midos serve --http'
for the streamable HTTP transport with health endpoints.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.SetVersionTemplate("midos version {{.Version}}\n")

	cmd.Flags().BoolVar(&opts.http, "http", false, "Serve the streamable HTTP transport instead of stdio")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (default from config)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newKeysCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
