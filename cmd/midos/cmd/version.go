package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MidOSresearch/midos-mcp/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the midos version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
