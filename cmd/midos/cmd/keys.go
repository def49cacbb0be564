package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
	"github.com/MidOSresearch/midos-mcp/internal/config"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys and quota usage",
	}

	cmd.AddCommand(newKeysGenerateCmd())
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysRevokeCmd())
	cmd.AddCommand(newKeysUsageCmd())

	return cmd
}

func newKeysGenerateCmd() *cobra.Command {
	var name, tier string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			keys := auth.NewKeyStore(cfg.KeysPath())
			key, err := keys.Generate(name, auth.Tier(tier))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s key for %q:\n\n  %s\n\n", tier, name, key)
			fmt.Fprintln(cmd.OutOrStdout(), "Store it now; the full key is never shown again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Owner name for the key")
	cmd.Flags().StringVar(&tier, "tier", "free", "Key tier: free, dev, pro or team")

	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys (masked)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			infos, err := auth.NewKeyStore(cfg.KeysPath()).List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No API keys.")
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-20s %-6s %-18s %-8s %s\n", "NAME", "TIER", "KEY", "ACTIVE", "CREATED")
			for _, info := range infos {
				fmt.Fprintf(w, "%-20s %-6s %-18s %-8t %s\n",
					info.Name, info.Tier, info.Prefix, info.Active, info.Created)
			}
			return nil
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			revoked, err := auth.NewKeyStore(cfg.KeysPath()).Revoke(key)
			if err != nil {
				return err
			}
			if !revoked {
				return fmt.Errorf("key not found: %s", auth.MaskKey(key))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", auth.MaskKey(key))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "The full API key to revoke")

	return cmd
}

func newKeysUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show quota usage for the current month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			usage := auth.NewUsageLedger(cfg.UsagePath(), nil)
			month, counts := usage.Counts()
			if len(counts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No usage recorded for %s.\n", month)
				return nil
			}

			ids := make([]string, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Usage for %s:\n\n", month)
			fmt.Fprintf(w, "%-28s %s\n", "IDENTIFIER", "QUERIES")
			for _, id := range ids {
				label := id
				if strings.HasPrefix(id, auth.KeyPrefix) {
					label = auth.MaskKey(id)
				}
				fmt.Fprintf(w, "%-28s %d\n", label, counts[id])
			}
			return nil
		},
	}
}
