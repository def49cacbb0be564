package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MidOSresearch/midos-mcp/internal/config"
	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the knowledge base status dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			lib := knowledge.NewLibrary(knowledge.Paths{
				Root:            cfg.Root,
				KnowledgeDir:    cfg.KnowledgeDir(),
				SkillsDir:       cfg.SkillsDir(),
				ProtocolsDir:    cfg.ProtocolsDir(),
				EurekaDir:       cfg.EurekaDir(),
				TruthDir:        cfg.TruthDir(),
				ChunksDir:       cfg.ChunksDir(),
				SkillBundlesDir: cfg.SkillBundlesDir(),
				UpgradeURL:      cfg.Quota.UpgradeURL,
			}, nil)

			vec := knowledge.VectorStats{Status: "unavailable"}
			st, err := store.Open(cfg.VectorDir(), store.Options{
				Dimensions:     cfg.Embedding.Dimensions,
				HalfLifeDays:   cfg.Decay.HalfLifeDays,
				StaleThreshold: cfg.Decay.StaleThreshold,
			}, nil)
			if err == nil {
				if n, err := st.Count(cmd.Context()); err == nil {
					vec = knowledge.VectorStats{Status: "active", Count: n}
				}
				st.Close()
			}

			fmt.Fprintln(cmd.OutOrStdout(), lib.ProjectStatus(vec))
			return nil
		},
	}
}
