package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
	"github.com/MidOSresearch/midos-mcp/internal/config"
	"github.com/MidOSresearch/midos-mcp/internal/embed"
	"github.com/MidOSresearch/midos-mcp/internal/handshake"
	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/mcpserver"
	"github.com/MidOSresearch/midos-mcp/internal/search"
	"github.com/MidOSresearch/midos-mcp/internal/store"
	"github.com/MidOSresearch/midos-mcp/internal/synapse"
)

// app holds the wired server and everything that needs closing.
type app struct {
	Server *mcpserver.Server

	store    *store.Store
	embedder embed.Embedder
	usage    *auth.UsageLedger
	logger   *slog.Logger
}

// buildApp wires the full dependency graph from configuration. The
// embedder is optional: without an API key semantic search degrades to
// keyword-only retrieval.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(cfg.VectorDir(), store.Options{
		Dimensions:     cfg.Embedding.Dimensions,
		HalfLifeDays:   cfg.Decay.HalfLifeDays,
		StaleThreshold: cfg.Decay.StaleThreshold,
		ArchiveLogPath: cfg.ArchiveLogPath(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}

	var embedder embed.Embedder
	if cfg.Embedding.APIKey != "" {
		gemini, err := embed.NewGeminiEmbedder(ctx, cfg.Embedding.APIKey,
			cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			logger.Warn("embedding client unavailable, keyword-only retrieval",
				slog.String("error", err.Error()))
		} else {
			cached, err := embed.NewCachedEmbedder(gemini, embed.DefaultCacheSize)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("embedding cache: %w", err)
			}
			embedder = embed.NewBatchEmbedder(cached,
				cfg.Embedding.BatchSize, cfg.Embedding.Workers, logger)
		}
	} else {
		logger.Info("no embedding API key configured, keyword-only retrieval")
	}

	engine, err := search.NewEngine(st, embedder, search.Config{
		Alpha:          cfg.Search.Alpha,
		RRFConstant:    cfg.Search.RRFConstant,
		ResultCacheTTL: cfg.Search.ResultCacheTTL,
		QueryCacheSize: cfg.Search.QueryCacheSize,
		QueryCacheTTL:  cfg.Search.QueryCacheTTL,
	}, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("search engine: %w", err)
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
	}, logger)

	hs := handshake.NewEngine(engine, lib, handshake.Paths{
		Root:            cfg.Root,
		SkillsDir:       cfg.SkillsDir(),
		SkillBundlesDir: cfg.SkillBundlesDir(),
		ChunksDir:       cfg.ChunksDir(),
		CLIProfilesPath: cfg.CLIProfilesPath(),
		CompatLogPath:   cfg.CompatLogPath(),
	}, logger)

	keys := auth.NewKeyStore(cfg.KeysPath())
	usage := auth.NewUsageLedger(cfg.UsagePath(), logger)
	gate := auth.NewGate(keys, usage, cfg.Quota.UpgradeURL)

	srv, err := mcpserver.NewServer(mcpserver.Deps{
		Gate:      gate,
		Search:    engine,
		Embedder:  embedder,
		Library:   lib,
		Handshake: hs,
		Inbox:     synapse.NewInbox(cfg.InboxDir()),
		Episodic:  synapse.NewEpisodic(episodicPath(cfg)),
		Pool:      synapse.NewPool(poolPath(cfg)),
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		Server:   srv,
		store:    st,
		embedder: embedder,
		usage:    usage,
		logger:   logger,
	}, nil
}

// Close flushes the quota ledger and releases store and embedder
// resources.
func (a *app) Close() {
	if err := a.usage.Flush(); err != nil {
		a.logger.Warn("usage ledger flush failed", slog.String("error", err.Error()))
	}
	if a.embedder != nil {
		if err := a.embedder.Close(); err != nil {
			a.logger.Warn("embedder close failed", slog.String("error", err.Error()))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}
