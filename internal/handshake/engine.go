// Package handshake implements the agent onboarding pipeline: profile
// resolution, relevance ranking of tools, skills, and knowledge chunks,
// adaptive guardrails, and a context-budget-aware markdown render.
package handshake

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/profile"
	"github.com/MidOSresearch/midos-mcp/internal/search"
)

// Paths locates handshake inputs and the compatibility log.
type Paths struct {
	Root            string
	SkillsDir       string
	SkillBundlesDir string
	ChunksDir       string
	CLIProfilesPath string
	CompatLogPath   string
}

// Engine generates personalized agent configurations.
type Engine struct {
	search *search.Engine // nil degrades chunk ranking to keyword scan
	lib    *knowledge.Library
	paths  Paths
	logger *slog.Logger

	profilesOnce sync.Once
	profiles     map[string]CLIProfile
}

// NewEngine wires the handshake engine. search may be nil.
func NewEngine(se *search.Engine, lib *knowledge.Library, paths Paths, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{search: se, lib: lib, paths: paths, logger: logger}
}

// Config is one generated handshake configuration.
type Config struct {
	Resolved    profile.Resolved
	CLIProfile  CLIProfile
	Tools       []RankedTool
	Skills      []RankedSkill
	Chunks      []RankedChunk
	Guardrails  []string
	ModelTips   []string
	ClientTips  []string
	Suggestions []string
}

// Handshake runs the full pipeline and returns the rendered markdown.
func (e *Engine) Handshake(ctx context.Context, p profile.AgentProfile) string {
	cfg := e.Generate(ctx, p)
	e.logCompatibility(cfg)
	return render(cfg)
}

// Generate produces the configuration without rendering it.
func (e *Engine) Generate(ctx context.Context, p profile.AgentProfile) Config {
	r := profile.Resolve(p)

	e.profilesOnce.Do(func() {
		e.profiles = loadCLIProfiles(e.paths.CLIProfilesPath)
	})
	cliProfile := cliProfileFor(e.profiles, p.Client, r.Client)

	cfg := Config{
		Resolved:    r,
		CLIProfile:  cliProfile,
		Tools:       rankTools(p, cliProfile.ToolRestrictions),
		Skills:      e.rankSkills(r),
		Chunks:      e.rankChunks(ctx, p.ProjectGoal),
		Guardrails:  buildGuardrails(r),
		Suggestions: buildSuggestions(r),
	}
	if r.Model != nil {
		cfg.ModelTips = r.Model.Tips
	}
	if r.Client != nil {
		cfg.ClientTips = r.Client.Tips
	}
	return cfg
}

// compatEntry is one line of the handshake analytics log.
type compatEntry struct {
	TS             string   `json:"ts"`
	Model          string   `json:"model"`
	Client         string   `json:"client"`
	ResolvedModel  string   `json:"resolved_model,omitempty"`
	ResolvedClient string   `json:"resolved_client,omitempty"`
	ToolsOffered   int      `json:"tools_offered"`
	SkillsMatched  int      `json:"skills_matched"`
	Tier           string   `json:"tier"`
	ContextBudget  string   `json:"context_budget"`
	Platform       string   `json:"platform"`
	Languages      []string `json:"languages"`
	Frameworks     []string `json:"frameworks"`
	Success        bool     `json:"success"`
	Suggestions    int      `json:"suggestions_count"`
}

// logCompatibility appends a handshake record. Failures are swallowed;
// logging must never break a handshake.
func (e *Engine) logCompatibility(cfg Config) {
	p := cfg.Resolved.Profile
	entry := compatEntry{
		TS:            time.Now().Format(time.RFC3339),
		Model:         orUnknown(p.Model),
		Client:        orUnknown(p.Client),
		ToolsOffered:  len(cfg.Tools),
		SkillsMatched: len(cfg.Skills),
		Tier:          p.Tier,
		ContextBudget: cfg.Resolved.TierLabel,
		Platform:      orUnknown(p.Platform),
		Languages:     p.Languages,
		Frameworks:    p.Frameworks,
		Success:       true,
		Suggestions:   len(cfg.Suggestions),
	}
	if cfg.Resolved.Model != nil {
		entry.ResolvedModel = cfg.Resolved.Model.ID
	}
	if cfg.Resolved.Client != nil {
		entry.ResolvedClient = cfg.Resolved.Client.ID
	}

	if err := appendJSONLine(e.paths.CompatLogPath, entry); err != nil {
		e.logger.Debug("compatibility log append failed", slog.String("error", err.Error()))
	}
}

func appendJSONLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
