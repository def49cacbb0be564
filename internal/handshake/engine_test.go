package handshake

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/profile"
)

// newTestEngine builds a handshake engine over a small knowledge tree
// with no search backend.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	root := t.TempDir()

	skillsDir := filepath.Join(root, "skills")
	bundlesDir := filepath.Join(root, "skill_bundles")
	chunksDir := filepath.Join(root, "chunks")

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write(filepath.Join(skillsDir, "pragmatic_engineering.md"), "# Pragmatic Engineering")
	write(filepath.Join(skillsDir, "context_manager.md"), "# Context Manager")
	write(filepath.Join(skillsDir, "memory_lifecycle.md"), "# Memory Lifecycle")
	write(filepath.Join(skillsDir, "semantic_topology.md"), "# Semantic Topology")
	write(filepath.Join(skillsDir, "fastapi_patterns.md"), "# FastAPI Patterns")
	write(filepath.Join(bundlesDir, "django_v5", "SKILL.md"), "# Django v5")
	write(filepath.Join(bundlesDir, "django_v5", "compatibility.json"),
		`{"languages":["python"],"frameworks":["django"]}`)
	write(filepath.Join(chunksDir, "redis_caching_strategies.md"), "Redis caching strategies body")

	lib := knowledge.NewLibrary(knowledge.Paths{
		Root:            root,
		SkillsDir:       skillsDir,
		SkillBundlesDir: bundlesDir,
		ChunksDir:       chunksDir,
	}, nil)

	return NewEngine(nil, lib, Paths{
		Root:            root,
		SkillsDir:       skillsDir,
		SkillBundlesDir: bundlesDir,
		ChunksDir:       chunksDir,
		CLIProfilesPath: filepath.Join(root, "cli_profiles.json"),
		CompatLogPath:   filepath.Join(root, "logs", "compatibility_log.jsonl"),
	}, nil)
}

func TestHandshakeRenderContainsCoreSections(t *testing.T) {
	e := newTestEngine(t)

	out := e.Handshake(context.Background(), profile.AgentProfile{
		Model:  "claude-sonnet-4-5",
		Client: "claude-code",
	})

	assert.Contains(t, out, "# MidOS Agent Handshake")
	assert.Contains(t, out, "## Getting Started (3 steps)")
	assert.Contains(t, out, "## Top Tools")
	assert.Contains(t, out, "**Model:** claude-sonnet-4-5")
	assert.Contains(t, out, "**Client:** claude-code")
	assert.Contains(t, out, "tier: large")
}

func TestHandshakeWritesCompatibilityLog(t *testing.T) {
	e := newTestEngine(t)

	e.Handshake(context.Background(), profile.AgentProfile{Model: "sonnet", Client: "cursor"})

	f, err := os.Open(e.paths.CompatLogPath)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var entry compatEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "sonnet", entry.Model)
	assert.Equal(t, "claude-sonnet-4-5", entry.ResolvedModel)
	assert.Equal(t, "cursor", entry.ResolvedClient)
	assert.True(t, entry.Success)
}

func TestGenerateModelRecommendedSkills(t *testing.T) {
	e := newTestEngine(t)

	cfg := e.Generate(context.Background(), profile.AgentProfile{Model: "claude-sonnet-4-5"})

	require.NotEmpty(t, cfg.Skills)
	// Catalog recommendations lead; only skills on disk survive.
	names := make([]string, 0, len(cfg.Skills))
	for _, s := range cfg.Skills {
		names = append(names, s.Name)
		assert.Equal(t, "model_catalog", s.Source)
	}
	assert.Contains(t, names, "pragmatic_engineering")
	assert.Contains(t, names, "context_manager")
	assert.NotContains(t, names, "nonexistent_skill")
}

func TestGenerateStackSkills(t *testing.T) {
	e := newTestEngine(t)

	cfg := e.Generate(context.Background(), profile.AgentProfile{
		Languages:  []string{"python"},
		Frameworks: []string{"django"},
	})

	byName := map[string]RankedSkill{}
	for _, s := range cfg.Skills {
		byName[s.Name] = s
	}
	// Compatibility descriptor plus bundle lookup resolves bundled skills.
	django, ok := byName["django_v5"]
	require.True(t, ok)
	assert.Equal(t, "stack_match", django.Source)
	assert.Equal(t, "skill_bundles/django_v5/SKILL.md", django.Path)
}

func TestGenerateFallbackSkills(t *testing.T) {
	e := newTestEngine(t)

	cfg := e.Generate(context.Background(), profile.AgentProfile{})
	require.NotEmpty(t, cfg.Skills)
	for _, s := range cfg.Skills {
		assert.Equal(t, "fallback", s.Source)
	}
}

func TestRankTools(t *testing.T) {
	ranked := rankTools(profile.AgentProfile{ProjectGoal: "improve vector search"}, ToolRestrictions{})
	require.NotEmpty(t, ranked)

	scores := map[string]int{}
	for _, rt := range ranked {
		scores[rt.Name] = rt.Score
		assert.NotEqual(t, "agent_handshake", rt.Name, "handshake never recommends itself")
	}

	// Core bonus + both goal keywords put semantic_search on top.
	assert.Equal(t, ranked[0].Name, "semantic_search")
	assert.Greater(t, scores["semantic_search"], scores["search_knowledge"])
	assert.Equal(t, "pro", ranked[0].MinTier)
}

func TestRankToolsRestrictions(t *testing.T) {
	ranked := rankTools(profile.AgentProfile{}, ToolRestrictions{Denied: []string{"research_youtube"}})
	for _, rt := range ranked {
		assert.NotEqual(t, "research_youtube", rt.Name)
	}

	ranked = rankTools(profile.AgentProfile{}, ToolRestrictions{Allowed: []string{"search_knowledge"}})
	require.Len(t, ranked, 1)
	assert.Equal(t, "search_knowledge", ranked[0].Name)
}

func TestRankChunksGenericGoalSkipped(t *testing.T) {
	e := newTestEngine(t)

	for _, goal := range []string{"", "test", "testing things", "hello world", "demo"} {
		assert.Nil(t, e.rankChunks(context.Background(), goal), "goal %q", goal)
	}
}

func TestRankChunksKeywordFallback(t *testing.T) {
	e := newTestEngine(t)

	// Two meaningful words must hit the chunk filename.
	chunks := e.rankChunks(context.Background(), "redis caching layer")
	require.Len(t, chunks, 1)
	assert.Equal(t, "redis_caching_strategies", chunks[0].Name)
	assert.Contains(t, chunks[0].Preview, "Redis caching")

	// A single hit stays below the threshold.
	assert.Empty(t, e.rankChunks(context.Background(), "redis clustering failover"))
}

func TestBuildGuardrails(t *testing.T) {
	// Universal rules always present.
	r := profile.Resolve(profile.AgentProfile{})
	rails := buildGuardrails(r)
	assert.Contains(t, rails, universalRules[0])

	// Small-context models get the compact-output rules.
	small := profile.Resolve(profile.AgentProfile{Model: "mistral-medium"})
	require.NotNil(t, small.Model)
	rails = buildGuardrails(small)
	assert.Contains(t, rails, modelRules["small_context"][0])

	// Clients without hooks get the prompt-guardrail rules.
	cursor := profile.Resolve(profile.AgentProfile{Client: "cursor"})
	require.NotNil(t, cursor.Client)
	rails = buildGuardrails(cursor)
	assert.Contains(t, rails, clientRules["no_hooks"][0])
}

func TestBuildSuggestions(t *testing.T) {
	// Unknown model with a declared name triggers the defaults hint.
	out := buildSuggestions(profile.Resolve(profile.AgentProfile{Model: "mystery-9000"}))
	joined := strings.Join(out, "\n")
	assert.Contains(t, joined, "not in catalog")

	// Stack hints surface the matching skill.
	out = buildSuggestions(profile.Resolve(profile.AgentProfile{Frameworks: []string{"django"}}))
	assert.Contains(t, strings.Join(out, "\n"), "django_v5")

	// Non-primary clients get the free-tier upsell.
	out = buildSuggestions(profile.Resolve(profile.AgentProfile{Client: "cursor"}))
	assert.Contains(t, strings.Join(out, "\n"), "Free tier")

	out = buildSuggestions(profile.Resolve(profile.AgentProfile{Client: "claude-code"}))
	assert.NotContains(t, strings.Join(out, "\n"), "Free tier")
}

func TestLimitsFor(t *testing.T) {
	small := limitsFor("small")
	assert.Equal(t, 3, small.tools)
	assert.Equal(t, 2, small.skills)
	assert.False(t, small.previews)

	medium := limitsFor("medium")
	assert.Equal(t, 5, medium.tools)
	assert.Equal(t, -1, medium.guardrails)

	large := limitsFor("large")
	assert.Equal(t, -1, large.tools)
	assert.True(t, large.previews)
}

func TestRenderSmallTierCompacts(t *testing.T) {
	e := newTestEngine(t)

	out := e.Handshake(context.Background(), profile.AgentProfile{
		Model:         "claude-sonnet-4-5",
		ContextWindow: 16000,
	})
	assert.Contains(t, out, "tier: small")
	assert.NotContains(t, out, "## More Tools")
}

func TestCLIProfileFallback(t *testing.T) {
	p := cliProfileFor(nil, "", nil)
	assert.Equal(t, "generic", p.ID)
	assert.True(t, p.ToolRestrictions.Allows("anything"))

	profiles := map[string]CLIProfile{
		"claude-code": {ID: "claude-code", DisplayName: "Claude Code"},
	}
	p = cliProfileFor(profiles, "Claude-Code", nil)
	assert.Equal(t, "claude-code", p.ID)

	p = cliProfileFor(profiles, "unknown-client", nil)
	assert.Equal(t, "generic", p.ID)
}

func TestToolRestrictionsAllows(t *testing.T) {
	assert.True(t, ToolRestrictions{}.Allows("anything"))
	assert.True(t, ToolRestrictions{Allowed: []string{"*"}}.Allows("x"))
	assert.False(t, ToolRestrictions{Denied: []string{"x"}}.Allows("x"))
	assert.False(t, ToolRestrictions{Allowed: []string{"y"}}.Allows("x"))
	// Denial wins over a wildcard allow.
	assert.False(t, ToolRestrictions{Allowed: []string{"*"}, Denied: []string{"x"}}.Allows("x"))
}
