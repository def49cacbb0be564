package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModelExact(t *testing.T) {
	m := ResolveModel("claude-sonnet-4-5")
	require.NotNil(t, m)
	assert.Equal(t, "claude-sonnet-4-5", m.ID)
	assert.Equal(t, "anthropic", m.Family)
}

func TestResolveModelAlias(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"sonnet", "claude-sonnet-4-5"},
		{"opus", "claude-opus-4-6"},
		{"o3", "gpt-o3"},
		{"gemini pro", "gemini-2.5-pro"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := ResolveModel(tt.raw)
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.ID)
		})
	}
}

func TestResolveModelSubstring(t *testing.T) {
	// Prefixed router ids resolve via substring containment.
	m := ResolveModel("openrouter/glm-4.5-air:free")
	require.NotNil(t, m)
	assert.Equal(t, "glm-4.5-air", m.ID)
}

func TestResolveModelCaseAndWhitespace(t *testing.T) {
	m := ResolveModel("  Claude-Sonnet-4-5  ")
	require.NotNil(t, m)
	assert.Equal(t, "claude-sonnet-4-5", m.ID)
}

func TestResolveModelFuzzySafety(t *testing.T) {
	// Short family names must never cross into another family.
	m := ResolveModel("glm")
	if m != nil {
		assert.Equal(t, "glm", m.Family)
	}

	// Complete garbage resolves to nothing.
	assert.Nil(t, ResolveModel("zzzzqqqq-unknown-9000"))
	assert.Nil(t, ResolveModel(""))
}

func TestResolveClientExactBeatsFuzzy(t *testing.T) {
	c := ResolveClient("cursor")
	require.NotNil(t, c)
	assert.Equal(t, "cursor", c.ID)
}

func TestResolveClientAlias(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"claude code", "claude-code"},
		{"codex", "codex-cli"},
		{"copilot", "github-copilot"},
		{"cascade", "windsurf"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := ResolveClient(tt.raw)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.ID)
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, similarity("abc", ""), 1e-9)
	// "glm" vs "gemini": LCS is "gm" (2), ratio 2*2/(3+6) < 0.85.
	assert.Less(t, similarity("glm", "gemini"), FuzzyCutoff)
}

func TestCatalogIntegrity(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Models() {
		require.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate model id %s", m.ID)
		seen[m.ID] = true
		assert.Positive(t, m.ContextWindow, "model %s", m.ID)
	}
	for _, a := range modelAliases {
		_, ok := modelByID[a.target]
		assert.True(t, ok, "alias %q points at unknown model %q", a.key, a.target)
	}
	for _, a := range clientAliases {
		_, ok := clientByID[a.target]
		assert.True(t, ok, "alias %q points at unknown client %q", a.key, a.target)
	}
}
