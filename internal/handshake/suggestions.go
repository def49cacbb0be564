package handshake

import (
	"fmt"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/profile"
)

// stackSkillMap routes stack tokens to the skill worth suggesting.
var stackSkillMap = []struct {
	token string
	skill string
}{
	{"react", "react_comprehensive"},
	{"next", "nextjs"},
	{"nextjs", "nextjs"},
	{"django", "django_v5"},
	{"fastapi", "fastapi_patterns"},
	{"rust", "rust_language"},
	{"go", "go_language"},
	{"typescript", "typescript_mastery"},
	{"postgresql", "postgresql_patterns"},
	{"redis", "redis_caching_patterns"},
	{"kubernetes", "kubernetes_orchestration"},
	{"docker", "kubernetes_orchestration"},
}

var primaryCLIs = map[string]bool{
	"claude-code": true,
	"claude_code": true,
	"codex-cli":   true,
	"codex_cli":   true,
	"codex cli":   true,
}

// buildSuggestions generates proactive hints from detected gaps in the
// agent's declared environment.
func buildSuggestions(r profile.Resolved) []string {
	var out []string
	clientNorm := strings.ToLower(strings.TrimSpace(r.Profile.Client))
	isPrimary := primaryCLIs[clientNorm]

	if c := r.Client; c != nil && !c.HasHooks {
		out = append(out, "Your client doesn't support hooks. Consider Claude Code or Windsurf for lifecycle hooks (auto-guardrails, delegation control).")
	}
	if m := r.Model; m != nil && !m.SupportsTools {
		out = append(out, fmt.Sprintf("Your model (%s) doesn't support tool use. Consider upgrading to a model with tool support for full MidOS access.", m.ID))
	}
	if c := r.Client; c != nil && !c.HasBackgroundAgents {
		out = append(out, "Your client doesn't support background agents. Claude Code supports parallel agent delegation for complex tasks.")
	}
	if m := r.Model; m != nil && m.ContextWindow > 0 && m.ContextWindow <= smallContextMax {
		out = append(out, fmt.Sprintf("Your model has a %d-token context window. Use compact tool responses and prefer search_knowledge over semantic_search.", m.ContextWindow))
	}

	stackTokens := map[string]bool{}
	for _, l := range r.Profile.Languages {
		stackTokens[strings.ToLower(l)] = true
	}
	for _, f := range r.Profile.Frameworks {
		stackTokens[strings.ToLower(f)] = true
	}
	for _, m := range stackSkillMap {
		if stackTokens[m.token] {
			out = append(out, fmt.Sprintf("MidOS has a skill for %s: run `get_skill('%s')` to load best practices.", m.token, m.skill))
			break
		}
	}

	if r.Model == nil && r.Profile.Model != "" {
		out = append(out, fmt.Sprintf("Model '%s' not in catalog. Using safe defaults (128K context assumed). Pass context_window=N for accurate budget.", r.Profile.Model))
	}

	if clientNorm != "" && !isPrimary {
		out = append(out, "Free tier: all free tools, 100 queries/mo, no API key needed. Upgrade for EUREKA, semantic_search, and 25,000 queries/mo.")
	}

	return out
}
