package handshake

import (
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/catalog"
	"github.com/MidOSresearch/midos-mcp/internal/profile"
)

// smallContextMax marks models that need compact-output guardrails.
const smallContextMax = 32000

var universalRules = []string{
	"Never hardcode secrets: load them from the environment",
	"Check indices before creating new ones",
	"Windows/PowerShell: use ';' not '&&'",
	"Polling: max 10s between checks, never wait 60s",
	"No duplication: synthesize, never scatter",
}

var modelRules = map[string][]string{
	"small_context": {
		"Keep tool calls concise, avoid verbose outputs",
		"Prefer search_knowledge over semantic_search for lower token cost",
		"Request summaries instead of full documents",
	},
	"no_tools": {
		"Use structured prompts instead of tool calls",
		"Request information in batch to minimize round-trips",
	},
	"no_vision": {
		"Request text descriptions instead of images",
	},
	"no_structured": {
		"Parse text responses manually, do not rely on JSON mode",
	},
}

var clientRules = map[string][]string{
	"no_hooks": {
		"Implement guardrails in prompts, not lifecycle hooks",
		"Use project rule files for persistent behavior",
	},
	"no_memory": {
		"Store important context in project files, not agent memory",
		"Consider using episodic_store to persist key findings",
	},
	"no_background": {
		"Run tasks sequentially, avoid parallel agent delegation",
		"Batch operations where possible to reduce round-trips",
	},
}

var tierRules = map[string][]string{
	"community": {
		"Rate limit: 100 calls/month",
		"Read-only access to EUREKA content",
	},
	"paid": {
		"Rate limit: 5000 calls/month",
		"Full EUREKA access",
	},
	"premium": {
		"Rate limit: 25000 calls/month",
		"Priority semantic search",
	},
	"admin": {
		"Full access",
		"Can modify knowledge pipeline",
	},
	"owner": {
		"Unrestricted system access",
	},
}

// buildGuardrails concatenates the universal rules with the conditional
// rules triggered by the resolved model, client, and declared tier.
func buildGuardrails(r profile.Resolved) []string {
	rules := append([]string(nil), universalRules...)

	if m := r.Model; m != nil {
		rules = appendModelRules(rules, m)
	}
	if c := r.Client; c != nil {
		if !c.HasHooks {
			rules = append(rules, clientRules["no_hooks"]...)
		}
		if !c.HasMemory {
			rules = append(rules, clientRules["no_memory"]...)
		}
		if !c.HasBackgroundAgents {
			rules = append(rules, clientRules["no_background"]...)
		}
	}

	if tr, ok := tierRules[strings.ToLower(r.Profile.Tier)]; ok {
		rules = append(rules, tr...)
	}
	return rules
}

func appendModelRules(rules []string, m *catalog.ModelSpec) []string {
	if m.ContextWindow > 0 && m.ContextWindow <= smallContextMax {
		rules = append(rules, modelRules["small_context"]...)
	}
	if !m.SupportsTools {
		rules = append(rules, modelRules["no_tools"]...)
	}
	if !m.SupportsVision {
		rules = append(rules, modelRules["no_vision"]...)
	}
	if !m.SupportsStructure {
		rules = append(rules, modelRules["no_structured"]...)
	}
	return rules
}
