package handshake

import (
	"fmt"
	"strings"
	"time"
)

// renderLimits sizes the markdown output to the agent's context budget.
type renderLimits struct {
	tools      int // -1 = unrestricted
	skills     int
	chunks     int
	guardrails int
	tips       int
	previews   bool
}

func limitsFor(tier string) renderLimits {
	switch tier {
	case "small":
		return renderLimits{tools: 3, skills: 2, chunks: 1, guardrails: 3, tips: 2}
	case "medium":
		return renderLimits{tools: 5, skills: 5, chunks: 2, guardrails: -1, tips: 5}
	default:
		return renderLimits{tools: -1, skills: -1, chunks: -1, guardrails: -1, tips: -1, previews: true}
	}
}

func capSlice[T any](s []T, n int) []T {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// render produces the handshake markdown, always opening with the
// getting-started block and the top-tools table.
func render(cfg Config) string {
	r := cfg.Resolved
	lim := limitsFor(r.TierLabel)
	var b strings.Builder

	b.WriteString("# MidOS Agent Handshake\n\n")
	b.WriteString("## Getting Started (3 steps)\n")
	b.WriteString("```\n")
	b.WriteString("1. semantic_search('your topic here')\n")
	b.WriteString("   -> Check what MidOS already knows\n\n")
	b.WriteString("2. list_skills(stack='python,react')\n")
	b.WriteString("   -> Find reusable skill docs for your stack\n\n")
	b.WriteString("3. search_knowledge('specific question')\n")
	b.WriteString("   -> Keyword search with snippet extraction\n")
	b.WriteString("```\n\n")

	topTools := capSlice(cfg.Tools, 5)
	if lim.tools >= 0 && lim.tools < 5 {
		topTools = capSlice(cfg.Tools, lim.tools)
	}
	if len(topTools) > 0 {
		b.WriteString("## Top Tools\n\n")
		b.WriteString("| Tool | Use for | Tier |\n|------|---------|------|\n")
		for _, t := range topTools {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", t.Name, t.Desc, strings.ToUpper(t.MinTier))
		}
		b.WriteString("\n")
	}

	b.WriteString("**MidOS**: MCP Community Library, knowledge base + research engine\n\n")

	if m := r.Model; m != nil {
		label := m.ID
		if r.Profile.Model != "" && !strings.EqualFold(r.Profile.Model, m.ID) {
			label += fmt.Sprintf(" (from '%s')", r.Profile.Model)
		}
		fmt.Fprintf(&b, "**Model:** %s | Context: %d | Code: %d/10 | Speed: ~%d t/s\n",
			label, m.ContextWindow, m.CodeScore, m.SpeedTPS)
	} else if r.Profile.Model != "" {
		fmt.Fprintf(&b, "**Model:** %s (not in catalog, using defaults)\n", r.Profile.Model)
	}

	if c := r.Client; c != nil {
		var features []string
		if c.HasHooks {
			features = append(features, "hooks")
		}
		if c.HasMemory {
			features = append(features, "memory")
		}
		if c.HasBackgroundAgents {
			features = append(features, "bg-agents")
		}
		featureStr := "basic"
		if len(features) > 0 {
			featureStr = strings.Join(features, ", ")
		}
		fmt.Fprintf(&b, "**Client:** %s | MCP: %s | Features: %s\n",
			c.ID, strings.Join(c.Transports, ", "), featureStr)
	}

	fmt.Fprintf(&b, "\n**Context:** %d tokens | tier: %s\n\n", r.EffectiveContext, r.TierLabel)

	renderCLIProfile(&b, cfg.CLIProfile, r.TierLabel)

	if r.TierLabel != "small" && len(cfg.Tools) > 5 {
		extra := cfg.Tools[5:]
		if r.TierLabel == "medium" {
			extra = capSlice(extra, 5)
		}
		fmt.Fprintf(&b, "## More Tools (%d)\n", len(extra))
		for _, t := range extra {
			fmt.Fprintf(&b, "- **%s**: %s [%s]\n", t.Name, t.Desc, strings.ToUpper(t.MinTier))
		}
		b.WriteString("\n")
	}

	if skills := capSlice(cfg.Skills, lim.skills); len(skills) > 0 {
		fmt.Fprintf(&b, "## Relevant Skills (%d)\n", len(skills))
		for _, s := range skills {
			fmt.Fprintf(&b, "- **%s**: %s\n", s.Name, s.Reason)
		}
		b.WriteString("\n")
	}

	if chunks := capSlice(cfg.Chunks, lim.chunks); len(chunks) > 0 {
		fmt.Fprintf(&b, "## Knowledge Chunks (%d)\n", len(chunks))
		for _, c := range chunks {
			fmt.Fprintf(&b, "- **%s** (%s)\n", c.Name, c.Path)
			if lim.previews && c.Preview != "" {
				preview := c.Preview
				if len(preview) > 200 {
					preview = preview[:200]
				}
				fmt.Fprintf(&b, "  > %s...\n", preview)
			}
		}
		b.WriteString("\n")
	}

	if rails := capSlice(cfg.Guardrails, lim.guardrails); len(rails) > 0 {
		fmt.Fprintf(&b, "## Guardrails (%d)\n", len(rails))
		for _, g := range rails {
			fmt.Fprintf(&b, "- %s\n", g)
		}
		b.WriteString("\n")
	}

	allTips := append(append([]string(nil), cfg.ModelTips...), cfg.ClientTips...)
	if tips := capSlice(allTips, lim.tips); len(tips) > 0 {
		fmt.Fprintf(&b, "## Tips (%d)\n", len(tips))
		for _, t := range tips {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	suggestions := cfg.Suggestions
	if r.TierLabel == "small" {
		suggestions = capSlice(suggestions, 2)
	}
	if len(suggestions) > 0 {
		fmt.Fprintf(&b, "## Suggestions (%d)\n", len(suggestions))
		for _, s := range suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n_MidOS Handshake -- %s_\n", time.Now().Format("2006-01-02 15:04"))
	return b.String()
}

func renderCLIProfile(b *strings.Builder, p CLIProfile, tier string) {
	fmt.Fprintf(b, "## CLI Profile: %s (role: %s)\n", p.DisplayName, p.Role)
	instructions := p.Instructions
	if tier == "small" {
		instructions = capSlice(instructions, 2)
	}
	for _, inst := range instructions {
		fmt.Fprintf(b, "- %s\n", inst)
	}
	b.WriteString("\n")

	if len(p.ToolRestrictions.Denied) > 0 {
		fmt.Fprintf(b, "### Tool Restrictions (%s)\n", p.ToolRestrictions.Mode)
		fmt.Fprintf(b, "Denied tools: %s\n", strings.Join(p.ToolRestrictions.Denied, ", "))
		if p.ToolRestrictions.Explanation != "" {
			fmt.Fprintf(b, "Reason: %s\n", p.ToolRestrictions.Explanation)
		}
		b.WriteString("\n")
	}

	if p.AttentionPinch.Enabled {
		fmt.Fprintf(b, "### Attention Pinch (every %d turns)\n- %s\n\n",
			p.AttentionPinch.FrequencyTurns, p.AttentionPinch.Message)
	}

	if tier != "small" && len(p.Delegation.DelegateTo) > 0 {
		b.WriteString("### Delegation Policy\n")
		if len(p.Delegation.Strengths) > 0 {
			fmt.Fprintf(b, "**Your strengths:** %s\n",
				strings.Join(capSlice(p.Delegation.Strengths, 3), ", "))
		}
		for target, tasks := range p.Delegation.DelegateTo {
			if tier == "medium" {
				tasks = capSlice(tasks, 3)
			}
			fmt.Fprintf(b, "- Delegate to **%s**: %s\n", target, strings.Join(tasks, "; "))
		}
		b.WriteString("\n")
	}

	var meta []string
	if p.SearchMode != "" {
		meta = append(meta, "Search: "+p.SearchMode)
	}
	if p.ResponseFormat != "" {
		meta = append(meta, "Format: "+p.ResponseFormat)
	}
	if len(meta) > 0 {
		fmt.Fprintf(b, "**Defaults:** %s\n\n", strings.Join(meta, " | "))
	}
}
