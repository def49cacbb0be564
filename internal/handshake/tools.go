package handshake

import (
	"sort"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
	"github.com/MidOSresearch/midos-mcp/internal/profile"
)

// coreToolBonus boosts the always-useful search tools.
const coreToolBonus = 3

// toolDescriptor feeds tool relevance ranking.
type toolDescriptor struct {
	Name string
	Desc string
	Tags []string
	// excludeFromOutput hides a tool from the rendered list while still
	// letting it participate in ranking bookkeeping.
	excludeFromOutput bool
}

var toolDescriptors = []toolDescriptor{
	{Name: "search_knowledge", Desc: "Keyword search across knowledge base", Tags: []string{"search", "knowledge", "general"}},
	{Name: "semantic_search", Desc: "Vector search with hybrid rank fusion", Tags: []string{"search", "vector", "ai", "semantic"}},
	{Name: "get_skill", Desc: "Get a specific skill/capability document", Tags: []string{"skills", "learning", "howto"}},
	{Name: "list_skills", Desc: "List available skills/capabilities", Tags: []string{"skills", "discovery"}},
	{Name: "get_protocol", Desc: "Get a protocol document", Tags: []string{"protocol", "architecture", "system"}},
	{Name: "hive_status", Desc: "System status of the MidOS hive", Tags: []string{"status", "health", "system"}},
	{Name: "memory_stats", Desc: "Memory system statistics", Tags: []string{"memory", "stats", "vector"}},
	{Name: "research_youtube", Desc: "Queue YouTube video for transcription and research", Tags: []string{"youtube", "video", "research"}},
	{Name: "pool_signal", Desc: "Signal action to multi-instance coordination pool", Tags: []string{"coordination", "multi-agent", "pool"}},
	{Name: "pool_status", Desc: "Get multi-instance pool status", Tags: []string{"coordination", "multi-agent", "pool"}},
	{Name: "episodic_search", Desc: "Search episodic memory for past experiences", Tags: []string{"memory", "episodic", "learning"}},
	{Name: "episodic_store", Desc: "Store new episodic memory/reflection", Tags: []string{"memory", "episodic", "learning"}},
	{Name: "chunk_code", Desc: "AST-based code chunking for RAG retrieval", Tags: []string{"code", "rag", "chunking", "ast"}},
	{Name: "agent_handshake", Desc: "Personalized agent onboarding", Tags: []string{"onboarding", "config"}, excludeFromOutput: true},
}

var coreTools = map[string]bool{
	"search_knowledge": true,
	"semantic_search":  true,
	"list_skills":      true,
}

// RankedTool is one tool in the recommended list.
type RankedTool struct {
	Name    string `json:"name"`
	Desc    string `json:"desc"`
	MinTier string `json:"min_tier"`
	Score   int    `json:"-"`
}

// rankTools scores registered tools by keyword overlap with the agent's
// goal and stack, with a fixed bonus for the core search tools, honoring
// the client's restriction lists.
func rankTools(p profile.AgentProfile, restrictions ToolRestrictions) []RankedTool {
	var keywords []string
	keywords = append(keywords, strings.Fields(strings.ToLower(p.ProjectGoal))...)
	for _, l := range p.Languages {
		keywords = append(keywords, strings.ToLower(l))
	}
	for _, f := range p.Frameworks {
		keywords = append(keywords, strings.ToLower(f))
	}

	var ranked []RankedTool
	for _, t := range toolDescriptors {
		if t.excludeFromOutput || !restrictions.Allows(t.Name) {
			continue
		}

		text := strings.ToLower(t.Desc + " " + strings.Join(t.Tags, " "))
		score := 0
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, kw) {
				score++
			}
		}
		if coreTools[t.Name] {
			score += coreToolBonus
		}

		ranked = append(ranked, RankedTool{
			Name:    t.Name,
			Desc:    t.Desc,
			MinTier: string(auth.ToolTier(t.Name)),
			Score:   score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
