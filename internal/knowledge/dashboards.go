package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// HiveStatus summarizes the knowledge tree for the hive_status tool.
type HiveStatus struct {
	Timestamp      string `json:"timestamp"`
	Root           string `json:"midos_root"`
	KnowledgeFiles int    `json:"knowledge_files"`
	SkillsCount    int    `json:"skills_count"`
	ProtocolsCount int    `json:"protocols_count"`
}

// Hive gathers live counts from the filesystem.
func (l *Library) Hive() HiveStatus {
	return HiveStatus{
		Timestamp:      time.Now().Format(time.RFC3339),
		Root:           l.paths.Root,
		KnowledgeFiles: CountMarkdownTree(l.paths.KnowledgeDir),
		SkillsCount:    CountMarkdown(l.paths.SkillsDir),
		ProtocolsCount: CountMarkdown(l.paths.ProtocolsDir),
	}
}

// FormatHive renders hive status as indented JSON.
func (l *Library) FormatHive() string {
	data, err := json.MarshalIndent(l.Hive(), "", "  ")
	if err != nil {
		return fmt.Sprintf("hive status error: %v", err)
	}
	return string(data)
}

// VectorStats feeds the project dashboard's vector store row.
type VectorStats struct {
	Status string
	Count  int
}

// ProjectStatus renders the live status dashboard plus the quick-start
// guide.
func (l *Library) ProjectStatus(vec VectorStats) string {
	nChunks := CountMarkdown(l.paths.ChunksDir)
	nEureka := CountMarkdown(l.paths.EurekaDir)
	nTruth := CountMarkdown(l.paths.TruthDir)
	nSkills := CountMarkdown(l.paths.SkillsDir)

	var b strings.Builder
	b.WriteString("# MidOS Status Dashboard\n\n")

	b.WriteString("## Knowledge Base (live)\n\n")
	b.WriteString("| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Chunks (L1) | %d |\n", nChunks)
	fmt.Fprintf(&b, "| Skills (L2) | %d |\n", nSkills)
	fmt.Fprintf(&b, "| Truth Patches (L3) | %d |\n", nTruth)
	fmt.Fprintf(&b, "| EUREKA (L4) | %d |\n", nEureka)
	fmt.Fprintf(&b, "| Vector store | %s (%d vectors) |\n\n", vec.Status, vec.Count)

	if recent := recentFiles(l.paths.ChunksDir, 5); len(recent) > 0 {
		b.WriteString("## Recent Knowledge\n\n")
		for _, name := range recent {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## MCP Tools (use these!)\n\n")
	for _, t := range []struct{ name, args, desc string }{
		{"search_knowledge", "query", "Keyword search across all knowledge layers"},
		{"semantic_search", "query, top_k, stack", "Vector search (smarter). Filter by stack: 'python,react'"},
		{"get_skill", "name", "Fetch a complete skill document"},
		{"list_skills", "filter, stack", "Browse all skills. Filter by stack"},
		{"agent_handshake", "model, client, languages, ...", "Personalized onboarding, call FIRST to get config tailored to your agent"},
		{"project_status", "", "This dashboard, call anytime for live stats"},
		{"episodic_search", "query", "Search past agent experiences"},
		{"episodic_store", "task_type, input_preview, success", "Store learnings for future agents"},
		{"chunk_code", "file_path", "Parse code into semantic chunks for RAG"},
		{"research_youtube", "url", "Queue a video for research + transcription"},
	} {
		fmt.Fprintf(&b, "- **%s**(%s): %s\n", t.name, t.args, t.desc)
	}
	b.WriteString("\n")

	b.WriteString("## Quick-Start (teach your agent)\n\n```\n")
	b.WriteString("1. agent_handshake(model, client, languages, project_goal)\n")
	b.WriteString("2. semantic_search('your topic')\n")
	b.WriteString("3. list_skills(stack='python,react')\n")
	b.WriteString("4. episodic_store(task_type, input_preview, success)\n")
	b.WriteString("```\n\n")

	b.WriteString("## Pro Tips\n\n")
	b.WriteString("- **Always search before building**: the knowledge base likely covers it\n")
	b.WriteString("- **Use stack filters**: `semantic_search('caching', stack='python')` is way more relevant\n")
	b.WriteString("- **Store your learnings**: `episodic_store` feeds the knowledge loop for all agents\n")
	b.WriteString("- **EUREKA = gold**: search for EUREKA atoms for battle-tested improvements\n")
	b.WriteString("- **Handshake once per session**: `agent_handshake` optimizes for your context window\n\n")

	fmt.Fprintf(&b, "---\n*MidOS | %s | %d vectors | %d chunks | %d EUREKA*\n",
		time.Now().Format("2006-01-02 15:04"), vec.Count, nChunks, nEureka)

	return b.String()
}

// recentFiles lists up to n markdown filenames in dir, newest first.
func recentFiles(dir string, n int) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	type mf struct {
		name string
		mod  time.Time
	}
	var files []mf
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, mf{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })
	if len(files) > n {
		files = files[:n]
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names
}
