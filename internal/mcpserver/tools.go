package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MidOSresearch/midos-mcp/internal/chunker"
	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/profile"
	"github.com/MidOSresearch/midos-mcp/internal/search"
	"github.com/MidOSresearch/midos-mcp/internal/synapse"
)

// Per-result text cap in semantic search renders.
const semanticSnippetChars = 500

// SearchKnowledgeInput defines the input schema for search_knowledge.
type SearchKnowledgeInput struct {
	Query      string `json:"query" jsonschema:"the search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, default 10"`
}

// GetSkillInput defines the input schema for get_skill.
type GetSkillInput struct {
	Name string `json:"name" jsonschema:"skill name, letters/digits/hyphen/underscore"`
}

// ListSkillsInput defines the input schema for list_skills.
type ListSkillsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"substring filter on skill names"`
	Stack  string `json:"stack,omitempty" jsonschema:"comma-separated stack tokens, e.g. python,react"`
}

// NamedDocInput is shared by get_protocol, get_eureka and get_truth.
type NamedDocInput struct {
	Name string `json:"name" jsonschema:"document name without extension"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// SemanticSearchInput defines the input schema for semantic_search.
type SemanticSearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results, default 5"`
	Stack string `json:"stack,omitempty" jsonschema:"comma-separated stack tokens to boost, e.g. python,react"`
}

// ResearchYouTubeInput defines the input schema for research_youtube.
type ResearchYouTubeInput struct {
	URL      string `json:"url" jsonschema:"YouTube video URL (youtube.com or youtu.be)"`
	Priority string `json:"priority,omitempty" jsonschema:"HIGH, NORMAL or LOW, default NORMAL"`
}

// EpisodicSearchInput defines the input schema for episodic_search.
type EpisodicSearchInput struct {
	Query string `json:"query" jsonschema:"keywords to match against stored experiences"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of memories, default 5"`
}

// EpisodicStoreInput defines the input schema for episodic_store.
type EpisodicStoreInput struct {
	TaskType     string `json:"task_type" jsonschema:"CODE, RESEARCH, DEBUG or REVIEW"`
	InputPreview string `json:"input_preview" jsonschema:"short description of the task"`
	Success      bool   `json:"success" jsonschema:"whether the task succeeded"`
}

// ChunkCodeInput defines the input schema for chunk_code.
type ChunkCodeInput struct {
	FilePath string `json:"file_path" jsonschema:"path to the source file to chunk"`
}

// PoolSignalInput defines the input schema for pool_signal.
type PoolSignalInput struct {
	Action  string `json:"action" jsonschema:"completed, blocked, claimed or signaling"`
	Topic   string `json:"topic" jsonschema:"what the signal is about"`
	Summary string `json:"summary,omitempty" jsonschema:"one-line context for sibling instances"`
	Affects string `json:"affects,omitempty" jsonschema:"files or areas touched"`
}

// HandshakeInput defines the input schema for agent_handshake.
type HandshakeInput struct {
	Model         string `json:"model,omitempty" jsonschema:"model id or alias, e.g. claude-sonnet-4"`
	ContextWindow int    `json:"context_window,omitempty" jsonschema:"declared context window in tokens"`
	Client        string `json:"client,omitempty" jsonschema:"client id, e.g. claude-code, cursor"`
	Languages     string `json:"languages,omitempty" jsonschema:"comma-separated languages, e.g. python,go"`
	Frameworks    string `json:"frameworks,omitempty" jsonschema:"comma-separated frameworks, e.g. react,fastapi"`
	Platform      string `json:"platform,omitempty" jsonschema:"operating system or runtime platform"`
	ProjectGoal   string `json:"project_goal,omitempty" jsonschema:"what the agent is building"`
	Tier          string `json:"tier,omitempty" jsonschema:"declared access tier"`
}

// textResult wraps plain text as a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps a domain failure as a tool result with IsError set.
// Gate failures never come through here; they surface as protocol errors.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// registerTools registers every tool with the MCP server. The gate runs
// inside each handler so tools/list stays fully visible to everyone.
func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Keyword search across the whole knowledge base with snippet extraction. Matches file content and names.",
	}, s.handleSearchKnowledge)
	s.logger.Debug("registered tool", slog.String("name", "search_knowledge"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Hybrid vector + keyword search over the chunk store. Smarter than search_knowledge; supports an optional stack filter.",
	}, s.handleSemanticSearch)
	s.logger.Debug("registered tool", slog.String("name", "semantic_search"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_skills",
		Description: "List available skill documents, optionally filtered by name substring and sorted by stack relevance.",
	}, s.handleListSkills)
	s.logger.Debug("registered tool", slog.String("name", "list_skills"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_skill",
		Description: "Fetch a complete skill document by name. Unauthenticated callers receive a preview.",
	}, s.handleGetSkill)
	s.logger.Debug("registered tool", slog.String("name", "get_skill"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_protocol",
		Description: "Fetch a protocol document by name.",
	}, s.handleGetProtocol)
	s.logger.Debug("registered tool", slog.String("name", "get_protocol"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_eureka",
		Description: "Fetch a validated EUREKA breakthrough document by name.",
	}, s.handleGetEureka)
	s.logger.Debug("registered tool", slog.String("name", "get_eureka"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_truth",
		Description: "Fetch a truth patch document by name.",
	}, s.handleGetTruth)
	s.logger.Debug("registered tool", slog.String("name", "get_truth"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "hive_status",
		Description: "Live counts for the knowledge tree as JSON.",
	}, s.handleHiveStatus)
	s.logger.Debug("registered tool", slog.String("name", "hive_status"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_status",
		Description: "The MidOS status dashboard: knowledge layers, vector store, tools and quick-start guide.",
	}, s.handleProjectStatus)
	s.logger.Debug("registered tool", slog.String("name", "project_status"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_stats",
		Description: "Vector memory statistics: chunk count, embedder state, and the stalest chunks by decay score.",
	}, s.handleMemoryStats)
	s.logger.Debug("registered tool", slog.String("name", "memory_stats"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "agent_handshake",
		Description: "Personalized onboarding. Declare your model, client and stack to receive a configuration sized to your context window. Call this FIRST.",
	}, s.handleAgentHandshake)
	s.logger.Debug("registered tool", slog.String("name", "agent_handshake"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "research_youtube",
		Description: "Queue a YouTube video for research and transcription by the research daemon.",
	}, s.handleResearchYouTube)
	s.logger.Debug("registered tool", slog.String("name", "research_youtube"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "episodic_search",
		Description: "Search past agent experiences stored in episodic memory.",
	}, s.handleEpisodicSearch)
	s.logger.Debug("registered tool", slog.String("name", "episodic_search"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "episodic_store",
		Description: "Store a task outcome in episodic memory for future agents.",
	}, s.handleEpisodicStore)
	s.logger.Debug("registered tool", slog.String("name", "episodic_store"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_code",
		Description: "Parse a source file into semantic symbol chunks (functions, classes, types) for RAG ingestion.",
	}, s.handleChunkCode)
	s.logger.Debug("registered tool", slog.String("name", "chunk_code"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pool_signal",
		Description: "Broadcast a coordination signal to sibling instances.",
	}, s.handlePoolSignal)
	s.logger.Debug("registered tool", slog.String("name", "pool_signal"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pool_status",
		Description: "Recent coordination signals from the instance pool.",
	}, s.handlePoolStatus)
	s.logger.Debug("registered tool", slog.String("name", "pool_status"))

	s.logger.Info("MCP tools registered", slog.Int("count", 17))
}

func (s *Server) handleSearchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input SearchKnowledgeInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("search_knowledge")()
	if _, err := s.gate.Check(ctx, "search_knowledge"); err != nil {
		return nil, nil, MapError(err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	hits := s.lib.Search(input.Query, input.MaxResults)
	return textResult(knowledge.FormatSearch(input.Query, hits)), nil, nil
}

func (s *Server) handleSemanticSearch(ctx context.Context, _ *mcp.CallToolRequest, input SemanticSearchInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("semantic_search")()
	if _, err := s.gate.Check(ctx, "semantic_search"); err != nil {
		return nil, nil, MapError(err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = search.DefaultTopK
	}

	// Without a chunk store the tool degrades to the keyword library.
	if s.engine == nil {
		hits := s.lib.Search(input.Query, topK)
		return textResult(knowledge.FormatSearch(input.Query, hits)), nil, nil
	}

	retrieve := topK
	if input.Stack != "" {
		retrieve = topK * 2
	}
	results := s.engine.Search(ctx, input.Query, search.Options{
		TopK: retrieve, Mode: search.ModeHybrid, Alpha: -1,
	})
	if input.Stack != "" {
		results = boostByStack(results, input.Stack)
	}
	if len(results) > topK {
		results = results[:topK]
	}

	return textResult(formatSemanticResults(input.Query, results)), nil, nil
}

// boostByStack re-sorts results by stack-token mentions in the chunk
// text, preserving retrieval order among equals.
func boostByStack(results []search.Result, stack string) []search.Result {
	var tokens []string
	for _, t := range strings.Split(strings.ToLower(stack), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return results
	}

	mentions := make([]int, len(results))
	for i, r := range results {
		text := strings.ToLower(r.Text + " " + r.Source)
		for _, t := range tokens {
			if strings.Contains(text, t) {
				mentions[i]++
			}
		}
	}
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return mentions[idx[a]] > mentions[idx[b]] })

	out := make([]search.Result, len(results))
	for i, j := range idx {
		out[i] = results[j]
	}
	return out
}

func formatSemanticResults(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Semantic Search Results\nQuery: %s\n\n", query)
	for i, r := range results {
		text := r.Text
		if len(text) > semanticSnippetChars {
			text = text[:semanticSnippetChars]
		}
		fmt.Fprintf(&b, "### %d. Score: %.3f\nSource: %s\n```\n%s\n```\n\n", i+1, r.Score, r.Source, text)
	}
	return b.String()
}

func (s *Server) handleListSkills(ctx context.Context, _ *mcp.CallToolRequest, input ListSkillsInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("list_skills")()
	if _, err := s.gate.Check(ctx, "list_skills"); err != nil {
		return nil, nil, MapError(err)
	}
	return textResult(s.lib.ListSkills(input.Filter, input.Stack)), nil, nil
}

func (s *Server) handleGetSkill(ctx context.Context, _ *mcp.CallToolRequest, input GetSkillInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("get_skill")()
	id, err := s.gate.Check(ctx, "get_skill")
	if err != nil {
		return nil, nil, MapError(err)
	}
	if input.Name == "" || !knowledge.ValidDocName(input.Name) {
		return nil, nil, NewInvalidParamsError("skill name may only contain letters, digits, hyphens and underscores")
	}

	content := s.lib.Skill(input.Name)
	if !id.Authenticated() && !id.Localhost {
		content = s.lib.SkillPreview(content)
	}
	return textResult(content), nil, nil
}

func (s *Server) handleGetProtocol(ctx context.Context, _ *mcp.CallToolRequest, input NamedDocInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("get_protocol")()
	if _, err := s.gate.Check(ctx, "get_protocol"); err != nil {
		return nil, nil, MapError(err)
	}
	if input.Name == "" || !knowledge.ValidDocName(input.Name) {
		return nil, nil, NewInvalidParamsError("document name may only contain letters, digits, hyphens and underscores")
	}
	return textResult(s.lib.Protocol(input.Name)), nil, nil
}

func (s *Server) handleGetEureka(ctx context.Context, _ *mcp.CallToolRequest, input NamedDocInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("get_eureka")()
	if _, err := s.gate.Check(ctx, "get_eureka"); err != nil {
		return nil, nil, MapError(err)
	}
	if input.Name == "" || !knowledge.ValidDocName(input.Name) {
		return nil, nil, NewInvalidParamsError("document name may only contain letters, digits, hyphens and underscores")
	}
	return textResult(s.lib.Eureka(input.Name)), nil, nil
}

func (s *Server) handleGetTruth(ctx context.Context, _ *mcp.CallToolRequest, input NamedDocInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("get_truth")()
	if _, err := s.gate.Check(ctx, "get_truth"); err != nil {
		return nil, nil, MapError(err)
	}
	if input.Name == "" || !knowledge.ValidDocName(input.Name) {
		return nil, nil, NewInvalidParamsError("document name may only contain letters, digits, hyphens and underscores")
	}
	return textResult(s.lib.Truth(input.Name)), nil, nil
}

func (s *Server) handleHiveStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("hive_status")()
	if _, err := s.gate.Check(ctx, "hive_status"); err != nil {
		return nil, nil, MapError(err)
	}
	return textResult(s.lib.FormatHive()), nil, nil
}

func (s *Server) handleProjectStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("project_status")()
	if _, err := s.gate.Check(ctx, "project_status"); err != nil {
		return nil, nil, MapError(err)
	}
	return textResult(s.lib.ProjectStatus(s.vectorStats(ctx))), nil, nil
}

// vectorStats summarizes the chunk store for dashboards.
func (s *Server) vectorStats(ctx context.Context) knowledge.VectorStats {
	if s.engine == nil {
		return knowledge.VectorStats{Status: "unavailable"}
	}
	n, err := s.engine.Store().Count(ctx)
	if err != nil {
		return knowledge.VectorStats{Status: "error"}
	}
	return knowledge.VectorStats{Status: "active", Count: n}
}

// memoryStatsOutput is the memory_stats JSON payload.
type memoryStatsOutput struct {
	Chunks   int              `json:"chunks"`
	Embedder embedderStatus   `json:"embedder"`
	Stalest  []staleChunkInfo `json:"stalest,omitempty"`
}

type embedderStatus struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Available  bool   `json:"available"`
}

type staleChunkInfo struct {
	Source     string  `json:"source"`
	DecayScore float64 `json:"decay_score"`
}

func (s *Server) handleMemoryStats(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("memory_stats")()
	if _, err := s.gate.Check(ctx, "memory_stats"); err != nil {
		return nil, nil, MapError(err)
	}

	out := memoryStatsOutput{
		Embedder: embedderStatus{Model: "none"},
	}
	if s.embedder != nil {
		out.Embedder = embedderStatus{
			Model:      s.embedder.ModelName(),
			Dimensions: s.embedder.Dimensions(),
			Available:  s.embedder.Available(ctx),
		}
	}
	if s.engine != nil {
		if n, err := s.engine.Store().Count(ctx); err == nil {
			out.Chunks = n
		}
		if stale, err := s.engine.Store().DecayReport(ctx, 5); err == nil {
			for _, c := range stale {
				out.Stalest = append(out.Stalest, staleChunkInfo{
					Source:     c.Source,
					DecayScore: c.DecayScore,
				})
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, nil, MapError(err)
	}
	return textResult(string(data)), nil, nil
}

func (s *Server) handleAgentHandshake(ctx context.Context, _ *mcp.CallToolRequest, input HandshakeInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("agent_handshake")()
	if _, err := s.gate.Check(ctx, "agent_handshake"); err != nil {
		return nil, nil, MapError(err)
	}
	if s.handshake == nil {
		return errorResult("Handshake engine unavailable"), nil, nil
	}

	p := profile.AgentProfile{
		Model:         input.Model,
		ContextWindow: input.ContextWindow,
		Client:        input.Client,
		Languages:     splitCSV(input.Languages),
		Frameworks:    splitCSV(input.Frameworks),
		Platform:      input.Platform,
		ProjectGoal:   input.ProjectGoal,
		Tier:          input.Tier,
	}
	return textResult(s.handshake.Handshake(ctx, p)), nil, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) handleResearchYouTube(ctx context.Context, _ *mcp.CallToolRequest, input ResearchYouTubeInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("research_youtube")()
	if _, err := s.gate.Check(ctx, "research_youtube"); err != nil {
		return nil, nil, MapError(err)
	}
	if s.inbox == nil {
		return errorResult("Research inbox unavailable"), nil, nil
	}

	msg, err := s.inbox.QueueYouTubeResearch(input.URL, input.Priority)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(msg), nil, nil
}

func (s *Server) handleEpisodicSearch(ctx context.Context, _ *mcp.CallToolRequest, input EpisodicSearchInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("episodic_search")()
	if _, err := s.gate.Check(ctx, "episodic_search"); err != nil {
		return nil, nil, MapError(err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	if s.episodic == nil {
		return errorResult("Episodic memory unavailable"), nil, nil
	}

	results, err := s.episodic.Search(input.Query, input.Limit)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(synapse.FormatSearch(input.Query, results)), nil, nil
}

func (s *Server) handleEpisodicStore(ctx context.Context, _ *mcp.CallToolRequest, input EpisodicStoreInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("episodic_store")()
	if _, err := s.gate.Check(ctx, "episodic_store"); err != nil {
		return nil, nil, MapError(err)
	}
	if s.episodic == nil {
		return errorResult("Episodic memory unavailable"), nil, nil
	}

	rec, err := s.episodic.Store(input.TaskType, input.InputPreview, input.Success)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(fmt.Sprintf("Episodic memory stored: %s (%s)", rec.ID, rec.TaskType)), nil, nil
}

func (s *Server) handleChunkCode(ctx context.Context, _ *mcp.CallToolRequest, input ChunkCodeInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("chunk_code")()
	if _, err := s.gate.Check(ctx, "chunk_code"); err != nil {
		return nil, nil, MapError(err)
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return nil, nil, NewInvalidParamsError("file_path parameter is required")
	}

	res, err := chunker.ChunkFile(ctx, input.FilePath)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(res.Format()), nil, nil
}

func (s *Server) handlePoolSignal(ctx context.Context, _ *mcp.CallToolRequest, input PoolSignalInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("pool_signal")()
	if _, err := s.gate.Check(ctx, "pool_signal"); err != nil {
		return nil, nil, MapError(err)
	}
	if s.pool == nil {
		return errorResult("Instance pool unavailable"), nil, nil
	}

	if err := s.pool.Signal(input.Action, input.Topic, input.Summary, input.Affects); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(fmt.Sprintf("Pool signal recorded: %s / %s", input.Action, input.Topic)), nil, nil
}

func (s *Server) handlePoolStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	defer s.observe("pool_status")()
	if _, err := s.gate.Check(ctx, "pool_status"); err != nil {
		return nil, nil, MapError(err)
	}
	if s.pool == nil {
		return errorResult("Instance pool unavailable"), nil, nil
	}
	return textResult(s.pool.Status()), nil, nil
}
