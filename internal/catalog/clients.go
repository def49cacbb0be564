package catalog

// clientCatalog is the known-client table. Order matters for substring
// resolution.
var clientCatalog = []ClientSpec{
	{
		ID:         "claude-code",
		Transports: []string{"stdio", "streamable-http"},
		HasHooks:   true, HasBackgroundAgents: true,
		ContextManagement: "auto-compact",
		MaxContext:        200000,
		Tips: []string{
			"Use /compact every ~20 iterations",
			"Tool Search reduces MCP context bloat by 46.9%",
			"13 lifecycle hooks available (async supported)",
			"Delegate: haiku for speed, opus for quality",
		},
	},
	{
		ID:                "codex-cli",
		Transports:        []string{"stdio", "streamable-http"},
		ContextManagement: "manual",
		MaxContext:        128000,
		Tips: []string{
			"Codex-native profile with full MCP tooling support",
			"Use model + stack declarations in agent_handshake for deterministic routing",
			"Pair with midos_codex_control_plane and feedback_loop skills",
		},
	},
	{
		ID:                "cursor",
		Transports:        []string{"stdio", "streamable-http"},
		ContextManagement: "dynamic-pruning",
		MaxContext:        200000,
		Tips: []string{
			"Use Composer mode for multi-file editing",
			"Dynamic pruning drops older context automatically",
			"@Codebase symbol for repository-wide context",
		},
	},
	{
		ID:         "windsurf",
		Transports: []string{"stdio", "streamable-http"},
		HasHooks:   true, HasMemory: true, HasBackgroundAgents: true,
		ContextManagement: "auto-summarize",
		MaxContext:        300000,
		Tips: []string{
			"300K context, largest among major IDEs",
			"Cascade Memories persist across sessions",
			"Sub-50ms completion latency",
			"100 tools max per session",
		},
	},
	{
		ID:         "cline",
		Transports: []string{"stdio"},
		HasHooks:   true,
		ContextManagement: "auto-truncation",
		Tips: []string{
			"1000 files indexed limit, 300KB file size limit",
			"Approval required for every action",
			"Can create custom MCP servers on demand",
		},
	},
	{
		ID:         "continue",
		Transports: []string{"stdio"},
		HasHooks:   true,
		ContextManagement: "manual",
		Tips: []string{
			"Open-source, multi-provider, use any model",
			"First client with full MCP feature support",
			"@ commands for context injection",
		},
	},
	{
		ID:         "aider",
		Transports: []string{"stdio"},
		HasHooks:   true,
		ContextManagement: "repo-map",
		Tips: []string{
			"Best token efficiency, $0.50-2 per session",
			"Repository map provides context without loading full files",
			"CLI-first, scriptable, auto-commits",
		},
	},
	{
		ID:         "zed",
		Transports: []string{"stdio", "streamable-http"},
		HasHooks:   true, HasMemory: true, HasBackgroundAgents: true,
		ContextManagement: "external-mcp",
		Tips: []string{
			"Background agents with container isolation",
			"Agent Client Protocol (ACP) for external agents",
			"Rust-based high-performance editor",
		},
	},
	{
		ID:         "github-copilot",
		Transports: []string{"stdio", "streamable-http"},
		HasHooks:   true, HasMemory: true,
		ContextManagement: "auto-compact",
		Tips: []string{
			"Best GitHub integration (repos, issues, PRs, Actions)",
			"Copilot SDK for embedding in custom apps",
			"MCP Registry for curated servers",
		},
	},
	{
		ID:         "amazon-q",
		Transports: []string{"stdio", "streamable-http"},
		HasHooks:   true, HasMemory: true,
		ContextManagement: "auto-compact",
		Tips: []string{
			"Best AWS integration",
			"Security scanner for all MCP traffic",
			"CLI session persistence with --resume",
		},
	},
	{
		ID:         "replit",
		Transports: []string{"streamable-http"},
		HasHooks:   true, HasMemory: true, HasBackgroundAgents: true,
		ContextManagement: "mcp-context",
		Tips: []string{
			"Web-based, no local installation needed",
			"One-click deployment from browser",
			"OAuth auto-registration for MCP servers",
		},
	},
	{
		ID:         "lovable",
		Transports: []string{"streamable-http"},
		HasHooks:   true, HasMemory: true,
		ContextManagement: "description-based",
		Tips: []string{
			"Full-stack generation from natural language description",
			"Best for MVPs and rapid prototyping",
			"MCP connectors for CRM, tickets, automation",
		},
	},
	{
		ID:                "opencode",
		Transports:        []string{"stdio", "streamable-http"},
		ContextManagement: "manual",
		Tips: []string{
			"Supports multiple OpenRouter models including free tier",
			"Switch models mid-session for cost optimization",
			"MCP via stdio, connect midos for knowledge + tools",
		},
	},
}

// clientAliases maps common variations to canonical client ids.
var clientAliases = []alias{
	{"claude code", "claude-code"},
	{"claudecode", "claude-code"},
	{"claude_code", "claude-code"},
	{"codex", "codex-cli"},
	{"codex cli", "codex-cli"},
	{"codex_cli", "codex-cli"},
	{"openai codex", "codex-cli"},
	{"anthropic", "claude-code"},
	{"copilot", "github-copilot"},
	{"github copilot", "github-copilot"},
	{"gh-copilot", "github-copilot"},
	{"amazon q", "amazon-q"},
	{"amazonq", "amazon-q"},
	{"q developer", "amazon-q"},
	{"replit agent", "replit"},
	{"windsurf cascade", "windsurf"},
	{"cascade", "windsurf"},
	{"continue.dev", "continue"},
	{"continuedev", "continue"},
	{"aider.chat", "aider"},
	{"zed editor", "zed"},
	{"lovable.dev", "lovable"},
	{"cline bot", "cline"},
	{"claude-dev", "cline"},
	{"open-code", "opencode"},
	{"open_code", "opencode"},
	{"open code", "opencode"},
}
