package catalog

// modelCatalog is the known-model table. Order matters: substring
// resolution returns the first hit.
var modelCatalog = []ModelSpec{
	// Claude family
	{
		ID: "claude-opus-4-6", Family: "anthropic",
		ContextWindow: 200000, MaxOutput: 128000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 10, ReasoningScore: 10, SpeedTPS: 60,
		Tips: []string{
			"Use extended thinking for complex tasks",
			"SWE-bench Verified: 80.9%, Terminal-Bench: 59.3%",
			"Best for architecture, deep reasoning, failure diagnosis",
		},
		RecommendedSkills: []string{
			"antifragile_protocol", "formal_logic_verification",
			"context_manager", "sovereign_grand_strategy",
		},
	},
	{
		ID: "claude-sonnet-4-5", Family: "anthropic",
		ContextWindow: 200000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 100,
		Tips: []string{
			"Best balance of intelligence and speed",
			"SWE-bench Verified: 77-82%",
			"Ideal for production coding and complex agents",
		},
		RecommendedSkills: []string{
			"pragmatic_engineering", "context_manager",
			"memory_lifecycle", "semantic_topology",
		},
	},
	{
		ID: "claude-haiku-4-5", Family: "anthropic",
		ContextWindow: 200000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 175,
		Tips: []string{
			"3x faster than Opus, use for exploration and parallel agents",
			"First Haiku with extended thinking",
			"Near-frontier performance at high speed",
		},
		RecommendedSkills: []string{"pragmatic_engineering", "health_check", "context_manager"},
	},
	// GPT family
	{
		ID: "gpt-4o", Family: "openai",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 8, SpeedTPS: 120,
		Tips: []string{"Strong general-purpose model", "Native multimodal capabilities"},
	},
	{
		ID: "gpt-4o-mini", Family: "openai",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 175,
		Tips: []string{
			"Cost-efficient for simple tasks",
			"Good for high-speed batch processing",
		},
	},
	{
		ID: "gpt-o1", Family: "openai",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true,
		Tier: "frontier", CodeScore: 8, ReasoningScore: 9, SpeedTPS: 75,
		Tips: []string{
			"Reasoning-optimized, uses internal thinking tokens",
			"Actual costs higher than visible output suggests",
		},
	},
	{
		ID: "gpt-o3", Family: "openai",
		ContextWindow: 200000, MaxOutput: 100000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 10, ReasoningScore: 10, SpeedTPS: 65,
		Tips: []string{
			"SWE-Bench Pro SOTA: 55.6%",
			"First model that agentively uses every tool",
			"Best for multi-faceted analysis and visual tasks",
		},
	},
	{
		ID: "gpt-o3-mini", Family: "openai",
		ContextWindow: 200000, MaxOutput: 100000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 100,
		Tips: []string{"Cost-efficient reasoning with 200K context"},
	},
	{
		ID: "gpt-5.3-codex", Family: "openai",
		ContextWindow: 128000, MaxOutput: 64000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 10, ReasoningScore: 10, SpeedTPS: 95,
		Tips: []string{
			"Execution-optimized Codex profile for multi-file implementation",
			"Best fit for tool-driven engineering workflows",
			"Use explicit stack/language hints for tighter skill routing",
		},
		RecommendedSkills: []string{
			"midos_codex_control_plane", "midos_codex_feedback_loop",
			"pragmatic_engineering", "context_manager", "repair_json",
		},
	},
	{
		ID: "gpt-5.2-xhigh", Family: "openai",
		ContextWindow: 128000, MaxOutput: 64000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 10, SpeedTPS: 85,
		Tips: []string{
			"Architecture-heavy profile for complex planning and migration",
			"Prefer explicit constraints for deterministic outputs",
		},
		RecommendedSkills: []string{
			"midos_codex_control_plane", "formal_logic_verification",
			"context_manager", "pragmatic_engineering",
		},
	},
	{
		ID: "gpt-5.2-medium", Family: "openai",
		ContextWindow: 128000, MaxOutput: 64000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 105,
		Tips: []string{
			"Balanced profile for day-to-day implementation",
			"Good default when model-specific routing is unknown",
		},
		RecommendedSkills: []string{
			"pragmatic_engineering", "context_manager",
			"memory_lifecycle", "repair_json",
		},
	},
	{
		ID: "gpt-5.1-mini", Family: "openai",
		ContextWindow: 128000, MaxOutput: 32000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 140,
		Tips: []string{
			"Fast triage profile for search-heavy tasks",
			"Use for classification, filtering, and throughput workflows",
		},
		RecommendedSkills: []string{"context_manager", "compress_prompt", "health_check"},
	},
	// Gemini family
	{
		ID: "gemini-2.5-pro", Family: "google",
		ContextWindow: 1000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 110,
		Tips: []string{
			"1M context, can handle entire codebases",
			"Native multimodal (text, audio, images, video)",
			"Built-in thinking capabilities",
		},
		RecommendedSkills: []string{
			"semantic_topology", "memory_lifecycle",
			"context_manager", "antifragile_protocol",
		},
	},
	{
		ID: "gemini-2.5-flash", Family: "google",
		ContextWindow: 1000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 506,
		Tips: []string{
			"Fastest Gemini at 506 tokens/sec",
			"1M context with hybrid thinking control",
			"Best cost-effective high-volume option",
		},
		RecommendedSkills: []string{"pragmatic_engineering", "health_check", "context_manager"},
	},
	{
		ID: "gemini-2.5-flash-lite", Family: "google",
		ContextWindow: 1000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "edge", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 506,
		Tips: []string{
			"Tied for fastest model overall at 506 t/s",
			"Maximum throughput for batch processing",
		},
	},
	{
		ID: "gemini-2.0-flash", Family: "google",
		ContextWindow: 1000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 450,
		Tips: []string{"Superseded by 2.5 Flash for advanced reasoning"},
	},
	// DeepSeek family
	{
		ID: "deepseek-r1", Family: "deepseek",
		ContextWindow: 128000, MaxOutput: 64000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 10, SpeedTPS: 100,
		Tips: []string{
			"Advanced thinking capabilities",
			"Different rates for cache hits vs misses",
		},
	},
	{
		ID: "deepseek-v3", Family: "deepseek",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 120,
		Tips: []string{
			"One of the lowest-priced capable models",
			"Good for cost-effective general-purpose coding",
		},
	},
	{
		ID: "deepseek-v3.1", Family: "deepseek",
		ContextWindow: 128000, MaxOutput: 64000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 110,
		Tips: []string{"671B params, hybrid V3 + R1 strengths"},
	},
	// Mistral family
	{
		ID: "mistral-large-2411", Family: "mistral",
		ContextWindow: 131000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 105,
		Tips: []string{"General-purpose capable model"},
	},
	{
		ID: "codestral", Family: "mistral",
		ContextWindow: 256000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 10, ReasoningScore: 7, SpeedTPS: 140,
		Tips: []string{
			"Specialized code model, 80+ languages",
			"Fill-in-the-middle (FIM) support",
			"256K context, largest for code-specialized model",
		},
	},
	{
		ID: "mistral-medium", Family: "mistral",
		ContextWindow: 32000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 130,
		Tips: []string{"Mid-tier cost-performance balance"},
	},
	{
		ID: "mistral-small", Family: "mistral",
		ContextWindow: 32000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "edge", CodeScore: 6, ReasoningScore: 6, SpeedTPS: 155,
		Tips: []string{"Fast low-cost operations"},
	},
	// Llama family
	{
		ID: "llama-4-maverick", Family: "meta",
		ContextWindow: 10000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 100,
		Tips: []string{
			"10M tokens, industry longest context",
			"Best for entire codebase analysis",
		},
	},
	{
		ID: "llama-4-scout", Family: "meta",
		ContextWindow: 10000000, MaxOutput: 64000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 8, ReasoningScore: 8, SpeedTPS: 110,
		Tips: []string{"10M context, tied for longest"},
	},
	// Qwen family
	{
		ID: "qwen-2.5-7b", Family: "alibaba",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "edge", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 160,
		Tips: []string{"Most affordable at $0.03/M input tokens"},
		RecommendedSkills: []string{
			"qwen_all", "pragmatic_engineering", "context_manager", "health_check",
		},
	},
	{
		ID: "qwen-2.5-coder-32b", Family: "alibaba",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 8, SpeedTPS: 130,
		Tips: []string{
			"92 languages, 5.5T tokens training",
			"Extremely affordable for capability level",
		},
		RecommendedSkills: []string{
			"qwen_all", "qwen_coder_delta", "qwen_code_cli_delta",
			"pragmatic_engineering", "formal_logic_verification",
		},
	},
	{
		ID: "qwen-3-coder", Family: "alibaba",
		ContextWindow: 1000000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 9, ReasoningScore: 8, SpeedTPS: 120,
		Tips: []string{"1M context, major upgrade from 128K"},
		RecommendedSkills: []string{
			"qwen_all", "qwen_coder_delta", "qwen_code_cli_delta",
			"context_manager", "memory_lifecycle",
		},
	},
	// Free OpenRouter models
	{
		ID: "glm-4.5-air", Family: "glm",
		ContextWindow: 128000, MaxOutput: 4096,
		SupportsTools: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 6, ReasoningScore: 6, SpeedTPS: 80,
		Tips: []string{"Free via OpenRouter", "Fast responses, good for tool use"},
	},
	{
		ID: "qwen3-coder", Family: "qwen",
		ContextWindow: 128000, MaxOutput: 8192,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 8, ReasoningScore: 7, SpeedTPS: 70,
		Tips: []string{"Free via OpenRouter", "Strong code generation"},
	},
	{
		ID: "llama-3.3-70b", Family: "llama",
		ContextWindow: 128000, MaxOutput: 4096,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 60,
		Tips: []string{"Free via OpenRouter", "70B general-purpose model"},
	},
	{
		ID: "gemma-3-27b", Family: "gemma",
		ContextWindow: 128000, MaxOutput: 8192,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 6, ReasoningScore: 6, SpeedTPS: 90,
		Tips: []string{"Free via OpenRouter", "Fast and lightweight"},
	},
	{
		ID: "mistral-small-3.1", Family: "mistral",
		ContextWindow: 128000, MaxOutput: 4096,
		SupportsTools: true, SupportsStructure: true,
		Tier: "fast", CodeScore: 6, ReasoningScore: 6, SpeedTPS: 90,
		Tips: []string{"Free via OpenRouter", "24B fast model"},
	},
	{
		ID: "deepseek-r1-0528", Family: "deepseek",
		ContextWindow: 128000, MaxOutput: 16000,
		SupportsTools: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 10, SpeedTPS: 30,
		Tips: []string{"Free via OpenRouter", "671B MoE, slow but deep reasoning"},
	},
	{
		ID: "hermes-3-405b", Family: "llama",
		ContextWindow: 128000, MaxOutput: 4096,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 25,
		Tips: []string{"Free via OpenRouter", "405B, slow but capable"},
	},
	{
		ID: "gpt-oss-120b", Family: "gpt",
		ContextWindow: 128000, MaxOutput: 4096,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 50,
		Tips: []string{"Free via OpenRouter", "OpenAI OSS 120B model"},
	},
	{
		ID: "qwen3-next-80b", Family: "qwen",
		ContextWindow: 128000, MaxOutput: 8192,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 8, SpeedTPS: 45,
		Tips: []string{"Free via OpenRouter", "80B MoE reasoning model"},
	},
	// Additional free/trial models
	{
		ID: "kimi-k2.5", Family: "kimi",
		ContextWindow: 262144, MaxOutput: 8192,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 40,
		Tips: []string{
			"262K context, use it for deep analysis",
			"Agent swarm capability, can self-direct multi-step tasks",
			"Multimodal, accepts images",
		},
	},
	{
		ID: "minimax-m2.5", Family: "minimax",
		ContextWindow: 196608, MaxOutput: 8192,
		SupportsTools: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 9, SpeedTPS: 45,
		Tips: []string{
			"SWE-Bench 80.2%, strong real-world coding",
			"Mandatory reasoning mode, deep thinking by default",
			"Productivity-focused, office + code workflows",
		},
	},
	{
		ID: "big-pickle", Family: "opencode",
		ContextWindow: 200000, MaxOutput: 8192,
		SupportsTools: true, SupportsStructure: true,
		Tier: "balanced", CodeScore: 7, ReasoningScore: 7, SpeedTPS: 50,
		Tips: []string{
			"Stealth model via OpenCode Zen, free during beta",
			"200K context window",
			"Data may be used for model improvement during free period",
		},
	},
	{
		ID: "glm-5", Family: "glm",
		ContextWindow: 200000, MaxOutput: 16000,
		SupportsTools: true, SupportsVision: true, SupportsStructure: true,
		Tier: "frontier", CodeScore: 9, ReasoningScore: 10, SpeedTPS: 30,
		Tips: []string{
			"744B MoE (40B active), frontier-class reasoning",
			"200K context, deep analysis capable",
			"Low hallucination rate, trustworthy outputs",
			"Open weights (MIT license)",
		},
	},
}

// modelAliases maps common variations to canonical model ids. Ordered so
// substring resolution is deterministic.
var modelAliases = []alias{
	// Claude
	{"opus", "claude-opus-4-6"},
	{"opus 4.6", "claude-opus-4-6"},
	{"claude opus", "claude-opus-4-6"},
	{"claude-opus", "claude-opus-4-6"},
	{"sonnet", "claude-sonnet-4-5"},
	{"sonnet 4.5", "claude-sonnet-4-5"},
	{"claude sonnet", "claude-sonnet-4-5"},
	{"claude-sonnet", "claude-sonnet-4-5"},
	{"haiku", "claude-haiku-4-5"},
	{"haiku 4.5", "claude-haiku-4-5"},
	{"claude haiku", "claude-haiku-4-5"},
	{"claude-haiku", "claude-haiku-4-5"},
	// GPT
	{"gpt4o", "gpt-4o"},
	{"gpt 4o", "gpt-4o"},
	{"gpt4o-mini", "gpt-4o-mini"},
	{"gpt 4o mini", "gpt-4o-mini"},
	{"o1", "gpt-o1"},
	{"o3", "gpt-o3"},
	{"o3-mini", "gpt-o3-mini"},
	{"gpt-5.3", "gpt-5.3-codex"},
	{"gpt 5.3", "gpt-5.3-codex"},
	{"gpt53", "gpt-5.3-codex"},
	{"gpt-5.3 codex", "gpt-5.3-codex"},
	{"gpt 5.3 codex", "gpt-5.3-codex"},
	{"gpt-5-codex", "gpt-5.3-codex"},
	{"gpt-5.2-high", "gpt-5.2-xhigh"},
	{"gpt-5.2 xhigh", "gpt-5.2-xhigh"},
	{"gpt 5.2 xhigh", "gpt-5.2-xhigh"},
	{"gpt-5.2 medium", "gpt-5.2-medium"},
	{"gpt 5.2 medium", "gpt-5.2-medium"},
	{"gpt-5.2", "gpt-5.2-medium"},
	{"gpt 5.2", "gpt-5.2-medium"},
	{"gpt-5.1", "gpt-5.1-mini"},
	{"gpt 5.1", "gpt-5.1-mini"},
	{"gpt-5-mini", "gpt-5.1-mini"},
	{"gpt 5 mini", "gpt-5.1-mini"},
	{"gpt-5.1 mini", "gpt-5.1-mini"},
	{"gpt 5.1 mini", "gpt-5.1-mini"},
	// Gemini
	{"gemini pro", "gemini-2.5-pro"},
	{"gemini-pro", "gemini-2.5-pro"},
	{"gemini flash", "gemini-2.5-flash"},
	{"gemini-flash", "gemini-2.5-flash"},
	{"gemini flash lite", "gemini-2.5-flash-lite"},
	// DeepSeek
	{"deepseek", "deepseek-r1"},
	{"deepseek r1", "deepseek-r1"},
	{"deepseek v3", "deepseek-v3"},
	// Llama
	{"llama", "llama-4-maverick"},
	{"llama 4", "llama-4-maverick"},
	{"maverick", "llama-4-maverick"},
	{"scout", "llama-4-scout"},
	// Qwen
	{"qwen", "qwen-2.5-coder-32b"},
	{"qwen coder", "qwen-2.5-coder-32b"},
	{"qwen 3", "qwen-3-coder"},
	// Mistral
	{"codestral-2508", "codestral"},
	{"mistral large", "mistral-large-2411"},
	{"mistral-large", "mistral-large-2411"},
	// Free OpenRouter variations
	{"glm-4.5", "glm-4.5-air"},
	{"glm4.5", "glm-4.5-air"},
	{"glm 4.5", "glm-4.5-air"},
	{"glm-4.5-air:free", "glm-4.5-air"},
	{"z-ai/glm-4.5-air:free", "glm-4.5-air"},
	{"qwen3-coder:free", "qwen3-coder"},
	{"qwen/qwen3-coder:free", "qwen3-coder"},
	{"llama-3.3-70b-instruct", "llama-3.3-70b"},
	{"llama 3.3", "llama-3.3-70b"},
	{"meta-llama/llama-3.3-70b-instruct:free", "llama-3.3-70b"},
	{"gemma-3-27b-it", "gemma-3-27b"},
	{"gemma 3", "gemma-3-27b"},
	{"google/gemma-3-27b-it:free", "gemma-3-27b"},
	{"mistral-small-3.1-24b-instruct", "mistral-small-3.1"},
	{"mistral small", "mistral-small-3.1"},
	{"mistralai/mistral-small-3.1-24b-instruct:free", "mistral-small-3.1"},
	{"deepseek/deepseek-r1-0528:free", "deepseek-r1-0528"},
	{"hermes-3", "hermes-3-405b"},
	{"nousresearch/hermes-3-llama-3.1-405b:free", "hermes-3-405b"},
	{"gpt-oss", "gpt-oss-120b"},
	{"openai/gpt-oss-120b:free", "gpt-oss-120b"},
	{"qwen3-next-80b-a3b-instruct", "qwen3-next-80b"},
	{"qwen/qwen3-next-80b-a3b-instruct:free", "qwen3-next-80b"},
	// Kimi
	{"kimi", "kimi-k2.5"},
	{"kimi k2.5", "kimi-k2.5"},
	{"kimi-k2", "kimi-k2.5"},
	{"moonshotai/kimi-k2.5", "kimi-k2.5"},
	{"moonshotai/kimi-k2.5:free", "kimi-k2.5"},
	// MiniMax
	{"minimax", "minimax-m2.5"},
	{"minimax m2.5", "minimax-m2.5"},
	{"minimax-m2", "minimax-m2.5"},
	{"minimax/minimax-m2.5", "minimax-m2.5"},
	{"minimax/minimax-m2.5:free", "minimax-m2.5"},
	// Big Pickle
	{"big pickle", "big-pickle"},
	{"bigpickle", "big-pickle"},
	{"opencode/big-pickle", "big-pickle"},
	// GLM-5
	{"glm5", "glm-5"},
	{"glm 5", "glm-5"},
	{"z-ai/glm-5", "glm-5"},
	{"z-ai/glm-5:free", "glm-5"},
}
