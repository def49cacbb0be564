// Package catalog holds the static model and client capability tables used
// by the handshake pipeline, with alias and fuzzy resolution.
package catalog

// ModelSpec describes known capabilities of a language model.
type ModelSpec struct {
	ID                string
	Family            string
	ContextWindow     int
	MaxOutput         int
	SupportsTools     bool
	SupportsVision    bool
	SupportsStructure bool
	Tier              string // "frontier", "balanced", "fast", "edge"
	CodeScore         int    // 1-10
	ReasoningScore    int    // 1-10
	SpeedTPS          int    // approximate tokens/sec
	Tips              []string
	RecommendedSkills []string
}

// ClientSpec describes known capabilities of a client/IDE.
type ClientSpec struct {
	ID                  string
	Transports          []string // subset of {"stdio", "streamable-http"}
	HasHooks            bool
	HasMemory           bool
	HasBackgroundAgents bool
	MaxParallelAgents   int    // 0 = unlimited or N/A
	ContextManagement   string // "auto-compact", "dynamic-pruning", "manual", "none", ...
	MaxContext          int    // 0 = model-dependent
	Tips                []string
}
