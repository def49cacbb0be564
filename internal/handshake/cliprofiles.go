package handshake

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/catalog"
)

// CLIProfile is per-client guidance loaded from cli_profiles.json.
// Absent or unknown clients fall back to safe generic defaults.
type CLIProfile struct {
	ID               string           `json:"id"`
	DisplayName      string           `json:"display_name"`
	Role             string           `json:"role"`
	Instructions     []string         `json:"instructions"`
	ToolRestrictions ToolRestrictions `json:"tool_restrictions"`
	AttentionPinch   AttentionPinch   `json:"attention_pinch"`
	Delegation       DelegationPolicy `json:"delegation_policy"`
	SearchMode       string           `json:"default_search_mode"`
	ResponseFormat   string           `json:"response_format"`
}

// ToolRestrictions is a per-client allowlist (with * wildcard) plus
// denylist.
type ToolRestrictions struct {
	Mode        string   `json:"mode"`
	Allowed     []string `json:"allowed"`
	Denied      []string `json:"denied"`
	Explanation string   `json:"explanation"`
}

// Allows reports whether a tool passes the restriction lists.
func (tr ToolRestrictions) Allows(tool string) bool {
	for _, d := range tr.Denied {
		if d == tool {
			return false
		}
	}
	if len(tr.Allowed) == 0 {
		return true
	}
	for _, a := range tr.Allowed {
		if a == "*" || a == tool {
			return true
		}
	}
	return false
}

// AttentionPinch is a periodic reminder some clients get.
type AttentionPinch struct {
	Enabled        bool   `json:"enabled"`
	FrequencyTurns int    `json:"frequency_turns"`
	Message        string `json:"message"`
}

// DelegationPolicy describes which sibling clients to hand tasks to.
type DelegationPolicy struct {
	Strengths  []string            `json:"your_strengths"`
	Weaknesses []string            `json:"your_weaknesses"`
	DelegateTo map[string][]string `json:"delegate_to"`
}

// genericCLIProfile is the fallback for unrecognized clients.
func genericCLIProfile() CLIProfile {
	return CLIProfile{
		ID:          "generic",
		DisplayName: "Generic Client",
		Role:        "general",
		Instructions: []string{
			"You are connected via an unrecognized client, safe defaults apply",
			"All read-only MCP tools are available",
			"For write operations, verify your client supports them first",
			"Call hive_status to discover available capabilities",
		},
		ToolRestrictions: ToolRestrictions{
			Mode:    "allowlist",
			Allowed: []string{"*"},
		},
		AttentionPinch: AttentionPinch{
			Enabled:        true,
			FrequencyTurns: 15,
			Message:        "Generic client check: verify your capabilities before attempting write operations.",
		},
		SearchMode:     "hybrid",
		ResponseFormat: "markdown",
	}
}

type cliProfilesFile struct {
	Profiles map[string]CLIProfile `json:"profiles"`
}

// loadCLIProfiles reads cli_profiles.json; a missing or corrupt file
// yields an empty map and the generic fallback takes over.
func loadCLIProfiles(path string) map[string]CLIProfile {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var f cliProfilesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	return f.Profiles
}

// cliProfileFor resolves the client id (directly, then via catalog
// aliases) against the loaded profiles.
func cliProfileFor(profiles map[string]CLIProfile, clientID string, spec *catalog.ClientSpec) CLIProfile {
	if clientID == "" && spec == nil {
		return genericCLIProfile()
	}
	if p, ok := profiles[strings.ToLower(strings.TrimSpace(clientID))]; ok {
		return p
	}
	if spec != nil {
		if p, ok := profiles[spec.ID]; ok {
			return p
		}
	}
	return genericCLIProfile()
}
