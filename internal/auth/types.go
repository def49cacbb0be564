// Package auth implements API key management, monthly quota accounting,
// and the per-call request gate that fronts every tool handler.
package auth

import (
	"fmt"
	"sort"
)

// Tier is a caller entitlement level. Key tiers are free through team;
// team keys satisfy admin-gated tools.
type Tier string

const (
	TierFree Tier = "free"
	TierDev  Tier = "dev"
	TierPro  Tier = "pro"
	TierTeam Tier = "team"

	// TierAdmin labels tools, not keys. A team key clears it.
	TierAdmin Tier = "admin"
)

// tierRank orders tiers for gating comparisons.
func tierRank(t Tier) int {
	switch t {
	case TierFree:
		return 0
	case TierDev:
		return 1
	case TierPro:
		return 2
	case TierTeam, TierAdmin:
		return 3
	default:
		return -1
	}
}

// ValidKeyTier reports whether t can be assigned to a key.
func ValidKeyTier(t Tier) bool {
	switch t {
	case TierFree, TierDev, TierPro, TierTeam:
		return true
	}
	return false
}

// QuotaLimit returns the monthly query allowance for a tier.
func QuotaLimit(t Tier) int {
	switch t {
	case TierDev:
		return 5000
	case TierPro:
		return 25000
	case TierTeam, TierAdmin:
		return 100000
	default:
		return 100
	}
}

// toolTiers is the canonical tool gating table. Every registered tool
// must appear here; gating an unknown tool fails closed to admin.
var toolTiers = map[string]Tier{
	"search_knowledge": TierFree,
	"list_skills":      TierFree,
	"get_skill":        TierFree,
	"get_protocol":     TierFree,
	"hive_status":      TierFree,
	"project_status":   TierFree,
	"agent_handshake":  TierFree,

	"get_eureka":       TierPro,
	"get_truth":        TierPro,
	"memory_stats":     TierPro,
	"pool_status":      TierPro,
	"semantic_search":  TierPro,
	"research_youtube": TierPro,
	"episodic_search":  TierPro,
	"chunk_code":       TierPro,

	"episodic_store": TierAdmin,
	"pool_signal":    TierAdmin,
}

// ToolTier returns the tier a tool requires. Unknown tools gate as
// admin-only.
func ToolTier(name string) Tier {
	if t, ok := toolTiers[name]; ok {
		return t
	}
	return TierAdmin
}

// FreeTools lists the tools callable without a key, sorted.
func FreeTools() []string {
	var names []string
	for name, tier := range toolTiers {
		if tier == TierFree {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Error codes surfaced through the gate.
const (
	CodeAuthInvalid   = "auth_invalid"
	CodeTierForbidden = "tier_forbidden"
	CodeQuotaExceeded = "quota_exceeded"
)

// GateError is a gating failure with a stable code for transport mapping.
type GateError struct {
	Code    string
	Message string

	// Quota details, set only for CodeQuotaExceeded.
	Count      int
	Limit      int
	UpgradeURL string
}

func (e *GateError) Error() string { return e.Message }

func newTierError(tool string, required Tier) *GateError {
	return &GateError{
		Code: CodeTierForbidden,
		Message: fmt.Sprintf("%s requires %s tier access. Free tools: %v",
			tool, required, FreeTools()),
	}
}
