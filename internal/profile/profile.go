// Package profile normalizes the raw handshake payload into a resolved
// agent profile with a usable context budget.
package profile

import (
	"github.com/MidOSresearch/midos-mcp/internal/catalog"
)

// Context budget boundaries.
const (
	// DefaultContextWindow is assumed when nothing declares a window.
	DefaultContextWindow = 128000
	// MaxContextWindow caps declared windows; nothing real exceeds 10M.
	MaxContextWindow = 10000000

	smallWindowMax  = 32000
	mediumWindowMax = 128000
)

// AgentProfile is what the connecting agent declares about itself.
// Every field is optional.
type AgentProfile struct {
	Model         string   `json:"model,omitempty"`
	ContextWindow int      `json:"context_window,omitempty"`
	Client        string   `json:"client,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Frameworks    []string `json:"frameworks,omitempty"`
	Platform      string   `json:"platform,omitempty"`
	ProjectGoal   string   `json:"project_goal,omitempty"`
	Tier          string   `json:"tier,omitempty"`
}

// Resolved is the normalized view of an AgentProfile after catalog lookup.
type Resolved struct {
	Profile AgentProfile
	Model   *catalog.ModelSpec  // nil when unknown
	Client  *catalog.ClientSpec // nil when unknown

	// EffectiveContext is the usable window: the minimum of all non-zero
	// declared windows, defaulted and capped.
	EffectiveContext int
	// TierLabel is small, medium or large; it sizes the handshake render.
	TierLabel string
}

// Resolve looks up model and client and computes the context budget.
func Resolve(p AgentProfile) Resolved {
	r := Resolved{Profile: p}
	r.Model = catalog.ResolveModel(p.Model)
	r.Client = catalog.ResolveClient(p.Client)

	var windows []int
	if p.ContextWindow > 0 {
		windows = append(windows, p.ContextWindow)
	}
	if r.Model != nil && r.Model.ContextWindow > 0 {
		windows = append(windows, r.Model.ContextWindow)
	}
	if r.Client != nil && r.Client.MaxContext > 0 {
		windows = append(windows, r.Client.MaxContext)
	}

	effective := DefaultContextWindow
	if len(windows) > 0 {
		effective = windows[0]
		for _, w := range windows[1:] {
			if w < effective {
				effective = w
			}
		}
	}
	if effective > MaxContextWindow {
		effective = MaxContextWindow
	}
	r.EffectiveContext = effective

	switch {
	case effective <= smallWindowMax:
		r.TierLabel = "small"
	case effective <= mediumWindowMax:
		r.TierLabel = "medium"
	default:
		r.TierLabel = "large"
	}

	return r
}
