package synapse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Pool signal actions.
var poolActions = map[string]bool{
	"completed": true,
	"blocked":   true,
	"claimed":   true,
	"signaling": true,
}

// maxPoolSignals bounds the retained signal history.
const maxPoolSignals = 50

// PoolSignal is one coordination event.
type PoolSignal struct {
	Action    string `json:"action"`
	Topic     string `json:"topic"`
	Summary   string `json:"summary"`
	Affects   string `json:"affects,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type poolState struct {
	Signals []PoolSignal `json:"signals"`
}

// Pool is the multi-instance coordination state, persisted as a JSON
// file with atomic replace-on-write.
type Pool struct {
	mu   sync.Mutex
	path string
}

// NewPool opens the pool state at path.
func NewPool(path string) *Pool {
	return &Pool{path: path}
}

// Signal records a coordination event and trims old history.
func (p *Pool) Signal(action, topic, summary, affects string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if !poolActions[action] {
		return fmt.Errorf("invalid action %q: must be completed, blocked, claimed, or signaling", action)
	}
	if topic == "" {
		return fmt.Errorf("topic required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.read()
	state.Signals = append(state.Signals, PoolSignal{
		Action:    action,
		Topic:     topic,
		Summary:   summary,
		Affects:   affects,
		Timestamp: time.Now().Unix(),
	})
	if len(state.Signals) > maxPoolSignals {
		state.Signals = state.Signals[len(state.Signals)-maxPoolSignals:]
	}
	return p.write(state)
}

// Status renders recent activity plus aggregate counts.
func (p *Pool) Status() string {
	p.mu.Lock()
	state := p.read()
	p.mu.Unlock()

	var b strings.Builder
	b.WriteString("## Instance Pool\n\n")
	if len(state.Signals) == 0 {
		b.WriteString("No recent activity.\n")
	} else {
		recent := state.Signals
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		b.WriteString("### Recent Activity\n\n")
		for i := len(recent) - 1; i >= 0; i-- {
			s := recent[i]
			ts := time.Unix(s.Timestamp, 0).Format("2006-01-02 15:04")
			fmt.Fprintf(&b, "- [%s] **%s** %s: %s\n", ts, s.Action, s.Topic, s.Summary)
		}
	}

	counts := map[string]int{}
	for _, s := range state.Signals {
		counts[s.Action]++
	}
	stats, _ := json.MarshalIndent(map[string]any{
		"total_signals": len(state.Signals),
		"by_action":     counts,
	}, "", "  ")
	b.WriteString("\n### Statistics\n")
	b.Write(stats)
	b.WriteString("\n")
	return b.String()
}

// read loads state; missing or corrupt files start empty. Caller holds
// the lock.
func (p *Pool) read() poolState {
	var state poolState
	data, err := os.ReadFile(p.path)
	if err != nil {
		return state
	}
	_ = json.Unmarshal(data, &state)
	return state
}

func (p *Pool) write(state poolState) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}
