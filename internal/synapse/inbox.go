// Package synapse handles coordination with sibling processes: the
// research command inbox, episodic memory, and the multi-instance pool.
package synapse

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Command priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityNormal = "NORMAL"
	PriorityLow    = "LOW"
)

// Command types.
const (
	TypeUserCommand   = "USER_COMMAND"
	TypeResearchCycle = "RESEARCH_CYCLE"
)

// maxURLLen rejects oversized research URLs.
const maxURLLen = 2048

// Command is one inter-process command file.
type Command struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Type      string         `json:"type"`
	Priority  string         `json:"priority"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// Inbox writes command files for sibling processes to pick up.
type Inbox struct {
	dir string
}

// NewInbox points at the inbox directory, created on first write.
func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// Write drops a command file into the inbox and returns its filename.
func (in *Inbox) Write(cmd Command) (string, error) {
	if err := os.MkdirAll(in.dir, 0o755); err != nil {
		return "", fmt.Errorf("create inbox: %w", err)
	}

	data, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("CMD_%s.json", uuid.NewString())
	if err := os.WriteFile(filepath.Join(in.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write command file: %w", err)
	}
	return name, nil
}

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// ValidateYouTubeURL enforces the research_youtube URL policy: http or
// https, a known YouTube host, bounded length.
func ValidateYouTubeURL(raw string) error {
	if raw == "" || len(raw) > maxURLLen {
		return fmt.Errorf("invalid YouTube URL")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid YouTube URL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http/https allowed")
	}
	if !youtubeHosts[strings.ToLower(parsed.Hostname())] {
		return fmt.Errorf("invalid YouTube host: %s. Must be youtube.com or youtu.be",
			parsed.Hostname())
	}
	return nil
}

// QueueYouTubeResearch validates the URL and queues a research command.
// Returns the human-readable confirmation for tool output.
func (in *Inbox) QueueYouTubeResearch(rawURL, priority string) (string, error) {
	if err := ValidateYouTubeURL(rawURL); err != nil {
		return "", err
	}

	switch strings.ToUpper(priority) {
	case PriorityHigh, PriorityNormal, PriorityLow:
	case "":
		priority = "normal"
	default:
		return "", fmt.Errorf("invalid priority: %s", priority)
	}

	now := time.Now().Unix()
	name, err := in.Write(Command{
		ID:       fmt.Sprintf("mcp_youtube_%d", now),
		Source:   "MCP_SERVER",
		Type:     TypeUserCommand,
		Priority: strings.ToUpper(priority),
		Payload: map[string]any{
			"action":  "investigate " + rawURL,
			"content": rawURL,
		},
		Timestamp: now,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("YouTube research queued: %s\nPriority: %s\nCommand file: %s",
		rawURL, strings.ToLower(priority), name), nil
}
