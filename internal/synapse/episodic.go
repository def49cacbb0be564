package synapse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reflexion task types accepted by episodic_store.
var reflexionTaskTypes = map[string]bool{
	"CODE":     true,
	"RESEARCH": true,
	"DEBUG":    true,
	"REVIEW":   true,
}

// Reflexion is one stored agent experience.
type Reflexion struct {
	ID           string `json:"id"`
	TaskType     string `json:"task_type"`
	InputPreview string `json:"input_preview"`
	Success      bool   `json:"success"`
	Provider     string `json:"provider"`
	Timestamp    int64  `json:"timestamp"`
}

// Episodic stores reflexions as an append-only JSONL file and serves
// keyword-scored lookups over them.
type Episodic struct {
	mu   sync.Mutex
	path string
}

// NewEpisodic opens the reflexion log at path.
func NewEpisodic(path string) *Episodic {
	return &Episodic{path: path}
}

// Store appends a reflexion. Task types outside the known set are
// rejected.
func (e *Episodic) Store(taskType, inputPreview string, success bool) (Reflexion, error) {
	taskType = strings.ToUpper(strings.TrimSpace(taskType))
	if !reflexionTaskTypes[taskType] {
		return Reflexion{}, fmt.Errorf("invalid task_type %q: must be CODE, RESEARCH, DEBUG, or REVIEW", taskType)
	}

	r := Reflexion{
		ID:           uuid.NewString(),
		TaskType:     taskType,
		InputPreview: inputPreview,
		Success:      success,
		Provider:     "mcp_server",
		Timestamp:    time.Now().Unix(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return Reflexion{}, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return Reflexion{}, err
	}
	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Reflexion{}, err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return Reflexion{}, err
	}
	return r, nil
}

// ScoredReflexion pairs a reflexion with its lexical match score.
type ScoredReflexion struct {
	Reflexion
	Score float64
}

// Search returns up to limit reflexions ranked by query-word overlap
// against the task type and input preview. Recency breaks ties.
func (e *Episodic) Search(query string, limit int) ([]ScoredReflexion, error) {
	if limit <= 0 {
		limit = 5
	}

	e.mu.Lock()
	reflexions, err := e.readAll()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	var scored []ScoredReflexion
	for _, r := range reflexions {
		haystack := strings.ToLower(r.TaskType + " " + r.InputPreview)
		matched := 0
		for _, w := range words {
			if strings.Contains(haystack, w) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		scored = append(scored, ScoredReflexion{
			Reflexion: r,
			Score:     float64(matched) / float64(max(len(words), 1)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Timestamp > scored[j].Timestamp
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// readAll loads every parseable line; corrupt lines are skipped.
func (e *Episodic) readAll() ([]Reflexion, error) {
	f, err := os.Open(e.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Reflexion
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var r Reflexion
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, scanner.Err()
}

// FormatSearch renders episodic search results for tool output.
func FormatSearch(query string, results []ScoredReflexion) string {
	if len(results) == 0 {
		return fmt.Sprintf("No episodic memories found for: %s", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d episodic memories:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "### %d. Score: %.3f\n", i+1, r.Score)
		preview := r.InputPreview
		if len(preview) > 300 {
			preview = preview[:300]
		}
		fmt.Fprintf(&b, "```\n[%s] %s\n```\n\n", r.TaskType, preview)
	}
	return b.String()
}
