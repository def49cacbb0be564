// Package knowledge serves the markdown knowledge base: keyword search
// with snippet extraction, the skill inventory, and named document
// lookups with case-insensitive fallback.
package knowledge

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	// maxFileChars caps returned document bodies.
	maxFileChars = 10000

	// previewChars is the unauthenticated skill preview length.
	previewChars = 400

	// maxListed caps "available documents" suggestions.
	maxListed = 20
)

// Paths locates the knowledge tree on disk.
type Paths struct {
	Root         string // repository root, search snippets use paths relative to it
	KnowledgeDir string
	SkillsDir    string
	ProtocolsDir string
	EurekaDir    string
	TruthDir     string
	ChunksDir    string
	// SkillBundlesDir holds per-skill directories with an optional
	// compatibility.json descriptor.
	SkillBundlesDir string
	UpgradeURL      string
}

// Library reads the knowledge tree. All operations are stateless reads;
// missing directories degrade to empty results.
type Library struct {
	paths  Paths
	logger *slog.Logger
}

// NewLibrary wires a library over the given tree.
func NewLibrary(paths Paths, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{paths: paths, logger: logger}
}

// SearchHit is one keyword match.
type SearchHit struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
	Size    int    `json:"size"`
}

// Search scans markdown files under the knowledge directory for query,
// matching content or filename, and extracts a snippet around the first
// occurrence.
func (l *Library) Search(query string, maxResults int) []SearchHit {
	if maxResults <= 0 {
		maxResults = 10
	}
	queryLower := strings.ToLower(query)

	var hits []SearchHit
	filepath.WalkDir(l.paths.KnowledgeDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		content := string(data)
		contentLower := strings.ToLower(content)
		name := strings.TrimSuffix(d.Name(), ".md")

		if !strings.Contains(contentLower, queryLower) &&
			!strings.Contains(strings.ToLower(d.Name()), queryLower) {
			return nil
		}

		var snippet string
		if idx := strings.Index(contentLower, queryLower); idx >= 0 {
			start := max(0, idx-100)
			end := min(len(content), idx+200)
			snippet = strings.TrimSpace(content[start:end])
		} else {
			snippet = strings.TrimSpace(content[:min(len(content), 300)])
		}

		rel, err := filepath.Rel(l.paths.Root, path)
		if err != nil {
			rel = path
		}
		hits = append(hits, SearchHit{
			Path:    filepath.ToSlash(rel),
			Name:    name,
			Snippet: snippet,
			Size:    len(content),
		})
		if len(hits) >= maxResults {
			return fs.SkipAll
		}
		return nil
	})
	return hits
}

// FormatSearch renders search hits as markdown.
func FormatSearch(query string, hits []SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for '%s':\n\n", len(hits), query)
	for _, h := range hits {
		fmt.Fprintf(&b, "## %s\nPath: %s\n```\n%s\n```\n\n", h.Name, h.Path, h.Snippet)
	}
	return b.String()
}

// Skill returns a skill document by name with case-insensitive fallback.
// Unknown names return a listing of available skills, not an error.
func (l *Library) Skill(name string) string {
	path, ok := l.resolveDoc(l.paths.SkillsDir, name)
	if !ok {
		return fmt.Sprintf("Skill not found: %s\n\nAvailable skills: %v",
			name, l.docNames(l.paths.SkillsDir))
	}
	return readCapped(path)
}

// SkillPreview truncates skill content for unauthenticated callers at a
// line boundary and appends the upgrade notice.
func (l *Library) SkillPreview(content string) string {
	if len(content) <= previewChars {
		return content
	}
	truncated := content[:previewChars]
	if i := strings.LastIndexByte(truncated, '\n'); i > 0 {
		truncated = truncated[:i]
	}
	return fmt.Sprintf("%s\n\n---\n> Full skill content available with MidOS Pro.\n> Get your API key at %s",
		truncated, l.paths.UpgradeURL)
}

// Protocol returns a protocol document by name.
func (l *Library) Protocol(name string) string {
	path, ok := l.resolveDoc(l.paths.ProtocolsDir, name)
	if !ok {
		return fmt.Sprintf("Protocol not found: %s", name)
	}
	return readCapped(path)
}

// Eureka returns a breakthrough document by name.
func (l *Library) Eureka(name string) string {
	path, ok := l.resolveDoc(l.paths.EurekaDir, name)
	if !ok {
		return fmt.Sprintf("EUREKA not found: %s\n\nAvailable EUREKA documents: %v",
			name, l.docNames(l.paths.EurekaDir))
	}
	return readCapped(path)
}

// Truth returns a truth patch document by name.
func (l *Library) Truth(name string) string {
	path, ok := l.resolveDoc(l.paths.TruthDir, name)
	if !ok {
		return fmt.Sprintf("Truth patch not found: %s\n\nAvailable truth patches: %v",
			name, l.docNames(l.paths.TruthDir))
	}
	return readCapped(path)
}

// SkillNames lists all skill document stems, sorted.
func (l *Library) SkillNames() []string {
	var names []string
	entries, _ := os.ReadDir(l.paths.SkillsDir)
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Strings(names)
	return names
}

// ListSkills renders the skill inventory with an optional name filter
// and a stack-aware sort: skills whose compatibility descriptor or name
// matches the comma-separated stack tokens come first.
func (l *Library) ListSkills(filter, stack string) string {
	names := l.SkillNames()

	if filter != "" {
		filterLower := strings.ToLower(filter)
		kept := names[:0]
		for _, n := range names {
			if strings.Contains(strings.ToLower(n), filterLower) {
				kept = append(kept, n)
			}
		}
		names = kept
	}

	if stack != "" {
		tokens := splitTokens(stack)
		type scored struct {
			name  string
			score int
		}
		ranked := make([]scored, len(names))
		for i, n := range names {
			ranked[i] = scored{name: n, score: l.stackScore(n, tokens)}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
		for i, r := range ranked {
			names[i] = r.name
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available skills (%d):\n\n", len(names))
	for _, n := range names {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	return b.String()
}

// compatDescriptor is a skill's optional stack descriptor.
type compatDescriptor struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
}

// LoadCompat reads a skill's compatibility descriptor, if present.
func (l *Library) LoadCompat(skill string) (compatDescriptor, bool) {
	if l.paths.SkillBundlesDir == "" {
		return compatDescriptor{}, false
	}
	data, err := os.ReadFile(filepath.Join(l.paths.SkillBundlesDir, skill, "compatibility.json"))
	if err != nil {
		return compatDescriptor{}, false
	}
	var c compatDescriptor
	if err := json.Unmarshal(data, &c); err != nil {
		return compatDescriptor{}, false
	}
	return c, true
}

// stackScore is 2 per token hitting the compatibility descriptor plus 1
// per token found in the skill name.
func (l *Library) stackScore(skill string, tokens []string) int {
	score := 0
	if c, ok := l.LoadCompat(skill); ok {
		var all []string
		for _, s := range append(c.Languages, c.Frameworks...) {
			all = append(all, strings.ToLower(s))
		}
		for _, t := range tokens {
			for _, entry := range all {
				if strings.Contains(entry, t) {
					score += 2
					break
				}
			}
		}
	}
	nameWords := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(skill))
	for _, t := range tokens {
		if strings.Contains(nameWords, t) {
			score++
		}
	}
	return score
}

var skillNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidDocName reports whether name is a safe document identifier:
// letters, digits, hyphens and underscores only. Rejecting separators
// keeps lookups inside their directory.
func ValidDocName(name string) bool {
	return skillNamePattern.MatchString(name)
}

// ReadSkillResource serves resource://skill/{name}. Names are validated
// against a strict charset and the resolved path must stay inside the
// skills root. Unauthenticated callers get the truncated preview.
func (l *Library) ReadSkillResource(name string, authenticated bool) (string, error) {
	if name == "" || !skillNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid skill name")
	}

	path, ok := l.resolveDoc(l.paths.SkillsDir, name)
	if !ok {
		return "", fmt.Errorf("skill not found: %s", name)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("skill not found: %s", name)
	}
	rootResolved, err := filepath.EvalSymlinks(l.paths.SkillsDir)
	if err != nil {
		return "", fmt.Errorf("skills directory unavailable")
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("access denied")
	}

	content := readCapped(path)
	if !authenticated {
		content = l.SkillPreview(content)
	}
	return content, nil
}

// CountMarkdown counts .md files directly under dir.
func CountMarkdown(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			n++
		}
	}
	return n
}

// CountMarkdownTree counts .md files recursively under dir.
func CountMarkdownTree(dir string) int {
	n := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(path, ".md") {
			n++
		}
		return nil
	})
	return n
}

// resolveDoc finds dir/name.md, falling back to a case-insensitive scan.
func (l *Library) resolveDoc(dir, name string) (string, bool) {
	direct := filepath.Join(dir, name+".md")
	if _, err := os.Stat(direct); err == nil {
		return direct, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	nameLower := strings.ToLower(name)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if strings.ToLower(strings.TrimSuffix(e.Name(), ".md")) == nameLower {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

// docNames lists up to maxListed document stems in dir.
func (l *Library) docNames(dir string) []string {
	var names []string
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
		if len(names) >= maxListed {
			break
		}
	}
	return names
}

// readCapped reads a file, truncating oversized bodies with a marker.
func readCapped(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	content := string(data)
	if len(content) > maxFileChars {
		content = content[:maxFileChars] +
			fmt.Sprintf("\n\n[...truncated, %d total chars]", len(data))
	}
	return content
}

func splitTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
