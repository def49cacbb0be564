package handshake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/profile"
)

// maxRankedSkills bounds the skill recommendation list.
const maxRankedSkills = 15

// Layer scores for skill ranking.
const (
	scoreModelRecommended = 10
	scoreStackKeyword     = 2
	scoreCompatHit        = 3
)

// fallbackSkills seed the list when nothing in the profile matches.
var fallbackSkills = []string{
	"pragmatic_engineering",
	"context_manager",
	"health_check",
	"react",
	"postgresql",
	"nestjs_v11",
	"django_v5",
	"tailwindcss",
	"prisma_v7",
	"redis_caching_patterns",
}

// RankedSkill is one recommended skill.
type RankedSkill struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Source string `json:"source"` // model_catalog, stack_match, goal_match, fallback
	Score  int    `json:"-"`
}

// rankSkills builds the recommendation list in three layers, deduplicated
// by name: the model catalog's recommended skills, stack matches against
// skill names and compatibility descriptors, and project-goal keyword
// hits. An empty result falls back to the seed list.
func (e *Engine) rankSkills(r profile.Resolved) []RankedSkill {
	var ranked []RankedSkill
	seen := map[string]bool{}

	add := func(name, reason, source string, score int) {
		if seen[name] {
			return
		}
		path, ok := e.findSkillPath(name)
		if !ok {
			return
		}
		ranked = append(ranked, RankedSkill{
			Name:   name,
			Path:   path,
			Reason: reason,
			Source: source,
			Score:  score,
		})
		seen[name] = true
	}

	if r.Model != nil {
		for _, name := range r.Model.RecommendedSkills {
			add(name, fmt.Sprintf("Recommended for %s", r.Model.ID), "model_catalog", scoreModelRecommended)
		}
	}

	stack := append(append([]string(nil), r.Profile.Languages...), r.Profile.Frameworks...)
	if len(stack) > 0 {
		for _, name := range e.allSkillNames() {
			if seen[name] {
				continue
			}
			score := e.stackMatchScore(name, r.Profile.Languages, r.Profile.Frameworks)
			if score > 0 {
				add(name, "Stack match: "+strings.Join(stack, ", "), "stack_match", score)
			}
		}
	}

	if goal := r.Profile.ProjectGoal; goal != "" && len(seen) < 10 {
		goalWords := strings.Fields(strings.ToLower(goal))
		for _, name := range e.allSkillNames() {
			if seen[name] {
				continue
			}
			nameWords := normalizeName(name)
			score := 0
			for _, w := range goalWords {
				if strings.Contains(nameWords, w) {
					score++
				}
			}
			if score > 0 {
				add(name, "Relevant to: "+goal, "goal_match", score)
			}
		}
	}

	if len(ranked) == 0 {
		for _, name := range fallbackSkills {
			add(name, "Popular recommended skill", "fallback", 1)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > maxRankedSkills {
		ranked = ranked[:maxRankedSkills]
	}
	return ranked
}

// stackMatchScore scores a skill against the declared stack: name-word
// hits count 2, compatibility descriptor hits count 3 per match.
func (e *Engine) stackMatchScore(skill string, languages, frameworks []string) int {
	nameWords := normalizeName(skill)
	score := 0
	for _, kw := range append(append([]string(nil), languages...), frameworks...) {
		if kw != "" && strings.Contains(nameWords, strings.ToLower(kw)) {
			score += scoreStackKeyword
		}
	}

	if compat, ok := e.lib.LoadCompat(skill); ok {
		for _, lang := range languages {
			if containsFold(compat.Languages, lang) {
				score += scoreCompatHit
			}
		}
		for _, fw := range frameworks {
			if containsFold(compat.Frameworks, fw) {
				score += scoreCompatHit
			}
		}
	}
	return score
}

// allSkillNames merges flat skill documents with bundle directories.
func (e *Engine) allSkillNames() []string {
	seen := map[string]bool{}
	var names []string

	for _, n := range e.lib.SkillNames() {
		if !strings.HasPrefix(n, "_") && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	entries, _ := os.ReadDir(e.paths.SkillBundlesDir)
	for _, entry := range entries {
		if entry.IsDir() && !seen[entry.Name()] {
			names = append(names, entry.Name())
			seen[entry.Name()] = true
		}
	}
	sort.Strings(names)
	return names
}

// findSkillPath locates a skill document: a flat markdown file first,
// then a bundle directory's SKILL.md.
func (e *Engine) findSkillPath(name string) (string, bool) {
	flat := filepath.Join(e.paths.SkillsDir, name+".md")
	if _, err := os.Stat(flat); err == nil {
		return relToRoot(e.paths.Root, flat), true
	}
	bundled := filepath.Join(e.paths.SkillBundlesDir, name, "SKILL.md")
	if _, err := os.Stat(bundled); err == nil {
		return relToRoot(e.paths.Root, bundled), true
	}
	return "", false
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func normalizeName(name string) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(name))
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
