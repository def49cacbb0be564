package catalog

import "strings"

// alias maps a common variation to a canonical catalog id.
type alias struct {
	key    string
	target string
}

// FuzzyCutoff is the minimum similarity ratio for a fuzzy match. The high
// cutoff prevents cross-family confusion: better to resolve nothing than to
// map "glm" to "gemini".
const FuzzyCutoff = 0.85

var (
	modelByID  = make(map[string]*ModelSpec, len(modelCatalog))
	clientByID = make(map[string]*ClientSpec, len(clientCatalog))
)

func init() {
	for i := range modelCatalog {
		modelByID[modelCatalog[i].ID] = &modelCatalog[i]
	}
	for i := range clientCatalog {
		clientByID[clientCatalog[i].ID] = &clientCatalog[i]
	}
}

// Models returns all known model specs in catalog order.
func Models() []ModelSpec { return modelCatalog }

// Clients returns all known client specs in catalog order.
func Clients() []ClientSpec { return clientCatalog }

// ModelByID returns the spec for a canonical model id.
func ModelByID(id string) (*ModelSpec, bool) {
	m, ok := modelByID[id]
	return m, ok
}

// ResolveModel maps a raw model string to a ModelSpec.
// Resolution order: exact, alias, substring (both directions), fuzzy.
func ResolveModel(raw string) *ModelSpec {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return nil
	}

	if m, ok := modelByID[normalized]; ok {
		return m
	}
	for _, a := range modelAliases {
		if a.key == normalized {
			return modelByID[a.target]
		}
	}

	// Substring handles prefixed/suffixed ids like
	// "openrouter/glm-4.5-air:free".
	for i := range modelCatalog {
		id := modelCatalog[i].ID
		if strings.Contains(normalized, id) || strings.Contains(id, normalized) {
			return &modelCatalog[i]
		}
	}
	for _, a := range modelAliases {
		if strings.Contains(normalized, a.key) || strings.Contains(a.key, normalized) {
			return modelByID[a.target]
		}
	}

	if target := closestKey(normalized, modelKeys()); target != "" {
		if m, ok := modelByID[target]; ok {
			return m
		}
		for _, a := range modelAliases {
			if a.key == target {
				return modelByID[a.target]
			}
		}
	}
	return nil
}

// ResolveClient maps a raw client string to a ClientSpec.
func ResolveClient(raw string) *ClientSpec {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return nil
	}

	if c, ok := clientByID[normalized]; ok {
		return c
	}
	for _, a := range clientAliases {
		if a.key == normalized {
			return clientByID[a.target]
		}
	}

	for i := range clientCatalog {
		id := clientCatalog[i].ID
		if strings.Contains(normalized, id) || strings.Contains(id, normalized) {
			return &clientCatalog[i]
		}
	}
	for _, a := range clientAliases {
		if strings.Contains(normalized, a.key) || strings.Contains(a.key, normalized) {
			return clientByID[a.target]
		}
	}

	if target := closestKey(normalized, clientKeys()); target != "" {
		if c, ok := clientByID[target]; ok {
			return c
		}
		for _, a := range clientAliases {
			if a.key == target {
				return clientByID[a.target]
			}
		}
	}
	return nil
}

func modelKeys() []string {
	keys := make([]string, 0, len(modelCatalog)+len(modelAliases))
	for i := range modelCatalog {
		keys = append(keys, modelCatalog[i].ID)
	}
	for _, a := range modelAliases {
		keys = append(keys, a.key)
	}
	return keys
}

func clientKeys() []string {
	keys := make([]string, 0, len(clientCatalog)+len(clientAliases))
	for i := range clientCatalog {
		keys = append(keys, clientCatalog[i].ID)
	}
	for _, a := range clientAliases {
		keys = append(keys, a.key)
	}
	return keys
}

// closestKey returns the candidate with the highest similarity ratio above
// FuzzyCutoff, or "" when nothing clears it.
func closestKey(s string, candidates []string) string {
	best := ""
	bestRatio := FuzzyCutoff
	for _, c := range candidates {
		r := similarity(s, c)
		if r > bestRatio {
			best = c
			bestRatio = r
		}
	}
	return best
}

// similarity is 2*LCS(a,b) / (len(a)+len(b)), the classic sequence-matcher
// ratio.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 2 * float64(lcs(a, b)) / float64(len(a)+len(b))
}

// lcs computes longest-common-subsequence length with a rolling row.
func lcs(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
