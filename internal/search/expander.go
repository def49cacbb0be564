package search

import "strings"

// maxExpandLen bounds queries eligible for expansion. Long queries carry
// enough signal on their own.
const maxExpandLen = 60

// expansions maps trigger terms to synonym strings appended to short
// queries before embedding and keyword matching. First hit wins.
var expansions = []struct {
	trigger string
	terms   string
}{
	{"caching", "cache TTL memoization invalidation"},
	{"testing", "test pytest unit integration coverage"},
	{"deployment", "deploy CI/CD pipeline release production"},
	{"security", "auth vulnerability XSS injection sanitize"},
	{"performance", "optimize latency throughput profiling"},
	{"migration", "migrate schema upgrade version"},
	{"api", "endpoint REST HTTP request response"},
	{"database", "DB SQL query index transaction"},
	{"auth", "authentication authorization JWT OAuth session tokens"},
	{"docker", "container image compose volume"},
	{"react", "component hook state props JSX"},
	{"typescript", "TS types interface generic"},
	{"astro", "island hydration static SSG"},
	{"fastapi", "python async endpoint pydantic"},
	{"mcp", "model context protocol tool server"},
	{"rag", "retrieval augmented generation embedding"},
	{"chunking", "split segment token overlap"},
	{"monitoring", "metrics logging observability alerts"},
}

// ExpandQuery appends synonyms for the first matching trigger term. Only
// short queries expand; everything else passes through unchanged.
func ExpandQuery(query string) string {
	if len(query) > maxExpandLen {
		return query
	}
	lower := strings.ToLower(query)
	for _, e := range expansions {
		if strings.Contains(lower, e.trigger) {
			return query + " " + e.terms
		}
	}
	return query
}
