package mcpserver

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
	"github.com/MidOSresearch/midos-mcp/internal/knowledge"
	"github.com/MidOSresearch/midos-mcp/internal/search"
)

const testUpgradeURL = "https://midos.dev/pricing"

// newTestServer wires a server over a temp knowledge tree with no search
// engine, so tool calls behave as an unauthenticated stdio session.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	keys := auth.NewKeyStore(filepath.Join(dir, "api_keys.json"))
	usage := auth.NewUsageLedger(filepath.Join(dir, "api_usage.json"), nil)
	gate := auth.NewGate(keys, usage, testUpgradeURL)

	paths := knowledge.Paths{
		Root:         dir,
		KnowledgeDir: filepath.Join(dir, "knowledge"),
		SkillsDir:    filepath.Join(dir, "knowledge", "skills"),
		UpgradeURL:   testUpgradeURL,
	}
	require.NoError(t, os.MkdirAll(paths.SkillsDir, 0o755))
	long := "# Context Manager\n\n" + strings.Repeat("Manage the context window carefully.\n", 30)
	require.NoError(t, os.WriteFile(
		filepath.Join(paths.SkillsDir, "context_manager.md"), []byte(long), 0o644))

	s, err := NewServer(Deps{
		Gate:    gate,
		Library: knowledge.NewLibrary(paths, nil),
	})
	require.NoError(t, err)
	return s
}

func TestNewServerRequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate")

	dir := t.TempDir()
	keys := auth.NewKeyStore(filepath.Join(dir, "api_keys.json"))
	usage := auth.NewUsageLedger(filepath.Join(dir, "api_usage.json"), nil)
	_, err = NewServer(Deps{Gate: auth.NewGate(keys, usage, testUpgradeURL)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library")
}

func TestServerInfo(t *testing.T) {
	s := newTestServer(t)

	name, ver := s.Info()
	assert.Equal(t, "midos", name)
	assert.NotEmpty(t, ver)
	assert.NotNil(t, s.MCPServer())
}

func TestServeUnknownTransport(t *testing.T) {
	s := newTestServer(t)

	err := s.Serve(context.Background(), "carrier-pigeon", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))

	// Pre-built MCP errors pass through untouched.
	orig := NewInvalidParamsError("bad input")
	assert.Same(t, orig, MapError(orig))

	e := MapError(&auth.GateError{Code: auth.CodeAuthInvalid, Message: "Invalid or revoked API key"})
	assert.Equal(t, ErrCodeAuthInvalid, e.Code)
	assert.Equal(t, "Invalid or revoked API key", e.Message)

	e = MapError(&auth.GateError{Code: auth.CodeTierForbidden, Message: "nope"})
	assert.Equal(t, ErrCodeTierForbidden, e.Code)

	e = MapError(&auth.GateError{
		Code: auth.CodeQuotaExceeded, Message: "spent",
		Count: 100, Limit: 100, UpgradeURL: testUpgradeURL,
	})
	assert.Equal(t, ErrCodeQuotaExceeded, e.Code)
	data, ok := e.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 100, data["count"])
	assert.Equal(t, 100, data["limit"])
	assert.Equal(t, testUpgradeURL, data["upgrade_url"])

	e = MapError(context.DeadlineExceeded)
	assert.Equal(t, ErrCodeInternalError, e.Code)
	assert.Contains(t, e.Message, "timed out")

	e = MapError(context.Canceled)
	assert.Equal(t, ErrCodeInternalError, e.Code)
	assert.Contains(t, e.Message, "canceled")

	e = MapError(errors.New("disk on fire"))
	assert.Equal(t, ErrCodeInternalError, e.Code)
	assert.Equal(t, "Internal server error.", e.Message)
}

func TestMCPErrorFormat(t *testing.T) {
	e := NewInvalidParamsError("query parameter is required")
	assert.Equal(t, ErrCodeInvalidParams, e.Code)
	assert.Equal(t, "MCP error -32602: query parameter is required", e.Error())

	nf := NewResourceNotFoundError("resource://skill/nope")
	assert.Equal(t, ErrCodeMethodNotFound, nf.Code)
	assert.Contains(t, nf.Message, "resource://skill/nope")
}

func TestSearchKnowledgeRejectsEmptyQuery(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleSearchKnowledge(context.Background(), nil, SearchKnowledgeInput{Query: "   "})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestSearchKnowledgeReturnsText(t *testing.T) {
	s := newTestServer(t)

	res, _, err := s.handleSearchKnowledge(context.Background(), nil, SearchKnowledgeInput{Query: "context window"})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "context_manager")
}

func TestGetSkillAnonymousGetsPreview(t *testing.T) {
	s := newTestServer(t)

	res, _, err := s.handleGetSkill(context.Background(), nil, GetSkillInput{Name: "context_manager"})
	require.NoError(t, err)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "# Context Manager")
	assert.Contains(t, text, testUpgradeURL)
}

func TestGetSkillRejectsInvalidName(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"", "../../../etc/passwd", "a/b", "name with spaces"} {
		_, _, err := s.handleGetSkill(context.Background(), nil, GetSkillInput{Name: name})
		require.Error(t, err, name)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
		assert.NotContains(t, mcpErr.Message, "passwd")
	}
}

func TestGetEurekaRequiresProTier(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleGetEureka(context.Background(), nil, NamedDocInput{Name: "anything"})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeTierForbidden, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "requires")
	assert.Contains(t, mcpErr.Message, "tier")
}

func TestSemanticSearchDegradesWithoutEngine(t *testing.T) {
	s := newTestServer(t)

	// Pro gating blocks the anonymous stdio caller before the engine check.
	_, _, err := s.handleSemanticSearch(context.Background(), nil, SemanticSearchInput{Query: "context"})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeTierForbidden, mcpErr.Code)
}

func TestUnavailableCollaboratorsReturnToolErrors(t *testing.T) {
	s := newTestServer(t)

	res, _, err := s.handleAgentHandshake(context.Background(), nil, HandshakeInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "unavailable")
}

func TestSkillResource(t *testing.T) {
	s := newTestServer(t)

	req := &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "resource://skill/context_manager"},
	}
	res, err := s.handleSkillResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "text/markdown", res.Contents[0].MIMEType)
	// Anonymous reads are previews.
	assert.Contains(t, res.Contents[0].Text, testUpgradeURL)
}

func TestSkillResourceRejectsBadURIs(t *testing.T) {
	s := newTestServer(t)

	for _, uri := range []string{
		"resource://other/context_manager",
		"resource://skill/",
		"resource://skill/../../../etc/passwd",
		"resource://skill/nope",
	} {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
		_, err := s.handleSkillResource(context.Background(), req)
		require.Error(t, err, uri)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
	}
}

func TestBoostByStack(t *testing.T) {
	results := []search.Result{
		{Text: "generic tuning notes", Source: "notes.md"},
		{Text: "python asyncio patterns for fastapi", Source: "python.md"},
	}

	boosted := boostByStack(results, "python, fastapi")
	assert.Equal(t, "python.md", boosted[0].Source)
	assert.Equal(t, "notes.md", boosted[1].Source)

	// Blank stack tokens leave the order alone.
	same := boostByStack(results, " , ")
	assert.Equal(t, results[0].Source, same[0].Source)
}

func TestFormatSemanticResults(t *testing.T) {
	assert.Equal(t, "No results found for: q", formatSemanticResults("q", nil))

	out := formatSemanticResults("q", []search.Result{
		{Text: strings.Repeat("x", 600), Source: "big.md", Score: 0.75},
	})
	assert.Contains(t, out, "# Semantic Search Results")
	assert.Contains(t, out, "Score: 0.750")
	assert.Contains(t, out, "Source: big.md")
	assert.NotContains(t, out, strings.Repeat("x", 501))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"python", "go"}, splitCSV(" python , go "))
	assert.Nil(t, splitCSV(""))
	assert.Nil(t, splitCSV(" , ,"))
}

func TestGenerateRequestID(t *testing.T) {
	id := generateRequestID()
	assert.Len(t, id, 8)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
}
