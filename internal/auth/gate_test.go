package auth

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUpgradeURL = "https://midos.dev/pricing"

func newTestGate(t *testing.T) (*Gate, *KeyStore) {
	t.Helper()
	dir := t.TempDir()
	keys := NewKeyStore(filepath.Join(dir, "api_keys.json"))
	usage := NewUsageLedger(filepath.Join(dir, "api_usage.json"), nil)
	return NewGate(keys, usage, testUpgradeURL), keys
}

func ctxWithHeaders(h map[string]string) context.Context {
	header := http.Header{}
	for k, v := range h {
		header.Set(k, v)
	}
	return WithMeta(context.Background(), RequestMeta{Header: header, RemoteAddr: "203.0.113.9:4711"})
}

func TestIdentifyStdioIsUnauthenticatedFree(t *testing.T) {
	g, _ := newTestGate(t)

	id, err := g.Identify(context.Background())
	require.NoError(t, err)
	assert.False(t, id.Authenticated())
	assert.False(t, id.Localhost)
	assert.Equal(t, TierFree, id.Tier)
	assert.True(t, strings.HasPrefix(id.Identifier, "anon_"))
}

func TestIdentifyLocalhostBypass(t *testing.T) {
	g, _ := newTestGate(t)

	for _, addr := range []string{"127.0.0.1", "::1", "localhost"} {
		id, err := g.Identify(ctxWithHeaders(map[string]string{"X-Forwarded-For": addr}))
		require.NoError(t, err)
		assert.True(t, id.Localhost, addr)
		assert.Equal(t, TierPro, id.Tier, addr)
		assert.False(t, id.Authenticated(), addr)
	}
}

func TestIdentifyHeaderPrecedence(t *testing.T) {
	g, _ := newTestGate(t)

	// X-Forwarded-For beats X-Real-Ip; the first hop of a chain counts.
	id, err := g.Identify(ctxWithHeaders(map[string]string{
		"X-Forwarded-For": "127.0.0.1, 10.0.0.5",
		"X-Real-Ip":       "198.51.100.7",
	}))
	require.NoError(t, err)
	assert.True(t, id.Localhost)

	id, err = g.Identify(ctxWithHeaders(map[string]string{"X-Real-Ip": "::1"}))
	require.NoError(t, err)
	assert.True(t, id.Localhost)

	// A public source falls through to anonymous free.
	id, err = g.Identify(ctxWithHeaders(map[string]string{"X-Forwarded-For": "198.51.100.7"}))
	require.NoError(t, err)
	assert.False(t, id.Localhost)
	assert.Equal(t, TierFree, id.Tier)
}

func TestIdentifyValidKey(t *testing.T) {
	g, keys := newTestGate(t)

	key, err := keys.Generate("tester", TierPro)
	require.NoError(t, err)

	id, err := g.Identify(ctxWithHeaders(map[string]string{"Authorization": "Bearer " + key}))
	require.NoError(t, err)
	assert.True(t, id.Authenticated())
	assert.Equal(t, TierPro, id.Tier)
	assert.Equal(t, key, id.Identifier)
}

func TestIdentifyRevokedKey(t *testing.T) {
	g, keys := newTestGate(t)

	key, err := keys.Generate("tester", TierPro)
	require.NoError(t, err)
	_, err = keys.Revoke(key)
	require.NoError(t, err)

	_, err = g.Identify(ctxWithHeaders(map[string]string{"Authorization": "Bearer " + key}))
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeAuthInvalid, gerr.Code)
	assert.Contains(t, gerr.Message, "Invalid or revoked")
}

func TestIdentifyUnknownKey(t *testing.T) {
	g, _ := newTestGate(t)

	_, err := g.Identify(ctxWithHeaders(map[string]string{
		"Authorization": "Bearer " + KeyPrefix + "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
	}))
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeAuthInvalid, gerr.Code)
}

func TestBearerToken(t *testing.T) {
	key := KeyPrefix + "abc123"
	assert.Equal(t, key, bearerToken("Bearer "+key))
	assert.Equal(t, key, bearerToken("bearer "+key))

	assert.Empty(t, bearerToken(""))
	assert.Empty(t, bearerToken(key))
	assert.Empty(t, bearerToken("Basic dXNlcjpwYXNz"))
	assert.Empty(t, bearerToken("Bearer sk-wrong-prefix"))

	// Oversized tokens gate as unauthenticated, not as an auth error.
	huge := KeyPrefix + strings.Repeat("a", 200)
	assert.Empty(t, bearerToken("Bearer "+huge))
}

func TestCheckTierGating(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := ctxWithHeaders(map[string]string{"X-Forwarded-For": "198.51.100.7"})

	// Free tools pass for anonymous callers.
	id, err := g.Check(ctx, "search_knowledge")
	require.NoError(t, err)
	assert.Equal(t, TierFree, id.Tier)

	// Pro tools are refused with an error naming the free alternatives.
	_, err = g.Check(ctx, "get_eureka")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeTierForbidden, gerr.Code)
	assert.Contains(t, gerr.Message, "requires")
	assert.Contains(t, gerr.Message, "tier")
	for _, free := range FreeTools() {
		assert.Contains(t, gerr.Message, free)
	}
}

func TestCheckAdminGating(t *testing.T) {
	g, keys := newTestGate(t)

	proKey, err := keys.Generate("pro-user", TierPro)
	require.NoError(t, err)
	teamKey, err := keys.Generate("team-user", TierTeam)
	require.NoError(t, err)

	_, err = g.Check(ctxWithHeaders(map[string]string{"Authorization": "Bearer " + proKey}), "episodic_store")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeTierForbidden, gerr.Code)

	_, err = g.Check(ctxWithHeaders(map[string]string{"Authorization": "Bearer " + teamKey}), "episodic_store")
	require.NoError(t, err)

	// Unknown tools fail closed.
	_, err = g.Check(ctxWithHeaders(map[string]string{"Authorization": "Bearer " + proKey}), "made_up_tool")
	require.Error(t, err)
}

func TestCheckQuotaExceeded(t *testing.T) {
	dir := t.TempDir()
	keys := NewKeyStore(filepath.Join(dir, "api_keys.json"))
	usage := NewUsageLedger(filepath.Join(dir, "api_usage.json"), nil)
	g := NewGate(keys, usage, testUpgradeURL)

	key, err := keys.Generate("quota-user", TierPro)
	require.NoError(t, err)
	ctx := ctxWithHeaders(map[string]string{"Authorization": "Bearer " + key})

	usage.counts[key] = QuotaLimit(TierPro) - 1
	usage.month = currentMonth(usage.now())

	// The final allowed call lands exactly on the limit.
	_, err = g.Check(ctx, "semantic_search")
	require.NoError(t, err)

	_, err = g.Check(ctx, "semantic_search")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeQuotaExceeded, gerr.Code)
	assert.Equal(t, 25000, gerr.Count)
	assert.Equal(t, 25000, gerr.Limit)
	assert.Equal(t, testUpgradeURL, gerr.UpgradeURL)
	assert.Contains(t, gerr.Message, testUpgradeURL)
}

func TestCheckLocalhostSkipsKeyLookup(t *testing.T) {
	g, _ := newTestGate(t)

	// A loopback caller reaches pro tools with no Authorization header.
	id, err := g.Check(ctxWithHeaders(map[string]string{"X-Forwarded-For": "127.0.0.1"}), "semantic_search")
	require.NoError(t, err)
	assert.True(t, id.Localhost)
	assert.Equal(t, anonIdentifier("127.0.0.1"), id.Identifier)
}

func TestAnonIdentifierStable(t *testing.T) {
	a := anonIdentifier("198.51.100.7")
	assert.Equal(t, a, anonIdentifier("198.51.100.7"))
	assert.NotEqual(t, a, anonIdentifier("198.51.100.8"))
	assert.True(t, strings.HasPrefix(a, "anon_"))
	assert.Len(t, a, len("anon_")+16)
}

func TestEffectiveSource(t *testing.T) {
	assert.Empty(t, effectiveSource(RequestMeta{}))
	assert.Equal(t, "192.0.2.1", effectiveSource(RequestMeta{RemoteAddr: "192.0.2.1:5000"}))

	h := http.Header{}
	h.Set("Host", "localhost:8080")
	assert.Equal(t, "localhost", effectiveSource(RequestMeta{Header: h}))
}
