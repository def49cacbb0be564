package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// maxTokenLen rejects oversized bearer tokens as unauthenticated rather
// than invalid.
const maxTokenLen = 128

// RequestMeta carries transport-level request data into tool handlers.
// Stdio requests have no meta and gate as unauthenticated.
type RequestMeta struct {
	Header     http.Header
	RemoteAddr string
}

type metaKey struct{}

// WithMeta attaches request meta to a context.
func WithMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFrom extracts request meta, if any.
func MetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(metaKey{}).(RequestMeta)
	return meta, ok
}

// Identity is the gate's verdict about a caller.
type Identity struct {
	// Key is the full API key, empty for unauthenticated or localhost
	// callers.
	Key string
	// Tier is the effective entitlement for this call.
	Tier Tier
	// Identifier is the quota accounting key.
	Identifier string
	// Localhost marks a loopback bypass.
	Localhost bool
}

// Authenticated reports whether a valid API key backs this identity.
func (id Identity) Authenticated() bool { return id.Key != "" }

// Gate enforces auth, tier, and quota on every tool call.
type Gate struct {
	keys       *KeyStore
	usage      *UsageLedger
	upgradeURL string
}

// NewGate wires the gate over its stores.
func NewGate(keys *KeyStore, usage *UsageLedger, upgradeURL string) *Gate {
	return &Gate{keys: keys, usage: usage, upgradeURL: upgradeURL}
}

// Identify resolves the caller's identity from request meta without
// enforcing tool tiers or quotas. Used by handlers that shape output by
// entitlement, like skill truncation.
func (g *Gate) Identify(ctx context.Context) (Identity, error) {
	meta, _ := MetaFrom(ctx)
	ip := effectiveSource(meta)

	if isLoopback(ip) {
		return Identity{Tier: TierPro, Identifier: anonIdentifier(ip), Localhost: true}, nil
	}

	token := bearerToken(meta.Header.Get("Authorization"))
	if token == "" {
		return Identity{Tier: TierFree, Identifier: anonIdentifier(ip)}, nil
	}

	rec, ok, err := g.keys.Lookup(token)
	if err != nil {
		return Identity{}, err
	}
	if !ok || !rec.Active {
		return Identity{}, &GateError{Code: CodeAuthInvalid, Message: "Invalid or revoked API key"}
	}
	return Identity{Key: token, Tier: rec.Tier, Identifier: token}, nil
}

// Check gates one tool call: identity, tier, then quota. A nil error
// means the call may proceed.
func (g *Gate) Check(ctx context.Context, tool string) (Identity, error) {
	id, err := g.Identify(ctx)
	if err != nil {
		return Identity{}, err
	}

	required := ToolTier(tool)
	if tierRank(id.Tier) < tierRank(required) {
		return Identity{}, newTierError(tool, required)
	}

	allowed, count, limit := g.usage.CheckAndIncrement(id.Identifier, id.Tier)
	if !allowed {
		return Identity{}, &GateError{
			Code: CodeQuotaExceeded,
			Message: fmt.Sprintf("Monthly quota exceeded (%d/%d). Upgrade at %s",
				count, limit, g.upgradeURL),
			Count:      count,
			Limit:      limit,
			UpgradeURL: g.upgradeURL,
		}
	}
	return id, nil
}

// effectiveSource picks the caller address from forwarding headers, then
// the socket address. Empty when no meta is present (stdio).
func effectiveSource(meta RequestMeta) string {
	if meta.Header != nil {
		for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
			if v := meta.Header.Get(h); v != "" {
				// First hop of a forwarded chain.
				if i := strings.IndexByte(v, ','); i >= 0 {
					v = v[:i]
				}
				return strings.TrimSpace(v)
			}
		}
		if v := meta.Header.Get("Host"); v != "" {
			return stripPort(v)
		}
	}
	if meta.RemoteAddr != "" {
		return stripPort(meta.RemoteAddr)
	}
	return ""
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func isLoopback(ip string) bool {
	switch ip {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// bearerToken extracts the key from an Authorization header. Malformed
// schemes, wrong prefixes, and oversized tokens all yield empty, which
// the gate treats as unauthenticated.
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	token := strings.TrimSpace(parts[1])
	if len(token) >= maxTokenLen || !strings.HasPrefix(token, KeyPrefix) {
		return ""
	}
	return token
}

// anonIdentifier derives the stable quota identifier for keyless
// callers.
func anonIdentifier(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return "anon_" + hex.EncodeToString(sum[:])[:16]
}
