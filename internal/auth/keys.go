package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// KeyPrefix fronts every generated key.
	KeyPrefix = "midos_sk_"

	// keyRandomBytes yields 48 hex characters.
	keyRandomBytes = 24

	// keyCacheTTL bounds how often the keys file is re-read.
	keyCacheTTL = 60 * time.Second
)

// KeyRecord is one key's stored state. Revoked keys stay on file.
type KeyRecord struct {
	Name      string `json:"name"`
	Tier      Tier   `json:"tier"`
	Created   string `json:"created"`
	Active    bool   `json:"active"`
	RevokedAt string `json:"revoked_at,omitempty"`
}

// KeyInfo is the masked listing view.
type KeyInfo struct {
	Prefix  string `json:"prefix"`
	Name    string `json:"name"`
	Tier    Tier   `json:"tier"`
	Active  bool   `json:"active"`
	Created string `json:"created"`
}

// KeyStore persists keys as a JSON map with atomic replace-on-write and
// a short read-side cache.
type KeyStore struct {
	mu       sync.Mutex
	path     string
	keys     map[string]KeyRecord
	loadedAt time.Time
}

// NewKeyStore opens the keys file at path, creating parents on first
// write.
func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path}
}

// load refreshes the in-memory map when the cache is stale. Caller holds
// the lock.
func (k *KeyStore) load(force bool) error {
	if !force && k.keys != nil && time.Since(k.loadedAt) < keyCacheTTL {
		return nil
	}

	data, err := os.ReadFile(k.path)
	if os.IsNotExist(err) {
		k.keys = map[string]KeyRecord{}
		k.loadedAt = time.Now()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read keys file: %w", err)
	}

	keys := map[string]KeyRecord{}
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse keys file: %w", err)
	}
	k.keys = keys
	k.loadedAt = time.Now()
	return nil
}

// save writes the map atomically. Caller holds the lock.
func (k *KeyStore) save() error {
	if err := os.MkdirAll(filepath.Dir(k.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(k.keys, "", "  ")
	if err != nil {
		return err
	}

	tmp := k.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, k.path)
}

// Generate mints a new active key.
func (k *KeyStore) Generate(name string, tier Tier) (string, error) {
	if !ValidKeyTier(tier) {
		return "", fmt.Errorf("invalid tier %q", tier)
	}

	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key := KeyPrefix + hex.EncodeToString(buf)

	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.load(true); err != nil {
		return "", err
	}
	k.keys[key] = KeyRecord{
		Name:    name,
		Tier:    tier,
		Created: time.Now().UTC().Format(time.RFC3339),
		Active:  true,
	}
	if err := k.save(); err != nil {
		return "", err
	}
	return key, nil
}

// Revoke flips a key inactive. Returns false for unknown keys.
func (k *KeyStore) Revoke(key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.load(true); err != nil {
		return false, err
	}

	rec, ok := k.keys[key]
	if !ok {
		return false, nil
	}
	rec.Active = false
	rec.RevokedAt = time.Now().UTC().Format(time.RFC3339)
	k.keys[key] = rec

	if err := k.save(); err != nil {
		return false, err
	}
	return true, nil
}

// Lookup resolves a key to its record through the read cache. Revocation
// may take up to the cache TTL to propagate on this path; Revoke itself
// invalidates immediately.
func (k *KeyStore) Lookup(key string) (KeyRecord, bool, error) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return KeyRecord{}, false, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.load(false); err != nil {
		return KeyRecord{}, false, err
	}
	rec, ok := k.keys[key]
	return rec, ok, nil
}

// List returns the masked key inventory, newest last.
func (k *KeyStore) List() ([]KeyInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.load(true); err != nil {
		return nil, err
	}

	infos := make([]KeyInfo, 0, len(k.keys))
	for key, rec := range k.keys {
		infos = append(infos, KeyInfo{
			Prefix:  MaskKey(key),
			Name:    rec.Name,
			Tier:    rec.Tier,
			Active:  rec.Active,
			Created: rec.Created,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Created < infos[j].Created })
	return infos, nil
}

// MaskKey shows only the prefix and first few token characters.
func MaskKey(key string) string {
	const visible = len(KeyPrefix) + 6
	if len(key) <= visible {
		return key
	}
	return key[:visible] + "..."
}
