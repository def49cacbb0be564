// Package config loads and validates midos server configuration.
//
// Configuration is layered: built-in defaults, then an optional midos.yaml
// under the data root, then environment variables. A .env file next to the
// working directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Env variable names recognized by Load.
const (
	EnvRoot     = "MIDOS_ROOT"
	EnvAPIKey   = "MIDOS_GEMINI_API_KEY"
	EnvHTTPAddr = "MIDOS_HTTP_ADDR"
	EnvLogLevel = "MIDOS_LOG_LEVEL"
)

// Config is the complete midos server configuration.
type Config struct {
	// Root is the data root holding config/, knowledge/ and synapse/.
	Root string `yaml:"root"`

	HTTP      HTTPConfig      `yaml:"http"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Decay     DecayConfig     `yaml:"decay"`
	Quota     QuotaConfig     `yaml:"quota"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// Addr is the listen address for the HTTP transport (host:port).
	Addr string `yaml:"addr"`
}

// EmbeddingConfig configures the Gemini embedding client.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// APIKey comes from MIDOS_GEMINI_API_KEY; never stored in yaml.
	APIKey    string `yaml:"-"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
}

// SearchConfig tunes the hybrid retrieval pipeline.
type SearchConfig struct {
	// Alpha weights the vector leg of RRF fusion; 1-alpha weights BM25.
	Alpha float64 `yaml:"alpha"`
	// RRFConstant is the K in 1/(rank+K).
	RRFConstant int `yaml:"rrf_constant"`
	// ResultCacheTTL bounds the query-result cache.
	ResultCacheTTL time.Duration `yaml:"result_cache_ttl"`
	// QueryCacheSize / QueryCacheTTL bound the query-embedding cache.
	QueryCacheSize int           `yaml:"query_cache_size"`
	QueryCacheTTL  time.Duration `yaml:"query_cache_ttl"`
}

// DecayConfig tunes memory-lifecycle scoring.
type DecayConfig struct {
	// HalfLifeDays is H in the importance-weighted exponential formula.
	HalfLifeDays float64 `yaml:"half_life_days"`
	// StaleThreshold marks chunks as stale when decay drops below it.
	StaleThreshold float64 `yaml:"stale_threshold"`
}

// QuotaConfig tunes quota accounting.
type QuotaConfig struct {
	// FlushInterval debounces usage-ledger writes.
	FlushInterval time.Duration `yaml:"flush_interval"`
	// KeyCacheTTL bounds how often the key file is re-read.
	KeyCacheTTL time.Duration `yaml:"key_cache_ttl"`
	// UpgradeURL is included in quota-exceeded errors.
	UpgradeURL string `yaml:"upgrade_url"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Root: ".",
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8420",
		},
		Embedding: EmbeddingConfig{
			Model:      "gemini-embedding-001",
			Dimensions: 3072,
			BatchSize:  50,
			Workers:    4,
		},
		Search: SearchConfig{
			Alpha:          0.5,
			RRFConstant:    60,
			ResultCacheTTL: 60 * time.Second,
			QueryCacheSize: 100,
			QueryCacheTTL:  300 * time.Second,
		},
		Decay: DecayConfig{
			HalfLifeDays:   30,
			StaleThreshold: 0.05,
		},
		Quota: QuotaConfig{
			FlushInterval: 30 * time.Second,
			KeyCacheTTL:   60 * time.Second,
			UpgradeURL:    "https://midos.dev/pricing",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, optional yaml file
// under root, then environment overrides.
func Load() (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if root := os.Getenv(EnvRoot); root != "" {
		cfg.Root = root
	}

	path := filepath.Join(cfg.Root, "midos.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if addr := os.Getenv(EnvHTTPAddr); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	cfg.Embedding.APIKey = os.Getenv(EnvAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as subtle runtime
// misbehavior.
func (c *Config) Validate() error {
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("search.alpha must be in [0,1], got %v", c.Search.Alpha)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Workers <= 0 {
		return fmt.Errorf("embedding.workers must be positive, got %d", c.Embedding.Workers)
	}
	if c.Decay.HalfLifeDays <= 0 {
		return fmt.Errorf("decay.half_life_days must be positive, got %v", c.Decay.HalfLifeDays)
	}
	return nil
}

// Persisted state layout under Root. Helpers so callers never join paths
// ad hoc.

// KeysPath is the API key store file.
func (c *Config) KeysPath() string { return filepath.Join(c.Root, "config", "api_keys.json") }

// UsagePath is the quota ledger file.
func (c *Config) UsagePath() string { return filepath.Join(c.Root, "config", "api_usage.json") }

// CLIProfilesPath is the optional per-client guidance file.
func (c *Config) CLIProfilesPath() string {
	return filepath.Join(c.Root, "config", "cli_profiles.json")
}

// MemoryDir holds the vector store and archive log.
func (c *Config) MemoryDir() string { return filepath.Join(c.Root, "knowledge", "memory") }

// VectorDir is the on-disk vector store directory.
func (c *Config) VectorDir() string {
	return filepath.Join(c.MemoryDir(), "midos_knowledge.lance")
}

// ArchiveLogPath records archived chunks, one JSON line each.
func (c *Config) ArchiveLogPath() string {
	return filepath.Join(c.MemoryDir(), "archived_chunks.jsonl")
}

// KnowledgeDir is the root of the curated document library.
func (c *Config) KnowledgeDir() string { return filepath.Join(c.Root, "knowledge") }

// SkillsDir holds skill documents.
func (c *Config) SkillsDir() string { return filepath.Join(c.Root, "knowledge", "SKILLS") }

// ChunksDir holds raw chunk documents used by keyword fallback search.
func (c *Config) ChunksDir() string { return filepath.Join(c.Root, "knowledge", "CHUNKS") }

// ProtocolsDir holds protocol documents.
func (c *Config) ProtocolsDir() string { return filepath.Join(c.Root, "knowledge", "PROTOCOLS") }

// EurekaDir holds breakthrough documents.
func (c *Config) EurekaDir() string { return filepath.Join(c.Root, "knowledge", "EUREKA") }

// TruthDir holds truth patch documents.
func (c *Config) TruthDir() string { return filepath.Join(c.Root, "knowledge", "truth") }

// SkillBundlesDir holds per-skill directories with compatibility
// descriptors.
func (c *Config) SkillBundlesDir() string { return filepath.Join(c.Root, "skills") }

// SynapseDir holds inter-process coordination state.
func (c *Config) SynapseDir() string { return filepath.Join(c.Root, "synapse") }

// InboxDir receives command files for sibling processes.
func (c *Config) InboxDir() string { return filepath.Join(c.Root, "synapse", "inbox") }

// CompatLogPath is the append-only handshake log.
func (c *Config) CompatLogPath() string {
	return filepath.Join(c.Root, "knowledge", "SYSTEM", "compatibility_log.jsonl")
}

// LogFilePath resolves the slog output file.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Root, "logs", "server.log")
}
