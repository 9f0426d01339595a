// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package config loads the single immutable configuration record consumed
// by the rest of the system. It is read once at startup (from environment
// variables, optionally overlaid with a JSON file) and passed by value into
// the workflow engine and the step library; nothing in this repository
// re-reads os.Getenv after startup (spec §9, "global configuration via
// environment variables" re-architecture item).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"test-smith/pkg/embedding"
	"test-smith/pkg/llm"
	"test-smith/pkg/vectorstore"
)

// Config represents the complete configuration for test-smith.
type Config struct {
	LLM         LLMConfig         `json:"llm"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	WebSearch   WebSearchConfig   `json:"web_search"`
	Workflow    WorkflowConfig    `json:"workflow"`
	StateStore  StateStoreConfig  `json:"state_store"`
	Logging     LoggingConfig     `json:"logging"`
	Paths       PathsConfig       `json:"paths"`
	Server      ServerConfig      `json:"server"`
}

// LLMConfig contains settings for the two LLM roles the step library uses:
// a reasoning model (planner, master planner, evaluator, synthesizer) and a
// fast model (rewriting, classification, bookkeeping steps).
type LLMConfig struct {
	Provider     string            `json:"provider"` // MODEL_PROVIDER: "primary" or "local"
	ReasoningLLM LLMProviderConfig `json:"reasoning_llm"`
	FastLLM      LLMProviderConfig `json:"fast_llm"`
}

// LLMProviderConfig contains settings for a specific LLM provider.
type LLMProviderConfig struct {
	Provider           string  `json:"provider"`
	APIKey             string  `json:"api_key,omitempty"`
	BaseURL            string  `json:"base_url,omitempty"`
	Model              string  `json:"model"`
	DefaultTemperature float32 `json:"default_temperature"`
	DefaultMaxTokens   int     `json:"default_max_tokens"`
	TimeoutSeconds     int     `json:"timeout_seconds"`
}

// EmbeddingConfig contains settings for embedding generation.
type EmbeddingConfig struct {
	Provider       string `json:"provider"`
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model"`
	BatchSize      int    `json:"batch_size"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// VectorStoreConfig contains settings for the Retriever's concrete store.
type VectorStoreConfig struct {
	Type              string                 `json:"type"`
	Address           string                 `json:"address"`
	APIKey            string                 `json:"api_key,omitempty"`
	TimeoutSeconds    int                    `json:"timeout_seconds"`
	DefaultCollection string                 `json:"default_collection"`
	// CodeCollection names the collection the code-investigation workflow
	// searches, distinct from DefaultCollection's document knowledge base.
	CodeCollection string                 `json:"code_collection"`
	Extra          map[string]interface{} `json:"extra,omitempty"`
}

// WebSearchConfig configures the web searcher provider chain.
type WebSearchConfig struct {
	APIKeys        map[string]string `json:"api_keys,omitempty"` // provider name -> key
	ProviderOrder  []string          `json:"provider_order"`     // SEARCH_PROVIDER_PRIORITY
	MaxResults     int               `json:"max_results"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

// WorkflowConfig contains the budgets from spec §6.
type WorkflowConfig struct {
	RecursionLimit    int     `json:"recursion_limit"`
	MaxLoops          int     `json:"max_loops"`
	MaxDepth          int     `json:"max_depth"`
	MaxRevisions      int     `json:"max_revisions"`
	MaxTotalSubtasks  int     `json:"max_total_subtasks"`
	TopKRetrieval     int     `json:"top_k_retrieval"`
	MinRelevanceScore float32 `json:"min_relevance_score"`
	StepTimeoutSecs   int     `json:"step_timeout_seconds"`
	RunTimeoutSecs    int     `json:"run_timeout_seconds"`
}

// StateStoreConfig selects and configures the checkpoint State Store.
type StateStoreConfig struct {
	Backend string `json:"backend"` // "memory", "sqlite", "redis"
	DSN     string `json:"dsn"`     // sqlite file path or redis address
}

// LoggingConfig matches LOG_LEVEL / STRUCTURED_LOGS_JSON.
type LoggingConfig struct {
	Level          string `json:"level"`
	StructuredJSON bool   `json:"structured_json"`
}

// PathsConfig names the directories the CLI writes reports and logs to.
type PathsConfig struct {
	ReportDir string `json:"report_dir"`
	LogDir    string `json:"log_dir"`
}

// ServerConfig configures the optional HTTP surface (cmd/server), which
// layers POST /runs and GET /runs/{thread_id} over the same
// InitializeSystem the CLI uses; the command-line interface remains the
// primary surface (spec §6).
type ServerConfig struct {
	Addr            string `json:"addr"`            // SERVER_ADDR, e.g. ":8080"
	ShutdownSeconds int    `json:"shutdown_seconds"` // grace period for in-flight runs on SIGINT/SIGTERM
}

// LoadFromFile loads configuration from a JSON file, applying defaults for
// anything left zero-valued.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables,
// optionally overlaid from .env/.env.local (useful for local development;
// containerized deployments set the environment directly).
func LoadFromEnv() *Config {
	loadEnvFiles()

	cfg := &Config{
		LLM: LLMConfig{
			Provider: getEnv("MODEL_PROVIDER", "primary"),
			ReasoningLLM: LLMProviderConfig{
				Provider:           "openai",
				APIKey:             firstNonEmpty(getEnv("PRIMARY_API_KEY", ""), getEnv("OPENAI_API_KEY", "")),
				Model:              getEnv("REASONING_LLM_MODEL", "gpt-4o"),
				DefaultTemperature: 0.7,
				DefaultMaxTokens:   2048,
				TimeoutSeconds:     60,
			},
			FastLLM: LLMProviderConfig{
				Provider:           "openai",
				APIKey:             firstNonEmpty(getEnv("PRIMARY_API_KEY", ""), getEnv("OPENAI_API_KEY", "")),
				Model:              getEnv("FAST_LLM_MODEL", "gpt-4o-mini"),
				DefaultTemperature: 0.5,
				DefaultMaxTokens:   1024,
				TimeoutSeconds:     30,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			APIKey:         firstNonEmpty(getEnv("PRIMARY_API_KEY", ""), getEnv("OPENAI_API_KEY", "")),
			Model:          getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			BatchSize:      100,
			TimeoutSeconds: 30,
		},
		VectorStore: VectorStoreConfig{
			Type:              getEnv("VECTOR_STORE_TYPE", "qdrant"),
			Address:           getEnv("VECTOR_STORE_ADDRESS", "localhost:6334"),
			DefaultCollection: getEnv("VECTOR_STORE_COLLECTION", "documents"),
			CodeCollection:    getEnv("CODE_VECTOR_STORE_COLLECTION", "code"),
			TimeoutSeconds:    30,
		},
		WebSearch: WebSearchConfig{
			APIKeys:        parseAPIKeys(getEnv("WEB_SEARCH_API_KEYS", "")),
			ProviderOrder:  splitNonEmpty(getEnv("SEARCH_PROVIDER_PRIORITY", "primary,fallback")),
			MaxResults:     5,
			TimeoutSeconds: 20,
		},
		Workflow: WorkflowConfig{
			RecursionLimit:    getEnvInt("RECURSION_LIMIT", 100),
			MaxLoops:          getEnvInt("MAX_LOOPS", 2),
			MaxDepth:          getEnvInt("MAX_DEPTH", 2),
			MaxRevisions:      getEnvInt("MAX_REVISIONS", 3),
			MaxTotalSubtasks:  getEnvInt("MAX_TOTAL_SUBTASKS", 20),
			TopKRetrieval:     getEnvInt("TOP_K_RETRIEVAL", 5),
			MinRelevanceScore: 0.0,
			StepTimeoutSecs:   getEnvInt("STEP_TIMEOUT_SECONDS", 120),
			RunTimeoutSecs:    getEnvInt("RUN_TIMEOUT_SECONDS", 600),
		},
		StateStore: StateStoreConfig{
			Backend: getEnv("STATE_STORE_BACKEND", "sqlite"),
			DSN:     getEnv("STATE_STORE_DSN", "test-smith-checkpoints.db"),
		},
		Logging: LoggingConfig{
			Level:          getEnv("LOG_LEVEL", "INFO"),
			StructuredJSON: getEnvBool("STRUCTURED_LOGS_JSON", false),
		},
		Paths: PathsConfig{
			ReportDir: getEnv("REPORT_DIR", "./reports"),
			LogDir:    getEnv("LOG_DIR", "./logs"),
		},
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownSeconds: getEnvInt("SERVER_SHUTDOWN_SECONDS", 30),
		},
	}

	return cfg
}

// SaveToFile persists the configuration as indented JSON.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ToLLMConfig converts to llm.Config for the reasoning LLM.
func (c *Config) ToLLMConfig() *llm.Config {
	return &llm.Config{
		Provider:           c.LLM.ReasoningLLM.Provider,
		APIKey:             c.LLM.ReasoningLLM.APIKey,
		BaseURL:            c.LLM.ReasoningLLM.BaseURL,
		Model:              c.LLM.ReasoningLLM.Model,
		DefaultTemperature: c.LLM.ReasoningLLM.DefaultTemperature,
		DefaultMaxTokens:   c.LLM.ReasoningLLM.DefaultMaxTokens,
		TimeoutSeconds:     c.LLM.ReasoningLLM.TimeoutSeconds,
	}
}

// ToFastLLMConfig converts to llm.Config for the fast LLM.
func (c *Config) ToFastLLMConfig() *llm.Config {
	return &llm.Config{
		Provider:           c.LLM.FastLLM.Provider,
		APIKey:             c.LLM.FastLLM.APIKey,
		BaseURL:            c.LLM.FastLLM.BaseURL,
		Model:              c.LLM.FastLLM.Model,
		DefaultTemperature: c.LLM.FastLLM.DefaultTemperature,
		DefaultMaxTokens:   c.LLM.FastLLM.DefaultMaxTokens,
		TimeoutSeconds:     c.LLM.FastLLM.TimeoutSeconds,
	}
}

// ToEmbeddingConfig converts to embedding.Config.
func (c *Config) ToEmbeddingConfig() *embedding.Config {
	return &embedding.Config{
		Provider:       c.Embedding.Provider,
		APIKey:         c.Embedding.APIKey,
		BaseURL:        c.Embedding.BaseURL,
		Model:          c.Embedding.Model,
		BatchSize:      c.Embedding.BatchSize,
		TimeoutSeconds: c.Embedding.TimeoutSeconds,
	}
}

// ToVectorStoreConfig converts to vectorstore.Config.
func (c *Config) ToVectorStoreConfig() *vectorstore.Config {
	return &vectorstore.Config{
		Type:              c.VectorStore.Type,
		Address:           c.VectorStore.Address,
		APIKey:            c.VectorStore.APIKey,
		TimeoutSeconds:    c.VectorStore.TimeoutSeconds,
		DefaultCollection: c.VectorStore.DefaultCollection,
		Extra:             c.VectorStore.Extra,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Workflow.RecursionLimit == 0 {
		cfg.Workflow.RecursionLimit = 100
	}
	if cfg.Workflow.MaxLoops == 0 {
		cfg.Workflow.MaxLoops = 2
	}
	if cfg.Workflow.MaxDepth == 0 {
		cfg.Workflow.MaxDepth = 2
	}
	if cfg.Workflow.MaxRevisions == 0 {
		cfg.Workflow.MaxRevisions = 3
	}
	if cfg.Workflow.MaxTotalSubtasks == 0 {
		cfg.Workflow.MaxTotalSubtasks = 20
	}
	if cfg.Workflow.TopKRetrieval == 0 {
		cfg.Workflow.TopKRetrieval = 5
	}
	if cfg.Workflow.StepTimeoutSecs == 0 {
		cfg.Workflow.StepTimeoutSecs = 120
	}
	if cfg.Workflow.RunTimeoutSecs == 0 {
		cfg.Workflow.RunTimeoutSecs = 600
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 100
	}
	if cfg.VectorStore.DefaultCollection == "" {
		cfg.VectorStore.DefaultCollection = "documents"
	}
	if cfg.VectorStore.CodeCollection == "" {
		cfg.VectorStore.CodeCollection = "code"
	}
	if cfg.StateStore.Backend == "" {
		cfg.StateStore.Backend = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Paths.ReportDir == "" {
		cfg.Paths.ReportDir = "./reports"
	}
	if cfg.Paths.LogDir == "" {
		cfg.Paths.LogDir = "./logs"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownSeconds == 0 {
		cfg.Server.ShutdownSeconds = 30
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAPIKeys parses "provider1=key1,provider2=key2" into a map.
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx > 0 {
			keys[part[:idx]] = part[idx+1:]
		}
	}
	return keys
}

func loadEnvFiles() {
	envFiles := []string{".env", ".env.local"}
	merged := make(map[string]string)

	for _, file := range envFiles {
		envMap, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			continue
		}
		for key, value := range envMap {
			merged[key] = value
		}
	}

	for key, value := range merged {
		current, exists := os.LookupEnv(key)
		if !exists || current == "" {
			_ = os.Setenv(key, value)
		}
	}
}
