package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the conversation engine.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Generate  GenerateConfig  `yaml:"generate"`
	Memory    MemoryConfig    `yaml:"memory"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "deepseek", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // Override for self-hosted endpoints
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// IndexConfig holds index build configuration.
type IndexConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int     `yaml:"top_k"`
	MaxTopK   int     `yaml:"max_top_k"`
	MinScore  float64 `yaml:"min_score"` // Drop results below this score (0 = disabled)
	CacheSize int     `yaml:"cache_size"`
	CacheTTL  int     `yaml:"cache_ttl_seconds"`
}

// GenerateConfig holds generation backend configuration.
type GenerateConfig struct {
	Provider       string  `yaml:"provider"` // "openai", "deepseek", "ollama"
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	ContextBudget  int     `yaml:"context_budget"` // Prompt token budget
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// MemoryConfig holds conversation history configuration.
type MemoryConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "memory"
	Path   string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 100,
		},
		Index: IndexConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.*/**"},
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			MaxTopK:   20,
			MinScore:  0,
			CacheSize: 100,
			CacheTTL:  300,
		},
		Generate: GenerateConfig{
			Provider:       "ollama",
			Model:          "tinyllama",
			APIKeyEnv:      "OPENAI_API_KEY",
			Temperature:    0.1,
			MaxTokens:      512,
			ContextBudget:  4096,
			TimeoutSeconds: 60,
		},
		Memory: MemoryConfig{
			Driver: "sqlite",
			Path:   "", // Defaults to <data-dir>/history.db
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the vector index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".ragchat", "index.db")
}

// HistoryDBPath returns the path to the conversation history database.
func HistoryDBPath(dir string) string {
	return filepath.Join(dir, ".ragchat", "history.db")
}

// EnsureDataDir ensures the .ragchat directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragchat"), 0755)
}
