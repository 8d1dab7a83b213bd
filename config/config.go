package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the course search tool.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CatalogConfig describes where the course list comes from.
type CatalogConfig struct {
	Source        string        `yaml:"source"` // "scrape", "file"
	URL           string        `yaml:"url"`
	BaseURL       string        `yaml:"base_url"` // Used to resolve relative course links
	Files         []string      `yaml:"files"`    // Glob patterns for the file source
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	CardSelector  string        `yaml:"card_selector"`
	ImageSelector string        `yaml:"image_selector"`
	LinkSelector  string        `yaml:"link_selector"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"` // "openai", "ollama", "hash"
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKeyEnv         string        `yaml:"api_key_env"` // Environment variable for API key
	Dimension         int           `yaml:"dimension"`   // Only used by the hash provider
	BatchSize         int           `yaml:"batch_size"`
	Workers           int           `yaml:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Timeout           time.Duration `yaml:"timeout"`
	CachePath         string        `yaml:"cache_path"` // Empty disables the on-disk cache
}

// RankingConfig holds search configuration.
type RankingConfig struct {
	Strategy  string        `yaml:"strategy"` // "vector", "prompt", "lexical"
	TopK      int           `yaml:"top_k"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LLMConfig configures the hosted model used by the prompt strategy.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // "groq", "openai", "ollama"
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	MinRelevance      float64 `yaml:"min_relevance"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Empty logs to stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:        "scrape",
			URL:           "https://courses.analyticsvidhya.com/pages/all-free-courses",
			BaseURL:       "https://courses.analyticsvidhya.com",
			Timeout:       30 * time.Second,
			UserAgent:     "coursesearch/0.1",
			CardSelector:  "header.course-card__img-container",
			ImageSelector: "img.course-card__img",
			LinkSelector:  "a[href]",
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 512,
			BatchSize: 32,
			Workers:   4,
			Timeout:   60 * time.Second,
		},
		Ranking: RankingConfig{
			Strategy: "vector",
			TopK:     5,
			Timeout:  30 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:     "groq",
			Model:        "llama-3.1-8b-instant",
			APIKeyEnv:    "GROQ_API_KEY",
			Temperature:  0.2,
			MaxTokens:    1000,
			MinRelevance: 0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "scrape":
		if c.Catalog.URL == "" {
			return errors.New("config: catalog.url is required for the scrape source")
		}
	case "file":
		if len(c.Catalog.Files) == 0 {
			return errors.New("config: catalog.files is required for the file source")
		}
	default:
		return fmt.Errorf("config: unknown catalog.source %q", c.Catalog.Source)
	}

	switch c.Embedding.Provider {
	case "hash":
		if c.Embedding.Dimension <= 0 {
			return errors.New("config: embedding.dimension must be positive")
		}
	case "openai", "ollama":
		if c.Embedding.Model == "" {
			return errors.New("config: embedding.model is required")
		}
	default:
		return fmt.Errorf("config: unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return errors.New("config: embedding.batch_size must be positive")
	}
	if c.Embedding.Workers <= 0 {
		return errors.New("config: embedding.workers must be positive")
	}

	if c.Ranking.TopK <= 0 {
		return errors.New("config: ranking.top_k must be positive")
	}

	return c.ValidateStrategy(c.Ranking.Strategy)
}

// ValidateStrategy checks the settings a ranking strategy depends on. The CLI
// calls it again when --strategy overrides the configured one.
func (c *Config) ValidateStrategy(strategy string) error {
	switch strategy {
	case "vector", "lexical":
		return nil
	case "prompt":
	default:
		return fmt.Errorf("config: unknown ranking.strategy %q", strategy)
	}

	switch c.LLM.Provider {
	case "groq", "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("config: llm.model is required")
	}
	if c.LLM.MinRelevance < 0 || c.LLM.MinRelevance > 1 {
		return errors.New("config: llm.min_relevance must be between 0 and 1")
	}
	return nil
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

// LoadFromDir loads configuration from a directory (looks for coursesearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "coursesearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".coursesearch", "config.yaml")
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

// StateDir returns the directory holding local state such as the embedding cache.
func StateDir(dir string) string {
	return filepath.Join(dir, ".coursesearch")
}

// EnsureStateDir ensures the .coursesearch directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(StateDir(dir), 0755)
}
