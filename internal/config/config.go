package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	LogLevel   string           `yaml:"log_level,omitempty"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// ExtractionConfig controls steering-vector extraction.
type ExtractionConfig struct {
	Layers    []int         `yaml:"layers,omitempty"`
	PairLimit int           `yaml:"pair_limit,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	VectorDir string        `yaml:"vector_dir,omitempty"`
}

type EvaluationConfig struct {
	SampleSize   int           `yaml:"sample_size,omitempty"`
	MaxTokens    int           `yaml:"max_tokens,omitempty"`
	JudgeModel   string        `yaml:"judge_model,omitempty"`
	OutputFormat string        `yaml:"output_format,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Default returns a usable config when no file exists on disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

// LoadOrDefault loads the config file, falling back to defaults when the
// default path is absent. An explicit path that cannot be read is an error.
func LoadOrDefault(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == DefaultPath {
		if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
			return Default(), nil
		}
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "steer"
	}
	if cfg.Extraction.PairLimit <= 0 {
		cfg.Extraction.PairLimit = 200
	}
	if strings.TrimSpace(cfg.Extraction.VectorDir) == "" {
		cfg.Extraction.VectorDir = "data/vectors"
	}
	if cfg.Evaluation.MaxTokens <= 0 {
		cfg.Evaluation.MaxTokens = 256
	}
	if strings.TrimSpace(cfg.Evaluation.OutputFormat) == "" {
		cfg.Evaluation.OutputFormat = "table"
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}

	if v := strings.TrimSpace(os.Getenv("TOMSTEER_STEER_URL")); v != "" {
		p := cfg.LLM.Providers["steer"]
		p.BaseURL = v
		cfg.LLM.Providers["steer"] = p
	}

	if v := strings.TrimSpace(os.Getenv("TOMSTEER_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
}
