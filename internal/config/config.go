package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings
type Config struct {
	// Analysis pipeline settings
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// API configuration
	API APIConfig `yaml:"api" mapstructure:"api"`
}

type AnalysisConfig struct {
	Workers       int           `yaml:"workers" mapstructure:"workers"`           // Concurrent analysis workers
	CallTimeout   time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"` // Per-request deadline
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`   // Retries on transient failures
	RetryBaseWait time.Duration `yaml:"retry_base_wait" mapstructure:"retry_base_wait"`
	ContextItems  int           `yaml:"context_items" mapstructure:"context_items"` // Max dependency summaries per prompt
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Directory string `yaml:"directory" mapstructure:"directory"`
}

type APIConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "openai" or "gemini"
	OpenAIKey         string  `yaml:"openai_key" mapstructure:"openai_key"`
	GeminiKey         string  `yaml:"gemini_key" mapstructure:"gemini_key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Analysis: AnalysisConfig{
			Workers:       4,
			CallTimeout:   60 * time.Second,
			MaxRetries:    3,
			RetryBaseWait: 500 * time.Millisecond,
			ContextItems:  8,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: filepath.Join(homeDir, ".codescribe", "cache"),
		},
		API: APIConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			RequestsPerSecond: 2,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
// A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("analysis", cfg.Analysis)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("api", cfg.API)

	v.SetEnvPrefix("CODESCRIBE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".codescribe")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codescribe"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	normalize(cfg)

	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed. API keys are blanked so secrets never land
// in the config file.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	redacted := *cfg
	redacted.API.OpenAIKey = ""
	redacted.API.GeminiKey = ""

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".codescribe", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.API.OpenAIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.API.GeminiKey = key
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.API.Provider = provider
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.API.Model = model
	}
	if workers := os.Getenv("CODESCRIBE_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Analysis.Workers = n
		}
	}
	if dir := os.Getenv("CODESCRIBE_CACHE_DIR"); dir != "" {
		cfg.Cache.Directory = dir
	}
}

// normalize clamps out-of-range values back to usable defaults.
func normalize(cfg *Config) {
	def := Default()
	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = def.Analysis.Workers
	}
	if cfg.Analysis.CallTimeout <= 0 {
		cfg.Analysis.CallTimeout = def.Analysis.CallTimeout
	}
	if cfg.Analysis.MaxRetries < 0 {
		cfg.Analysis.MaxRetries = def.Analysis.MaxRetries
	}
	if cfg.Analysis.RetryBaseWait <= 0 {
		cfg.Analysis.RetryBaseWait = def.Analysis.RetryBaseWait
	}
	if cfg.Analysis.ContextItems <= 0 {
		cfg.Analysis.ContextItems = def.Analysis.ContextItems
	}
	if cfg.API.RequestsPerSecond <= 0 {
		cfg.API.RequestsPerSecond = def.API.RequestsPerSecond
	}
}

// CachePath returns the bbolt database path under the cache directory,
// or "" when persistence is disabled.
func (c *Config) CachePath() string {
	if !c.Cache.Enabled || c.Cache.Directory == "" {
		return ""
	}
	return filepath.Join(c.Cache.Directory, "analysis.db")
}
