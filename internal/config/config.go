// Package config provides configuration loading and structs for awase.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AWASE_"

// Config holds all configuration for the application.
type Config struct {
	Debug        bool               `yaml:"debug"`
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Comparison   ComparisonConfig   `yaml:"comparison"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	LLM          LLMConfig          `yaml:"llm"`
	Translation  TranslationConfig  `yaml:"translation"`
	Hub          HubConfig          `yaml:"hub"`
	Watch        WatchConfig        `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and tunes the sentence embedding backend.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	DefaultModel   string `yaml:"default_model"`
	BaseURL        string `yaml:"base_url"`
	ModelsDir      string `yaml:"models_dir"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ComparisonConfig holds comparison defaults and limits.
type ComparisonConfig struct {
	// Threshold is a pointer so that an explicit 0 survives defaulting.
	Threshold    *float64 `yaml:"threshold"`
	MaxTextBytes int64    `yaml:"max_text_bytes"`
}

// ThresholdOrDefault returns the configured threshold, or 0.75 when unset.
func (c *ComparisonConfig) ThresholdOrDefault() float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	return DefaultThreshold
}

// SegmentationConfig holds sentence splitter settings.
type SegmentationConfig struct {
	AbbreviationsDir string   `yaml:"abbreviations_dir"`
	Languages        []string `yaml:"languages"`
}

// LLMConfig holds the generative comparison settings.
type LLMConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// TranslationConfig enables translation through the LLM server. Model is
// used when no translation model is selected; empty means llm.model.
type TranslationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// HubConfig holds the model hub settings.
type HubConfig struct {
	BaseURL string `yaml:"base_url"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths and finally applies AWASE_* environment overrides (including those
// from a .env file in the working directory).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelsDir = expandPath(cfg.Embedding.ModelsDir, configDir)
	if cfg.Segmentation.AbbreviationsDir != "" {
		cfg.Segmentation.AbbreviationsDir = expandPath(cfg.Segmentation.AbbreviationsDir, configDir)
	}

	_ = godotenv.Load()
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault returns the defaults with AWASE_* environment overrides applied,
// for when no config file exists. A .env file in the working directory is
// honoured as in Load.
func LoadDefault() (*Config, error) {
	cfg := Default()
	_ = godotenv.Load()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied, for when no file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Validate rejects values that would break comparisons at run time.
func (c *Config) Validate() error {
	if t := c.Comparison.Threshold; t != nil && !validThreshold(*t) {
		return fmt.Errorf("invalid config: comparison.threshold must be within [0, 1], got %v", *t)
	}
	if c.Comparison.MaxTextBytes < 0 {
		return fmt.Errorf("invalid config: comparison.max_text_bytes must not be negative")
	}
	return nil
}

func validThreshold(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

// Save writes the config to path. Used by "awase init".
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with AWASE_* environment variables. Malformed numbers
// and booleans are errors.
func ApplyEnv(cfg *Config) error {
	var errs []string
	setString := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := lookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, EnvPrefix+key)
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, EnvPrefix+key)
				return
			}
			*dst = b
		}
	}

	setBool("DEBUG", &cfg.Debug)
	setString("SERVER_HOST", &cfg.Server.Host)
	setInt("SERVER_PORT", &cfg.Server.Port)
	setString("DATABASE_PATH", &cfg.Storage.DatabasePath)
	setString("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	setString("EMBEDDING_MODEL", &cfg.Embedding.DefaultModel)
	setString("EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	setString("MODELS_DIR", &cfg.Embedding.ModelsDir)
	setBool("LLM_ENABLED", &cfg.LLM.Enabled)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_MODEL", &cfg.LLM.Model)
	setBool("TRANSLATION_ENABLED", &cfg.Translation.Enabled)
	setString("TRANSLATION_MODEL", &cfg.Translation.Model)
	setString("HUB_URL", &cfg.Hub.BaseURL)
	if v, ok := lookupEnv("THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !validThreshold(f) {
			errs = append(errs, EnvPrefix+"THRESHOLD")
		} else {
			cfg.Comparison.Threshold = &f
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, ", "))
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
