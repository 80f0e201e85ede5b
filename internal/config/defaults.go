package config

import (
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/segment"
)

// DefaultThreshold is the similarity a sentence needs to count as aligned.
const DefaultThreshold = models.DefaultThreshold

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/awase/data/awase.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "http"
	}
	if cfg.Embedding.DefaultModel == "" {
		cfg.Embedding.DefaultModel = models.DefaultModel
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.ModelsDir == "" {
		cfg.Embedding.ModelsDir = "/usr/local/var/awase/data/models"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 60
	}
	if cfg.Comparison.MaxTextBytes == 0 {
		cfg.Comparison.MaxTextBytes = 1 << 20
	}
	if cfg.Segmentation.Languages == nil {
		cfg.Segmentation.Languages = append([]string(nil), segment.DefaultLanguages...)
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "deepseek-r1:latest"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 120
	}
	if cfg.Hub.BaseURL == "" {
		cfg.Hub.BaseURL = "https://huggingface.co"
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 400
	}
}
