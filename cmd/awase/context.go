package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/embedding"
	"github.com/hyperjump/awase/internal/llmcompare"
	"github.com/hyperjump/awase/internal/registry"
	"github.com/hyperjump/awase/internal/segment"
	"github.com/hyperjump/awase/internal/storage"
	"github.com/hyperjump/awase/internal/translate"
	"github.com/hyperjump/awase/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/awase/config.yaml"

type commandContext struct {
	configFlag *string
	debugFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configPath, c.configErr = loadConfig(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) debug() bool {
	if c.debugFlag != nil && *c.debugFlag {
		return true
	}
	return c.config != nil && c.config.Debug
}

// logger returns the full logger for long-running commands and a quiet one
// for commands whose output is the result itself.
func (c *commandContext) logger(longRunning bool) (*zap.Logger, error) {
	if longRunning || c.debug() {
		return utils.NewLogger(c.debug())
	}
	return utils.NewQuietLogger()
}

// loadConfig loads config from path. Without an explicit path it prefers
// config.yaml in the current directory, then the system config, and falls back
// to defaults when neither exists. Returns the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	candidates := []string{defaultConfigPath}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append([]string{filepath.Join(cwd, "config.yaml")}, candidates...)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := config.Load(candidate)
			if err != nil {
				return nil, "", err
			}
			return cfg, candidate, nil
		}
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// components holds everything a comparison needs.
type components struct {
	Storage    *storage.SQLiteStorage
	Registry   *registry.Registry
	Pool       *embedding.Pool
	Comparator *compare.Comparator
	LLM        *llmcompare.Client
	Translator *translate.Translator
}

func (c *components) Close() {
	if c.Pool != nil {
		_ = c.Pool.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	reg, err := registry.New(ctx, store,
		registry.WithLogger(logger),
		registry.WithDefaultModel(cfg.Embedding.DefaultModel),
		registry.WithHubChecker(registry.NewHTTPHub(cfg.Hub.BaseURL, 30*time.Second)),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load model registry: %w", err)
	}

	load, err := embedding.NewLoader(embedding.LoaderConfig{
		Backend:        cfg.Embedding.Provider,
		BaseURL:        cfg.Embedding.BaseURL,
		ModelsDir:      cfg.Embedding.ModelsDir,
		Dimensions:     cfg.Embedding.Dimensions,
		MaxTokens:      cfg.Embedding.MaxTokens,
		TimeoutSeconds: cfg.Embedding.TimeoutSeconds,
	}, reg.LocalPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedding: %w", err)
	}
	pool := embedding.NewPool(load,
		embedding.WithLogger(logger),
		embedding.WithCacheSize(cfg.Embedding.CacheSize),
	)

	segmenter := segment.NewProvider(
		segment.WithLogger(logger),
		segment.WithAbbreviationsDir(cfg.Segmentation.AbbreviationsDir),
		segment.WithLanguages(cfg.Segmentation.Languages...),
	)
	comparator := compare.New(segmenter, pool,
		compare.WithLogger(logger),
		compare.WithResolver(reg),
		compare.WithCatalog(reg),
		compare.WithDefaultThreshold(cfg.Comparison.ThresholdOrDefault()),
		compare.WithDefaultModel(cfg.Embedding.DefaultModel),
	)

	comps := &components{
		Storage:    store,
		Registry:   reg,
		Pool:       pool,
		Comparator: comparator,
	}
	if cfg.LLM.Enabled {
		comps.LLM = newLLMClient(cfg, logger)
	}
	if cfg.Translation.Enabled {
		comps.Translator = newTranslator(cfg, reg, logger)
	}
	logger.Debug("components initialized",
		zap.String("database", cfg.Storage.DatabasePath),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("llm_enabled", cfg.LLM.Enabled),
		zap.Bool("translation_enabled", cfg.Translation.Enabled),
	)
	return comps, nil
}

func newLLMClient(cfg *config.Config, logger *zap.Logger) *llmcompare.Client {
	return llmcompare.NewClient(llmcompare.Config{
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llmcompare.WithLogger(logger))
}

// newTranslator translates through the LLM server, preferring the selected
// translation model over translation.model.
func newTranslator(cfg *config.Config, reg *registry.Registry, logger *zap.Logger) *translate.Translator {
	return translate.New(newLLMClient(cfg, logger),
		translate.WithSelector(reg),
		translate.WithDefaultModel(cfg.Translation.Model),
		translate.WithLogger(logger),
	)
}

// withComponents runs fn with initialized components and a logger, closing both afterwards.
func (c *commandContext) withComponents(ctx context.Context, longRunning bool, fn func(*components, *zap.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(longRunning)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()
	return fn(comps, logger)
}
