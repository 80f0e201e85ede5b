package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
)

type statusResponse struct {
	Models         int64                `json:"models"`
	Comparisons    int64                `json:"comparisons"`
	SelectedModel  string               `json:"selected_model,omitempty"`
	LoadedModels   []string             `json:"loaded_models,omitempty"`
	DiskUsageBytes *int64               `json:"disk_usage_bytes,omitempty"`
	Config         statusConfigResponse `json:"config"`
}

type statusConfigResponse struct {
	EmbeddingProvider  string   `json:"embedding_provider"`
	DefaultModel       string   `json:"default_model"`
	Threshold          float64  `json:"threshold"`
	MaxTextBytes       int64    `json:"max_text_bytes"`
	Languages          []string `json:"languages"`
	DatabasePath       string   `json:"database_path"`
	LLMEnabled         bool     `json:"llm_enabled"`
	LLMModel           string   `json:"llm_model,omitempty"`
	TranslationEnabled bool     `json:"translation_enabled"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var serverURL, format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registry, history and storage status",
		Long: `Show registry, history and storage status.

With --server the status is read from a running awase server; otherwise the
database is opened directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown output format %q; use text or json", format)
			}
			var status *statusResponse
			if serverURL != "" {
				s, err := statusViaHTTP(serverURL)
				if err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
				status = s
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				err = ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
					modelCount, err := comps.Storage.CountModels(cmd.Context())
					if err != nil {
						return fmt.Errorf("count models failed: %w", err)
					}
					comparisonCount, err := comps.Storage.CountComparisons(cmd.Context())
					if err != nil {
						return fmt.Errorf("count comparisons failed: %w", err)
					}
					status = &statusResponse{
						Models:        modelCount,
						Comparisons:   comparisonCount,
						SelectedModel: comps.Registry.Selected(models.KindComparison),
						Config: statusConfigResponse{
							EmbeddingProvider:  cfg.Embedding.Provider,
							DefaultModel:       cfg.Embedding.DefaultModel,
							Threshold:          comps.Comparator.DefaultThreshold(),
							MaxTextBytes:       cfg.Comparison.MaxTextBytes,
							Languages:          cfg.Segmentation.Languages,
							DatabasePath:       cfg.Storage.DatabasePath,
							LLMEnabled:         cfg.LLM.Enabled,
							TranslationEnabled: cfg.Translation.Enabled,
						},
					}
					if cfg.LLM.Enabled {
						status.Config.LLMModel = cfg.LLM.Model
					}
					if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
						status.DiskUsageBytes = &diskBytes
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, status)
			}
			writeStatusText(out, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL, e.g. http://localhost:8080 (empty = open the database directly)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text or json")
	return cmd
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "models:             %d   # registered comparison and translation models\n", status.Models)
	fmt.Fprintf(w, "comparisons:        %d   # recorded comparisons\n", status.Comparisons)
	if status.SelectedModel != "" {
		fmt.Fprintf(w, "selected_model:     %s\n", status.SelectedModel)
	}
	if len(status.LoadedModels) > 0 {
		fmt.Fprintf(w, "loaded_models:      %s\n", strings.Join(status.LoadedModels, ", "))
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database on disk\n", *status.DiskUsageBytes)
	}
	c := status.Config
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "embedding_provider: %s\n", c.EmbeddingProvider)
	fmt.Fprintf(w, "default_model:      %s\n", c.DefaultModel)
	fmt.Fprintf(w, "threshold:          %.2f\n", c.Threshold)
	if c.MaxTextBytes > 0 {
		fmt.Fprintf(w, "max_text_bytes:     %d\n", c.MaxTextBytes)
	}
	if len(c.Languages) > 0 {
		fmt.Fprintf(w, "languages:          %s\n", strings.Join(c.Languages, " "))
	}
	if c.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
	}
	fmt.Fprintf(w, "llm_enabled:        %t\n", c.LLMEnabled)
	if c.LLMModel != "" {
		fmt.Fprintf(w, "llm_model:          %s\n", c.LLMModel)
	}
	fmt.Fprintf(w, "translation_enabled: %t\n", c.TranslationEnabled)
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}
