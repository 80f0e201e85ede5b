package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/cli"
	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/extract"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/watcher"
)

// compareOptions are the flags shared by compare and watch.
type compareOptions struct {
	textA     string
	textB     string
	source    string
	target    string
	model     string
	threshold float64
	format    string
	noSave    bool
	llm       bool
	translate bool
}

func (o *compareOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.source, "source", "", "Language code of the original text (e.g. en)")
	flags.StringVar(&o.target, "target", "", "Language code of the counterpart text (e.g. de)")
	flags.StringVar(&o.model, "model", "", "Embedding model (default: the selected comparison model)")
	flags.Float64Var(&o.threshold, "threshold", 0, "Minimum cosine similarity for a sentence to count as present (default from config, 0.75)")
	flags.StringVarP(&o.format, "format", "o", "text", "Output format: text, compact or json")
	flags.BoolVar(&o.noSave, "no-save", false, "Do not record the comparison in the history")
	flags.BoolVar(&o.translate, "translate", false, "Translate the original into the --target language before comparing")
}

// request builds a CompareRequest, leaving Threshold nil unless the flag was given.
func (o *compareOptions) request(cmd *cobra.Command, original, counterpart string) models.CompareRequest {
	req := models.CompareRequest{
		OriginalText:    original,
		CounterpartText: counterpart,
		SourceLanguage:  o.source,
		TargetLanguage:  o.target,
		Model:           o.model,
	}
	if cmd.Flags().Changed("threshold") {
		t := o.threshold
		req.Threshold = &t
	}
	return req
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare [ORIGINAL COUNTERPART]",
		Short: "Compare two texts sentence by sentence",
		Long: `Compare two texts sentence by sentence and report the sentences of the
original missing from the counterpart and the sentences of the counterpart
not found in the original.

Inputs are files (` + formatList() + `; anything else is read as plain text),
"-" for standard input, or literal texts via --text-a and --text-b.`,
		Example: `  awase compare article.en.md article.de.md --source en --target de
  awase compare --text-a "Cats purr. Dogs bark." --text-b "Cats purr."
  cat translation.txt | awase compare original.docx - -o json
  awase compare a.txt b.txt --llm`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(opts.format)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			original, counterpart, err := readInputs(cmd, cfg, opts, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			return ctx.withComponents(cmd.Context(), false, func(comps *components, logger *zap.Logger) error {
				if opts.llm {
					llm := comps.LLM
					if llm == nil {
						llm = newLLMClient(cfg, logger)
					}
					result := llm.Compare(cmd.Context(), original, counterpart)
					if err := cli.WriteLLMComparison(out, result, format); err != nil {
						return err
					}
					if !result.Success {
						return fmt.Errorf("llm comparison failed: %s", result.Error)
					}
					return nil
				}

				result, err := runCompare(cmd.Context(), cfg, comps, logger, opts, opts.request(cmd, original, counterpart))
				if err != nil {
					return err
				}
				return cli.WriteComparison(out, result, format, cli.ShouldColorize(out))
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.textA, "text-a", "", "Original text (instead of a file)")
	cmd.Flags().StringVar(&opts.textB, "text-b", "", "Counterpart text (instead of a file)")
	cmd.Flags().BoolVar(&opts.llm, "llm", false, "Compare with the generative LLM instead of sentence embeddings")
	return cmd
}

// runCompare submits req and records it unless --no-save was given. With
// --translate the original is first translated into the target language and
// the comparison runs on the translation.
func runCompare(ctx context.Context, cfg *config.Config, comps *components, logger *zap.Logger, opts *compareOptions, req models.CompareRequest) (*models.ComparisonResult, error) {
	if opts.translate {
		translated, err := translateOriginal(ctx, cfg, comps, logger, req)
		if err != nil {
			return nil, err
		}
		req.OriginalText = translated
		req.SourceLanguage = req.TargetLanguage
	}
	var rec compare.Recorder
	if !opts.noSave {
		rec = comps.Storage
	}
	result, err := comps.Comparator.Submit(ctx, req, rec)
	if errors.Is(err, compare.ErrModelNotRegistered) {
		return nil, fmt.Errorf("%w; see \"awase models list\"", err)
	}
	return result, err
}

func translateOriginal(ctx context.Context, cfg *config.Config, comps *components, logger *zap.Logger, req models.CompareRequest) (string, error) {
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return "", errors.New("--translate needs the --target language")
	}
	tr := comps.Translator
	if tr == nil {
		tr = newTranslator(cfg, comps.Registry, logger)
	}
	result := tr.Translate(ctx, models.TranslateRequest{Text: req.OriginalText, TargetLanguage: req.TargetLanguage})
	if !result.Success {
		return "", fmt.Errorf("translation failed: %s", result.Error)
	}
	return result.Text, nil
}

// readInputs resolves the two texts from --text-a/--text-b and positional arguments.
// Literal flags take precedence; remaining sides are filled from args in order.
func readInputs(cmd *cobra.Command, cfg *config.Config, opts *compareOptions, args []string) (string, string, error) {
	ex := extract.NewExtractor(extract.WithMaxBytes(cfg.Comparison.MaxTextBytes))
	sides := []struct {
		flag  string
		value *string
	}{
		{"text-a", &opts.textA},
		{"text-b", &opts.textB},
	}
	texts := make([]string, 2)
	next := 0
	stdinUsed := false
	for i, side := range sides {
		if cmd.Flags().Changed(side.flag) {
			texts[i] = *side.value
			continue
		}
		if next >= len(args) {
			return "", "", fmt.Errorf("missing input for the %s text: pass a file, \"-\" or --%s", sideName(i), side.flag)
		}
		arg := args[next]
		next++
		if arg == "-" {
			if stdinUsed {
				return "", "", errors.New("only one input can be read from standard input")
			}
			stdinUsed = true
			text, err := ex.Read(cmd.InOrStdin(), "")
			if err != nil {
				return "", "", fmt.Errorf("read standard input: %w", err)
			}
			texts[i] = text
			continue
		}
		text, err := ex.Extract(arg)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", arg, err)
		}
		texts[i] = text
	}
	if next < len(args) {
		return "", "", fmt.Errorf("unexpected argument %q", args[next])
	}
	return texts[0], texts[1], nil
}

func sideName(i int) string {
	if i == 0 {
		return "original"
	}
	return "counterpart"
}

func formatList() string {
	return strings.Join(extract.Formats(), ", ")
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "watch ORIGINAL COUNTERPART",
		Short: "Re-run a comparison whenever either file changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(opts.format)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths := make([]string, len(args))
			for i, a := range args {
				if a == "-" {
					return errors.New("watch needs files, not standard input")
				}
				if paths[i], err = filepath.Abs(a); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			return ctx.withComponents(runCtx, true, func(comps *components, logger *zap.Logger) error {
				render := func() {
					original, counterpart, err := readInputs(cmd, cfg, opts, paths)
					if err != nil {
						logger.Warn("failed to read inputs", zap.Error(err))
						return
					}
					result, err := runCompare(runCtx, cfg, comps, logger, opts, opts.request(cmd, original, counterpart))
					if err != nil {
						logger.Warn("comparison rejected", zap.Error(err))
						return
					}
					fmt.Fprintf(out, "\n== %s ==\n", time.Now().Format("15:04:05"))
					if err := cli.WriteComparison(out, result, format, cli.ShouldColorize(out)); err != nil {
						logger.Warn("failed to render comparison", zap.Error(err))
					}
				}

				w, err := watcher.NewWatcher(paths, func(path string) {
					logger.Debug("input changed", zap.String("path", path))
					render()
				},
					watcher.WithLogger(logger),
					watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond),
				)
				if err != nil {
					return err
				}
				if err := w.Start(runCtx); err != nil {
					return err
				}
				defer w.Stop()

				render()
				<-runCtx.Done()
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
