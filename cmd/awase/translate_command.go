package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/cli"
	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/extract"
	"github.com/hyperjump/awase/internal/models"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		text   string
		to     string
		model  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "translate [FILE]",
		Short: "Translate a text with the LLM server",
		Long: `Translate a file, standard input ("-") or --text into the --to language.

The selected translation model is used unless --model is given; with none
selected, translation.model and then llm.model from the config apply.`,
		Example: `  awase translate article.en.md --to de > article.mt.de.txt
  awase translate --text "Cats purr." --to fr -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := cli.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := readTranslateInput(cmd, cfg, text, args)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, logger *zap.Logger) error {
				tr := comps.Translator
				if tr == nil {
					tr = newTranslator(cfg, comps.Registry, logger)
				}
				result := tr.Translate(cmd.Context(), models.TranslateRequest{Text: input, TargetLanguage: to, Model: model})
				if err := cli.WriteTranslation(cmd.OutOrStdout(), result, outFormat); err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("translation failed: %s", result.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to translate (instead of a file)")
	cmd.Flags().StringVar(&to, "to", "", "Target language code (e.g. de)")
	cmd.Flags().StringVar(&model, "model", "", "Translation model (default: the selected translation model)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func readTranslateInput(cmd *cobra.Command, cfg *config.Config, text string, args []string) (string, error) {
	if cmd.Flags().Changed("text") {
		if len(args) > 0 {
			return "", fmt.Errorf("unexpected argument %q with --text", args[0])
		}
		return text, nil
	}
	if len(args) == 0 {
		return "", errors.New("missing input: pass a file, \"-\" or --text")
	}
	ex := extract.NewExtractor(extract.WithMaxBytes(cfg.Comparison.MaxTextBytes))
	if args[0] == "-" {
		input, err := ex.Read(cmd.InOrStdin(), "")
		if err != nil {
			return "", fmt.Errorf("read standard input: %w", err)
		}
		return input, nil
	}
	input, err := ex.Extract(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return input, nil
}
