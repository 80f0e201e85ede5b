package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/cli"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the comparison and translation model registry",
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", "comparison", "Model kind: comparison or translation")

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindFlag(kind)
			if err != nil {
				return err
			}
			f, err := cli.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				return cli.WriteModels(cmd.OutOrStdout(), comps.Registry.List(k), comps.Registry.Selected(k), f)
			})
		},
	}
	list.Flags().StringVarP(&format, "format", "o", "text", "Output format: text, compact or json")

	selected := &cobra.Command{
		Use:   "selected",
		Short: "Show the selected model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindFlag(kind)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				name := comps.Registry.Selected(k)
				if name == "" {
					return fmt.Errorf("no %s model selected", k)
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	sel := &cobra.Command{
		Use:   "select NAME",
		Short: "Select the model used when a comparison names none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindFlag(kind)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				if err := comps.Registry.Select(cmd.Context(), k, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s model %s\n", k, args[0])
				return nil
			})
		},
	}

	var fromHub bool
	imp := &cobra.Command{
		Use:   "import MODEL",
		Short: "Register a model from the hub or a local path",
		Example: `  awase models import sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2 --hub
  awase models import /models/my-encoder`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindFlag(kind)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				entry, err := comps.Registry.Import(cmd.Context(), k, args[0], fromHub)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s model %s\n", k, entry.Name)
				return nil
			})
		},
	}
	imp.Flags().BoolVar(&fromHub, "hub", false, "Verify the model id on the model hub instead of a local path")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a model from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kindFlag(kind)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				if err := comps.Registry.Delete(cmd.Context(), k, args[0]); err != nil {
					return err
				}
				_ = comps.Pool.Evict(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s model %s\n", k, args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, selected, sel, imp, del)
	return cmd
}
