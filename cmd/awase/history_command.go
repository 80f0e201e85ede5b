package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/cli"
	"github.com/hyperjump/awase/internal/storage"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded comparisons",
	}

	var offset, limit int
	var listFormat string
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded comparisons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseOutputFormat(listFormat)
			if err != nil {
				return err
			}
			if offset < 0 || limit <= 0 {
				return errors.New("offset must be >= 0 and limit > 0")
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				records, err := comps.Storage.ListComparisons(cmd.Context(), offset, limit)
				if err != nil {
					return err
				}
				return cli.WriteHistory(cmd.OutOrStdout(), records, f)
			})
		},
	}
	list.Flags().IntVar(&offset, "offset", 0, "Number of records to skip")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of records")
	list.Flags().StringVarP(&listFormat, "format", "o", "text", "Output format: text, compact or json")

	var showFormat string
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one recorded comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseOutputFormat(showFormat)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				record, err := comps.Storage.GetComparison(cmd.Context(), args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("comparison %s not found", args[0])
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if f == cli.OutputJSON {
					return writeJSON(out, record)
				}
				if record.Result == nil {
					return fmt.Errorf("comparison %s has no stored result", args[0])
				}
				return cli.WriteComparison(out, record.Result, f, cli.ShouldColorize(out))
			})
		},
	}
	show.Flags().StringVarP(&showFormat, "format", "o", "text", "Output format: text, compact or json")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a recorded comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), false, func(comps *components, _ *zap.Logger) error {
				err := comps.Storage.DeleteComparison(cmd.Context(), args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("comparison %s not found", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted comparison %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, deleteCmd)
	return cmd
}
