package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcppkg "github.com/hyperjump/awase/internal/mcp"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server (stdio mode)",
		Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio and exposes the compare_texts and
list_models tools, plus translate_text when translation is enabled. Logs go
to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			return ctx.withComponents(sigCtx, true, func(comps *components, logger *zap.Logger) error {
				opts := []mcppkg.ServerOption{
					mcppkg.WithRegistry(comps.Registry),
					mcppkg.WithStorage(comps.Storage),
					mcppkg.WithLogger(logger),
				}
				if comps.Translator != nil {
					opts = append(opts, mcppkg.WithTranslator(comps.Translator))
				}
				server, err := mcppkg.NewServer(comps.Comparator, version, opts...)
				if err != nil {
					return err
				}
				return server.Serve(sigCtx)
			})
		},
	}
}
