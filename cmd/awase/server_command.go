package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/server"
)

func newServerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// One server per database.
			if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
			lock := flock.New(cfg.Storage.DatabasePath + ".lock")
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another awase server is already using %s", cfg.Storage.DatabasePath)
			}
			defer func() { _ = lock.Unlock() }()

			sigCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			return ctx.withComponents(sigCtx, true, func(comps *components, logger *zap.Logger) error {
				logger.Info("config loaded",
					zap.String("config_path", ctx.configPath),
					zap.Bool("debug", ctx.debug()),
				)
				opts := []server.Option{server.WithPool(comps.Pool)}
				if comps.LLM != nil {
					opts = append(opts, server.WithLLM(comps.LLM))
				}
				if comps.Translator != nil {
					opts = append(opts, server.WithTranslator(comps.Translator))
				}
				srv := server.NewServer(comps.Comparator, comps.Registry, comps.Storage, cfg, logger, opts...)

				errCh := make(chan error, 1)
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
					close(errCh)
				}()

				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("server failed: %w", err)
					}
					return nil
				case <-sigCtx.Done():
				}

				logger.Info("Shutting down...")
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancelShutdown()
				return srv.Stop(shutdownCtx)
			})
		},
	}
}
