package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cardpress/internal/devserver"
	"cardpress/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}

			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "devserver.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire server lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another development backend is already running from %s", cfg.Paths.DataDir)
			}
			defer lock.Unlock()

			store, err := devserver.OpenStore(cfg.Paths.DataDir)
			if err != nil {
				return fmt.Errorf("open server store: %w", err)
			}
			defer store.Close()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "Development backend listening on %s\n", bind)
			return devserver.New(store, logger).Serve(signalCtx, bind)
		},
	}

	cmd.Flags().StringVarP(&bind, "bind", "b", "", "Listen address (defaults to server.bind)")
	return cmd
}
