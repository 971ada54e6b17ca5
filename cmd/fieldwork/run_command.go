package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fieldwork/internal/daemon"
	"fieldwork/internal/logging"
	"fieldwork/internal/store"
	"fieldwork/internal/syncer"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the collector daemon in the foreground",
		Long:  "Runs the background collector: probes destination connectivity on a cadence and drains pending packets while online. Stops on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st := store.Open(cfg, logger)
			uploader := syncer.NewUploader(cfg)
			coordinator := syncer.NewCoordinator(st, uploader, logger)

			d, err := daemon.New(cfg, st, coordinator, uploader, logger)
			if err != nil {
				st.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("collector shutting down")
			return nil
		},
	}
}
