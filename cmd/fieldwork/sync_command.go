package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"fieldwork/internal/config"
	"fieldwork/internal/store"
	"fieldwork/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upload all pending packets now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				coordinator, uploader := newCoordinator(cfg, st, logger)

				probeCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Sync.ProbeTimeout)*time.Second)
				probeErr := uploader.Probe(probeCtx)
				cancel()
				coordinator.SetOnline(probeErr == nil)

				result, err := coordinator.SyncAll(cmd.Context())
				if err != nil {
					if errors.Is(err, syncer.ErrOffline) {
						return fmt.Errorf("destination %s is unreachable: %w", cfg.Sync.Destination, probeErr)
					}
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				if result.Total == 0 {
					fmt.Fprintln(out, "Nothing to sync")
					return nil
				}

				rows := make([][]string, 0, len(result.Items))
				for _, item := range result.Items {
					outcome := "synced"
					if !item.Synced {
						outcome = item.Error
					}
					rows = append(rows, []string{item.SurveyID, item.Key, outcome})
				}
				fmt.Fprintln(out, renderTable([]string{"Survey ID", "Key", "Result"}, rows, nil))
				fmt.Fprintf(out, "Synced %d of %d packet(s)", result.Synced, result.Total)
				if result.Failed > 0 {
					fmt.Fprintf(out, "; %d failed and stay pending", result.Failed)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the sync result as JSON")
	return cmd
}
