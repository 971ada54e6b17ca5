package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fieldwork/internal/config"
	"fieldwork/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store and destination status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				coordinator, uploader := newCoordinator(cfg, st, logger)

				probeCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Sync.ProbeTimeout)*time.Second)
				probeErr := uploader.Probe(probeCtx)
				cancel()
				coordinator.SetOnline(probeErr == nil)

				status := coordinator.Status(cmd.Context())

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"backend":     st.BackendName(),
						"destination": cfg.Sync.Destination,
						"uploader":    uploader.Name(),
						"online":      status.IsOnline,
						"pending":     status.PendingCount,
						"synced":      status.SyncedCount,
						"total":       status.TotalCount,
					})
				}

				rows := [][]string{
					{"Backend", st.BackendName()},
					{"Destination", cfg.Sync.Destination},
					{"Uploader", uploader.Name()},
					{"Online", yesNo(status.IsOnline)},
					{"Pending packets", strconv.Itoa(status.PendingCount)},
					{"Synced packets", strconv.Itoa(status.SyncedCount)},
					{"Total packets", strconv.Itoa(status.TotalCount)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
				if probeErr != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Destination unreachable: %v\n", probeErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}
