package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fieldwork/internal/config"
	"fieldwork/internal/store"
	"fieldwork/internal/survey"
)

func newPacketsCommand(ctx *commandContext) *cobra.Command {
	packetsCmd := &cobra.Command{
		Use:   "packets",
		Short: "Inspect and manage stored survey packets",
	}

	packetsCmd.AddCommand(newPacketsListCommand(ctx))
	packetsCmd.AddCommand(newPacketsShowCommand(ctx))
	packetsCmd.AddCommand(newPacketsClearCommand(ctx))

	return packetsCmd
}

func newPacketsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				var packets []*survey.Packet
				if pendingOnly {
					packets = st.ListPending(cmd.Context())
				} else {
					listed, err := st.List(cmd.Context())
					if err != nil {
						return err
					}
					packets = listed
				}

				if jsonOutput {
					return writeJSON(cmd, packets)
				}

				if len(packets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No packets stored")
					return nil
				}

				rows := make([][]string, 0, len(packets))
				for _, packet := range packets {
					rows = append(rows, []string{
						packet.SurveyID,
						string(packet.SyncStatus),
						strconv.Itoa(packet.AnswerCount()),
						formatTime(packet.CompletedAt),
						formatTimePtr(packet.SyncedAt),
					})
				}
				headers := []string{"Survey ID", "Sync", "Answers", "Completed", "Synced At"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit packets as JSON")
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only packets awaiting sync")
	return cmd
}

func newPacketsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <survey-id>",
		Short: "Show one packet in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				packet, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if packet == nil {
					return fmt.Errorf("no packet stored for survey %s", args[0])
				}
				return writeJSON(cmd, packet)
			})
		},
	}
}

func newPacketsClearCommand(ctx *commandContext) *cobra.Command {
	var syncedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored packets",
		Long:  "Removes packets from the local store. By default every packet is removed; --synced keeps pending packets and removes only those already uploaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				var removed int64
				var err error
				if syncedOnly {
					removed, err = st.ClearSynced(cmd.Context())
				} else {
					removed, err = st.ClearAll(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d packet(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&syncedOnly, "synced", false, "Only remove packets that already synced")
	return cmd
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04:05")
}

func formatTimePtr(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatTime(*value)
}
