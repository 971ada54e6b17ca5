package store

import (
	"context"
	"time"

	"fieldwork/internal/survey"
)

// Stats aggregates packet counts per sync state.
type Stats struct {
	Total   int
	Pending int
	Synced  int
}

// Backend is the capability contract both storage media implement. The
// resilient Store front selects one at Open and callers never see which.
type Backend interface {
	// Save upserts a fully prepared packet keyed by SurveyID.
	Save(ctx context.Context, packet *survey.Packet) error
	// Get returns the packet for a survey id, or nil when absent.
	Get(ctx context.Context, surveyID string) (*survey.Packet, error)
	// List returns every packet ordered by creation time.
	List(ctx context.Context) ([]*survey.Packet, error)
	// ListBySyncStatus returns packets matching a sync state.
	ListBySyncStatus(ctx context.Context, status survey.SyncStatus) ([]*survey.Packet, error)
	// MarkSynced flips a packet to synced, stamping syncedAt. Returns
	// false when no packet exists for the id.
	MarkSynced(ctx context.Context, surveyID string, at time.Time) (bool, error)
	// Stats counts packets per sync state.
	Stats(ctx context.Context) (Stats, error)
	// ClearAll removes every packet and reports how many were removed.
	ClearAll(ctx context.Context) (int64, error)
	// ClearSynced removes only synced packets.
	ClearSynced(ctx context.Context) (int64, error)
	// Name identifies the medium for logs and status output.
	Name() string
	Close() error
}
