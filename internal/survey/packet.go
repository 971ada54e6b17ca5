package survey

import (
	"strings"
	"time"
)

// SyncStatus represents the sync lifecycle of a packet.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Status represents the completion state of a packet. Only completed
// surveys are persisted, so the enum has a single member today.
type Status string

// StatusCompleted marks a packet assembled from a finished survey attempt.
const StatusCompleted Status = "completed"

var syncStatusSet = map[SyncStatus]struct{}{
	SyncPending: {},
	SyncSynced:  {},
}

// ParseSyncStatus converts a string into a known SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, bool) {
	normalized := SyncStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := syncStatusSet[normalized]
	return normalized, ok
}

// Packet is one completed survey attempt. Writes are upserts keyed by
// SurveyID; at most one packet exists per survey in the store.
type Packet struct {
	SurveyID     string              `json:"survey_id"`
	Answers      map[string]any      `json:"answers"`
	Notes        string              `json:"notes,omitempty"`
	Verification *VerificationRecord `json:"verification,omitempty"`
	CompletedAt  time.Time           `json:"completed_at"`
	Status       Status              `json:"status"`
	SyncStatus   SyncStatus          `json:"sync_status"`
	SyncedAt     *time.Time          `json:"synced_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// CloneShallow copies the packet struct and its answer map so in-memory
// backends never hand out aliased state. Verification data is shared; it
// is immutable once a packet is assembled.
func (p *Packet) CloneShallow() *Packet {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Answers != nil {
		cp.Answers = make(map[string]any, len(p.Answers))
		for k, v := range p.Answers {
			cp.Answers[k] = v
		}
	}
	if p.SyncedAt != nil {
		t := *p.SyncedAt
		cp.SyncedAt = &t
	}
	return &cp
}

// IsPending reports whether the packet still awaits upload.
func (p *Packet) IsPending() bool {
	return p != nil && p.SyncStatus == SyncPending
}

// AnswerCount returns the number of answered questions.
func (p *Packet) AnswerCount() int {
	if p == nil {
		return 0
	}
	return len(p.Answers)
}
