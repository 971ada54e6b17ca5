package survey_test

import (
	"testing"
	"time"

	"fieldwork/internal/survey"
)

func TestParseSyncStatus(t *testing.T) {
	cases := []struct {
		input string
		want  survey.SyncStatus
		ok    bool
	}{
		{"pending", survey.SyncPending, true},
		{"synced", survey.SyncSynced, true},
		{"  Pending ", survey.SyncPending, true},
		{"SYNCED", survey.SyncSynced, true},
		{"", "", false},
		{"uploaded", "", false},
	}
	for _, tc := range cases {
		got, ok := survey.ParseSyncStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseSyncStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseSyncStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCloneShallowIsolatesAnswers(t *testing.T) {
	syncedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	original := &survey.Packet{
		SurveyID:   "survey-1",
		Answers:    map[string]any{"q1": "yes"},
		SyncStatus: survey.SyncSynced,
		SyncedAt:   &syncedAt,
	}

	clone := original.CloneShallow()
	clone.Answers["q2"] = "no"
	*clone.SyncedAt = syncedAt.Add(time.Hour)

	if len(original.Answers) != 1 {
		t.Fatalf("clone mutation leaked into original answers: %#v", original.Answers)
	}
	if !original.SyncedAt.Equal(syncedAt) {
		t.Fatalf("clone mutation leaked into original SyncedAt: %v", original.SyncedAt)
	}
}

func TestIsPending(t *testing.T) {
	pending := &survey.Packet{SyncStatus: survey.SyncPending}
	synced := &survey.Packet{SyncStatus: survey.SyncSynced}
	if !pending.IsPending() {
		t.Fatal("pending packet should report pending")
	}
	if synced.IsPending() {
		t.Fatal("synced packet should not report pending")
	}
	var nilPacket *survey.Packet
	if nilPacket.IsPending() {
		t.Fatal("nil packet should not report pending")
	}
}
