package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"fieldwork/internal/survey"
	"fieldwork/internal/testsupport"
)

func TestSaveStampsDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stored, err := st.Save(ctx, &survey.Packet{
		SurveyID: "survey-1",
		Answers:  map[string]any{"q1": "yes"},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if stored.Status != survey.StatusCompleted {
		t.Fatalf("expected completed status, got %q", stored.Status)
	}
	if stored.SyncStatus != survey.SyncPending {
		t.Fatalf("expected pending sync status, got %q", stored.SyncStatus)
	}
	if stored.CompletedAt.IsZero() || stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps stamped: %#v", stored)
	}

	fetched, err := st.Get(ctx, "survey-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.Answers["q1"] != "yes" {
		t.Fatalf("unexpected fetched packet: %#v", fetched)
	}
}

func TestSaveRejectsEmptySurveyID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.Save(context.Background(), &survey.Packet{SurveyID: "  "}); err == nil {
		t.Fatal("expected error for empty survey id")
	}
	if _, err := st.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil packet")
	}
}

func TestSaveUpsertsBySurveyID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := st.Save(ctx, &survey.Packet{SurveyID: "survey-1", Answers: map[string]any{"q1": "a"}})
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second, err := st.Save(ctx, &survey.Packet{SurveyID: "survey-1", Answers: map[string]any{"q1": "b", "q2": "c"}})
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert should preserve creation time: %v vs %v", second.CreatedAt, first.CreatedAt)
	}

	stats := st.Stats(ctx)
	if stats.Total != 1 {
		t.Fatalf("expected one packet after upsert, got %d", stats.Total)
	}

	fetched, err := st.Get(ctx, "survey-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Answers["q1"] != "b" || fetched.AnswerCount() != 2 {
		t.Fatalf("upsert did not replace answers: %#v", fetched.Answers)
	}
}

func TestListPendingAndMarkSynced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, id := range []string{"survey-1", "survey-2"} {
		if _, err := st.Save(ctx, &survey.Packet{SurveyID: id}); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	st.MarkSynced(ctx, "survey-1")

	pending := st.ListPending(ctx)
	if len(pending) != 1 || pending[0].SurveyID != "survey-2" {
		t.Fatalf("unexpected pending set: %#v", pending)
	}

	synced, err := st.Get(ctx, "survey-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if synced.SyncStatus != survey.SyncSynced || synced.SyncedAt == nil {
		t.Fatalf("expected synced packet with timestamp: %#v", synced)
	}

	stats := st.Stats(ctx)
	if stats.Total != 2 || stats.Pending != 1 || stats.Synced != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestMarkSyncedMissingPacketIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	st.MarkSynced(ctx, "ghost")

	stats := st.Stats(ctx)
	if stats.Total != 0 {
		t.Fatalf("no packets expected, got %#v", stats)
	}
}

func TestClearAllAndClearSynced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, id := range []string{"survey-1", "survey-2", "survey-3"} {
		if _, err := st.Save(ctx, &survey.Packet{SurveyID: id}); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}
	st.MarkSynced(ctx, "survey-1")

	removed, err := st.ClearSynced(ctx)
	if err != nil {
		t.Fatalf("ClearSynced failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if stats := st.Stats(ctx); stats.Total != 2 || stats.Pending != 2 {
		t.Fatalf("unexpected stats after ClearSynced: %#v", stats)
	}

	removed, err = st.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if stats := st.Stats(ctx); stats.Total != 0 {
		t.Fatalf("expected empty store, got %#v", stats)
	}
}

func TestOpenFallsBackToFileStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	// A directory at the database path makes SQLite unopenable.
	if err := os.MkdirAll(cfg.StorePath(), 0o755); err != nil {
		t.Fatalf("occupy db path: %v", err)
	}

	st := testsupport.MustOpenStore(t, cfg)
	if st.BackendName() != "file" {
		t.Fatalf("expected file fallback, got %q", st.BackendName())
	}

	if _, err := st.Save(context.Background(), &survey.Packet{SurveyID: "survey-1"}); err != nil {
		t.Fatalf("Save on fallback backend failed: %v", err)
	}
}

func TestFileBackendPersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend("file"))

	ctx := context.Background()
	syncedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	st := testsupport.MustOpenStore(t, cfg)
	if st.BackendName() != "file" {
		t.Fatalf("expected file backend, got %q", st.BackendName())
	}
	if _, err := st.Save(ctx, &survey.Packet{
		SurveyID:   "survey-1",
		Answers:    map[string]any{"q1": "yes"},
		SyncStatus: survey.SyncSynced,
		SyncedAt:   &syncedAt,
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(ctx, "survey-1")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if fetched == nil || fetched.Answers["q1"] != "yes" {
		t.Fatalf("packet did not survive reopen: %#v", fetched)
	}
	if fetched.SyncStatus != survey.SyncSynced || fetched.SyncedAt == nil || !fetched.SyncedAt.Equal(syncedAt) {
		t.Fatalf("sync fields did not survive reopen: %#v", fetched)
	}
}
