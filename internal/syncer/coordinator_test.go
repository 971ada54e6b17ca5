package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fieldwork/internal/logging"
	"fieldwork/internal/store"
	"fieldwork/internal/survey"
	"fieldwork/internal/syncer"
	"fieldwork/internal/testsupport"
)

// stubUploader records uploads and fails the survey ids listed in failing.
type stubUploader struct {
	mu      sync.Mutex
	keys    []string
	failing map[string]bool

	// entered and release turn Upload into a barrier for concurrency tests.
	entered chan struct{}
	release chan struct{}
}

func (u *stubUploader) Upload(ctx context.Context, key string, packet *survey.Packet) error {
	if u.entered != nil {
		u.entered <- struct{}{}
	}
	if u.release != nil {
		select {
		case <-u.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failing[packet.SurveyID] {
		return fmt.Errorf("destination rejected %s", packet.SurveyID)
	}
	u.keys = append(u.keys, key)
	return nil
}

func (u *stubUploader) Probe(context.Context) error { return nil }
func (u *stubUploader) Name() string                { return "stub" }

func (u *stubUploader) uploadedKeys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.keys...)
}

func newSyncFixture(t *testing.T, uploader syncer.Uploader) (*store.Store, *syncer.Coordinator) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return st, syncer.NewCoordinator(st, uploader, logging.NewNop())
}

func savePending(t *testing.T, st *store.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := st.Save(context.Background(), &survey.Packet{SurveyID: id}); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}
}

func TestSyncAllWithNothingPending(t *testing.T) {
	_, coordinator := newSyncFixture(t, &stubUploader{})

	result, err := coordinator.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if !result.Success || result.Total != 0 {
		t.Fatalf("unexpected result for empty store: %#v", result)
	}
}

func TestSyncAllOffline(t *testing.T) {
	st, coordinator := newSyncFixture(t, &stubUploader{})
	savePending(t, st, "survey-1")

	coordinator.SetOnline(false)
	if _, err := coordinator.SyncAll(context.Background()); !errors.Is(err, syncer.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}

	pending := st.ListPending(context.Background())
	if len(pending) != 1 {
		t.Fatalf("offline run must not touch packets: %#v", pending)
	}
}

func TestSyncAllRejectsOverlappingRuns(t *testing.T) {
	uploader := &stubUploader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	st, coordinator := newSyncFixture(t, uploader)
	savePending(t, st, "survey-1")

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := coordinator.SyncAll(ctx)
		done <- err
	}()

	<-uploader.entered

	if status := coordinator.Status(ctx); !status.IsSyncing {
		t.Fatalf("expected syncing status mid-run: %#v", status)
	}
	if _, err := coordinator.SyncAll(ctx); !errors.Is(err, syncer.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(uploader.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	status := coordinator.Status(ctx)
	if status.IsSyncing || status.Progress != 0 {
		t.Fatalf("state must reset after the run: %#v", status)
	}
	uploader.entered = nil
	uploader.release = nil
	if _, err := coordinator.SyncAll(ctx); err != nil {
		t.Fatalf("follow-up run refused: %v", err)
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	uploader := &stubUploader{failing: map[string]bool{"survey-2": true}}
	st, coordinator := newSyncFixture(t, uploader)
	savePending(t, st, "survey-1", "survey-2", "survey-3")

	ctx := context.Background()
	result, err := coordinator.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if result.Success {
		t.Fatal("run with failures must not report success")
	}
	if result.Total != 3 || result.Synced != 2 || result.Failed != 1 {
		t.Fatalf("unexpected counts: %#v", result)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected an item per packet: %#v", result.Items)
	}
	for _, item := range result.Items {
		failed := item.SurveyID == "survey-2"
		if item.Synced == failed {
			t.Fatalf("unexpected item outcome: %#v", item)
		}
		if failed && item.Error == "" {
			t.Fatalf("failed item missing error: %#v", item)
		}
	}

	pending := st.ListPending(ctx)
	if len(pending) != 1 || pending[0].SurveyID != "survey-2" {
		t.Fatalf("only the failed packet should stay pending: %#v", pending)
	}
}

func TestSyncAllAbortsOnCanceledContext(t *testing.T) {
	uploader := &stubUploader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	st, coordinator := newSyncFixture(t, uploader)
	savePending(t, st, "survey-1", "survey-2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := coordinator.SyncAll(ctx)
		done <- err
	}()

	// Cancel while the first upload is in flight; the run must stop before
	// touching the second packet.
	<-uploader.entered
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(uploader.uploadedKeys()) != 0 {
		t.Fatalf("canceled run must not record uploads: %v", uploader.uploadedKeys())
	}
	if pending := st.ListPending(context.Background()); len(pending) != 2 {
		t.Fatalf("both packets should stay pending: %#v", pending)
	}

	// The coordinator must be usable again after the aborted run.
	uploader.entered = nil
	uploader.release = nil
	uploader.mu.Lock()
	uploader.failing = nil
	uploader.mu.Unlock()
	if _, err := coordinator.SyncAll(context.Background()); err != nil {
		t.Fatalf("follow-up run refused: %v", err)
	}
}

func TestSyncAllEndToEndWithDirUploader(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	uploader := syncer.NewDirUploader(cfg.Sync.Destination)
	coordinator := syncer.NewCoordinator(st, uploader, logging.NewNop())

	ctx := context.Background()
	completed := time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)
	if _, err := st.Save(ctx, &survey.Packet{
		SurveyID:    "survey-1",
		Answers:     map[string]any{"q1": "yes"},
		CompletedAt: completed,
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	result, err := coordinator.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if !result.Success || result.Synced != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}

	matches, err := filepath.Glob(filepath.Join(cfg.Sync.Destination, "surveys", "2026", "08", "15", "survey-1_*.json"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one uploaded file, got %v", matches)
	}
	if data, err := os.ReadFile(matches[0]); err != nil || len(data) == 0 {
		t.Fatalf("uploaded file unreadable: %v", err)
	}

	status := coordinator.Status(ctx)
	if status.PendingCount != 0 || status.SyncedCount != 1 {
		t.Fatalf("unexpected store counts after sync: %#v", status)
	}
}
