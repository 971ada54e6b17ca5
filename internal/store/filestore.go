package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"fieldwork/internal/survey"
)

// fileBackend is the flat key/value fallback: the full packet set as one
// JSON document, keyed by survey id, rewritten atomically on every change.
// It carries the same logical schema as the SQLite backend so the store
// front can swap media without callers noticing.
type fileBackend struct {
	path    string
	mu      sync.RWMutex
	packets map[string]*survey.Packet
}

// openFile loads an existing flat store or starts empty when the file is
// absent or unreadable. Open errors are returned so the caller can log
// them, but the backend is usable either way.
func openFile(path string) (Backend, error) {
	backend := &fileBackend{
		path:    path,
		packets: make(map[string]*survey.Packet),
	}
	if err := backend.load(); err != nil {
		return backend, err
	}
	return backend, nil
}

func (f *fileBackend) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read packet file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var packets map[string]*survey.Packet
	if err := json.Unmarshal(data, &packets); err != nil {
		return fmt.Errorf("parse packet file: %w", err)
	}
	f.packets = packets
	if f.packets == nil {
		f.packets = make(map[string]*survey.Packet)
	}
	return nil
}

// flush writes the packet map via a temp file and rename so a crash never
// leaves a truncated store behind.
func (f *fileBackend) flush() error {
	data, err := json.MarshalIndent(f.packets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal packets: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write packet file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace packet file: %w", err)
	}
	return nil
}

func (f *fileBackend) Name() string { return "file" }

func (f *fileBackend) Close() error { return nil }

func (f *fileBackend) Save(_ context.Context, packet *survey.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets[packet.SurveyID] = packet.CloneShallow()
	return f.flush()
}

func (f *fileBackend) Get(_ context.Context, surveyID string) (*survey.Packet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	packet, ok := f.packets[surveyID]
	if !ok {
		return nil, nil
	}
	return packet.CloneShallow(), nil
}

func (f *fileBackend) List(_ context.Context) ([]*survey.Packet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(*survey.Packet) bool { return true }), nil
}

func (f *fileBackend) ListBySyncStatus(_ context.Context, status survey.SyncStatus) ([]*survey.Packet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(p *survey.Packet) bool { return p.SyncStatus == status }), nil
}

func (f *fileBackend) collect(match func(*survey.Packet) bool) []*survey.Packet {
	out := make([]*survey.Packet, 0, len(f.packets))
	for _, packet := range f.packets {
		if match(packet) {
			out = append(out, packet.CloneShallow())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fileBackend) MarkSynced(_ context.Context, surveyID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	packet, ok := f.packets[surveyID]
	if !ok {
		return false, nil
	}
	synced := at.UTC()
	packet.SyncStatus = survey.SyncSynced
	packet.SyncedAt = &synced
	packet.UpdatedAt = synced
	if err := f.flush(); err != nil {
		return true, err
	}
	return true, nil
}

func (f *fileBackend) Stats(_ context.Context) (Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := Stats{Total: len(f.packets)}
	for _, packet := range f.packets {
		switch packet.SyncStatus {
		case survey.SyncPending:
			stats.Pending++
		case survey.SyncSynced:
			stats.Synced++
		}
	}
	return stats, nil
}

func (f *fileBackend) ClearAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := int64(len(f.packets))
	f.packets = make(map[string]*survey.Packet)
	if err := f.flush(); err != nil {
		return 0, err
	}
	return removed, nil
}

func (f *fileBackend) ClearSynced(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, packet := range f.packets {
		if packet.SyncStatus == survey.SyncSynced {
			delete(f.packets, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := f.flush(); err != nil {
		return 0, err
	}
	return removed, nil
}
