package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fieldwork/internal/config"
	"fieldwork/internal/logging"
	"fieldwork/internal/survey"
)

// Store is the resilient front over a selected backend. Which medium backs
// it is invisible to callers; every other component programs against "the
// store".
type Store struct {
	backend Backend
	logger  *slog.Logger
	clock   func() time.Time
}

// Open selects a backend per configuration and returns a usable store. It
// never fails: when the SQLite medium cannot be opened the store degrades
// to the flat file backend, and a file backend that cannot load its file
// starts empty. Initialization problems are logged, not surfaced, because
// the collector must remain usable offline.
func Open(cfg *config.Config, logger *slog.Logger) *Store {
	logger = logging.NewComponentLogger(logger, "store")

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Warn("ensure data directories failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_dirs_failed"),
			logging.String(logging.FieldImpact, "store starts on the in-memory file backend and may not persist"))
	}

	backend := selectBackend(cfg, logger)
	logger.Info("packet store ready", logging.String("backend", backend.Name()))

	return &Store{
		backend: backend,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// NewWithBackend wires an explicit backend and clock; used by tests and the
// composition root when configuration has already chosen a medium.
func NewWithBackend(backend Backend, logger *slog.Logger, clock func() time.Time) *Store {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "store"),
		clock:   clock,
	}
}

func selectBackend(cfg *config.Config, logger *slog.Logger) Backend {
	switch cfg.Storage.Backend {
	case "file":
		return openFileLogged(cfg.FallbackStorePath(), logger)
	case "sqlite", "auto", "":
		backend, err := openSQLite(cfg.StorePath())
		if err == nil {
			return backend
		}
		logger.Warn("sqlite store unavailable, falling back to file store",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_fallback"),
			logging.String("db_path", cfg.StorePath()),
			logging.String(logging.FieldImpact, "packets persist to a flat JSON file until the database recovers"))
		return openFileLogged(cfg.FallbackStorePath(), logger)
	default:
		// Validate rejects other values; treat like auto if one slips in.
		return openFileLogged(cfg.FallbackStorePath(), logger)
	}
}

func openFileLogged(path string, logger *slog.Logger) Backend {
	backend, err := openFile(path)
	if err != nil {
		logger.Warn("failed to load packet file, starting empty",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_file_load_failed"),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "previously saved packets are not visible until the file is repaired"))
	}
	return backend
}

// BackendName identifies the selected medium for status output.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Close releases the underlying medium.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Save upserts a packet by survey id, stamping sync status and creation
// time when absent. Returns the stored (possibly defaulted) packet. Fails
// with ErrPersistence only when the medium rejects the write.
func (s *Store) Save(ctx context.Context, packet *survey.Packet) (*survey.Packet, error) {
	if packet == nil {
		return nil, errors.New("packet is nil")
	}
	if strings.TrimSpace(packet.SurveyID) == "" {
		return nil, errors.New("packet survey id is empty")
	}

	now := s.clock()
	stored := packet.CloneShallow()
	if stored.Answers == nil {
		stored.Answers = map[string]any{}
	}
	if stored.Status == "" {
		stored.Status = survey.StatusCompleted
	}
	if stored.SyncStatus == "" {
		stored.SyncStatus = survey.SyncPending
	}
	if stored.CompletedAt.IsZero() {
		stored.CompletedAt = now
	}
	if stored.CreatedAt.IsZero() {
		if existing, err := s.backend.Get(ctx, stored.SurveyID); err == nil && existing != nil {
			stored.CreatedAt = existing.CreatedAt
		} else {
			stored.CreatedAt = now
		}
	}
	stored.UpdatedAt = now

	if err := s.backend.Save(ctx, stored); err != nil {
		return nil, wrapPersistence("save packet", err)
	}
	s.logger.Debug("packet saved",
		logging.String(logging.FieldSurveyID, stored.SurveyID),
		logging.String("sync_status", string(stored.SyncStatus)),
		logging.Int("answers", stored.AnswerCount()))
	return stored, nil
}

// Get returns the packet for a survey id, or nil when absent.
func (s *Store) Get(ctx context.Context, surveyID string) (*survey.Packet, error) {
	packet, err := s.backend.Get(ctx, surveyID)
	if err != nil {
		return nil, wrapPersistence("get packet", err)
	}
	return packet, nil
}

// List returns every stored packet ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*survey.Packet, error) {
	packets, err := s.backend.List(ctx)
	if err != nil {
		return nil, wrapPersistence("list packets", err)
	}
	return packets, nil
}

// ListPending returns all packets awaiting sync, in backend order. Read
// failures degrade to an empty result after logging.
func (s *Store) ListPending(ctx context.Context) []*survey.Packet {
	packets, err := s.backend.ListBySyncStatus(ctx, survey.SyncPending)
	if err != nil {
		s.logger.Error("failed to list pending packets",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_read_failed"),
			logging.String(logging.FieldErrorHint, "check packet store medium"))
		return nil
	}
	return packets
}

// MarkSynced flips a packet to synced, stamping syncedAt. A missing packet
// is a no-op; medium errors are logged, not surfaced. Only the sync
// coordinator calls this, which is what keeps the pending-to-synced
// transition one-way.
func (s *Store) MarkSynced(ctx context.Context, surveyID string) {
	found, err := s.backend.MarkSynced(ctx, surveyID, s.clock())
	if err != nil {
		s.logger.Error("failed to mark packet synced",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_write_failed"),
			logging.String(logging.FieldSurveyID, surveyID),
			logging.String(logging.FieldErrorHint, "packet will be re-uploaded on the next sync run"))
		return
	}
	if !found {
		s.logger.Warn("mark synced for unknown packet",
			logging.String(logging.FieldEventType, "store_packet_missing"),
			logging.String(logging.FieldSurveyID, surveyID),
			logging.String(logging.FieldImpact, "nothing recorded; packet was removed mid-sync"))
	}
}

// Stats returns aggregate packet counts; a read failure degrades to a
// zeroed snapshot after logging.
func (s *Store) Stats(ctx context.Context) Stats {
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to read packet stats",
			logging.Error(err),
			logging.String(logging.FieldEventType, "store_read_failed"),
			logging.String(logging.FieldErrorHint, "check packet store medium"))
		return Stats{}
	}
	return stats
}

// ClearAll removes every packet. Fails with ErrPersistence on medium
// failure.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	removed, err := s.backend.ClearAll(ctx)
	if err != nil {
		return 0, wrapPersistence("clear packets", err)
	}
	return removed, nil
}

// ClearSynced removes only packets that already reached the destination.
func (s *Store) ClearSynced(ctx context.Context) (int64, error) {
	removed, err := s.backend.ClearSynced(ctx)
	if err != nil {
		return 0, wrapPersistence("clear synced packets", err)
	}
	return removed, nil
}
