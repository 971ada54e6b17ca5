package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fieldwork/internal/survey"
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS survey_packets (
    survey_id         TEXT PRIMARY KEY,
    answers_json      TEXT NOT NULL,
    notes             TEXT,
    verification_json TEXT,
    completed_at      TEXT NOT NULL,
    status            TEXT NOT NULL,
    sync_status       TEXT NOT NULL,
    synced_at         TEXT,
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_survey_packets_sync_status
    ON survey_packets (sync_status);
`

// sqliteBackend persists packets in SQLite.
type sqliteBackend struct {
	db   *sql.DB
	path string
}

// openSQLite initializes or connects to the packet database and applies the
// schema.
func openSQLite(path string) (Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	backend := &sqliteBackend{db: db, path: path}
	if err := backend.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

func (s *sqliteBackend) applySchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("packet database schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if version < schemaVersion {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

func (s *sqliteBackend) Name() string { return "sqlite" }

func (s *sqliteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteBackend) Save(ctx context.Context, packet *survey.Packet) error {
	answersJSON, err := json.Marshal(packet.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	var verificationJSON []byte
	if packet.Verification != nil {
		verificationJSON, err = json.Marshal(packet.Verification)
		if err != nil {
			return fmt.Errorf("marshal verification: %w", err)
		}
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO survey_packets (
            survey_id, answers_json, notes, verification_json, completed_at,
            status, sync_status, synced_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (survey_id) DO UPDATE SET
            answers_json = excluded.answers_json,
            notes = excluded.notes,
            verification_json = excluded.verification_json,
            completed_at = excluded.completed_at,
            status = excluded.status,
            sync_status = excluded.sync_status,
            synced_at = excluded.synced_at,
            updated_at = excluded.updated_at`,
		packet.SurveyID,
		string(answersJSON),
		nullableString(packet.Notes),
		nullableString(string(verificationJSON)),
		packet.CompletedAt.UTC().Format(time.RFC3339Nano),
		string(packet.Status),
		string(packet.SyncStatus),
		nullableTime(packet.SyncedAt),
		packet.CreatedAt.UTC().Format(time.RFC3339Nano),
		packet.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert packet: %w", err)
	}
	return nil
}

const packetColumns = "survey_id, answers_json, notes, verification_json, completed_at, status, sync_status, synced_at, created_at, updated_at"

func (s *sqliteBackend) Get(ctx context.Context, surveyID string) (*survey.Packet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packetColumns+` FROM survey_packets WHERE survey_id = ?`, surveyID)
	packet, err := scanPacket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get packet: %w", err)
	}
	return packet, nil
}

func (s *sqliteBackend) List(ctx context.Context) ([]*survey.Packet, error) {
	return s.query(ctx, `SELECT `+packetColumns+` FROM survey_packets ORDER BY created_at`)
}

func (s *sqliteBackend) ListBySyncStatus(ctx context.Context, status survey.SyncStatus) ([]*survey.Packet, error) {
	return s.query(ctx, `SELECT `+packetColumns+` FROM survey_packets WHERE sync_status = ? ORDER BY created_at`, string(status))
}

func (s *sqliteBackend) query(ctx context.Context, query string, args ...any) ([]*survey.Packet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packets: %w", err)
	}
	defer rows.Close()

	var packets []*survey.Packet
	for rows.Next() {
		packet, err := scanPacket(rows)
		if err != nil {
			return nil, err
		}
		packets = append(packets, packet)
	}
	return packets, rows.Err()
}

func (s *sqliteBackend) MarkSynced(ctx context.Context, surveyID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE survey_packets SET sync_status = ?, synced_at = ?, updated_at = ? WHERE survey_id = ?`,
		string(survey.SyncSynced),
		at.UTC().Format(time.RFC3339Nano),
		at.UTC().Format(time.RFC3339Nano),
		surveyID,
	)
	if err != nil {
		return false, fmt.Errorf("mark synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *sqliteBackend) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sync_status, COUNT(1) FROM survey_packets GROUP BY sync_status`)
	if err != nil {
		return Stats{}, fmt.Errorf("packet stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch survey.SyncStatus(status) {
		case survey.SyncPending:
			stats.Pending += count
		case survey.SyncSynced:
			stats.Synced += count
		}
	}
	return stats, rows.Err()
}

func (s *sqliteBackend) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_packets`)
	if err != nil {
		return 0, fmt.Errorf("clear packets: %w", err)
	}
	return res.RowsAffected()
}

func (s *sqliteBackend) ClearSynced(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_packets WHERE sync_status = ?`, string(survey.SyncSynced))
	if err != nil {
		return 0, fmt.Errorf("clear synced packets: %w", err)
	}
	return res.RowsAffected()
}

func scanPacket(scanner interface{ Scan(dest ...any) error }) (*survey.Packet, error) {
	var (
		surveyID     string
		answersJSON  string
		notes        sql.NullString
		verification sql.NullString
		completedRaw string
		statusStr    string
		syncStr      string
		syncedRaw    sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&surveyID,
		&answersJSON,
		&notes,
		&verification,
		&completedRaw,
		&statusStr,
		&syncStr,
		&syncedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	packet := &survey.Packet{
		SurveyID:   surveyID,
		Notes:      notes.String,
		Status:     survey.Status(statusStr),
		SyncStatus: survey.SyncStatus(syncStr),
	}

	if err := json.Unmarshal([]byte(answersJSON), &packet.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers for %s: %w", surveyID, err)
	}
	if verification.Valid && verification.String != "" {
		record := &survey.VerificationRecord{}
		if err := json.Unmarshal([]byte(verification.String), record); err != nil {
			return nil, fmt.Errorf("unmarshal verification for %s: %w", surveyID, err)
		}
		packet.Verification = record
	}

	if completed, err := parseTimeString(completedRaw); err == nil {
		packet.CompletedAt = completed
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		packet.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		packet.UpdatedAt = updated
	}
	if syncedRaw.Valid {
		if synced, err := parseTimeString(syncedRaw.String); err == nil {
			packet.SyncedAt = &synced
		}
	}
	return packet, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
