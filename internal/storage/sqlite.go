package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/napolitain/clicker/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	slot     TEXT PRIMARY KEY,
	save_id  TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	data     TEXT NOT NULL
)`

// SlotInfo describes one saved slot
type SlotInfo struct {
	Slot    string
	SaveID  string
	SavedAt time.Time
}

// SQLiteStore keeps the latest snapshot per named slot in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	slot string
}

// OpenSQLite opens (creating if needed) the database at path and selects slot
func OpenSQLite(path, slot string) (*SQLiteStore, error) {
	if slot == "" {
		slot = "default"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, slot: slot}, nil
}

// Slot returns the selected slot name
func (s *SQLiteStore) Slot() string {
	return s.slot
}

// Load implements Store
func (s *SQLiteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM saves WHERE slot = ?`, s.slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query slot %s: %w", s.slot, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("%w: slot %s: %v", ErrCorruptSave, s.slot, err)
	}
	return &snap, nil
}

// Save implements Store, replacing the slot's previous snapshot
func (s *SQLiteStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, save_id, saved_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			save_id = excluded.save_id,
			saved_at = excluded.saved_at,
			data = excluded.data
	`, s.slot, snap.SaveID, snap.SavedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.slot, err)
	}
	return nil
}

// Slots lists every saved slot, most recent first
func (s *SQLiteStore) Slots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, save_id, saved_at FROM saves ORDER BY saved_at DESC, slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var savedAt string
		if err := rows.Scan(&info.Slot, &info.SaveID, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			info.SavedAt = t
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
