// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/tracker"
)

// TrackerStore is the SQLite implementation of tracker.Store.
type TrackerStore struct {
	db *DB
}

// NewTrackerStore creates a TrackerStore on the given database.
func NewTrackerStore(db *DB) *TrackerStore {
	return &TrackerStore{db: db}
}

const trackerColumns = `id, owner_id, name, access_code, is_online, last_lat, last_lng, last_seen`

// CreateTracker inserts a tracker, mapping unique constraint violations to
// tracker.ErrOwnerTaken and tracker.ErrAccessCodeTaken.
func (s *TrackerStore) CreateTracker(ctx context.Context, t *models.Tracker) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO trackers (`+trackerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Name, tracker.NormalizeAccessCode(t.AccessCode),
		t.IsOnline, nullFloat(t.LastLat), nullFloat(t.LastLng), t.LastSeen.UTC())
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "trackers.owner_id"):
		return tracker.ErrOwnerTaken
	case isUniqueViolation(err, "trackers.access_code"):
		return tracker.ErrAccessCodeTaken
	default:
		return fmt.Errorf("failed to insert tracker: %w", err)
	}
}

// GetTracker returns the tracker by id, or tracker.ErrNotFound.
func (s *TrackerStore) GetTracker(ctx context.Context, id string) (*models.Tracker, error) {
	return s.getTracker(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE id = ?`, id)
}

// GetTrackerByOwner returns the owner's tracker, or tracker.ErrNotFound.
func (s *TrackerStore) GetTrackerByOwner(ctx context.Context, ownerID string) (*models.Tracker, error) {
	return s.getTracker(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE owner_id = ?`, ownerID)
}

// GetTrackerByAccessCode returns the tracker for a normalized access code,
// or tracker.ErrNotFound.
func (s *TrackerStore) GetTrackerByAccessCode(ctx context.Context, code string) (*models.Tracker, error) {
	return s.getTracker(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE access_code = ?`, code)
}

func (s *TrackerStore) getTracker(ctx context.Context, query string, arg any) (*models.Tracker, error) {
	t, err := scanTracker(s.db.conn.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracker: %w", err)
	}
	return t, nil
}

// ListTrackers returns all trackers ordered by id.
func (s *TrackerStore) ListTrackers(ctx context.Context) ([]*models.Tracker, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+trackerColumns+` FROM trackers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trackers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracker: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trackers: %w", err)
	}
	return out, nil
}

// UpdateTracker replaces the mutable fields of the stored tracker, or
// returns tracker.ErrNotFound.
func (s *TrackerStore) UpdateTracker(ctx context.Context, t *models.Tracker) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE trackers
		SET name = ?, is_online = ?, last_lat = ?, last_lng = ?, last_seen = ?
		WHERE id = ?`,
		t.Name, t.IsOnline, nullFloat(t.LastLat), nullFloat(t.LastLng), t.LastSeen.UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update tracker: %w", err)
	}
	return requireRow(res)
}

// DeleteTracker removes the tracker, cascading to its history, or returns
// tracker.ErrNotFound.
func (s *TrackerStore) DeleteTracker(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM trackers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tracker: %w", err)
	}
	return requireRow(res)
}

// AppendHistory inserts a history entry.
func (s *TrackerStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO tracker_histories (id, tracker_id, lat, lng, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TrackerID, entry.Lat, entry.Lng, entry.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// ListHistory returns the tracker's entries, newest first. The id is a
// time-ordered UUID, so it breaks ties between identical timestamps.
func (s *TrackerStore) ListHistory(ctx context.Context, trackerID string) ([]*models.HistoryEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, tracker_id, lat, lng, timestamp
		FROM tracker_histories
		WHERE tracker_id = ?
		ORDER BY timestamp DESC, id DESC`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.HistoryEntry
	for rows.Next() {
		var (
			e  models.HistoryEntry
			ts time.Time
		)
		if err := rows.Scan(&e.ID, &e.TrackerID, &e.Lat, &e.Lng, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Timestamp = scanTime(ts)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}

// CountHistory returns the number of entries for the tracker.
func (s *TrackerStore) CountHistory(ctx context.Context, trackerID string) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracker_histories WHERE tracker_id = ?`, trackerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// DeleteOldestHistory removes the single oldest entry for the tracker.
func (s *TrackerStore) DeleteOldestHistory(ctx context.Context, trackerID string) error {
	_, err := s.db.conn.ExecContext(ctx, `
		DELETE FROM tracker_histories
		WHERE id = (
			SELECT id FROM tracker_histories
			WHERE tracker_id = ?
			ORDER BY timestamp ASC, id ASC
			LIMIT 1
		)`, trackerID)
	if err != nil {
		return fmt.Errorf("failed to delete oldest history entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracker(row rowScanner) (*models.Tracker, error) {
	var (
		t        models.Tracker
		lat, lng sql.NullFloat64
		lastSeen time.Time
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.AccessCode, &t.IsOnline, &lat, &lng, &lastSeen)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		t.LastLat = &lat.Float64
	}
	if lng.Valid {
		t.LastLng = &lng.Float64
	}
	t.LastSeen = scanTime(lastSeen)
	return &t, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// requireRow turns a zero-row update or delete into tracker.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return tracker.ErrNotFound
	}
	return nil
}
