// Package poselog persists fused pose samples and vision gate decisions
// to SQLite for post-run analysis and plotting.
package poselog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the on-disk pose log. One Store serves many sessions; a
// session is one run of the daemon.
type Store struct {
	db *sql.DB
}

// Session identifies one recorded run.
type Session struct {
	ID               string
	Field            string
	StartedUnixNanos int64
}

// PoseSample is one control cycle's fused output.
type PoseSample struct {
	SessionID      string
	TSUnixNanos    int64
	X              float64 // inches
	Y              float64 // inches
	HeadingRad     float64
	Quality        float64
	VisionAccepted bool // a vision correction was applied this cycle
}

// VisionEvent records one vision gate decision.
type VisionEvent struct {
	SessionID   string
	TSUnixNanos int64
	TagID       int
	DPosIn      float64 // planar discrepancy against the fused pose
	DHeadingRad float64
	Accepted    bool
}

// Open opens (creating if needed) a pose log at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pose log: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			field TEXT,
			started_unix_nanos BIGINT
		);
		CREATE TABLE IF NOT EXISTS pose_samples (
			session_id TEXT,
			ts_unix_nanos BIGINT,
			x DOUBLE,
			y DOUBLE,
			heading_rad DOUBLE,
			quality DOUBLE,
			vision_accepted INTEGER,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS vision_events (
			session_id TEXT,
			ts_unix_nanos BIGINT,
			tag_id INTEGER,
			dpos_in DOUBLE,
			dheading_rad DOUBLE,
			accepted INTEGER,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_pose_samples_session
			ON pose_samples(session_id, ts_unix_nanos);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create pose log schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// BeginSession registers a new run and returns its id.
func (s *Store) BeginSession(field string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO sessions (session_id, field, started_unix_nanos) VALUES (?, ?, ?)",
		id, field, startedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// RecordPose appends one fused pose sample.
func (s *Store) RecordPose(sample PoseSample) error {
	_, err := s.db.Exec(`
		INSERT INTO pose_samples (
			session_id, ts_unix_nanos, x, y, heading_rad, quality, vision_accepted
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.SessionID, sample.TSUnixNanos,
		sample.X, sample.Y, sample.HeadingRad, sample.Quality,
		boolToInt(sample.VisionAccepted),
	)
	if err != nil {
		return fmt.Errorf("record pose: %w", err)
	}
	return nil
}

// RecordVisionEvent appends one vision gate decision.
func (s *Store) RecordVisionEvent(ev VisionEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO vision_events (
			session_id, ts_unix_nanos, tag_id, dpos_in, dheading_rad, accepted
		) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.TSUnixNanos, ev.TagID,
		ev.DPosIn, ev.DHeadingRad, boolToInt(ev.Accepted),
	)
	if err != nil {
		return fmt.Errorf("record vision event: %w", err)
	}
	return nil
}

// Poses returns a session's samples in time order. limit <= 0 means all.
func (s *Store) Poses(sessionID string, limit int) ([]PoseSample, error) {
	query := `
		SELECT session_id, ts_unix_nanos, x, y, heading_rad, quality, vision_accepted
		FROM pose_samples WHERE session_id = ? ORDER BY ts_unix_nanos`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query poses: %w", err)
	}
	defer rows.Close()

	var samples []PoseSample
	for rows.Next() {
		var p PoseSample
		var accepted int
		if err := rows.Scan(&p.SessionID, &p.TSUnixNanos,
			&p.X, &p.Y, &p.HeadingRad, &p.Quality, &accepted); err != nil {
			return nil, fmt.Errorf("scan pose: %w", err)
		}
		p.VisionAccepted = accepted != 0
		samples = append(samples, p)
	}
	return samples, rows.Err()
}

// VisionEvents returns a session's gate decisions in time order.
func (s *Store) VisionEvents(sessionID string) ([]VisionEvent, error) {
	rows, err := s.db.Query(`
		SELECT session_id, ts_unix_nanos, tag_id, dpos_in, dheading_rad, accepted
		FROM vision_events WHERE session_id = ? ORDER BY ts_unix_nanos`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query vision events: %w", err)
	}
	defer rows.Close()

	var events []VisionEvent
	for rows.Next() {
		var ev VisionEvent
		var accepted int
		if err := rows.Scan(&ev.SessionID, &ev.TSUnixNanos, &ev.TagID,
			&ev.DPosIn, &ev.DHeadingRad, &accepted); err != nil {
			return nil, fmt.Errorf("scan vision event: %w", err)
		}
		ev.Accepted = accepted != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LatestSession returns the most recently started session.
func (s *Store) LatestSession() (Session, error) {
	var sess Session
	err := s.db.QueryRow(`
		SELECT session_id, field, started_unix_nanos
		FROM sessions ORDER BY started_unix_nanos DESC LIMIT 1`).
		Scan(&sess.ID, &sess.Field, &sess.StartedUnixNanos)
	if err != nil {
		return Session{}, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
