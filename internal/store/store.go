package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"attentiond/internal/session"
	"attentiond/internal/signal"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS attention_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	timestamp         TEXT NOT NULL,
	state             TEXT NOT NULL,
	score             REAL NOT NULL,
	confidence        REAL NOT NULL,
	trend             REAL NOT NULL,
	available_signals INTEGER NOT NULL,
	signals_json      TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	block_name      TEXT NOT NULL,
	block_category  TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	ended_at        TEXT,
	goal_minutes    REAL NOT NULL,
	threshold       REAL NOT NULL,
	sample_count    INTEGER NOT NULL DEFAULT 0,
	mean_engagement REAL,
	content_count   INTEGER,
	completed       INTEGER,
	notes           TEXT
);

CREATE TABLE IF NOT EXISTS session_content_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	content_id   TEXT NOT NULL,
	content_type TEXT,
	title        TEXT,
	shown_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);
`

// #endregion schema

// #region store-struct

// Store persists attention snapshots and session records in SQLite.
// Append-only from the engine's perspective: the engine never reads its
// own historical rows to make a decision.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region attention-log

// AttentionEntry is one per-tick classifier snapshot for the audit
// trail.
type AttentionEntry struct {
	RunID            string
	Timestamp        time.Time
	State            string
	Score            float64
	Confidence       float64
	Trend            float64
	AvailableSignals int
	Breakdown        map[signal.Kind]float64
}

// AppendAttention writes one snapshot row.
func (s *Store) AppendAttention(e AttentionEntry) error {
	var breakdownJSON interface{}
	if len(e.Breakdown) > 0 {
		b, err := json.Marshal(e.Breakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		breakdownJSON = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO attention_log (run_id, timestamp, state, score, confidence, trend, available_signals, signals_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.State,
		e.Score, e.Confidence, e.Trend, e.AvailableSignals, breakdownJSON,
	)
	if err != nil {
		return fmt.Errorf("append attention: %w", err)
	}
	return nil
}

// RecentAttention returns the newest snapshot rows, newest first.
func (s *Store) RecentAttention(limit int) ([]AttentionEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, timestamp, state, score, confidence, trend, available_signals, signals_json
		 FROM attention_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent attention: %w", err)
	}
	defer rows.Close()

	var out []AttentionEntry
	for rows.Next() {
		var e AttentionEntry
		var ts string
		var breakdown sql.NullString
		if err := rows.Scan(&e.RunID, &ts, &e.State, &e.Score, &e.Confidence,
			&e.Trend, &e.AvailableSignals, &breakdown); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if breakdown.Valid {
			if err := json.Unmarshal([]byte(breakdown.String), &e.Breakdown); err != nil {
				return nil, fmt.Errorf("unmarshal breakdown: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion attention-log

// #region session-recorder

// SessionStarted inserts the open-session row.
func (s *Store) SessionStarted(sess session.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, block_name, block_category, started_at, goal_minutes, threshold)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.BlockName, sess.BlockCategory,
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
		sess.GoalDuration.Minutes(), sess.Threshold,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionEnded finalizes the session row with its summary.
func (s *Store) SessionEnded(sum session.Summary) error {
	res, err := s.db.Exec(
		`UPDATE sessions
		 SET ended_at = ?, sample_count = ?, mean_engagement = ?, content_count = ?, completed = ?, notes = ?
		 WHERE id = ?`,
		sum.Session.EndedAt.UTC().Format(time.RFC3339Nano),
		sum.Session.SampleCount, sum.MeanEngagement, sum.ContentCount,
		boolToInt(sum.Completed), nullIfEmpty(sum.Notes), sum.Session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", sum.Session.ID, session.ErrSessionNotFound)
	}
	return nil
}

// ContentShown appends one content row for a session.
func (s *Store) ContentShown(sessionID string, item session.ContentItem) error {
	_, err := s.db.Exec(
		`INSERT INTO session_content_log (session_id, content_id, content_type, title, shown_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, item.ContentID, nullIfEmpty(item.ContentType),
		nullIfEmpty(item.Title), item.ShownAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

// #endregion session-recorder

// #region session-rows

// SessionRow is a persisted session record as read back by tooling.
type SessionRow struct {
	ID             string
	BlockName      string
	BlockCategory  string
	StartedAt      time.Time
	EndedAt        time.Time // zero when still open
	GoalMinutes    float64
	Threshold      float64
	SampleCount    int
	MeanEngagement float64
	ContentCount   int
	Completed      bool
	Notes          string
}

// RecentSessions returns the newest session rows, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRow, error) {
	rows, err := s.db.Query(
		`SELECT id, block_name, block_category, started_at, ended_at, goal_minutes, threshold,
		        sample_count, mean_engagement, content_count, completed, notes
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var started string
		var ended, notes sql.NullString
		var mean sql.NullFloat64
		var contentCount, completed sql.NullInt64
		if err := rows.Scan(&r.ID, &r.BlockName, &r.BlockCategory, &started, &ended,
			&r.GoalMinutes, &r.Threshold, &r.SampleCount, &mean, &contentCount,
			&completed, &notes); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if ended.Valid {
			r.EndedAt, _ = time.Parse(time.RFC3339Nano, ended.String)
		}
		if mean.Valid {
			r.MeanEngagement = mean.Float64
		}
		if contentCount.Valid {
			r.ContentCount = int(contentCount.Int64)
		}
		r.Completed = completed.Valid && completed.Int64 != 0
		if notes.Valid {
			r.Notes = notes.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion session-rows

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
