// Package recorder persists per-frame observations and confirmed
// changes to SQLite so sessions can be replayed offline with
// different conditioning parameters.
package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/studiolumen/light-puppet/pkg/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	config TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS frames (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	at INTEGER NOT NULL,
	proximity TEXT NOT NULL,
	expression TEXT NOT NULL,
	gesture TEXT NOT NULL,
	proximity_value REAL NOT NULL,
	face_x REAL NOT NULL,
	face_y REAL NOT NULL,
	hand_left_x REAL NOT NULL,
	hand_left_y REAL NOT NULL,
	hand_right_x REAL NOT NULL,
	hand_right_y REAL NOT NULL,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);
CREATE TABLE IF NOT EXISTS changes (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	at INTEGER NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Recorder writes one session of raw per-frame results plus the
// confirmed changes the conditioner emitted for them.
type Recorder struct {
	db *sql.DB

	mu      sync.Mutex
	session string
	seq     int64
}

// Open opens (or creates) the recording database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// BeginSession creates a new session row and makes it the target for
// subsequent RecordFrame/RecordChanges calls. config is stored as
// JSON alongside the session so replays know what produced it.
func (r *Recorder) BeginSession(config interface{}) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session config: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec("INSERT INTO sessions (id, started_at, config) VALUES (?, ?, ?)",
		id, time.Now().UnixMilli(), string(data))
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	r.mu.Lock()
	r.session = id
	r.seq = 0
	r.mu.Unlock()
	return id, nil
}

// RecordFrame stores one raw merged result. Frames are numbered in
// call order starting at 1.
func (r *Recorder) RecordFrame(at time.Time, res state.Result) error {
	r.mu.Lock()
	if r.session == "" {
		r.mu.Unlock()
		return fmt.Errorf("no active session")
	}
	r.seq++
	session, seq := r.session, r.seq
	r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO frames (
		session_id, seq, at,
		proximity, expression, gesture, proximity_value,
		face_x, face_y, hand_left_x, hand_left_y, hand_right_x, hand_right_y
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session, seq, at.UnixMilli(),
		string(res.Proximity), string(res.Expression), string(res.Gesture), res.ProximityValue,
		res.FaceX, res.FaceY, res.HandLeftX, res.HandLeftY, res.HandRightX, res.HandRightY,
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame: %w", err)
	}
	return nil
}

// RecordChanges attributes confirmed changes to the most recently
// recorded frame.
func (r *Recorder) RecordChanges(at time.Time, changes []state.Change) error {
	if len(changes) == 0 {
		return nil
	}

	r.mu.Lock()
	session, seq := r.session, r.seq
	r.mu.Unlock()
	if session == "" {
		return fmt.Errorf("no active session")
	}

	for _, ch := range changes {
		_, err := r.db.Exec("INSERT INTO changes (session_id, seq, at, field, value) VALUES (?, ?, ?, ?, ?)",
			session, seq, at.UnixMilli(), string(ch.Field), ch.Value)
		if err != nil {
			return fmt.Errorf("failed to insert change: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Session describes one recorded session.
type Session struct {
	ID        string
	StartedAt time.Time
	Config    string
	Frames    int
}

// Frame is one recorded raw result with its capture time.
type Frame struct {
	Seq    int64
	At     time.Time
	Result state.Result
}

// ChangeRow is one confirmed change as it happened live.
type ChangeRow struct {
	Seq   int64
	At    time.Time
	Field string
	Value string
}

// ListSessions returns all sessions, newest first.
func (r *Recorder) ListSessions() ([]Session, error) {
	rows, err := r.db.Query(`
		SELECT s.id, s.started_at, s.config, COUNT(f.seq)
		FROM sessions s
		LEFT JOIN frames f ON f.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var startedAt int64
		if err := rows.Scan(&s.ID, &startedAt, &s.Config, &s.Frames); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartedAt = time.UnixMilli(startedAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Frames returns the recorded frames of a session in capture order.
func (r *Recorder) Frames(sessionID string) ([]Frame, error) {
	rows, err := r.db.Query(`
		SELECT seq, at,
			proximity, expression, gesture, proximity_value,
			face_x, face_y, hand_left_x, hand_left_y, hand_right_x, hand_right_y
		FROM frames WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var at int64
		var proximity, expression, gesture string
		err := rows.Scan(&f.Seq, &at,
			&proximity, &expression, &gesture, &f.Result.ProximityValue,
			&f.Result.FaceX, &f.Result.FaceY,
			&f.Result.HandLeftX, &f.Result.HandLeftY,
			&f.Result.HandRightX, &f.Result.HandRightY,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.At = time.UnixMilli(at)
		if f.Result.Proximity, err = state.ParseProximity(proximity); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.Seq, err)
		}
		if f.Result.Expression, err = state.ParseExpression(expression); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.Seq, err)
		}
		if f.Result.Gesture, err = state.ParseGesture(gesture); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.Seq, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Changes returns the confirmed changes of a session in emission order.
func (r *Recorder) Changes(sessionID string) ([]ChangeRow, error) {
	rows, err := r.db.Query(`
		SELECT seq, at, field, value
		FROM changes WHERE session_id = ? ORDER BY seq, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []ChangeRow
	for rows.Next() {
		var c ChangeRow
		var at int64
		if err := rows.Scan(&c.Seq, &at, &c.Field, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c.At = time.UnixMilli(at)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}
