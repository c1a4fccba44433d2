// Package store persists conversations and turns to SQLite so transcripts
// survive restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"parley/ledger"
	"parley/ptt"
)

type Store struct {
	db      *sql.DB
	clipDir string
}

// Conversation is one sealed or in-progress session.
type Conversation struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	TurnCount int
}

// DefaultDBPath returns the platform-conventional database location.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "parley", "parley.sqlite")
	}
	xdg := os.Getenv("XDG_DATA_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(xdg, "parley", "parley.sqlite")
}

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	started_at REAL NOT NULL,
	ended_at REAL,
	turn_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	at REAL NOT NULL,
	speaker TEXT NOT NULL,
	original TEXT NOT NULL,
	translation TEXT NOT NULL,
	provider TEXT NOT NULL,
	clip_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, at);
`

// Open opens (creating if needed) the database with WAL journaling.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetClipDir enables audio retention: SaveTurn writes each clip as a WAV
// file under dir and records the path with the turn.
func (s *Store) SetClipDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}
	s.clipDir = dir
	return nil
}

// StartConversation creates a new conversation row and returns its id.
func (s *Store) StartConversation() (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO conversations (id, started_at) VALUES (?, ?)`,
		id, timeToUnix(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return id, nil
}

// SaveTurn persists one turn. clipWAV may be nil; it is only written when
// audio retention is enabled.
func (s *Store) SaveTurn(conversationID string, t ledger.Turn, clipWAV []byte) error {
	id := uuid.NewString()

	var clipPath sql.NullString
	if s.clipDir != "" && len(clipWAV) > 0 {
		p := filepath.Join(s.clipDir, id+".wav")
		if err := os.WriteFile(p, clipWAV, 0644); err != nil {
			return fmt.Errorf("write clip: %w", err)
		}
		clipPath = sql.NullString{String: p, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO turns (id, conversation_id, at, speaker, original, translation, provider, clip_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, conversationID, timeToUnix(t.At), t.Speaker.String(),
		t.Original, t.Translation, t.Provider, clipPath)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	_, err = s.db.Exec(`UPDATE conversations SET turn_count = turn_count + 1 WHERE id = ?`,
		conversationID)
	if err != nil {
		return fmt.Errorf("update turn count: %w", err)
	}
	return nil
}

// SealConversation marks a conversation finished.
func (s *Store) SealConversation(conversationID string) error {
	_, err := s.db.Exec(`UPDATE conversations SET ended_at = ? WHERE id = ?`,
		timeToUnix(time.Now()), conversationID)
	if err != nil {
		return fmt.Errorf("seal conversation: %w", err)
	}
	return nil
}

// Turns returns a conversation's turns in chronological order.
func (s *Store) Turns(conversationID string) ([]ledger.Turn, error) {
	rows, err := s.db.Query(`
		SELECT at, speaker, original, translation, provider
		FROM turns
		WHERE conversation_id = ?
		ORDER BY at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []ledger.Turn
	for rows.Next() {
		var t ledger.Turn
		var at float64
		var speaker string
		if err := rows.Scan(&at, &speaker, &t.Original, &t.Translation, &t.Provider); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.At = timeFromUnix(at)
		if speaker == ledger.SpeakerTarget.String() {
			t.Speaker = ledger.SpeakerTarget
			t.Direction = ptt.Reverse
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Conversations lists the most recent conversations, newest first.
func (s *Store) Conversations(limit int) ([]Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, ended_at, turn_count
		FROM conversations
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var startedAt float64
		var endedAt sql.NullFloat64
		if err := rows.Scan(&c.ID, &startedAt, &endedAt, &c.TurnCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.StartedAt = timeFromUnix(startedAt)
		if endedAt.Valid {
			t := timeFromUnix(endedAt.Float64)
			c.EndedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func timeToUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
