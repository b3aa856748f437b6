package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// Store is the durable chat-history side-channel, keyed by room code. All
// use of it is best-effort: the in-memory snapshot stays authoritative for
// the session when reads or writes fail.
type Store struct {
	db *sql.DB
}

// Open prepares a SQLite database at the given path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			text TEXT NOT NULL,
			kind TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

// Append stores one chat message for the room. Duplicate ids are ignored so
// redelivered envelopes stay idempotent.
func (s *Store) Append(ctx context.Context, roomCode string, m protocol.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (id, room_id, sender_id, text, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, roomCode, m.SenderID, m.Text, string(m.Kind), m.Timestamp)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest messages for the room, in
// ascending time order.
func (s *Store) Recent(ctx context.Context, roomCode string, limit int) ([]protocol.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, text, kind, created_at FROM (
			SELECT id, sender_id, text, kind, created_at
			FROM messages WHERE room_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		) ORDER BY created_at ASC, id ASC`,
		roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []protocol.Message
	for rows.Next() {
		var m protocol.Message
		var kind string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Text, &kind, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Kind = protocol.MessageKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
