package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLog stores messages as rows keyed by session id.
type SQLiteLog struct {
	db      *sql.DB
	session string
}

func NewSQLiteLog(path, session string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteLog{db: db, session: session}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

func (l *SQLiteLog) Append(msg Message) error {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	_, err := l.db.Exec(
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		l.session, msg.Role, msg.Content, msg.Time.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Messages reads back the rows of session in insertion order. ngpt itself
// only writes; this is for callers inspecting an existing log.
func (l *SQLiteLog) Messages(ctx context.Context, session string) ([]Message, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var created string
		if err := rows.Scan(&m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if t, err := time.ParseInLocation(timeFormat, created, time.UTC); err == nil {
			m.Time = t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (l *SQLiteLog) Session() string { return l.session }

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
