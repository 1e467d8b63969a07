package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// DB is the SQLite-backed Log.
type DB struct {
	conn *sql.DB
}

// Open creates or opens the history database at path.
// It enables WAL mode and runs migrations.
func Open(path string) (*DB, error) {
	// 1. Open connection with modernc.org/sqlite driver
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// 2. WAL lets `status` read while the daemon writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	// 3. Run migrations
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    at          TEXT NOT NULL,
    kind        TEXT NOT NULL,
    channel     TEXT,
    recipient   TEXT,
    detail      TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Append writes e. A zero At is set to now and an empty ID gets a ULID.
func (db *DB) Append(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.At = e.At.UTC()
	if e.ID == "" {
		e.ID = ulid.MustNew(ulid.Timestamp(e.At), ulid.DefaultEntropy()).String()
	}

	query := `
		INSERT INTO entries (id, at, kind, channel, recipient, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.Exec(query, e.ID, e.At.Format(time.RFC3339Nano), string(e.Kind),
		nullable(e.Channel), nullable(e.Recipient), nullable(e.Detail))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT id, at, kind, channel, recipient, detail
		FROM entries
		ORDER BY seq DESC
		LIMIT ?
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                          Entry
			at, kind                   string
			channel, recipient, detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &kind, &channel, &recipient, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("failed to parse history time %q: %w", at, err)
		}
		e.Kind = Kind(kind)
		e.Channel = channel.String
		e.Recipient = recipient.String
		e.Detail = detail.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
