// Package persistence provides SQLite-based world state storage. Engine
// snapshots are stored as JSON blobs, one row per engine, replaced wholesale
// on each save.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/sim"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		engine TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		saved_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		sim_time REAL NOT NULL,
		message TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_kind ON notifications(kind);
	CREATE INDEX IF NOT EXISTS idx_notifications_time ON notifications(sim_time);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld performs a full save of the simulation state.
func (db *DB) SaveWorld(s *sim.Simulation) error {
	ws := s.ToSnapshot()

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshots"); err != nil {
		return err
	}

	day := s.Clock.Day()
	blob, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO snapshots (engine, data, saved_day) VALUES (?, ?, ?)",
		"world", string(blob), day,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_day", fmt.Sprintf("%d", day),
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("world state saved", "day", day)
	return nil
}

// LoadWorld restores a previously saved simulation state into s.
func (db *DB) LoadWorld(s *sim.Simulation) error {
	var blob string
	err := db.conn.Get(&blob, "SELECT data FROM snapshots WHERE engine = ?", "world")
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var ws sim.WorldSnapshot
	if err := json.Unmarshal([]byte(blob), &ws); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.FromSnapshot(ws)
	slog.Info("world state restored", "day", s.Clock.Day())
	return nil
}

// HasWorldState reports whether a saved world exists.
func (db *DB) HasWorldState() bool {
	var count int
	err := db.conn.Get(&count, "SELECT COUNT(*) FROM snapshots WHERE engine = ?", "world")
	return err == nil && count > 0
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// JournalNotifications appends drained notifications to the journal.
func (db *DB) JournalNotifications(batch []notify.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range batch {
		dataJSON, _ := json.Marshal(n.Data)
		if _, err := tx.Exec(
			"INSERT INTO notifications (kind, sim_time, message, data_json) VALUES (?, ?, ?, ?)",
			string(n.Kind), n.Time, n.Message, string(dataJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// notificationRow is the journal's storage shape.
type notificationRow struct {
	Kind     string  `db:"kind"`
	SimTime  float64 `db:"sim_time"`
	Message  string  `db:"message"`
	DataJSON string  `db:"data_json"`
}

// RecentNotifications returns the most recent N journal entries, newest first.
func (db *DB) RecentNotifications(limit int) ([]notify.Notification, error) {
	var rows []notificationRow
	err := db.conn.Select(&rows,
		"SELECT kind, sim_time, message, data_json FROM notifications ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]notify.Notification, 0, len(rows))
	for _, r := range rows {
		n := notify.Notification{
			Kind:    notify.Kind(r.Kind),
			Time:    r.SimTime,
			Message: r.Message,
		}
		if r.DataJSON != "" && r.DataJSON != "null" {
			_ = json.Unmarshal([]byte(r.DataJSON), &n.Data)
		}
		out = append(out, n)
	}
	return out, nil
}
