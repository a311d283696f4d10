package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/orbit/internal/debug"
)

// Setting keys
const (
	KeyShowInspector = "explorer.show_inspector"
	KeyLastLocation  = "explorer.last_location"
)

// ErrNoVerifier is returned when no vault verifier has been stored.
var ErrNoVerifier = errors.New("store: no vault verifier")

// Verifier is the stored proof of the vault credentials. The dev backend
// derives Hash from password and secret key with argon2id and Salt.
type Verifier struct {
	Salt []byte
	Hash []byte
}

type DB struct {
	conn *sql.DB
}

// Open initializes the database connection and schema
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		conn.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS vault (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		salt BLOB NOT NULL,
		verifier BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS vault_keys (
		uuid TEXT PRIMARY KEY,
		automount INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	debug.Log(debug.STORE, "opened %s", dbPath)
	return &DB{conn: conn}, nil
}

// Setting returns the stored value for key and whether it exists.
func (d *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Settings returns every stored setting.
func (d *DB) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SaveSetting upserts a setting.
func (d *DB) SaveSetting(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	debug.Log(debug.STORE, "save %s=%q err=%v", key, value, err)
	return err
}

// BoolSetting reads a boolean setting, returning def when unset or unparsable.
func (d *DB) BoolSetting(ctx context.Context, key string, def bool) bool {
	v, ok, err := d.Setting(ctx, key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SaveBoolSetting stores a boolean setting.
func (d *DB) SaveBoolSetting(ctx context.Context, key string, value bool) error {
	return d.SaveSetting(ctx, key, strconv.FormatBool(value))
}

// Verifier returns the stored vault verifier or ErrNoVerifier.
func (d *DB) Verifier(ctx context.Context) (Verifier, error) {
	var v Verifier
	err := d.conn.QueryRowContext(ctx, "SELECT salt, verifier FROM vault WHERE id = 1").Scan(&v.Salt, &v.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Verifier{}, ErrNoVerifier
	}
	return v, err
}

// SaveVerifier replaces the vault verifier.
func (d *DB) SaveVerifier(ctx context.Context, v Verifier) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO vault (id, salt, verifier) VALUES (1, ?, ?)", v.Salt, v.Hash)
	return err
}

// ClearVerifier removes the vault verifier. Registered keys are kept.
func (d *DB) ClearVerifier(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, "DELETE FROM vault WHERE id = 1")
	return err
}

// AutomountKeys returns the ids of keys mounted on unlock.
func (d *DB) AutomountKeys(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT uuid FROM vault_keys WHERE automount = 1 ORDER BY uuid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddKey registers a key id, optionally mounted on unlock.
func (d *DB) AddKey(ctx context.Context, id string, automount bool) error {
	am := 0
	if automount {
		am = 1
	}
	_, err := d.conn.ExecContext(ctx, "INSERT OR REPLACE INTO vault_keys (uuid, automount) VALUES (?, ?)", id, am)
	return err
}

func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
