package auth

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// l2SQLCache is the optional persistent tier: a single SQLite table
// `(key TEXT PK, value TEXT, expires_at INTEGER, created_at INTEGER)`
// per spec.md §4.5, written through modernc.org/sqlite's pure-Go driver
// so the binary stays CGO-free.
type l2SQLCache struct {
	db *sql.DB
}

func newL2SQLCache(path string) (*l2SQLCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS auth_cache (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auth_cache_expires_at ON auth_cache(expires_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &l2SQLCache{db: db}, nil
}

func (l *l2SQLCache) get(key string) (map[string]string, time.Duration, bool) {
	var value string
	var expiresAt int64
	row := l.db.QueryRow(`SELECT value, expires_at FROM auth_cache WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		return nil, 0, false
	}

	ttl := time.Until(time.Unix(expiresAt, 0))
	if ttl <= 0 {
		return nil, 0, false
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, 0, false
	}
	return m, ttl, true
}

func (l *l2SQLCache) set(key string, value map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	now := time.Now()
	_, err = l.db.Exec(
		`INSERT INTO auth_cache (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(data), now.Add(ttl).Unix(), now.Unix(),
	)
	return err
}

func (l *l2SQLCache) delete(key string) error {
	_, err := l.db.Exec(`DELETE FROM auth_cache WHERE key = ?`, key)
	return err
}

func (l *l2SQLCache) close() error {
	return l.db.Close()
}
