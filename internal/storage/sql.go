package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const queryTimeout = 5 * time.Second

// Dialect holds the driver name and the statements that differ between
// database engines.
type Dialect struct {
	Name   string
	Driver string
	schema string
	get    string
	upsert string
	remove string
}

var (
	DialectPostgres = Dialect{
		Name:   "postgres",
		Driver: "postgres",
		schema: `CREATE TABLE IF NOT EXISTS kv_entries (
			kv_key TEXT PRIMARY KEY,
			kv_value BYTEA NOT NULL
		)`,
		get: `SELECT kv_value FROM kv_entries WHERE kv_key = $1`,
		upsert: `INSERT INTO kv_entries (kv_key, kv_value) VALUES ($1, $2)
			ON CONFLICT (kv_key) DO UPDATE SET kv_value = EXCLUDED.kv_value`,
		remove: `DELETE FROM kv_entries WHERE kv_key = $1`,
	}
	DialectSQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS kv_entries (
			kv_key TEXT PRIMARY KEY,
			kv_value BLOB NOT NULL
		)`,
		get: `SELECT kv_value FROM kv_entries WHERE kv_key = ?`,
		upsert: `INSERT INTO kv_entries (kv_key, kv_value) VALUES (?, ?)
			ON CONFLICT (kv_key) DO UPDATE SET kv_value = excluded.kv_value`,
		remove: `DELETE FROM kv_entries WHERE kv_key = ?`,
	}
	DialectMySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS kv_entries (
			kv_key VARCHAR(255) PRIMARY KEY,
			kv_value LONGBLOB NOT NULL
		)`,
		get: `SELECT kv_value FROM kv_entries WHERE kv_key = ?`,
		upsert: `INSERT INTO kv_entries (kv_key, kv_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE kv_value = VALUES(kv_value)`,
		remove: `DELETE FROM kv_entries WHERE kv_key = ?`,
	}
)

// SQLStore keeps every key in a single kv_entries table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL opens the database, verifies the connection and creates the table.
// For sqlite an empty DSN resolves to taskplanner.db inside opts.DataDir.
func OpenSQL(d Dialect, opts Options) (*SQLStore, error) {
	dsn := opts.DSN
	if d.Name == DialectSQLite.Name && dsn == "" {
		if opts.DataDir == "" {
			return nil, errors.New("storage: sqlite needs a dsn or a data dir")
		}
		if err := os.MkdirAll(opts.DataDir, 0o700); err != nil {
			return nil, err
		}
		dsn = filepath.Join(opts.DataDir, "taskplanner.db")
	}
	if dsn == "" {
		return nil, fmt.Errorf("storage: %s dsn is required", d.Name)
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if d.Name == DialectSQLite.Name {
		// one writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConnections > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConnections)
		}
		if opts.MaxIdleConnections > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConnections)
		}
		if opts.MaxIdleTime > 0 {
			db.SetConnMaxIdleTime(opts.MaxIdleTime)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate %s: %w", d.Name, err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema)
	return err
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v []byte
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&v)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value)
	return err
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, s.dialect.remove, key)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
