// Package storage provides the key-value collaborator the account and task
// stores persist through. Keys are derived deterministically from the current
// username, so no enumeration is offered.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is the get/set/remove contract. Get returns (nil, nil) when the key is
// absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

const (
	SessionKey = "session.currentUser"
	ThemeKey   = "prefs.theme"
)

func AccountKey(username string) string {
	return "account." + username
}

func TasksKey(username string) string {
	return "tasks." + username
}

var ErrEmptyKey = errors.New("storage: empty key")

// Options selects and configures a backend.
type Options struct {
	Backend            string
	DSN                string
	DataDir            string
	MaxOpenConnections int
	MaxIdleConnections int
	MaxIdleTime        time.Duration
}

// Open returns the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		s, err := NewFileStore(opts.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	var d Dialect
	switch strings.ToLower(opts.Backend) {
	case "sqlite", "":
		d = DialectSQLite
	case "postgres":
		d = DialectPostgres
	case "mysql":
		d = DialectMySQL
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
	s, err := OpenSQL(d, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
