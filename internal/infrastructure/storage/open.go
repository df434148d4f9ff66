package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"LegalScanner/internal/ports"
)

// Store is a document repository with lifecycle hooks owned by this package.
type Store interface {
	ports.DocumentRepository
	InitSchema(ctx context.Context) error
	Close() error
}

// Open selects the backend by DSN scheme: postgres:// for Postgres,
// anything else is treated as a SQLite file path. The connection is
// verified and the schema created before the store is handed out, so a
// misconfigured database fails the process at startup instead of silently
// dropping writes later.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	var store Store
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store = NewPostgresRepository(db)
	} else {
		sqlite, err := NewSQLiteRepository(dsn)
		if err != nil {
			return nil, err
		}
		store = sqlite
	}

	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}
