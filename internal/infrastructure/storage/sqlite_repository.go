package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

// SQLiteRepository is the embedded single-file backend. It mirrors the
// Postgres repository's behavior for deployments without a database server.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.DocumentRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens or creates the database file and enables WAL.
// Parent directories are created if they do not exist.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// InitSchema creates the documents table. Safe to invoke on every start.
func (r *SQLiteRepository) InitSchema(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS documents (
        url              TEXT PRIMARY KEY,
        title            TEXT NOT NULL DEFAULT '',
        publication_date TEXT NOT NULL DEFAULT '',
        summary          TEXT NOT NULL DEFAULT '',
        category         TEXT NOT NULL DEFAULT '',
        jurisdiction     TEXT NOT NULL DEFAULT '',
        content_type     TEXT NOT NULL DEFAULT '',
        topic            TEXT NOT NULL DEFAULT '',
        click_count      INTEGER NOT NULL DEFAULT 0,
        created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic)`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertDocument inserts or refreshes the document keyed by url.
func (r *SQLiteRepository) UpsertDocument(ctx context.Context, doc domain.Document) error {
	query := `INSERT INTO documents
        (url, title, publication_date, summary, category, jurisdiction, content_type, topic)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE
        SET title = excluded.title,
            publication_date = excluded.publication_date,
            summary = excluded.summary,
            category = excluded.category,
            jurisdiction = excluded.jurisdiction,
            content_type = excluded.content_type,
            topic = excluded.topic,
            updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query,
		doc.URL, doc.Title, doc.PublicationDate, doc.Summary,
		doc.Category, doc.Jurisdiction, string(doc.ContentType), doc.Topic)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	return nil
}

// KnownURLs returns which of the given URLs already exist in storage.
func (r *SQLiteRepository) KnownURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(urls) == 0 {
		return known, nil
	}

	// sqlite has no array parameters; expand placeholders for the batch.
	placeholders := make([]byte, 0, 2*len(urls))
	args := make([]any, 0, len(urls))
	for i, u := range urls {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, u)
	}

	query := fmt.Sprintf("SELECT url FROM documents WHERE url IN (%s)", placeholders)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		known[u] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return known, nil
}

// ListByTopic returns documents for one topic, newest first.
func (r *SQLiteRepository) ListByTopic(ctx context.Context, topic string) ([]domain.Document, error) {
	return r.list(ctx, selectColumns+" WHERE topic = ? ORDER BY created_at DESC", topic)
}

// ListAll returns every stored document, newest first.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	return r.list(ctx, selectColumns+" ORDER BY created_at DESC")
}

// TrackClick increments the engagement counter. Returns false when the URL
// is not stored.
func (r *SQLiteRepository) TrackClick(ctx context.Context, url string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET click_count = click_count + 1 WHERE url = ?", url)
	if err != nil {
		return false, fmt.Errorf("track click: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

const selectColumns = `SELECT url, title, publication_date, summary, category,
    jurisdiction, content_type, topic, click_count, created_at, updated_at
    FROM documents`

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var contentType string
		if err := rows.Scan(&doc.URL, &doc.Title, &doc.PublicationDate, &doc.Summary,
			&doc.Category, &doc.Jurisdiction, &contentType, &doc.Topic,
			&doc.ClickCount, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.ContentType = domain.ContentKind(contentType)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return docs, nil
}
