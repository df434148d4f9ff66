package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

// PostgresRepository persists accepted documents into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.DocumentRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close releases the underlying database handle.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// InitSchema creates the documents table. Safe to invoke on every start.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
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
        created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic)`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertDocument inserts or refreshes the document keyed by url. A
// re-discovered URL updates its metadata but never resets click_count.
func (r *PostgresRepository) UpsertDocument(ctx context.Context, doc domain.Document) error {
	query, args, err := r.builder.
		Insert("documents").
		Columns("url", "title", "publication_date", "summary", "category",
			"jurisdiction", "content_type", "topic").
		Values(doc.URL, doc.Title, doc.PublicationDate, doc.Summary, doc.Category,
			doc.Jurisdiction, string(doc.ContentType), doc.Topic).
		Suffix(`ON CONFLICT (url) DO UPDATE
            SET title = EXCLUDED.title,
                publication_date = EXCLUDED.publication_date,
                summary = EXCLUDED.summary,
                category = EXCLUDED.category,
                jurisdiction = EXCLUDED.jurisdiction,
                content_type = EXCLUDED.content_type,
                topic = EXCLUDED.topic,
                updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	return nil
}

// KnownURLs returns which of the given URLs already exist in storage. The
// whole batch goes in one round trip.
func (r *PostgresRepository) KnownURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return map[string]bool{}, nil
	}

	query := `SELECT url FROM documents WHERE url = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.StringArray(urls))
	if err != nil {
		return nil, fmt.Errorf("query known urls: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
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
func (r *PostgresRepository) ListByTopic(ctx context.Context, topic string) ([]domain.Document, error) {
	return r.list(ctx, r.selectDocuments().Where(sq.Eq{"topic": topic}))
}

// ListAll returns every stored document, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	return r.list(ctx, r.selectDocuments())
}

// TrackClick increments the engagement counter. Returns false when the URL
// is not stored.
func (r *PostgresRepository) TrackClick(ctx context.Context, url string) (bool, error) {
	query, args, err := r.builder.
		Update("documents").
		Set("click_count", sq.Expr("click_count + 1")).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build click update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("track click: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) selectDocuments() sq.SelectBuilder {
	return r.builder.
		Select("url", "title", "publication_date", "summary", "category",
			"jurisdiction", "content_type", "topic", "click_count",
			"created_at", "updated_at").
		From("documents").
		OrderBy("created_at DESC")
}

func (r *PostgresRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.Document, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

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
