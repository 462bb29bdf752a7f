package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/driveshelf/driveshelf/internal/metrics"
)

// Store persists RAG records in PostgreSQL for the external embedding
// indexer to consume.
type Store struct {
	db *sql.DB
}

// NewStore opens a PostgreSQL record store.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the records table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rag_records (
			id           TEXT PRIMARY KEY,
			chunk_text   TEXT NOT NULL,
			category     TEXT NOT NULL,
			source_file  TEXT NOT NULL,
			doc_type     TEXT NOT NULL,
			element_type TEXT NOT NULL,
			chunk_index  INT NOT NULL,
			image_alt    TEXT,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert writes records, replacing any existing rows with the same ID.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rag_records
			(id, chunk_text, category, source_file, doc_type, element_type, chunk_index, image_alt, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			chunk_text = EXCLUDED.chunk_text,
			category = EXCLUDED.category,
			source_file = EXCLUDED.source_file,
			doc_type = EXCLUDED.doc_type,
			element_type = EXCLUDED.element_type,
			chunk_index = EXCLUDED.chunk_index,
			image_alt = EXCLUDED.image_alt,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var imageAlt sql.NullString
		if r.ImageAlt != "" {
			imageAlt = sql.NullString{String: r.ImageAlt, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ChunkText, r.Category, r.SourceFile,
			r.DocType, r.ElementType, r.ChunkIndex, imageAlt,
		); err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	metrics.RecordDBQuery("upsert_records", time.Since(start))
	return nil
}

// DeleteBySource removes all records originating from one source file.
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) (int64, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rag_records WHERE source_file = $1`, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("delete records for %s: %w", sourceFile, err)
	}
	n, _ := res.RowsAffected()
	metrics.RecordDBQuery("delete_records", time.Since(start))
	return n, nil
}
