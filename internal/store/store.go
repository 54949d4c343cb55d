// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists annotated documents to SQLite and serves full-text
// queries over extraction text.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/extract-engine/pkg/types"
)

const dbFile = "extractions.db"

// Store manages the results SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the results database at dir/extractions.db and
// ensures the schema exists.
func NewStore(dir string, maxResults int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			metadata TEXT,
			processed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS extractions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			class TEXT NOT NULL,
			text TEXT NOT NULL,
			span_start INTEGER,
			span_end INTEGER,
			alignment TEXT,
			attributes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_document_id ON extractions(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_class ON extractions(class)`,
		`CREATE TABLE IF NOT EXISTS refs (
			document_id TEXT NOT NULL REFERENCES documents(id),
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			confidence REAL,
			distance INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			document_id TEXT NOT NULL REFERENCES documents(id),
			entity1_id TEXT NOT NULL,
			entity2_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			confidence REAL,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id TEXT PRIMARY KEY,
			extraction_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			level TEXT,
			confidence REAL,
			content TEXT,
			author TEXT,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_extraction_id ON annotations(extraction_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='extractions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE extractions_fts USING fts5(text, content=extractions, content_rowid=rowid)`,
			`CREATE TRIGGER extractions_ai AFTER INSERT ON extractions BEGIN
				INSERT INTO extractions_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER extractions_ad AFTER DELETE ON extractions BEGIN
				INSERT INTO extractions_fts(extractions_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER extractions_au AFTER UPDATE ON extractions BEGIN
				INSERT INTO extractions_fts(extractions_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO extractions_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveDocument persists one annotated document in a single transaction.
// Re-saving a document replaces its previous rows.
func (s *Store) SaveDocument(ctx context.Context, result *types.AnnotatedDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	docID := result.Document.ID

	for _, stmt := range []string{
		`DELETE FROM annotations WHERE extraction_id IN (SELECT id FROM extractions WHERE document_id = ?)`,
		`DELETE FROM extractions WHERE document_id = ?`,
		`DELETE FROM refs WHERE document_id = ?`,
		`DELETE FROM relationships WHERE document_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, docID); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	metadataJSON, _ := json.Marshal(result.Document.Metadata)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, text, metadata, processed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, metadata=excluded.metadata, processed_at=excluded.processed_at`,
		docID, result.Document.Text, string(metadataJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	extStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO extractions (id, document_id, class, text, span_start, span_end, alignment, attributes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing extraction insert: %w", err)
	}
	defer extStmt.Close()

	for _, ext := range result.Extractions {
		var start, end any
		if ext.Span != nil {
			start, end = ext.Span.Start, ext.Span.End
		}
		attrJSON, _ := json.Marshal(ext.Attributes)
		if _, err := extStmt.ExecContext(ctx,
			ext.ID, docID, ext.Class, ext.Text, start, end,
			string(ext.Alignment), string(attrJSON),
		); err != nil {
			return fmt.Errorf("inserting extraction %s: %w", ext.ID, err)
		}
	}

	for _, ref := range result.References {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO refs (document_id, source_id, target_id, kind, confidence, distance)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			docID, ref.SourceID, ref.TargetID, string(ref.Kind), ref.Confidence, ref.Distance,
		); err != nil {
			return fmt.Errorf("inserting reference: %w", err)
		}
	}

	for _, rel := range result.Relationships {
		metaJSON, _ := json.Marshal(rel.Metadata)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relationships (document_id, entity1_id, entity2_id, kind, confidence, metadata)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			docID, rel.Entity1ID, rel.Entity2ID, string(rel.Kind), rel.Confidence, string(metaJSON),
		); err != nil {
			return fmt.Errorf("inserting relationship: %w", err)
		}
	}

	annStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO annotations (id, extraction_id, kind, level, confidence, content, author, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing annotation insert: %w", err)
	}
	defer annStmt.Close()

	for _, anns := range result.Annotations {
		for _, ann := range anns {
			if _, err := annStmt.ExecContext(ctx,
				ann.ID, ann.ExtractionID, string(ann.Kind), string(ann.Level),
				ann.Confidence, ann.Content, ann.Author,
				ann.CreatedAt.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("inserting annotation %s: %w", ann.ID, err)
			}
		}
	}

	return tx.Commit()
}

// SaveBatch persists every successful item from a batch run, reporting
// per-document progress to w. A save failure counts against the summary but
// does not abort the remaining documents.
func (s *Store) SaveBatch(ctx context.Context, batch *types.BatchResult, w io.Writer) (saved, failed int, err error) {
	for _, result := range batch.Successes {
		select {
		case <-ctx.Done():
			return saved, failed, ctx.Err()
		default:
		}

		if err := s.SaveDocument(ctx, result); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", result.Document.ID, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "saved   %s (%d extractions)\n", result.Document.ID, len(result.Extractions))
		saved++
	}

	fmt.Fprintf(w, "\nsaved: %d, failed: %d\n", saved, failed)
	return saved, failed, nil
}

// ExtractionRow is one full-text query hit.
type ExtractionRow struct {
	ID         string
	DocumentID string
	Class      string
	Text       string
	Alignment  string
}

// QueryExtractions runs an FTS5 match over extraction text, most relevant
// first. An empty query or class restricts by class alone.
func (s *Store) QueryExtractions(ctx context.Context, query, class string, limit int) ([]ExtractionRow, error) {
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	var rows *sql.Rows
	var err error
	switch {
	case query != "" && class != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT e.id, e.document_id, e.class, e.text, e.alignment
			 FROM extractions_fts f JOIN extractions e ON e.rowid = f.rowid
			 WHERE extractions_fts MATCH ? AND e.class = ?
			 ORDER BY rank LIMIT ?`, query, class, limit)
	case query != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT e.id, e.document_id, e.class, e.text, e.alignment
			 FROM extractions_fts f JOIN extractions e ON e.rowid = f.rowid
			 WHERE extractions_fts MATCH ?
			 ORDER BY rank LIMIT ?`, query, limit)
	case class != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, document_id, class, text, alignment
			 FROM extractions WHERE class = ? LIMIT ?`, class, limit)
	default:
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, document_id, class, text, alignment
			 FROM extractions LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	var results []ExtractionRow
	for rows.Next() {
		var r ExtractionRow
		var alignment sql.NullString
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Class, &r.Text, &alignment); err != nil {
			return nil, fmt.Errorf("scanning extraction row: %w", err)
		}
		r.Alignment = alignment.String
		results = append(results, r)
	}
	return results, rows.Err()
}
