package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/models"
)

// MaxRecentFiles bounds the recent files list.
const MaxRecentFiles = 10

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Reference *models.ReferenceData
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var kind, locator string
	if d.Reference != nil {
		kind, locator = d.Reference.Kind, d.Reference.Locator
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, ref_kind, ref_locator, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			checksum    = excluded.checksum,
			ref_kind    = excluded.ref_kind,
			ref_locator = excluded.ref_locator,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, kind, locator, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Title, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDocument returns the indexed row for path or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, checksum, ref_kind, ref_locator, updated_at
		FROM documents WHERE path = ?`, path)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a page of documents ordered by most recent update,
// together with the total count.
func (db *DB) ListDocuments(limit, offset int) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT path, title, checksum, ref_kind, ref_locator, updated_at
		FROM documents
		ORDER BY updated_at DESC, path
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// TouchRecent moves path to the front of the recent files list and trims
// the list to MaxRecentFiles entries. opened_at is strictly increasing so
// touches within one clock tick keep their order.
func (db *DB) TouchRecent(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO recent_files (path, opened_at)
		VALUES (?, MAX(?, (SELECT COALESCE(MAX(opened_at), 0) + 1 FROM recent_files)))
		ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at
	`, path, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("index: touch recent: %w", err)
	}
	_, err = tx.Exec(`
		DELETE FROM recent_files WHERE path NOT IN (
			SELECT path FROM recent_files ORDER BY opened_at DESC LIMIT ?
		)`, MaxRecentFiles)
	if err != nil {
		return fmt.Errorf("index: trim recent: %w", err)
	}
	return tx.Commit()
}

// Recent returns recently opened or saved paths, most recent first.
func (db *DB) Recent() ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM recent_files ORDER BY opened_at DESC LIMIT ?`, MaxRecentFiles)
	if err != nil {
		return nil, fmt.Errorf("index: recent: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRow, error) {
	var d DocumentRow
	var kind, locator string
	if err := s.Scan(&d.Path, &d.Title, &d.Checksum, &kind, &locator, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if kind != "" {
		d.Reference = &models.ReferenceData{Kind: kind, Locator: locator}
	}
	return &d, nil
}
