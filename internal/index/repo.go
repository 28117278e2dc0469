package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/apperr"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	Path         string
	Identifier   string
	Type         string
	Event        string
	Tags         []string
	Due          string
	Completed    bool
	Relevant     bool
	RankPriority int
	Checksum     string
	UpdatedAt    time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Event   string
	Snippet string
}

// ListQuery selects and pages records in listings.
type ListQuery struct {
	Limit  int
	Offset int
	// Type restricts to one record type tag; empty means all.
	Type string
	// Tag restricts to records carrying the tag.
	Tag string
	// IncludeAll keeps completed and irrelevant records in the listing.
	IncludeAll bool
}

// UpsertRecord inserts or replaces a record and its FTS entry within a
// transaction.
func (db *DB) UpsertRecord(r RecordRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(r.Tags)

	// Upsert records table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO records (path, identifier, type, event, tags, due, completed, relevant, rank_priority, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			identifier    = excluded.identifier,
			type          = excluded.type,
			event         = excluded.event,
			tags          = excluded.tags,
			due           = excluded.due,
			completed     = excluded.completed,
			relevant      = excluded.relevant,
			rank_priority = excluded.rank_priority,
			checksum      = excluded.checksum,
			body          = excluded.body,
			updated_at    = excluded.updated_at
	`, r.Path, r.Identifier, r.Type, r.Event, string(tagsJSON), r.Due,
		r.Completed, r.Relevant, r.RankPriority, r.Checksum, body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, r.Path, r.Event, body, r.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteRecord removes a record and its FTS entry.
func (db *DB) DeleteRecord(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM records WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a record, or empty string
// if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM records WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetByIdentifier returns the record with the given identifier digest.
func (db *DB) GetByIdentifier(id string) (*RecordRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, identifier, type, event, tags, due, completed, relevant, rank_priority, checksum, updated_at
		FROM records WHERE identifier = ?
	`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get by identifier: %w", err)
	}
	return r, nil
}

// ListRecords returns records matching q plus the total match count.
func (db *DB) ListRecords(q ListQuery) ([]RecordRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}

	where := `WHERE 1=1`
	var args []any
	if q.Type != "" {
		where += ` AND type = ?`
		args = append(args, q.Type)
	}
	if q.Tag != "" {
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if !q.IncludeAll {
		where += ` AND completed = 0 AND relevant = 1`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count records: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, identifier, type, event, tags, due, completed, relevant, rank_priority, checksum, updated_at
		FROM records `+where+`
		ORDER BY rank_priority, CASE WHEN due = '' THEN 1 ELSE 0 END, due, path
		LIMIT ? OFFSET ?
	`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// AllChecksums returns every indexed path mapped to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM records`)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*RecordRow, error) {
	var r RecordRow
	var tagsJSON string
	if err := s.Scan(&r.Path, &r.Identifier, &r.Type, &r.Event, &tagsJSON, &r.Due,
		&r.Completed, &r.Relevant, &r.RankPriority, &r.Checksum, &r.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
	return &r, nil
}
