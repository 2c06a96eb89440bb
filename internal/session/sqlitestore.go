package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists FileRecords for a named session so a re-run of the
// same session skips files that already completed. Credentials are never
// written here.
type SQLiteStore struct {
	db        *sql.DB
	sessionID string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS file_records (
	session_id    TEXT NOT NULL,
	filename      TEXT NOT NULL,
	document_text TEXT NOT NULL,
	pages         INTEGER NOT NULL,
	seq           INTEGER NOT NULL,
	completed_at  TEXT NOT NULL,
	PRIMARY KEY (session_id, filename)
);`

// OpenSQLiteStore opens (creating if needed) the sqlite file at path and
// scopes all records to sessionID.
func OpenSQLiteStore(ctx context.Context, path, sessionID string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, sessionID: sessionID}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, filename string) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filename, document_text, pages, seq, completed_at
		 FROM file_records WHERE session_id = ? AND filename = ?`,
		s.sessionID, filename)

	var rec FileRecord
	var completed string
	err := row.Scan(&rec.Filename, &rec.DocumentText, &rec.Pages, &rec.Seq, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file record: %w", err)
	}
	rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec FileRecord) error {
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_records (session_id, filename, document_text, pages, seq, completed_at)
		 VALUES (?, ?, ?, ?,
		   (SELECT COALESCE(MAX(seq), 0) + 1 FROM file_records WHERE session_id = ?),
		   ?)
		 ON CONFLICT (session_id, filename) DO UPDATE SET
		   document_text = excluded.document_text,
		   pages         = excluded.pages,
		   completed_at  = excluded.completed_at`,
		s.sessionID, rec.Filename, rec.DocumentText, rec.Pages, s.sessionID,
		rec.CompletedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put file record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, document_text, pages, seq, completed_at
		 FROM file_records WHERE session_id = ? ORDER BY seq`,
		s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var rec FileRecord
		var completed string
		if err := rows.Scan(&rec.Filename, &rec.DocumentText, &rec.Pages, &rec.Seq, &completed); err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM file_records WHERE session_id = ?`, s.sessionID)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
