// Package session holds the per-session mutable state of the intake
// pipeline: credentials, uploaded files, and the per-file record store.
// State is created on first interaction and cleared only on explicit reset.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// UploadedFile is one user-submitted PDF. Filename is assumed unique within
// a session.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// FileRecord is the per-file processing state. A non-empty DocumentText is
// the idempotency flag: the assembler stage is skipped on re-entry.
type FileRecord struct {
	Filename     string
	DocumentText string
	Pages        int
	Seq          int // completion order within the session, 1-based
	CompletedAt  time.Time
}

// Store keeps FileRecords for one session in completion order. Records grow
// monotonically; only Reset removes them.
type Store interface {
	// Get returns the record for filename, or nil when the file has not
	// completed yet.
	Get(ctx context.Context, filename string) (*FileRecord, error)
	// Put stores a completed record, assigning the next completion Seq.
	Put(ctx context.Context, rec FileRecord) error
	// List returns all records in completion (Seq) order.
	List(ctx context.Context) ([]FileRecord, error)
	// Reset removes all records.
	Reset(ctx context.Context) error
	Close() error
}

// Session is the explicit state object threaded through the pipeline
// stages. Credentials live only here, in memory; they are never logged or
// written to the store.
type Session struct {
	ID string

	ocrKey     string
	extractKey string

	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{ID: uuid.New().String(), store: store, logger: logger}
}

// SetCredentials installs the two opaque engine secrets for this session.
func (s *Session) SetCredentials(ocrKey, extractKey string) {
	s.ocrKey = ocrKey
	s.extractKey = extractKey
	s.logger.Info("session.credentials.set", "session_id", s.ID)
}

func (s *Session) OCRKey() string     { return s.ocrKey }
func (s *Session) ExtractKey() string { return s.extractKey }

func (s *Session) Store() Store { return s.store }

// Reset clears credentials and all file records, returning the session to
// its initial state.
func (s *Session) Reset(ctx context.Context) error {
	s.ocrKey = ""
	s.extractKey = ""
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("session.reset", "session_id", s.ID)
	return nil
}
