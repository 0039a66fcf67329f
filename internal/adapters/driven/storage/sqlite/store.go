package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "index_state.db"

// Ensure Store implements the interface.
var _ driven.IndexStateStore = (*Store)(nil)

// Store is a SQLite implementation of driven.IndexStateStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database in dataDir.
// If dataDir is empty, defaults to ~/.sercha/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DefaultFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every *.up.sql newer than the recorded schema version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Get retrieves the record for a document.
func (s *Store) Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, provider_kind, title, source_url, content_hash, chunk_ids, stale, updated_at
		FROM index_state WHERE document_id = ?
	`, documentID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting index state: %w", err)
	}
	return rec, nil
}

// Save inserts or replaces the record.
func (s *Store) Save(ctx context.Context, record *domain.IndexStateRecord) error {
	if record == nil || record.DocumentID == "" {
		return domain.ErrInvalidInput
	}

	ids := record.ChunkIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO index_state (document_id, provider_kind, title, source_url, content_hash, chunk_ids, stale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			provider_kind = excluded.provider_kind,
			title = excluded.title,
			source_url = excluded.source_url,
			content_hash = excluded.content_hash,
			chunk_ids = excluded.chunk_ids,
			stale = excluded.stale,
			updated_at = excluded.updated_at
	`, record.DocumentID, string(record.ProviderKind), record.Title, record.SourceURL,
		record.ContentHash, string(idsJSON), record.Stale, updatedAt)
	if err != nil {
		return fmt.Errorf("saving index state: %w", err)
	}
	return nil
}

// List returns all records ordered by document ID.
func (s *Store) List(ctx context.Context) ([]domain.IndexStateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, provider_kind, title, source_url, content_hash, chunk_ids, stale, updated_at
		FROM index_state ORDER BY document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing index state: %w", err)
	}
	defer rows.Close()

	out := []domain.IndexStateRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning index state: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.IndexStateRecord, error) {
	var (
		rec     domain.IndexStateRecord
		kind    string
		idsJSON string
	)
	err := row.Scan(&rec.DocumentID, &kind, &rec.Title, &rec.SourceURL,
		&rec.ContentHash, &idsJSON, &rec.Stale, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.ProviderKind = domain.ProviderKind(kind)

	var ids []string
	if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk ids: %w", err)
	}
	if len(ids) > 0 {
		rec.ChunkIDs = ids
	}
	return &rec, nil
}
