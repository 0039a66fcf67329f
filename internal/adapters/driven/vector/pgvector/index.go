// Package pgvector provides a VectorIndex stored in PostgreSQL with the
// pgvector extension, accessed through gorm.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTable is the table used when none is configured.
const DefaultTable = "chunk_vectors"

var validTable = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// chunkVectorRow maps one row of the vectors table.
type chunkVectorRow struct {
	ID           string            `gorm:"primaryKey;column:id"`
	DocumentID   string            `gorm:"column:document_id"`
	ProviderKind string            `gorm:"column:provider_kind"`
	Embedding    pgvector.Vector   `gorm:"column:embedding"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata"`
}

// Config configures the pgvector index.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// Table is the vectors table name.
	Table string

	// Dimensions is the embedding size; the column is created as vector(Dimensions).
	Dimensions int
}

// Index stores chunk vectors in PostgreSQL.
type Index struct {
	db     *gorm.DB
	table  string
	ownsDB bool
}

// New connects and ensures the vectors table exists.
func New(cfg Config) (*Index, error) {
	db, err := postgres.Open(cfg.DSN, postgres.DefaultPoolConfig())
	if err != nil {
		return nil, err
	}
	idx, err := NewWithDB(db, cfg)
	if err != nil {
		_ = postgres.Close(db)
		return nil, err
	}
	idx.ownsDB = true
	return idx, nil
}

// NewWithDB uses an existing gorm connection.
func NewWithDB(db *gorm.DB, cfg Config) (*Index, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, table)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidInput)
	}

	idx := &Index{db: db, table: table}
	if err := idx.migrate(cfg.Dimensions); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrate(dims int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			provider_kind TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'
		)`, i.table, dims),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_document_id_idx ON %s (document_id)", i.table, i.table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)", i.table, i.table),
	}
	for _, stmt := range stmts {
		if err := i.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate %s: %w", i.table, err)
		}
	}
	return nil
}

// Upsert inserts or overwrites vectors in one statement.
func (i *Index) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkVectorRow, len(records))
	for n, rec := range records {
		rows[n] = toRow(rec)
	}
	err := i.db.WithContext(ctx).Table(i.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document_id", "provider_kind", "embedding", "metadata"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("pgvector upsert: %w", err)
	}
	return nil
}

// Delete removes vectors by ID. Unknown IDs are ignored.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := i.db.WithContext(ctx).Table(i.table).Where("id IN ?", ids).Delete(&chunkVectorRow{}).Error
	if err != nil {
		return fmt.Errorf("pgvector delete: %w", err)
	}
	return nil
}

// Query returns the k nearest vectors by cosine distance.
func (i *Index) Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	type scoredRow struct {
		chunkVectorRow
		Similarity float64 `gorm:"column:similarity"`
	}

	query := pgvector.NewVector(vector)
	tx := i.db.WithContext(ctx).Table(i.table).
		Select("*, 1 - (embedding <=> ?) AS similarity", query)
	for _, key := range sortedKeys(filter) {
		tx = tx.Where("metadata ->> ? = ?", key, filter[key])
	}

	var rows []scoredRow
	err := tx.Order(gorm.Expr("embedding <=> ?", query)).Limit(k).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}

	hits := make([]driven.VectorHit, len(rows))
	for n, r := range rows {
		hits[n] = driven.VectorHit{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: fromJSONMap(r.Metadata),
		}
	}
	return hits, nil
}

// Close closes the connection when the index opened it.
func (i *Index) Close() error {
	if !i.ownsDB {
		return nil
	}
	return postgres.Close(i.db)
}

func toRow(rec driven.VectorRecord) chunkVectorRow {
	meta := make(datatypes.JSONMap, len(rec.Metadata))
	for k, v := range rec.Metadata {
		meta[k] = v
	}
	return chunkVectorRow{
		ID:           rec.ID,
		DocumentID:   rec.Metadata[driven.MetaDocumentID],
		ProviderKind: rec.Metadata[driven.MetaProviderKind],
		Embedding:    pgvector.NewVector(rec.Vector),
		Metadata:     meta,
	}
}

func fromJSONMap(m datatypes.JSONMap) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
