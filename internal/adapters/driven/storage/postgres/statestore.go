package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure IndexStateStore implements the interface.
var _ driven.IndexStateStore = (*IndexStateStore)(nil)

// indexStateRow is the gorm model for the index_state table.
type indexStateRow struct {
	DocumentID   string         `gorm:"primaryKey;column:document_id"`
	ProviderKind string         `gorm:"column:provider_kind;index"`
	Title        string         `gorm:"column:title"`
	SourceURL    string         `gorm:"column:source_url"`
	ContentHash  string         `gorm:"column:content_hash"`
	ChunkIDs     datatypes.JSON `gorm:"column:chunk_ids"`
	Stale        bool           `gorm:"column:stale"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (indexStateRow) TableName() string {
	return "index_state"
}

// IndexStateStore is a PostgreSQL implementation of driven.IndexStateStore.
type IndexStateStore struct {
	db     *gorm.DB
	ownsDB bool
}

// NewIndexStateStore opens a connection and migrates the index_state table.
func NewIndexStateStore(dsn string) (*IndexStateStore, error) {
	db, err := Open(dsn, DefaultPoolConfig())
	if err != nil {
		return nil, err
	}
	s, err := NewIndexStateStoreWithDB(db)
	if err != nil {
		_ = Close(db)
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewIndexStateStoreWithDB uses an existing connection.
func NewIndexStateStoreWithDB(db *gorm.DB) (*IndexStateStore, error) {
	if err := db.AutoMigrate(&indexStateRow{}); err != nil {
		return nil, fmt.Errorf("migrate index_state: %w", err)
	}
	return &IndexStateStore{db: db}, nil
}

// Get retrieves the record for a document.
func (s *IndexStateStore) Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error) {
	var row indexStateRow
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get index state: %w", err)
	}
	return toRecord(&row)
}

// Save upserts a record.
func (s *IndexStateStore) Save(ctx context.Context, record *domain.IndexStateRecord) error {
	if record == nil || record.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	row, err := toRow(record)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save index state: %w", err)
	}
	return nil
}

// List returns all records ordered by document ID.
func (s *IndexStateStore) List(ctx context.Context) ([]domain.IndexStateRecord, error) {
	var rows []indexStateRow
	if err := s.db.WithContext(ctx).Order("document_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list index state: %w", err)
	}
	out := make([]domain.IndexStateRecord, 0, len(rows))
	for i := range rows {
		rec, err := toRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Close closes the connection when the store opened it.
func (s *IndexStateStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return Close(s.db)
}

func toRow(rec *domain.IndexStateRecord) (*indexStateRow, error) {
	ids := rec.ChunkIDs
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode chunk ids: %w", err)
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return &indexStateRow{
		DocumentID:   rec.DocumentID,
		ProviderKind: string(rec.ProviderKind),
		Title:        rec.Title,
		SourceURL:    rec.SourceURL,
		ContentHash:  rec.ContentHash,
		ChunkIDs:     datatypes.JSON(raw),
		Stale:        rec.Stale,
		UpdatedAt:    updated.UTC(),
	}, nil
}

func toRecord(row *indexStateRow) (*domain.IndexStateRecord, error) {
	var ids []string
	if len(row.ChunkIDs) > 0 {
		if err := json.Unmarshal(row.ChunkIDs, &ids); err != nil {
			return nil, fmt.Errorf("decode chunk ids for %s: %w", row.DocumentID, err)
		}
	}
	return &domain.IndexStateRecord{
		DocumentID:   row.DocumentID,
		ProviderKind: domain.ProviderKind(row.ProviderKind),
		Title:        row.Title,
		SourceURL:    row.SourceURL,
		ContentHash:  row.ContentHash,
		ChunkIDs:     ids,
		Stale:        row.Stale,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
