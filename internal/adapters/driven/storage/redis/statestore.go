// Package redis persists index state in Redis.
//
// Each record is a JSON string under <prefix>doc:<document_id>; the set
// <prefix>ids tracks every known document ID for List.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure IndexStateStore implements the interface.
var _ driven.IndexStateStore = (*IndexStateStore)(nil)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "sercha:state:"

// IndexStateStore is a Redis implementation of driven.IndexStateStore.
type IndexStateStore struct {
	client *redis.Client
	prefix string
}

// NewIndexStateStore connects using a redis:// URL or a bare host:port address.
func NewIndexStateStore(ctx context.Context, url, prefix string) (*IndexStateStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewIndexStateStoreWithClient(client, prefix), nil
}

// NewIndexStateStoreWithClient uses an existing client.
func NewIndexStateStoreWithClient(client *redis.Client, prefix string) *IndexStateStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &IndexStateStore{client: client, prefix: prefix}
}

func (s *IndexStateStore) docKey(id string) string {
	return s.prefix + "doc:" + id
}

func (s *IndexStateStore) idsKey() string {
	return s.prefix + "ids"
}

// Get retrieves the record for a document.
func (s *IndexStateStore) Get(ctx context.Context, documentID string) (*domain.IndexStateRecord, error) {
	raw, err := s.client.Get(ctx, s.docKey(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get index state: %w", err)
	}
	return decode(raw)
}

// Save writes the record and registers its ID in one transaction.
func (s *IndexStateStore) Save(ctx context.Context, record *domain.IndexStateRecord) error {
	if record == nil || record.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	rec := record.Clone()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode index state: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(rec.DocumentID), raw, 0)
		pipe.SAdd(ctx, s.idsKey(), rec.DocumentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save index state: %w", err)
	}
	return nil
}

// List returns all records ordered by document ID.
func (s *IndexStateStore) List(ctx context.Context) ([]domain.IndexStateRecord, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list index state: %w", err)
	}
	if len(ids) == 0 {
		return []domain.IndexStateRecord{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list index state: %w", err)
	}

	out := make([]domain.IndexStateRecord, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Close closes the client.
func (s *IndexStateStore) Close() error {
	return s.client.Close()
}

func decode(raw []byte) (*domain.IndexStateRecord, error) {
	var rec domain.IndexStateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode index state: %w", err)
	}
	return &rec, nil
}
