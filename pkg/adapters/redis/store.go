package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/blocks/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score of pages stored without a TTL (2100-01-01).
const farFuture = 4102444800

// Store implements ports.PageStore using Redis.
// Pages are JSON values; a sorted set indexes them by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for pages.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for pages.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "blocks:page:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(pageID string) string {
	return s.prefix + pageID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the page and refreshes its index entry.
func (s *Store) Save(ctx context.Context, page *domain.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(page.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: page.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the page from Redis.
func (s *Store) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	val, err := s.client.Get(ctx, s.key(pageID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page domain.Page
	if err := json.Unmarshal(val, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return &page, nil
}

// Delete removes the page and its index entry.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(pageID))
	pipe.ZRem(ctx, s.indexKey(), pageID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns live pages. Expired index entries are pruned lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired pages: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
