package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"petshop-service/internal/cart"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CartStorage persists cart ledgers as JSON under cart:<session>. Carts
// written by the legacy client share the same key and line shape, so both
// readers interoperate.
type CartStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCartStorage returns a cart.Storage backed by this client. A zero ttl
// keeps carts forever.
func (c *Client) NewCartStorage(ttl time.Duration) *CartStorage {
	return &CartStorage{rdb: c.rdb, ttl: ttl}
}

func (s *CartStorage) Save(ctx context.Context, sessionID string, lines []cart.Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return s.rdb.Set(ctx, cartKey(sessionID), payload, s.ttl).Err()
}

func (s *CartStorage) Load(ctx context.Context, sessionID string) ([]cart.Line, error) {
	payload, err := s.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err == redis.Nil {
		return []cart.Line{}, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []cart.Line
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return lines, nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// MarkReconciled records that a payment return for the external reference has
// been handled. Returns true on the first call, false on duplicates within
// the TTL window.
func (c *Client) MarkReconciled(ctx context.Context, externalRef string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("reconciled:%s", externalRef), "1", ttl).Result()
}
