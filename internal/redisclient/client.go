package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veira-pos/internal/models"

	"github.com/go-redis/redis/v8"
)

const saveLockKey = "state-save"

type Client struct {
	rdb      *redis.Client
	stateKey string
	authKey  string
	lockTTL  time.Duration
}

// NewClient creates a new Redis client holding the state blob under stateKey
// and the login flag under authKey
func NewClient(addr, password string, db int, stateKey, authKey string) (*Client, error) {
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

	return newClient(rdb, stateKey, authKey), nil
}

func newClient(rdb *redis.Client, stateKey, authKey string) *Client {
	if stateKey == "" {
		stateKey = models.StateKey
	}
	if authKey == "" {
		authKey = models.AuthKey
	}
	return &Client{rdb: rdb, stateKey: stateKey, authKey: authKey, lockTTL: 5 * time.Second}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// LoadState returns the saved state blob or models.ErrStateNotFound
func (c *Client) LoadState(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return data, nil
}

// SaveState overwrites the state blob. Concurrent writers from other
// processes are kept out with a short-lived lock.
func (c *Client) SaveState(ctx context.Context, blob []byte) error {
	ok, err := c.AcquireLock(ctx, saveLockKey, c.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire save lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire save lock: held by another writer")
	}
	defer c.ReleaseLock(ctx, saveLockKey)

	if err := c.rdb.Set(ctx, c.stateKey, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// SetAuthenticated stores the login flag
func (c *Client) SetAuthenticated(ctx context.Context, authenticated bool) error {
	if !authenticated {
		return c.rdb.Del(ctx, c.authKey).Err()
	}
	return c.rdb.Set(ctx, c.authKey, "true", 0).Err()
}

// IsAuthenticated reads the login flag
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	val, err := c.rdb.Get(ctx, c.authKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "true", nil
}

// RememberCheckout stores the transaction id produced for an idempotency key
func (c *Client) RememberCheckout(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), transactionID, ttl).Err()
}

// LookupCheckout returns the transaction id stored for an idempotency key
func (c *Client) LookupCheckout(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
