package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"veira-pos/internal/models"
)

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM app_state WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}

// LoadState returns the saved state blob or models.ErrStateNotFound
func (s *Store) LoadState(ctx context.Context) ([]byte, error) {
	data, err := s.get(ctx, s.stateKey)
	if err != nil && !errors.Is(err, models.ErrStateNotFound) {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return data, err
}

// SaveState upserts the state blob
func (s *Store) SaveState(ctx context.Context, blob []byte) error {
	if err := s.put(ctx, s.stateKey, blob); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// SetAuthenticated stores the login flag
func (s *Store) SetAuthenticated(ctx context.Context, authenticated bool) error {
	if !authenticated {
		_, err := s.db.ExecContext(ctx, "DELETE FROM app_state WHERE key = $1", s.authKey)
		return err
	}
	return s.put(ctx, s.authKey, []byte("true"))
}

// IsAuthenticated reads the login flag
func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	val, err := s.get(ctx, s.authKey)
	if errors.Is(err, models.ErrStateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(val) == "true", nil
}

// RememberCheckout stores the transaction id produced for an idempotency key
func (s *Store) RememberCheckout(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkout_keys (idempotency_key, transaction_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (idempotency_key) DO UPDATE SET transaction_id = EXCLUDED.transaction_id, expires_at = EXCLUDED.expires_at`,
		key, transactionID, time.Now().Add(ttl))
	return err
}

// LookupCheckout returns the transaction id stored for an unexpired idempotency key
func (s *Store) LookupCheckout(ctx context.Context, key string) (string, bool, error) {
	var id string
	err := s.db.GetContext(ctx, &id,
		"SELECT transaction_id FROM checkout_keys WHERE idempotency_key = $1 AND expires_at > NOW()", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
