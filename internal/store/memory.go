package store

import (
	"context"
	"sync"
	"time"

	"veira-pos/internal/models"
)

type checkoutKey struct {
	transactionID string
	expiresAt     time.Time
}

// MemoryStore keeps state in process. Used for tests and PERSISTENCE_BACKEND=memory.
type MemoryStore struct {
	mu        sync.Mutex
	state     []byte
	auth      bool
	checkouts map[string]checkoutKey
	now       func() time.Time

	// SaveErr, when set, is returned by SaveState
	SaveErr error
	Saves   int
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkouts: make(map[string]checkoutKey), now: time.Now}
}

func (m *MemoryStore) LoadState(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, models.ErrStateNotFound
	}
	return append([]byte(nil), m.state...), nil
}

func (m *MemoryStore) SaveState(ctx context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = append([]byte(nil), blob...)
	m.Saves++
	return nil
}

func (m *MemoryStore) SetAuthenticated(ctx context.Context, authenticated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = authenticated
	return nil
}

func (m *MemoryStore) IsAuthenticated(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth, nil
}

func (m *MemoryStore) RememberCheckout(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkouts[key] = checkoutKey{transactionID: transactionID, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) LookupCheckout(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.checkouts[key]
	if !ok || !m.now().Before(k.expiresAt) {
		return "", false, nil
	}
	return k.transactionID, true, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Raw returns the last saved blob
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.state...)
}

// Put seeds the stored blob directly
func (m *MemoryStore) Put(blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = blob
}
