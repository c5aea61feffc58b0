package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/stretchr/testify/mock"
)

// MockExtractor is a testify mock of the OCR extractor
type MockExtractor struct {
	mock.Mock
}

// Extract records the call and returns the configured holdings
func (m *MockExtractor) Extract(ctx context.Context, filename string, image []byte) ([]domain.RawHolding, error) {
	args := m.Called(ctx, filename, image)
	holdings, _ := args.Get(0).([]domain.RawHolding)
	return holdings, args.Error(1)
}

// MockCheckupStore is an in-memory checkup store.
// Checkups are deep-copied on the way in and out, like a real database.
type MockCheckupStore struct {
	mu       sync.RWMutex
	checkups map[string][]byte
	err      error
}

// NewMockCheckupStore creates an empty store
func NewMockCheckupStore() *MockCheckupStore {
	return &MockCheckupStore{checkups: make(map[string][]byte)}
}

// SetError makes every subsequent call fail with err
func (m *MockCheckupStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Put stores c, replacing any checkup with the same id
func (m *MockCheckupStore) Put(c *domain.Checkup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkups[c.ID] = encode(c)
}

// Create stores a new checkup
func (m *MockCheckupStore) Create(_ context.Context, c *domain.Checkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.checkups[c.ID]; ok {
		return fmt.Errorf("checkup %s already exists", c.ID)
	}
	m.checkups[c.ID] = encode(c)
	return nil
}

// GetByID returns a copy of the stored checkup
func (m *MockCheckupStore) GetByID(_ context.Context, id string) (*domain.Checkup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.checkups[id]
	if !ok {
		return nil, fmt.Errorf("checkup %s: %w", id, domain.ErrNotFound)
	}
	return decode(data), nil
}

// Update replaces the stored checkup, keeping its status
func (m *MockCheckupStore) Update(_ context.Context, c *domain.Checkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, ok := m.checkups[c.ID]
	if !ok {
		return fmt.Errorf("checkup %s: %w", c.ID, domain.ErrNotFound)
	}
	next := *c
	next.Status = decode(data).Status
	m.checkups[c.ID] = encode(&next)
	return nil
}

// UpdateStatus changes the stored status
func (m *MockCheckupStore) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, ok := m.checkups[id]
	if !ok {
		return fmt.Errorf("checkup %s: %w", id, domain.ErrNotFound)
	}
	c := decode(data)
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	m.checkups[id] = encode(c)
	return nil
}

func encode(c *domain.Checkup) []byte {
	data, err := json.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("encode checkup: %v", err))
	}
	return data
}

func decode(data []byte) *domain.Checkup {
	var c domain.Checkup
	if err := json.Unmarshal(data, &c); err != nil {
		panic(fmt.Sprintf("decode checkup: %v", err))
	}
	return &c
}
