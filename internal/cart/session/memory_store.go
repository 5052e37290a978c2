package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ridloal/toko-storefront/internal/cart/domain"
)

// MemoryStore keeps carts in process memory for single-instance deployments without Redis.
// Carts are stored encoded so callers never share a map with the store.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[int64][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[int64][]byte{}}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	s.mu.Lock()
	data, ok := s.carts[userID]
	s.mu.Unlock()

	cart := domain.New()
	if !ok {
		return cart, nil
	}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	cart.Normalize()
	return cart, nil
}

func (s *MemoryStore) Save(_ context.Context, userID int64, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	s.mu.Lock()
	s.carts[userID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
	return nil
}
