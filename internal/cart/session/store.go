// Package session keeps each customer's cart between requests.
package session

import (
	"context"
	"errors"

	"github.com/ridloal/toko-storefront/internal/cart/domain"
)

var ErrCorruptCart = errors.New("stored cart could not be decoded")

// Store is the per-user bag holding the cart. Get returns an empty cart when nothing is stored.
type Store interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Save(ctx context.Context, userID int64, cart *domain.Cart) error
	Clear(ctx context.Context, userID int64) error
}
