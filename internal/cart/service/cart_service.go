package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ridloal/toko-storefront/internal/cart/domain"
	"github.com/ridloal/toko-storefront/internal/cart/session"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	pDomain "github.com/ridloal/toko-storefront/internal/product/domain"
	pRepo "github.com/ridloal/toko-storefront/internal/product/repository"
)

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	GetProductByID(ctx context.Context, id int64) (*pDomain.Product, error)
}

type CartService interface {
	ViewCart(ctx context.Context, userID int64) (*domain.View, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.View, error)
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*domain.View, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*domain.View, error)
	AnnotateItem(ctx context.Context, userID, productID int64, note string) (*domain.View, error)
	SetOrderNote(ctx context.Context, userID int64, note string) (*domain.View, error)
}

type cartService struct {
	store    session.Store
	products ProductFinder
}

func NewCartService(store session.Store, products ProductFinder) CartService {
	return &cartService{store: store, products: products}
}

func (s *cartService) ViewCart(ctx context.Context, userID int64) (*domain.View, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// AddItem ignores products that do not exist. Stock is only checked at checkout.
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.View, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, pRepo.ErrProductNotFound) {
			logger.Debug("cart add for missing product %d ignored", productID)
			return s.view(ctx, cart)
		}
		return nil, err
	}

	if err := cart.Add(productID, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, userID, cart)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*domain.View, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) { c.SetQuantity(productID, quantity) })
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) (*domain.View, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) { c.Remove(productID) })
}

func (s *cartService) AnnotateItem(ctx context.Context, userID, productID int64, note string) (*domain.View, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) { c.Annotate(productID, note) })
}

func (s *cartService) SetOrderNote(ctx context.Context, userID int64, note string) (*domain.View, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) { c.SetNote(note) })
}

func (s *cartService) mutate(ctx context.Context, userID int64, fn func(*domain.Cart)) (*domain.View, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(cart)
	return s.save(ctx, userID, cart)
}

func (s *cartService) save(ctx context.Context, userID int64, cart *domain.Cart) (*domain.View, error) {
	if err := s.store.Save(ctx, userID, cart); err != nil {
		logger.Error("cart save failed for user %d", err, userID)
		return nil, fmt.Errorf("could not save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// view prices the cart with current catalog data.
func (s *cartService) view(ctx context.Context, cart *domain.Cart) (*domain.View, error) {
	v := &domain.View{Lines: []domain.Line{}, Note: cart.Note, ItemCount: cart.ItemCount()}
	prices := make(map[int64]int64, len(cart.Entries))
	for _, e := range cart.Lines() {
		p, err := s.products.GetProductByID(ctx, e.ProductID)
		if err != nil {
			if errors.Is(err, pRepo.ErrProductNotFound) {
				v.Unavailable = append(v.Unavailable, e.ProductID)
				continue
			}
			return nil, err
		}
		line := domain.Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Stock:     p.Stock,
			Quantity:  e.Quantity,
			Note:      e.Note,
			Subtotal:  p.Price * int64(e.Quantity),
		}
		v.Lines = append(v.Lines, line)
		prices[p.ID] = p.Price
	}
	v.Total = cart.TotalPrice(func(id int64) (int64, bool) {
		price, ok := prices[id]
		return price, ok
	})
	return v, nil
}
