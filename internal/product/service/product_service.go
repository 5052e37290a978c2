package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ridloal/toko-storefront/internal/platform/logger"
	"github.com/ridloal/toko-storefront/internal/product/domain"
	"github.com/ridloal/toko-storefront/internal/product/repository"
)

var ErrInvalidProduct = errors.New("invalid product")

type ProductService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductDetails(ctx context.Context, productID int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID int64, req domain.ProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
	SeedSampleProducts(ctx context.Context) (int, error)
}

type productServiceImpl struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productServiceImpl{repo: repo}
}

// SampleProducts is the starter catalog inserted into an empty store.
var SampleProducts = []domain.Product{
	{Name: "Baju Kaos Premium", Price: 150000, Stock: 10, Description: "Bahan katun 30s, nyaman dipakai."},
	{Name: "Celana Jeans Slim Fit", Price: 250000, Stock: 5, Description: "Model terbaru, warna Dark Blue."},
	{Name: "Sepatu Sneakers Pria", Price: 300000, Stock: 7, Description: "Sporty dan stylish."},
}

func (s *productServiceImpl) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *productServiceImpl) GetProductDetails(ctx context.Context, productID int64) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, productID)
}

func validate(req domain.ProductRequest) (domain.ProductRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.ImageFile = strings.TrimSpace(req.ImageFile)
	switch {
	case req.Name == "":
		return req, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case req.Price < 0:
		return req, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case req.Stock < 0:
		return req, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return req, nil
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	req, err := validate(req)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageFile:   req.ImageFile,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("could not save product: %w", err)
	}
	logger.Info("product %d (%s) created", p.ID, p.Name)
	return p, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, productID int64, req domain.ProductRequest) (*domain.Product, error) {
	req, err := validate(req)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	if req.ImageFile != "" {
		p.ImageFile = req.ImageFile
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes the catalog row only. Orders keep their own item snapshots.
func (s *productServiceImpl) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	logger.Info("product %d deleted", productID)
	return nil
}

// SeedSampleProducts fills an empty catalog and returns how many products were inserted.
func (s *productServiceImpl) SeedSampleProducts(ctx context.Context) (int, error) {
	n, err := s.repo.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range SampleProducts {
		p := SampleProducts[i]
		if err := s.repo.CreateProduct(ctx, &p); err != nil {
			return i, fmt.Errorf("could not seed %q: %w", p.Name, err)
		}
	}
	logger.Info("seeded %d sample products", len(SampleProducts))
	return len(SampleProducts), nil
}
