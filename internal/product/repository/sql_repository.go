package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	"github.com/ridloal/toko-storefront/internal/product/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// DecrementStock must run inside the caller's transaction.
	DecrementStock(ctx context.Context, dbops database.DBTX, id int64, quantity int) error
}

type sqlProductRepository struct {
	db *sql.DB
}

// NewProductRepository works against both the Postgres and the SQLite schema.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &sqlProductRepository{db: db}
}

const productColumns = `id, name, description, price, stock, image_file, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageFile, &p.CreatedAt, &p.UpdatedAt)
}

func (r *sqlProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("ListProducts: query failed", err)
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			logger.Error("ListProducts: scan failed", err)
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("ListProducts: rows iteration error", err)
		return nil, err
	}
	return products, nil
}

func (r *sqlProductRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var p domain.Product
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		logger.Error("GetProductByID: query failed", err)
		return nil, err
	}
	return &p, nil
}

func (r *sqlProductRepository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		logger.Error("CountProducts: query failed", err)
		return 0, err
	}
	return n, nil
}

func (r *sqlProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, description, price, stock, image_file, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.ImageFile == "" {
		product.ImageFile = domain.DefaultImageFile
	}

	err := r.db.QueryRowContext(ctx, query, product.Name, product.Description, product.Price, product.Stock,
		product.ImageFile, product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		logger.Error("CreateProduct: failed to insert product", err)
		return err
	}
	return nil
}

func (r *sqlProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products SET name = $1, description = $2, price = $3, stock = $4, image_file = $5, updated_at = $6
              WHERE id = $7`

	product.UpdatedAt = time.Now().UTC()
	if product.ImageFile == "" {
		product.ImageFile = domain.DefaultImageFile
	}

	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.Stock,
		product.ImageFile, product.UpdatedAt, product.ID)
	if err != nil {
		logger.Error("UpdateProduct: exec failed", err)
		return err
	}
	return expectOneRow(res, product.ID)
}

func (r *sqlProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeleteProduct: exec failed", err)
		return err
	}
	return expectOneRow(res, id)
}

// DecrementStock takes quantity units in one conditional statement. Zero affected rows means
// the product is gone or has fewer than quantity units left; both surface as ErrInsufficientStock
// and the caller decides how to report it.
func (r *sqlProductRepository) DecrementStock(ctx context.Context, dbops database.DBTX, id int64, quantity int) error {
	query := `UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $4`
	res, err := dbops.ExecContext(ctx, query, quantity, time.Now().UTC(), id, quantity)
	if err != nil {
		if database.IsCheckViolation(err) {
			return fmt.Errorf("%w: product %d", ErrInsufficientStock, id)
		}
		logger.Error("DecrementStock: exec failed for product %d", err, id)
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: product %d, requested %d", ErrInsufficientStock, id, quantity)
	}
	return nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return nil
}
