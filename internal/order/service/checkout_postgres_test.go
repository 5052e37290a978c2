//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"

	cDomain "github.com/ridloal/toko-storefront/internal/cart/domain"
	"github.com/ridloal/toko-storefront/internal/cart/session"
	"github.com/ridloal/toko-storefront/internal/order/repository"
	"github.com/ridloal/toko-storefront/internal/order/service"
	"github.com/ridloal/toko-storefront/internal/platform/database/databasetest"
	pDomain "github.com/ridloal/toko-storefront/internal/product/domain"
	pRepo "github.com/ridloal/toko-storefront/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_Postgres(t *testing.T) {
	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db := databasetest.NewPostgres(t, driver)
			orders := repository.NewOrderRepository(db)
			products := pRepo.NewProductRepository(db)
			svc := service.NewOrderService(orders, products, session.NewMemoryStore(), "QRIS")

			p := &pDomain.Product{Name: "Sepatu", Price: 300000, Stock: 3}
			require.NoError(t, products.CreateProduct(ctx, p))

			const buyers = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				placed  int
				refused int
			)
			for i := 0; i < buyers; i++ {
				wg.Add(1)
				go func(userID int64) {
					defer wg.Done()
					c := cDomain.New()
					_ = c.Add(p.ID, 1)
					_, err := svc.PlaceOrder(ctx, userID, c, "")
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						placed++
					} else {
						assert.ErrorIs(t, err, service.ErrInsufficientStock)
						refused++
					}
				}(int64(i + 1))
			}
			wg.Wait()

			assert.Equal(t, 3, placed)
			assert.Equal(t, buyers-3, refused)

			got, err := products.GetProductByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Stock)

			events, err := orders.ListUnpublishedEvents(ctx, 100)
			require.NoError(t, err)
			assert.Len(t, events, 3)

			all, err := svc.ListAllOrders(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			for _, o := range all {
				assert.Equal(t, int64(300000)+o.ID%1000, o.UniquePaymentAmount)
				assert.Equal(t, "Unknown User", o.CustomerEmail)
			}
		})
	}
}
