package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/toko-storefront/internal/product/domain"
	"github.com/ridloal/toko-storefront/internal/product/repository"
	"github.com/ridloal/toko-storefront/internal/product/repository/mocks"
	"github.com/ridloal/toko-storefront/internal/product/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(repo *mocks.MockProductRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewProductHandler(service.NewProductService(repo))
	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)
	h.RegisterAdminRoutes(v1.Group("/admin"))
	return r
}

func TestProductHandler_GetProduct(t *testing.T) {
	repo := new(mocks.MockProductRepository)
	r := setupRouter(repo)

	t.Run("found", func(t *testing.T) {
		repo.On("GetProductByID", mock.Anything, int64(3)).Return(&domain.Product{ID: 3, Name: "Kaos", Price: 150000}, nil).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Kaos"`)
	})

	t.Run("not found", func(t *testing.T) {
		repo.On("GetProductByID", mock.Anything, int64(4)).Return(nil, repository.ErrProductNotFound).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/4", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductHandler_CreateProduct(t *testing.T) {
	repo := new(mocks.MockProductRepository)
	r := setupRouter(repo)

	t.Run("created", func(t *testing.T) {
		repo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

		body := strings.NewReader(`{"name":"Topi","price":50000,"stock":2}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":101`)
	})

	t.Run("negative stock rejected by binding", func(t *testing.T) {
		body := strings.NewReader(`{"name":"Topi","price":50000,"stock":-1}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	repo := new(mocks.MockProductRepository)
	r := setupRouter(repo)
	repo.On("DeleteProduct", mock.Anything, int64(8)).Return(nil).Once()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/8", nil).WithContext(context.Background()))

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}
