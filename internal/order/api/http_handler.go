package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/toko-storefront/internal/order/domain"
	"github.com/ridloal/toko-storefront/internal/order/repository"
	"github.com/ridloal/toko-storefront/internal/order/service"
	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(os service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// RegisterRoutes expects an authenticated group.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", h.Checkout)
	router.GET("/orders", h.ListMyOrders)
}

// RegisterAdminRoutes expects a group guarded by the admin middleware.
func (h *OrderHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	orderRoutes := admin.Group("/orders")
	{
		orderRoutes.GET("", h.ListAllOrders)
		orderRoutes.GET("/export", h.ExportOrders)
		orderRoutes.GET("/:id", h.GetOrder)
		orderRoutes.PUT("/:id/status", h.UpdateStatus)
		orderRoutes.DELETE("/:id", h.PurgeOrder)
	}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	var req domain.CheckoutRequest
	// An empty body means the default payment method.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), userID, req.PaymentMethod)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// writeCheckoutError sends the client back to the cart for anything it can fix there.
func writeCheckoutError(c *gin.Context, err error) {
	var (
		notFound *service.ProductNotFoundError
		short    *service.InsufficientStockError
	)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "redirect": "/cart"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"product_id": notFound.ProductID,
			"redirect":   "/cart",
		})
	case errors.As(err, &short):
		c.JSON(http.StatusConflict, gin.H{
			"error":        err.Error(),
			"product_id":   short.ProductID,
			"product_name": short.Name,
			"available":    short.Available,
			"requested":    short.Requested,
			"redirect":     "/cart",
		})
	case errors.Is(err, service.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order could not be saved, please try again"})
	default:
		logger.Error("Checkout Hdl: unhandled service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
	}
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	orders, err := h.orderService.ListCustomerOrders(c.Request.Context(), userID)
	if err != nil {
		logger.Error("ListMyOrders Hdl: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.orderService.ListAllOrders(c.Request.Context())
	if err != nil {
		logger.Error("ListAllOrders Hdl: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return id, true
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeAdminError(c, "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		writeAdminError(c, "UpdateStatus", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) PurgeOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := h.orderService.PurgeOrder(c.Request.Context(), id); err != nil {
		writeAdminError(c, "PurgeOrder", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) ExportOrders(c *gin.Context) {
	filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := h.orderService.ExportOrdersCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers are already out; the truncated body is all we can do.
		logger.Error("ExportOrders Hdl: export failed", err)
	}
}

func writeAdminError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrOrderNotFound.Error()})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(op+" Hdl: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order request"})
	}
}
