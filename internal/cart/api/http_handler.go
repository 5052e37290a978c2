package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/toko-storefront/internal/cart/domain"
	"github.com/ridloal/toko-storefront/internal/cart/service"
	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cs service.CartService) *CartHandler {
	return &CartHandler{cartService: cs}
}

// RegisterRoutes expects an authenticated group.
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cartRoutes := router.Group("/cart")
	{
		cartRoutes.GET("", h.ViewCart)
		cartRoutes.POST("/items", h.AddItem)
		cartRoutes.PUT("/items/:product_id", h.UpdateQuantity)
		cartRoutes.DELETE("/items/:product_id", h.RemoveItem)
		cartRoutes.PUT("/items/:product_id/note", h.AnnotateItem)
		cartRoutes.PUT("/note", h.SetOrderNote)
	}
}

func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
	}
	return userID, ok
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return 0, false
	}
	return id, true
}

func (h *CartHandler) respond(c *gin.Context, view *domain.View, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Cart Hdl: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ViewCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.cartService.ViewCart(c.Request.Context(), userID)
	h.respond(c, view, err)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	h.respond(c, view, err)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pid, ok := productID(c)
	if !ok {
		return
	}
	var req domain.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	view, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, pid, *req.Quantity)
	h.respond(c, view, err)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pid, ok := productID(c)
	if !ok {
		return
	}
	view, err := h.cartService.RemoveItem(c.Request.Context(), userID, pid)
	h.respond(c, view, err)
}

func (h *CartHandler) AnnotateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pid, ok := productID(c)
	if !ok {
		return
	}
	var req domain.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	view, err := h.cartService.AnnotateItem(c.Request.Context(), userID, pid, req.Note)
	h.respond(c, view, err)
}

func (h *CartHandler) SetOrderNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	view, err := h.cartService.SetOrderNote(c.Request.Context(), userID, req.Note)
	h.respond(c, view, err)
}
