package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"shop-service/internal/auth"
	"shop-service/internal/cart"
	"shop-service/internal/items"
	"shop-service/pkg/ctxmanage"
	"shop-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// CartEnvelope is the single response shape every cart endpoint returns.
type CartEnvelope struct {
	Cart             cart.Cart              `json:"cart"`
	UnavailableItems []cart.UnavailableLine `json:"unavailable_items"`
}

func newCartEnvelope(c cart.Cart, unavailable []cart.UnavailableLine) CartEnvelope {
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	if unavailable == nil {
		unavailable = []cart.UnavailableLine{}
	}
	return CartEnvelope{Cart: c, UnavailableItems: unavailable}
}

func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	userCart, unavailable, err := h.c.GetCart(c.Request.Context(), userId)
	if err != nil {
		slog.Error("error fetching cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("UserID", userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, newCartEnvelope(userCart, unavailable))
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var request struct {
		ItemID   string `json:"item_id" validate:"required"`
		Quantity int    `json:"quantity" validate:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		slog.Error("invalid item id or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Item ID and quantity must be valid"})
		return
	}

	userCart, err := h.c.AddItem(c.Request.Context(), userId, request.ItemID, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, err, "error adding item to cart")
		return
	}

	slog.Info("item added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ItemID", request.ItemID), slog.Int("Quantity", request.Quantity), slog.String("UserID", userId))

	c.JSON(http.StatusOK, newCartEnvelope(userCart, nil))
}

func (h *Handler) UpdateQuantity(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	lineId := c.Param("lineId")
	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	userCart, err := h.c.UpdateQuantity(c.Request.Context(), userId, lineId, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, err, "error updating cart line")
		return
	}

	c.JSON(http.StatusOK, newCartEnvelope(userCart, nil))
}

func (h *Handler) RemoveLine(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	lineId := c.Param("lineId")
	userCart, err := h.c.RemoveLine(c.Request.Context(), userId, lineId)
	if err != nil {
		h.cartError(c, traceId, err, "error removing cart line")
		return
	}

	c.JSON(http.StatusOK, newCartEnvelope(userCart, nil))
}

// cartError maps store errors to the status codes the cart endpoints share.
func (h *Handler) cartError(c *gin.Context, traceId string, err error, logMsg string) {
	var stockErr *items.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		slog.Error("insufficient stock", slog.String(logkey.TraceID, traceId),
			slog.String("ItemID", stockErr.ItemID), slog.Int("Requested", stockErr.Requested),
			slog.Int("Available", stockErr.Available))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message":         "Insufficient stock available",
			"item_id":         stockErr.ItemID,
			"item_name":       stockErr.Name,
			"requested":       stockErr.Requested,
			"available_stock": stockErr.Available,
		})
	case errors.Is(err, items.ErrItemNotFound):
		slog.Error("item not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Item not found"})
	case errors.Is(err, cart.ErrLineNotFound):
		slog.Error("cart line not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart line not found"})
	default:
		slog.Error(logMsg, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update cart"})
	}
}
