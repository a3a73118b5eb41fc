package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shop-service/internal/auth"
	"shop-service/internal/items"
	"shop-service/internal/orders"
	"shop-service/internal/stores/kafka"
	"shop-service/pkg/ctxmanage"
	"shop-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Checkout turns the caller's cart into an order: validates live stock,
// decrements it, writes the order snapshot and clears the cart, all as one
// unit. On success the order-created event is published best-effort.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	order, err := h.o.CreateOrder(c.Request.Context(), userId)
	if err != nil {
		var stockErr *items.InsufficientStockError
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			slog.Error("checkout with empty cart", slog.String(logkey.TraceID, traceId), slog.String("UserID", userId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		case errors.As(err, &stockErr):
			slog.Error("insufficient stock at checkout", slog.String(logkey.TraceID, traceId),
				slog.String("ItemID", stockErr.ItemID), slog.Int("Requested", stockErr.Requested),
				slog.Int("Available", stockErr.Available))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message":         "Not enough stock for " + stockErr.Name,
				"item_id":         stockErr.ItemID,
				"item_name":       stockErr.Name,
				"requested":       stockErr.Requested,
				"available_stock": stockErr.Available,
			})
		case errors.Is(err, items.ErrItemNotFound):
			slog.Error("item vanished during checkout", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		default:
			slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order"})
		}
		return
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", order.ID), slog.String("UserID", userId), slog.Int64("TotalCents", order.TotalCents))

	if h.k != nil {
		go h.publishOrderCreated(order)
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) OrderHistory(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.o.ListByUser(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching order history", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch order history"})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) publishOrderCreated(order orders.Order) {
	event := kafka.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		CreatedAt:  order.CreatedAt,
	}
	for _, line := range order.Lines {
		event.Items = append(event.Items, kafka.OrderCreatedItem{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal order created event", slog.String(logkey.ERROR, err.Error()))
		return
	}

	if err := h.k.ProduceMessage(kafka.TopicOrderCreated, []byte(order.ID), jsonData); err != nil {
		slog.Error("failed to produce order created event", slog.String(logkey.ERROR, err.Error()),
			slog.String("OrderID", order.ID))
		return
	}
	slog.Info("order created event produced", slog.String("OrderID", order.ID))
}
