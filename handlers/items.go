package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/cache"
	"shop-service/internal/items"
	"shop-service/pkg/ctxmanage"
	"shop-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func (h *Handler) ListItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	limit := c.DefaultQuery("limit", "20")
	offset := c.DefaultQuery("offset", "0")

	limitInt, err := strconv.Atoi(limit)
	if err != nil || limitInt <= 0 || limitInt > 100 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offsetInt, err := strconv.Atoi(offset)
	if err != nil || offsetInt < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	list, err := h.listItemsCached(c.Request.Context(), limitInt, offsetInt)
	if err != nil {
		slog.Error("error fetching items", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}
	if list == nil {
		list = []items.Item{}
	}

	c.JSON(http.StatusOK, gin.H{"items": list})
}

// listItemsCached serves catalog pages through the cache when one is
// configured. Singleflight keeps concurrent misses for the same page from
// stampeding the database.
func (h *Handler) listItemsCached(ctx context.Context, limit, offset int) ([]items.Item, error) {
	if h.cache == nil {
		return h.i.ListItems(ctx, limit, offset)
	}

	key := fmt.Sprintf("l%d:o%d", limit, offset)
	v, err, _ := h.sfg.Do(key, func() (interface{}, error) {
		list, err := h.cache.GetList(ctx, key)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Error("item cache get failed", slog.String(logkey.ERROR, err.Error()))
		}

		list, err = h.i.ListItems(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := h.cache.SetList(setCtx, key, list); err != nil {
				slog.Error("item cache set failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()

		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]items.Item), nil
}

func (h *Handler) GetItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	itemID := c.Param("id")
	item, err := h.i.GetItemByID(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			slog.Error("item not found", slog.String(logkey.TraceID, traceId), slog.String("ItemID", itemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		} else {
			slog.Error("error fetching item", slog.String(logkey.TraceID, traceId),
				slog.String("ItemID", itemID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newItem items.NewItem
	if err := c.ShouldBindJSON(&newItem); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newItem); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
					return
				case "min":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value is less than " + vErr.Param()})
					return
				}
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	item, err := h.i.InsertItem(c.Request.Context(), newItem)
	if err != nil {
		slog.Error("error inserting item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Item creation failed"})
		return
	}

	h.invalidateItemCache()

	c.JSON(http.StatusOK, item)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	itemID := c.Param("id")
	var update items.UpdateItem
	if err := c.ShouldBindJSON(&update); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(update); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	item, err := h.i.UpdateItemInDB(c.Request.Context(), itemID, update)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			slog.Error("item not found", slog.String(logkey.TraceID, traceId), slog.String("ItemID", itemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		} else {
			slog.Error("error updating item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Item update failed"})
		}
		return
	}

	h.invalidateItemCache()

	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully", "item": item})
}

func (h *Handler) invalidateItemCache() {
	if h.cache == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := h.cache.InvalidateLists(ctx); err != nil {
			slog.Error("item cache invalidate failed", slog.String(logkey.ERROR, err.Error()))
		}
	}()
}
