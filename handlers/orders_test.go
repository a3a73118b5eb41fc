package handlers

import (
	"context"
	"net/http"
	"testing"

	"shop-service/internal/items"
	"shop-service/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutHappyPath(t *testing.T) {
	api, store, keys := newTestAPI(t)
	token := userToken(t, keys, "user-1")
	item := seedCatalogItem(t, store, "Widget", 1000, 2)

	rec := doRequest(t, api, http.MethodPost, "/cart/add", token, gin.H{"item_id": item.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var order orders.Order
	decodeBody(t, rec, &order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, int64(2000), order.TotalCents)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, int64(1000), order.Lines[0].UnitPriceCents)

	// Stock was decremented and the cart cleared.
	updated, err := store.GetItemByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)

	rec = doRequest(t, api, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope CartEnvelope
	decodeBody(t, rec, &envelope)
	assert.Empty(t, envelope.Cart.Lines)
}

func TestCheckoutEmptyCart(t *testing.T) {
	api, _, keys := newTestAPI(t)
	token := userToken(t, keys, "user-1")

	rec := doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "Cart is empty", body["message"])
}

func TestCheckoutTwiceFailsSecondTime(t *testing.T) {
	api, store, keys := newTestAPI(t)
	token := userToken(t, keys, "user-1")
	item := seedCatalogItem(t, store, "Widget", 1000, 2)

	rec := doRequest(t, api, http.MethodPost, "/cart/add", token, gin.H{"item_id": item.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	api, store, keys := newTestAPI(t)
	token := userToken(t, keys, "user-1")
	item := seedCatalogItem(t, store, "Widget", 1000, 3)

	rec := doRequest(t, api, http.MethodPost, "/cart/add", token, gin.H{"item_id": item.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	// Stock is drained between carting and checkout.
	one := 1
	_, err := store.UpdateItemInDB(context.Background(), item.ID, items.UpdateItem{StockQuantity: &one})
	require.NoError(t, err)

	rec = doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "Not enough stock for Widget", body["message"])
	assert.Equal(t, float64(3), body["requested"])
	assert.Equal(t, float64(1), body["available_stock"])

	// Nothing was committed.
	updated, err := store.GetItemByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)

	list, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderHistory(t *testing.T) {
	api, store, keys := newTestAPI(t)
	token := userToken(t, keys, "user-1")
	item := seedCatalogItem(t, store, "Widget", 1000, 10)

	rec := doRequest(t, api, http.MethodGet, "/orders/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Orders []orders.Order `json:"orders"`
	}
	decodeBody(t, rec, &history)
	assert.Empty(t, history.Orders)

	rec = doRequest(t, api, http.MethodPost, "/cart/add", token, gin.H{"item_id": item.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, api, http.MethodPost, "/orders/create", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A later price change must not rewrite the recorded order.
	newPrice := int64(9999)
	_, err := store.UpdateItemInDB(context.Background(), item.ID, items.UpdateItem{PriceCents: &newPrice})
	require.NoError(t, err)

	rec = doRequest(t, api, http.MethodGet, "/orders/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &history)
	require.Len(t, history.Orders, 1)
	assert.Equal(t, int64(2000), history.Orders[0].TotalCents)
	assert.Equal(t, int64(1000), history.Orders[0].Lines[0].UnitPriceCents)
}

func TestOrdersRequireAuth(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/orders/create", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, api, http.MethodGet, "/orders/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
