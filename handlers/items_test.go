package handlers

import (
	"net/http"
	"testing"

	"shop-service/internal/auth"
	"shop-service/internal/items"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListItemsPublic(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedCatalogItem(t, store, "Apple", 100, 3)
	seedCatalogItem(t, store, "Banana", 200, 5)

	rec := doRequest(t, api, http.MethodGet, "/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []items.Item `json:"items"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Apple", body.Items[0].Name)
}

func TestListItemsBadPagination(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/items?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, api, http.MethodGet, "/items?limit=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, api, http.MethodGet, "/items?offset=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItemPublic(t *testing.T) {
	api, store, _ := newTestAPI(t)
	item := seedCatalogItem(t, store, "Apple", 100, 3)

	rec := doRequest(t, api, http.MethodGet, "/items/"+item.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got items.Item
	decodeBody(t, rec, &got)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, int64(100), got.PriceCents)

	rec = doRequest(t, api, http.MethodGet, "/items/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateItemRequiresAdmin(t *testing.T) {
	api, _, keys := newTestAPI(t)
	payload := gin.H{"name": "Widget", "price_cents": 500, "stock_quantity": 5}

	rec := doRequest(t, api, http.MethodPost, "/items", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userTok := userToken(t, keys, "user-1", auth.RoleUser)
	rec = doRequest(t, api, http.MethodPost, "/items", userTok, payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminTok := userToken(t, keys, "admin-1", auth.RoleAdmin)
	rec = doRequest(t, api, http.MethodPost, "/items", adminTok, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var created items.Item
	decodeBody(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Widget", created.Name)
}

func TestCreateItemValidation(t *testing.T) {
	api, _, keys := newTestAPI(t)
	adminTok := userToken(t, keys, "admin-1", auth.RoleAdmin)

	rec := doRequest(t, api, http.MethodPost, "/items", adminTok, gin.H{"price_cents": 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/items", adminTok, gin.H{"name": "Widget", "price_cents": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemEndpoint(t *testing.T) {
	api, store, keys := newTestAPI(t)
	adminTok := userToken(t, keys, "admin-1", auth.RoleAdmin)
	item := seedCatalogItem(t, store, "Widget", 500, 5)

	rec := doRequest(t, api, http.MethodPut, "/items/"+item.ID, adminTok, gin.H{"stock_quantity": 9})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Item items.Item `json:"item"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 9, body.Item.StockQuantity)
	assert.Equal(t, "Widget", body.Item.Name)

	rec = doRequest(t, api, http.MethodPut, "/items/unknown", adminTok, gin.H{"stock_quantity": 9})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
