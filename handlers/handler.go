package handlers

import (
	"fmt"
	"net/http"
	"os"

	"shop-service/internal/auth"
	"shop-service/internal/cache"
	"shop-service/internal/cart"
	"shop-service/internal/items"
	"shop-service/internal/orders"
	"shop-service/internal/stores/kafka"
	"shop-service/internal/users"
	"shop-service/middleware"
	"shop-service/pkg/ctxmanage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

type Handler struct {
	i        items.Store
	c        cart.Store
	o        orders.Store
	u        users.Store
	authKeys *auth.Keys
	k        *kafka.Conf     // nil when event publishing is disabled
	cache    cache.ItemCache // nil when the catalog cache is disabled
	sfg      singleflight.Group
	validate *validator.Validate
}

func NewHandler(i items.Store, c cart.Store, o orders.Store, u users.Store,
	authKeys *auth.Keys, k *kafka.Conf, itemCache cache.ItemCache) *Handler {
	return &Handler{
		i:        i,
		c:        c,
		o:        o,
		u:        u,
		authKeys: authKeys,
		k:        k,
		cache:    itemCache,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, a *auth.Keys, i items.Store, c cart.Store,
	o orders.Store, u users.Store, k *kafka.Conf, itemCache cache.ItemCache) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(a)
	if err != nil {
		panic(err)
	}

	h := NewHandler(i, c, o, u, a, k, itemCache)
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/refresh", h.RefreshToken)

		v1.GET("/items", h.ListItems)
		v1.GET("/items/:id", h.GetItem)

		authed := v1.Group("")
		authed.Use(m.Authentication())
		{
			authed.GET("/auth/sessions", h.ListSessions)

			authed.GET("/cart", m.Authorize(h.GetCart, auth.RoleUser))
			authed.POST("/cart/add", m.Authorize(h.AddToCart, auth.RoleUser))
			authed.PUT("/cart/update/:lineId", m.Authorize(h.UpdateQuantity, auth.RoleUser))
			authed.DELETE("/cart/remove/:lineId", m.Authorize(h.RemoveLine, auth.RoleUser))

			authed.POST("/orders/create", m.Authorize(h.Checkout, auth.RoleUser))
			authed.GET("/orders/history", m.Authorize(h.OrderHistory, auth.RoleUser))

			authed.POST("/items", m.Authorize(h.CreateItem, auth.RoleAdmin))
			authed.PUT("/items/:id", m.Authorize(h.UpdateItem, auth.RoleAdmin))
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
