package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storefront/api/internal/middleware"
	"storefront/api/internal/models"
	"storefront/api/internal/service"
)

// Routes on which an expired token may still authenticate. They must match the patterns
// registered below, since the auth middleware hands the route pattern to the policy.
const (
	ExtendPath = "/api/users/extend"
	LogoutPath = "/api/users/logout"
)

func GracePaths() []string {
	return []string{ExtendPath, LogoutPath}
}

type ProductCatalog interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, sellableOnly bool, limit, offset int) ([]models.Product, error)
}

type ProductCache interface {
	FindProduct(ctx context.Context, id string) (models.Product, error)
	Invalidate(ctx context.Context, id string) error
}

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Log          zerolog.Logger
	Environment  string
	Auth         *service.AuthService
	Cart         *service.CartService
	Products     ProductCatalog
	ProductCache ProductCache
	Health       map[string]HealthCheck
	Gatherer     prometheus.Gatherer
}

type HandlerSet struct {
	log          zerolog.Logger
	environment  string
	authService  *service.AuthService
	cartService  *service.CartService
	products     ProductCatalog
	productCache ProductCache
	health       map[string]HealthCheck
	gatherer     prometheus.Gatherer
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:          deps.Log,
		environment:  deps.Environment,
		authService:  deps.Auth,
		cartService:  deps.Cart,
		products:     deps.Products,
		productCache: deps.ProductCache,
		health:       deps.Health,
		gatherer:     deps.Gatherer,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	authed := middleware.Auth(h.authService)

	users := router.Group("/users")
	{
		users.POST("", h.RegisterAccount)
		users.POST("/login", h.Login)
		users.DELETE("/logout", authed, h.Logout)
		users.PATCH("/extend", authed, h.Extend)
		users.GET("/me", authed, h.Me)
		users.PATCH("/cart", authed, h.EditCart)
		users.GET("/cart", authed, h.GetCart)
	}

	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)

		admin := products.Group("", authed, middleware.RequireRoles(models.RoleAdmin))
		admin.GET("/all", h.AdminListProducts)
		admin.POST("", h.AdminCreateProduct)
		admin.PATCH("/:id", h.AdminUpdateProduct)
	}
}
