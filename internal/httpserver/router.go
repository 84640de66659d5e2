package httpserver

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type api struct {
	deps       Deps
	logger     *log.Logger
	production bool
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.AuthSvc == nil {
		return nil, errors.New("auth service is required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &api{deps: deps, logger: logger, production: deps.production()}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigin)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	window := deps.RateLimitWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	root := router.Group("/api", rateLimit(deps.Redis, window, deps.RateLimitMax, logger))
	root.GET("/health", a.apiHealth)

	authed := a.requireAuth
	admin := a.requireAdmin

	auth := root.Group("/auth")
	auth.POST("/register", a.register)
	auth.POST("/login", a.login)
	auth.GET("/me", authed, a.me)
	auth.POST("/logout", authed, a.logout)

	users := root.Group("/users", authed)
	users.GET("", admin, a.listUsers)
	users.GET("/:id", a.getUser)
	users.PUT("/:id", a.updateUser)
	users.DELETE("/:id", admin, a.deleteUser)

	categories := root.Group("/categories")
	categories.GET("", a.listCategories)
	categories.GET("/:id", a.getCategory)
	categories.POST("", authed, admin, a.createCategory)
	categories.PUT("/:id", authed, admin, a.updateCategory)
	categories.DELETE("/:id", authed, admin, a.deleteCategory)

	products := root.Group("/products")
	products.GET("", a.listProducts)
	products.GET("/:id", a.optionalAuth, a.getProduct)
	products.POST("", authed, admin, a.createProduct)
	products.PUT("/:id", authed, admin, a.updateProduct)
	products.DELETE("/:id", authed, admin, a.deleteProduct)
	products.GET("/:id/comments", a.productComments)
	products.POST("/:id/comments", authed, a.createComment)

	cart := root.Group("/cart", authed)
	cart.GET("", a.getCart)
	cart.DELETE("", a.clearCart)
	cart.POST("/items", a.addCartItem)
	cart.PUT("/items/:id", a.updateCartItem)
	cart.DELETE("/items/:id", a.removeCartItem)

	orders := root.Group("/orders", authed)
	orders.GET("", a.listOrders)
	orders.POST("", a.checkout)
	orders.GET("/:id", a.getOrder)
	orders.PUT("/:id/status", admin, a.updateOrderStatus)
	orders.PUT("/:id/payment-status", admin, a.updatePaymentStatus)

	likes := root.Group("/likes", authed)
	likes.GET("", a.listLikes)
	likes.GET("/check/:productId", a.checkLike)
	likes.POST("/:productId", a.like)
	likes.DELETE("/:productId", a.unlike)

	comments := root.Group("/comments", authed)
	comments.GET("/my", a.myComments)
	comments.PUT("/:id", a.updateComment)
	comments.DELETE("/:id", a.deleteComment)

	router.NoRoute(func(c *gin.Context) {
		abortWith(c, http.StatusNotFound, "Route not found", "Not found")
	})

	return router, nil
}

func corsConfig(origin string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	origins := make([]string, 0, 1)
	for _, o := range strings.Split(origin, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (a *api) apiHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"message":     "ShopVerse API is running",
		"timestamp":   time.Now().UTC(),
		"environment": a.deps.Environment,
	})
}
