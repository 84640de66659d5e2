package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"shopverse/internal/cache"
	"shopverse/internal/config"
	"shopverse/internal/db"
	"shopverse/internal/httpserver"
	cartrepo "shopverse/internal/repository/cart"
	categoryrepo "shopverse/internal/repository/category"
	commentrepo "shopverse/internal/repository/comment"
	likerepo "shopverse/internal/repository/like"
	orderrepo "shopverse/internal/repository/order"
	productrepo "shopverse/internal/repository/product"
	userrepo "shopverse/internal/repository/user"
	authsvc "shopverse/internal/service/auth"
	cartsvc "shopverse/internal/service/cart"
	categorysvc "shopverse/internal/service/category"
	engagementsvc "shopverse/internal/service/engagement"
	ordersvc "shopverse/internal/service/order"
	productsvc "shopverse/internal/service/product"
	usersvc "shopverse/internal/service/user"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient := connectRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	detailCache := cache.New(redisClient, "shopverse:", cfg.CacheTTL)

	userRepo := userrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	likeRepo := likerepo.NewPostgres(dbpool, logger)
	commentRepo := commentrepo.NewPostgres(dbpool, logger)

	hasher := authsvc.NewHasher(cfg.BcryptCost)
	tokens := authsvc.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := authsvc.New(userRepo, tokens, hasher, logger)
	userService := usersvc.New(userRepo, hasher)
	productService := productsvc.New(productRepo, categoryRepo, commentRepo, detailCache, logger)
	categoryService := categorysvc.New(categoryRepo, productRepo, productService)
	cartService := cartsvc.New(cartRepo, productRepo, logger)
	orderService := ordersvc.New(orderRepo, productService, logger)
	engagementService := engagementsvc.New(productRepo, likeRepo, commentRepo, productService, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:         authService,
		UserSvc:         userService,
		CategorySvc:     categoryService,
		ProductSvc:      productService,
		CartSvc:         cartService,
		OrderSvc:        orderService,
		EngagementSvc:   engagementService,
		Redis:           redisClient,
		RateLimitWindow: cfg.RateLimitWindow,
		RateLimitMax:    cfg.RateLimitMax,
		CORSOrigin:      cfg.CORSOrigin,
		Environment:     cfg.Environment,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s env=%s", cfg.HTTPAddr, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	if detailCache != nil {
		stats := detailCache.Stats()
		logger.Printf("product cache hits=%d misses=%d errors=%d", stats.Hits, stats.Misses, stats.Errors)
	}
}

// connectRedis returns nil when Redis is not configured or unreachable;
// caching and rate limiting are then disabled.
func connectRedis(ctx context.Context, cfg config.Config, logger *log.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not set; cache and rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Printf("redis ping addr=%s error=%v; cache and rate limiting disabled", cfg.RedisAddr, err)
		client.Close()
		return nil
	}
	return client
}
