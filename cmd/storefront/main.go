package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	cartApi "github.com/ridloal/toko-storefront/internal/cart/api"
	cartService "github.com/ridloal/toko-storefront/internal/cart/service"
	"github.com/ridloal/toko-storefront/internal/cart/session"
	orderApi "github.com/ridloal/toko-storefront/internal/order/api"
	"github.com/ridloal/toko-storefront/internal/order/publisher"
	orderRepo "github.com/ridloal/toko-storefront/internal/order/repository"
	orderService "github.com/ridloal/toko-storefront/internal/order/service"
	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/platform/config"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	productApi "github.com/ridloal/toko-storefront/internal/product/api"
	productRepo "github.com/ridloal/toko-storefront/internal/product/repository"
	productService "github.com/ridloal/toko-storefront/internal/product/service"
	userApi "github.com/ridloal/toko-storefront/internal/user/api"
	userRepo "github.com/ridloal/toko-storefront/internal/user/repository"
	userService "github.com/ridloal/toko-storefront/internal/user/service"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info("Starting Toko Storefront...")

	db, dialect, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.RunMigrations {
		if err := database.Migrate(db, dialect); err != nil {
			logger.Error("Failed to run migrations", err)
			os.Exit(1)
		}
	}

	// Setup Dependencies
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	usrRepository := userRepo.NewUserRepository(db)
	usrService := userService.NewUserService(usrRepository, tokens)
	if cfg.Admin.Email != "" {
		if _, err := usrService.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Phone); err != nil {
			logger.Error("Failed to bootstrap admin user", err)
		}
	}

	sessions, closeSessions := newSessionStore(cfg.Redis)
	defer closeSessions()

	prdRepository := productRepo.NewProductRepository(db)
	prdService := productService.NewProductService(prdRepository)
	crtService := cartService.NewCartService(sessions, prdRepository)

	ordRepository := orderRepo.NewOrderRepository(db)
	ordService := orderService.NewOrderService(ordRepository, prdRepository, sessions, cfg.PaymentMethod)

	stopRelay := startOutboxRelay(cfg.Kafka, ordRepository)
	defer stopRelay()

	router := newRouter(cfg.Server.GinMode, db, tokens, usrService.IsAdmin,
		userApi.NewUserHandler(usrService),
		productApi.NewProductHandler(prdService),
		cartApi.NewCartHandler(crtService),
		orderApi.NewOrderHandler(ordService),
	)

	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Toko Storefront running on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Toko Storefront server crashed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type adminRouteRegistrar interface {
	RegisterAdminRoutes(admin *gin.RouterGroup)
}

func newRouter(mode string, db *sql.DB, tokens *auth.Tokens, isAdmin auth.AdminLookup,
	users *userApi.UserHandler, products *productApi.ProductHandler,
	cart *cartApi.CartHandler, orders *orderApi.OrderHandler) *gin.Engine {
	gin.SetMode(mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	for _, h := range []routeRegistrar{users, products} {
		h.RegisterRoutes(apiV1)
	}

	authed := apiV1.Group("", auth.RequireAuth(tokens))
	for _, h := range []routeRegistrar{cart, orders} {
		h.RegisterRoutes(authed)
	}

	admin := authed.Group("/admin", auth.RequireAdmin(isAdmin))
	for _, h := range []adminRouteRegistrar{users, products, orders} {
		h.RegisterAdminRoutes(admin)
	}
	return router
}

// newSessionStore prefers Redis and falls back to process memory when REDIS_ADDR is empty.
func newSessionStore(cfg config.RedisConfig) (session.Store, func()) {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, carts are kept in memory and lost on restart")
		return session.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Redis ping failed, sessions may be unavailable", err)
	}
	return session.NewRedisStore(client, cfg.CartTTL), func() { _ = client.Close() }
}

func startOutboxRelay(cfg config.KafkaConfig, store publisher.EventStore) func() {
	if len(cfg.Brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, order events stay in the outbox")
		return func() {}
	}
	writer := publisher.NewKafkaWriter(cfg.Brokers, cfg.Topic)
	relay := publisher.NewOutboxRelay(store, writer, cfg.BatchSize)
	c, err := relay.Schedule(cfg.OutboxSchedule)
	if err != nil {
		logger.Error("Failed to schedule outbox relay", err)
		_ = writer.Close()
		return func() {}
	}
	return func() {
		<-c.Stop().Done()
		if err := writer.Close(); err != nil {
			logger.Error("Failed to close Kafka writer", err)
		}
	}
}
