package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Load .env files during development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/unitrade/campus-market/internal/config"     // Internal config loader
	"github.com/unitrade/campus-market/internal/database"   // MySQL connection pool
	"github.com/unitrade/campus-market/internal/handler"    // HTTP handlers
	"github.com/unitrade/campus-market/internal/middleware" // Rate limiting and caching middleware
	"github.com/unitrade/campus-market/internal/queue"      // Order event consumer
	"github.com/unitrade/campus-market/internal/repository" // Data access layer
	"github.com/unitrade/campus-market/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	stats := repository.NewStatsRepo(db)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	productH := handler.NewProductHandler(products, users)
	browseH := handler.NewBrowseHandler(products)
	actionsH := handler.NewActionsHandler(products, orders)
	listingsH := handler.NewUserListingsHandler(products, orders)
	adminH := handler.NewAdminHandler(cfg, users, products, orders, stats)

	e := echo.New()

	// Redis-backed rate limiting and response caching. Both degrade to
	// pass-through middleware when Redis is unavailable, so a missing
	// cache never takes the API down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Routes
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, browseH, productH, cacheMW)
	router.RegisterProducts(e, productH, actionsH, cfg.JWTSecret)
	router.RegisterUserListings(e, listingsH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer appending sold-order events to logs/orders.log.
	// It runs its own reconnect loop and never stops the server.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
