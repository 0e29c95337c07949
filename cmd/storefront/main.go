package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ansy-pieris/storefront/internal/cache"
	"github.com/ansy-pieris/storefront/internal/config"
	storefronthttp "github.com/ansy-pieris/storefront/internal/http"
	"github.com/ansy-pieris/storefront/internal/publisher"
	"github.com/ansy-pieris/storefront/internal/repository"
	"github.com/ansy-pieris/storefront/internal/service"
)

func main() {
	log.Println("storefront starting...")

	cfg := config.LoadConfig()

	dbPort, err := strconv.Atoi(cfg.DBPort)
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              dbPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	notifier, err := publisher.NewRabbitMQNotifier(cfg.RabbitMQURL, cfg.OrderExchange, cfg.OrderQueue)
	if err != nil {
		log.Fatalf("RabbitMQ initialization failed: %v", err)
	}
	defer notifier.Close()
	log.Println("Connected to RabbitMQ")

	cartService := service.NewCartService(repo, cartCache)
	checkoutService := service.NewCheckoutService(repo, cartCache, notifier)
	orderService := service.NewOrderService(repo)

	cartHandler := storefronthttp.NewCartHandler(cartService)
	checkoutHandler := storefronthttp.NewCheckoutHandler(checkoutService)
	orderHandler := storefronthttp.NewOrderHandler(orderService)
	productHandler := storefronthttp.NewProductHandler(repo)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(storefronthttp.RequestIDMiddleware)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	r.Use(chimiddleware.Compress(5))
	r.Use(storefronthttp.PrometheusMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Catalog browse needs no authentication.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)
	})

	r.Group(func(r chi.Router) {
		r.Use(storefronthttp.AuthMiddleware(cfg.JWTSecret))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		// Two equivalent checkout entry points: JSON API and form post.
		r.Post("/api/v1/checkout", checkoutHandler.PlaceOrder)
		r.Post("/checkout", checkoutHandler.PlaceOrderForm)

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			r.With(storefronthttp.RequireRoles(storefronthttp.RoleStaff, storefronthttp.RoleAdmin)).
				Put("/{id}/status", orderHandler.UpdateStatus)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
