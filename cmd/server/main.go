package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/storekit/storefront-api/internal/config"
	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/handlers"
	"github.com/storekit/storefront-api/internal/logger"
	"github.com/storekit/storefront-api/internal/middleware"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/queue"
	"github.com/storekit/storefront-api/internal/services/auth"
	"github.com/storekit/storefront-api/internal/services/googleauth"
	"github.com/storekit/storefront-api/internal/services/token"
	"github.com/storekit/storefront-api/internal/storage"
	"github.com/storekit/storefront-api/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis for rate limiting
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// RabbitMQ for order events, with retry to ride out broker startup delays
	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	// Object storage for product images
	imageStore, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_object_storage", zap.Error(err))
	}

	// Repositories
	userRepo := database.NewUserRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	productRepo := database.NewProductRepository(db)
	orderRepo := database.NewOrderRepository(db)

	// Auth stack: Google JWKS verifier, local token codec, login service
	jwksManager := googleauth.NewJWKSManager(googleauth.GoogleJWKSURL)
	verifier := googleauth.NewVerifier(jwksManager)
	tokenCodec := token.NewCodec(cfg.JWTSecret)
	authService := auth.NewService(verifier, userRepo, tokenCodec, cfg.GoogleClientID, zapLogger)
	guard := middleware.NewGuard(tokenCodec, zapLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	productHandler := handlers.NewProductHandler(productRepo, imageStore)
	orderHandler := handlers.NewOrderHandler(orderRepo, productRepo, jobQueue)
	userHandler := handlers.NewUserHandler(userRepo)
	healthChecker := handlers.NewHealthChecker(db, redisLimiter.Client(), jobQueue)

	// Router and middleware. gorilla/mux runs middleware in registration
	// order, so the outermost concerns are registered first.
	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisLimiter.Client(), cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public service routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET") // Legacy endpoint
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	handlers.NewOpenAPIHandler(openAPIPath).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Auth: login is public but rate limited, logout requires a token
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	loginRouter := authRouter.PathPrefix("/google").Subrouter()
	loginRouter.Use(rateLimitMW)
	loginRouter.HandleFunc("", authHandler.GoogleLogin).Methods("POST")
	logoutRouter := authRouter.PathPrefix("/logout").Subrouter()
	logoutRouter.Use(guard.Protect())
	logoutRouter.HandleFunc("", authHandler.Logout).Methods("POST")

	// Categories: any authenticated user
	categoriesRouter := apiRouter.PathPrefix("/categories").Subrouter()
	categoriesRouter.Use(guard.Protect())
	categoryHandler.RegisterRoutes(categoriesRouter)

	// Products: catalog reads are public, mutations require a token
	productsPublic := apiRouter.PathPrefix("/products").Subrouter()
	productHandler.RegisterPublicRoutes(productsPublic)
	productsProtected := apiRouter.PathPrefix("/products").Subrouter()
	productsProtected.Use(guard.Protect())
	productHandler.RegisterProtectedRoutes(productsProtected)

	// Orders: any authenticated user
	ordersRouter := apiRouter.PathPrefix("/orders").Subrouter()
	ordersRouter.Use(guard.Protect())
	orderHandler.RegisterRoutes(ordersRouter)

	// Users: admin by default, with per-route overrides
	usersRouter := apiRouter.PathPrefix("/users").Subrouter()
	usersRouter.Handle("/public-info", guard.Allow(middleware.Policy{Public: true})(http.HandlerFunc(userHandler.PublicInfo))).Methods("GET")
	usersRouter.Handle("", guard.Require(models.RoleAdmin)(http.HandlerFunc(userHandler.ListUsers))).Methods("GET")
	usersRouter.Handle("/{id}", guard.Protect()(http.HandlerFunc(userHandler.GetUser))).Methods("GET")
	usersRouter.Handle("/{id}", guard.Protect()(http.HandlerFunc(userHandler.UpdateUser))).Methods("PATCH")
	usersRouter.Handle("/{id}", guard.Require(models.RoleAdmin)(http.HandlerFunc(userHandler.DeleteUser))).Methods("DELETE")

	// Catch-all OPTIONS handler so preflight requests succeed even on
	// routes that don't register the method; CORS headers are already
	// set by the middleware
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// DLQ garbage collector: hourly sweep, 24h retention
	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(gcCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	gcCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
