package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthChecker reports the state of the storage backend
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Server is the service context built once at startup and closed at shutdown
type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

// routes holds everything the router needs
type routes struct {
	config   *config.Config
	logger   *zap.Logger
	health   HealthChecker
	redis    *redis.Client
	tokens   *auth.TokenManager
	registry *prometheus.Registry

	userService    service.UserService
	productService service.ProductService
	orderService   service.OrderService
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService *database.Service) *Server {
	db := dbService.DB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; login and authenticated routes will fail")
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.Database.Database),
	)

	rt := routes{
		config:         cfg,
		logger:         logger,
		health:         dbService,
		redis:          redisClient,
		tokens:         tokens,
		registry:       registry,
		userService:    service.NewUserService(userRepo, tokens),
		productService: service.NewProductService(productRepo),
		orderService:   service.NewOrderService(orderRepo, productRepo),
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      rt.handler(),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     dbService,
		redis:  redisClient,
	}
}

func (rt routes) handler() http.Handler {
	router := chi.NewRouter()

	metrics := custommiddleware.NewMetrics(rt.registry)

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(rt.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(rt.logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.CORSMiddleware(rt.config.Server.AllowedOrigins, rt.config.Server.IsDevelopment()))

	router.Get("/health", rt.healthHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))

	if dir := rt.config.Server.StaticDir; dir != "" {
		router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	}

	var limiter func(http.Handler) http.Handler
	if rt.redis != nil {
		limiter = custommiddleware.RateLimitMiddleware(rt.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: rt.config.RateLimit.Requests,
			Window:            rt.config.RateLimit.Window,
			KeyPrefix:         "storefront:ratelimit:auth",
		}, rt.logger)
	}

	authMiddleware := custommiddleware.AuthMiddleware(rt.tokens, rt.logger)

	transport.NewUserHandler(rt.userService, rt.logger).RegisterRoutes(router, limiter)
	transport.NewProductHandler(rt.productService, rt.logger).RegisterRoutes(router)
	transport.NewOrderHandler(rt.orderService, rt.logger).RegisterRoutes(router, authMiddleware)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

func (rt routes) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := rt.health.Health(r.Context())
	if health["status"] != "up" {
		rt.logger.Warn("Health check failed", zap.String("error", health["error"]))
		custommiddleware.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Close releases the database pool and redis client
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
			return err
		}
	}

	return nil
}
