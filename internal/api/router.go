package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/coursehub/coursehub-api/docs"
	"github.com/coursehub/coursehub-api/internal/api/handler"
	"github.com/coursehub/coursehub-api/internal/api/middleware"
	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
	"github.com/coursehub/coursehub-api/internal/core/service"
	"github.com/coursehub/coursehub-api/internal/infrastructure/config"
	mongorepo "github.com/coursehub/coursehub-api/internal/infrastructure/db/mongo"
	redisstore "github.com/coursehub/coursehub-api/internal/infrastructure/db/redis"
	"github.com/coursehub/coursehub-api/internal/infrastructure/seed"
)

const tokenTTL = 24 * time.Hour

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth       ports.AuthService
	Profile    ports.ProfileService
	Catalog    ports.CatalogService
	Enrollment ports.EnrollmentService
	// SeedCatalog is written by POST /api/seed-courses.
	SeedCatalog []domain.Course
	Checks      []handler.DependencyCheck
}

// Options tunes the HTTP layer.
type Options struct {
	RequestTimeout time.Duration
	CookieSecure   bool
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
}

// NewRouter wires the stores, services and handlers against live MongoDB and
// Redis connections.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	catalog, err := seed.DefaultCourses()
	if err != nil {
		return nil, fmt.Errorf("load seed catalog: %w", err)
	}

	svcs := BuildServices(db, rdb, cfg, log)
	svcs.SeedCatalog = catalog
	svcs.Checks = handler.StoreChecks(db, rdb)

	return New(svcs, Options{
		RequestTimeout: cfg.RequestTimeout,
		CookieSecure:   cfg.CookieSecure,
	}, log), nil
}

// BuildServices constructs the core services on top of the MongoDB and
// Redis adapters.
func BuildServices(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) Services {
	users := mongorepo.NewUserRepository(db)
	courses := mongorepo.NewCourseRepository(db)
	sessions := redisstore.NewSessionStore(rdb)
	lock := redisstore.NewEnrollmentLock(rdb, 0)
	cache := redisstore.NewCatalogCache(rdb, cfg.Catalog.CacheTTL)

	return Services{
		Auth:       service.NewAuthService(users, sessions, cfg.JWTSecret, tokenTTL, log.With().Str("component", "auth").Logger()),
		Profile:    service.NewProfileService(users, log.With().Str("component", "profile").Logger()),
		Catalog:    service.NewCatalogService(courses, cache, log.With().Str("component", "catalog").Logger()),
		Enrollment: service.NewEnrollmentService(users, courses, lock, cache, log.With().Str("component", "enrollment").Logger()),
	}
}

// New builds the Echo instance with all routes registered.
func New(svcs Services, opts Options, log zerolog.Logger) *echo.Echo {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "coursehub",
		Registerer: opts.Registerer,
	}))
	if opts.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(opts.RequestTimeout))
	}

	authHandler := handler.NewAuthHandler(svcs.Auth, handler.CookieConfig{
		Secure: opts.CookieSecure,
		MaxAge: tokenTTL,
	})
	profileHandler := handler.NewProfileHandler(svcs.Profile)
	courseHandler := handler.NewCourseHandler(svcs.Catalog, svcs.Enrollment, svcs.SeedCatalog)
	readiness := handler.NewReadinessHandler(log, svcs.Checks...)

	requireAuth := middleware.Auth(svcs.Auth)

	// --- Auth routes ---
	api := e.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/auth/check", authHandler.Check)

	// --- Profile ---
	api.GET("/profile", profileHandler.Get, requireAuth)
	api.PUT("/profile", profileHandler.Update, requireAuth)

	// --- Catalog and enrollment ---
	api.GET("/courses", courseHandler.List)
	api.POST("/courses/:courseId/enroll", courseHandler.Enroll, requireAuth)
	api.POST("/seed-courses", courseHandler.Seed, requireAuth, middleware.RBAC(domain.RoleAdmin))

	// --- Health checks (no auth required) ---
	e.GET("/health", handler.Liveness)
	e.GET("/health/ready", readiness.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
