package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readinessTimeout = 3 * time.Second

// Liveness handles GET /health. It confirms the process is up.
func Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// DependencyCheck pings one backing service.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ReadinessHandler handles GET /health/ready.
type ReadinessHandler struct {
	checks []DependencyCheck
	log    zerolog.Logger
}

func NewReadinessHandler(log zerolog.Logger, checks ...DependencyCheck) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, log: log}
}

// StoreChecks returns the MongoDB and Redis readiness checks.
func StoreChecks(db *mongo.Database, rdb redis.UniversalClient) []DependencyCheck {
	return []DependencyCheck{
		{Name: "mongodb", Check: func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		}},
		{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}},
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks))
	healthy := true
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", chk.Name).Msg("readiness check failed")
			deps[chk.Name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[chk.Name] = dependencyStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
