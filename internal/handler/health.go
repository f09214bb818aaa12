package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/tab-sso-backend/internal/middleware"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/labstack/echo/v4"
)

// DefaultHealthCheckTimeout applies when health_checks.timeout is unset.
const DefaultHealthCheckTimeout = 5 * time.Second

// healthCheck probes one dependency. A failing non-critical check is
// reported without making the service unhealthy.
type healthCheck struct {
	name     string
	critical bool
	ping     func(ctx context.Context) error
}

// HealthHandler reports whether the service and its dependencies are
// reachable, for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	checks  []healthCheck
	timeout time.Duration
}

// NewHealthHandler probes the dependencies named in
// observability.health_checks.checks.
func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{
		Handler: NewHandler(s),
		timeout: DefaultHealthCheckTimeout,
	}

	obs := s.Config.Observability
	if obs == nil {
		return h
	}
	if obs.HealthChecks.Timeout > 0 {
		h.timeout = obs.HealthChecks.Timeout
	}

	if obs.HasCheck("database") && s.DB != nil {
		h.checks = append(h.checks, healthCheck{name: "database", critical: true, ping: s.DB.Pool.Ping})
	}
	// Notifications queue up while Redis is away; requests still succeed.
	if obs.HasCheck("redis") && s.Redis != nil {
		h.checks = append(h.checks, healthCheck{name: "redis", ping: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}
	if obs.HasCheck("identity") && s.Identity != nil {
		h.checks = append(h.checks, healthCheck{name: "identity", critical: true, ping: s.Identity.Ping})
	}

	return h
}

// CheckHealth answers 200 when every critical check passes, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{}, len(h.checks))
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err == nil {
			checks[check.name] = map[string]interface{}{
				"status":        "healthy",
				"response_time": elapsed.String(),
			}
			logger.Debug().
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check passed")
			continue
		}

		checks[check.name] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}
		if check.critical {
			isHealthy = false
		}

		logger.Error().
			Err(err).
			Str("check", check.name).
			Bool("critical", check.critical).
			Dur("response_time", elapsed).
			Msg("health check failed")

		h.server.LoggerService.RecordCustomEvent("HealthCheckError", map[string]interface{}{
			"check_type":       check.name,
			"operation":        "health_check",
			"error_type":       check.name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.server.LoggerService.RecordCustomEvent("HealthCheckError", map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}
