package handler

import (
	"net/http"
	"time"

	"github.com/ReyPJ/syncserv/pkg/database"
	"github.com/ReyPJ/syncserv/pkg/logger"
	"github.com/ReyPJ/syncserv/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthCheck reports liveness and verifies store connectivity
func HealthCheck(c echo.Context) error {
	if err := database.Ping(); err != nil {
		logger.FromEcho(c).Error("Database ping failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":    "error",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// MetricsHandler exposes the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	h := prometheus.GetPrometheusHandler()
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}
