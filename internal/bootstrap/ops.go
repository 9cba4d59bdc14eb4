package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RegisterOpsRoutes mounts /healthz and /metrics.
func RegisterOpsRoutes(router *gin.Engine, gatherer prometheus.Gatherer, checks ...HealthCheck) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				status[hc.Name] = err.Error()
				healthy = false
				continue
			}
			status[hc.Name] = "ok"
		}

		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "Dependency check failed", status)
			return
		}
		response.Success(c, http.StatusOK, status)
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// NewOpsRouter is the router for processes that only expose health and metrics.
func NewOpsRouter(gatherer prometheus.Gatherer, checks ...HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterOpsRoutes(router, gatherer, checks...)
	return router
}
