package employee

import (
	"github.com/carsonjc04/Hive-Engine/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	logger *zap.Logger,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("/:id",
			middleware.RateLimitByIP(5, 20),
			handler.GetById,
		)

		employees.POST("/:id/terminate",
			middleware.RateLimitByIP(1, 5),
			handler.Terminate,
		)
	}
}
