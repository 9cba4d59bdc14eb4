package employee

import (
	"net/http"

	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"
	"github.com/carsonjc04/Hive-Engine/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("employee request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetById(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.logger.Debug("http get employee by id", zap.Int64("employee_id", id))

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Terminate answers once the status change and its outbox row are committed.
// Device and access revocation happen afterwards and never fail this call.
func (h *Handler) Terminate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.logger.Debug("http terminate employee", zap.Int64("employee_id", id))

	resp, err := h.service.Terminate(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	var uri EmployeeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return 0, false
	}
	return uri.ID, true
}
