package handler

import (
	"net/http"
	"strconv"

	"spms_backend/internal/ingestion/service"
	"spms_backend/internal/ingestion/transport"
	"spms_backend/platform/httpkit"
	"spms_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidJobID     = "invalid job id"
)

// Handler handles HTTP requests for note ingestion.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new ingestion handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the note ingestion routes. The enqueue route takes
// an extra middleware chain so the module can rate limit it.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, enqueueMiddleware ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, enqueueMiddleware...)
	rg.POST("", append(chain, h.Enqueue)...)
	rg.GET("/jobs", h.RecentJobs)
	rg.GET("/jobs/:id", h.GetJob)
}

// Enqueue accepts a raw note and returns 202 with the job handle. The note is
// processed later by the worker.
func (h *Handler) Enqueue(c *gin.Context) {
	var req transport.EnqueueNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Enqueue(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, result)
}

func (h *Handler) RecentJobs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	result, err := h.svc.RecentJobs(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJobID, nil)
		return
	}

	result, err := h.svc.GetJob(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
