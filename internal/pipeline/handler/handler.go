package handler

import (
	"errors"
	"net/http"
	"strconv"

	"spms_backend/internal/pipeline/domain"
	"spms_backend/internal/pipeline/service"
	"spms_backend/internal/pipeline/transport"
	"spms_backend/platform/httpkit"
	"spms_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDealID    = "invalid deal id"
)

// Handler handles HTTP requests for the deal pipeline.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pipeline handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the deal routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/next-stages", h.NextStages)
	rg.POST("/:id/transition", h.Transition)
	rg.GET("/:id/analysis", h.GetAnalysis)
	rg.PUT("/:id/analysis", h.SaveAnalysis)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) NextStages(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	result, err := h.svc.NextStages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), id, req.TargetStage, req.Force)
	if err != nil {
		handleTransitionError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetAnalysis(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) SaveAnalysis(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}

	var req transport.SaveAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SaveAnalysis(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func dealID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDealID, nil)
		return 0, false
	}
	return id, true
}

// handleTransitionError turns the typed transition failures into structured
// responses: a blocked gate is 422 with the unmet field labels, an unreachable
// target is 409 with the legal alternatives. Everything else falls through to
// the standard mapping.
func handleTransitionError(c *gin.Context, err error) {
	var blocked *domain.GateBlockedError
	if errors.As(err, &blocked) {
		httpkit.Error(c, http.StatusUnprocessableEntity, blocked.Error(), gin.H{
			"targetStage":   blocked.Target,
			"missingFields": blocked.MissingLabels,
		})
		return
	}

	var illegal *domain.IllegalTransitionError
	if errors.As(err, &illegal) {
		httpkit.Error(c, http.StatusConflict, illegal.Error(), gin.H{
			"currentStage":  illegal.Current,
			"targetStage":   illegal.Target,
			"allowedStages": illegal.Allowed,
		})
		return
	}

	httpkit.HandleError(c, err)
}
