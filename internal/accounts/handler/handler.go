package handler

import (
	"net/http"
	"strconv"
	"strings"

	"spms_backend/internal/accounts/service"
	"spms_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgInvalidClientID = "invalid client id"

// Handler handles HTTP requests for clients and their work log.
type Handler struct {
	svc *service.Service
}

// New creates a new accounts handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the client routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/activities", h.ListActivities)
}

func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.ListClients(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := clientID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetClient(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := clientID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	result, err := h.svc.ListActivities(c.Request.Context(), id, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func clientID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidClientID, nil)
		return "", false
	}
	return id, true
}
