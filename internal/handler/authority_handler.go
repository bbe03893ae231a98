package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/service"
)

// AuthorityHandler exposes internal observability and control endpoints for
// the session-authority migration flag.
type AuthorityHandler struct {
	service *service.AuthorityService
}

// NewAuthorityHandler constructs an AuthorityHandler.
func NewAuthorityHandler(svc *service.AuthorityService) *AuthorityHandler {
	return &AuthorityHandler{service: svc}
}

// Status reports the current authority mode.
func (h *AuthorityHandler) Status(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authority service unavailable"})
		return
	}
	headers := h.service.Headers()
	c.JSON(http.StatusOK, gin.H{
		"mode":        headers.Mode,
		"mode_header": headers.ModeHeader,
	})
}

// PingRemote reports the health status of the remote authoritative subsystem.
func (h *AuthorityHandler) PingRemote(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authority service unavailable"})
		return
	}
	result, err := h.service.PingRemote(c.Request.Context())
	status := http.StatusOK
	if err != nil || !result.Reachable {
		status = http.StatusServiceUnavailable
	}
	if err != nil {
		c.Header("X-Authority-Error", err.Error())
	}
	c.JSON(status, result)
}

type setModeRequest struct {
	Mode models.AuthorityMode `json:"mode" binding:"required"`
}

// SetMode flips the authority flag at runtime. Restricted to admin tokens by
// the route group it is mounted on.
func (h *AuthorityHandler) SetMode(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authority service unavailable"})
		return
	}
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}
	if err := h.service.SetMode(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": h.service.Mode()})
}
