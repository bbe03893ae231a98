package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/dto"
	"github.com/campushub/admissions-agent-api/internal/middleware"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/service"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
	"github.com/campushub/admissions-agent-api/pkg/response"
)

// SessionHandler exposes the authoritative agent-session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	engines  *service.EngineManager
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions *service.SessionService, engines *service.EngineManager) *SessionHandler {
	return &SessionHandler{sessions: sessions, engines: engines}
}

// Create godoc
// @Summary Start a new agent session
// @Tags AgentSessions
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param body body dto.CreateSessionRequest true "Session request"
// @Success 201 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), c.Param("institutionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SessionFromModel(*session))
}

// List godoc
// @Summary List the institution's agent sessions
// @Tags AgentSessions
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	sessions, fromCache, err := h.sessions.List(c.Request.Context(), c.Param("institutionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, fromCache)
	response.JSON(c, http.StatusOK, dto.SessionsFromModels(sessions), nil, middleware.ExtractMeta(c))
}

// tenantSession loads the addressed session and verifies it belongs to the
// institution in the route. A cross-tenant id is indistinguishable from a
// missing one; both report not found. On failure the response has already
// been written.
func (h *SessionHandler) tenantSession(c *gin.Context) (*models.AgentSession, bool) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if session.InstitutionID != c.Param("institutionId") {
		response.Error(c, appErrors.ErrNotFound)
		return nil, false
	}
	return session, true
}

// Get godoc
// @Summary Fetch one agent session
// @Tags AgentSessions
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.tenantSession(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, dto.SessionFromModel(*session), nil)
}

// Messages godoc
// @Summary Fetch a session's message history
// @Tags AgentSessions
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions/{id}/messages [get]
func (h *SessionHandler) Messages(c *gin.Context) {
	if _, ok := h.tenantSession(c); !ok {
		return
	}
	messages, err := h.sessions.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// UpdateStatus godoc
// @Summary Push a lifecycle transition from the task runner
// @Tags AgentSessions
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param id path string true "Session ID"
// @Param body body dto.StatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions/{id}/status [put]
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload"))
		return
	}
	if _, ok := h.tenantSession(c); !ok {
		return
	}
	if err := h.sessions.SetStatus(c.Request.Context(), c.Param("id"), models.SessionStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status}, nil)
}

// UpdateProgress godoc
// @Summary Push a progress update from the task runner
// @Tags AgentSessions
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param id path string true "Session ID"
// @Param body body dto.ProgressRequest true "Progress counters"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-sessions/{id}/progress [put]
func (h *SessionHandler) UpdateProgress(c *gin.Context) {
	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload"))
		return
	}
	if _, ok := h.tenantSession(c); !ok {
		return
	}
	if err := h.sessions.SetProgress(c.Request.Context(), c.Param("id"), req.Processed, req.Total); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "processed": req.Processed, "total": req.Total}, nil)
}

// Delete godoc
// @Summary Delete an agent session
// @Tags AgentSessions
// @Param institutionId path string true "Institution ID"
// @Param id path string true "Session ID"
// @Success 204
// @Router /institutions/{institutionId}/agent-sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if _, ok := h.tenantSession(c); !ok {
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Switch godoc
// @Summary Request or confirm an agent conversation switch
// @Tags AgentSessions
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param body body dto.SwitchRequest true "Switch request"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/agent-switch [post]
func (h *SessionHandler) Switch(c *gin.Context) {
	var req dto.SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid switch payload"))
		return
	}

	kind := models.AgentKind(req.AgentType)
	institutionID := c.Param("institutionId")

	engine, err := h.engines.For(c.Request.Context(), institutionID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to initialise session engine"))
		return
	}

	var decision service.SwitchDecision
	if req.Confirm {
		decision, err = engine.Switcher.ConfirmSwitch(c.Request.Context(), institutionID, kind, req.Instructions)
	} else {
		decision, err = engine.Switcher.Request(c.Request.Context(), institutionID, kind, req.Instructions)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if decision.NeedsConfirmation {
		response.JSON(c, http.StatusConflict, decision, nil)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}
