package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	"github.com/uniport-dev/uni-portal-api/internal/service"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
	"github.com/uniport-dev/uni-portal-api/pkg/response"
)

// SessionHandler manages session booking endpoints.
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// List godoc
// @Summary List sessions for a week
// @Tags Sessions
// @Produce json
// @Param week query string false "Any date inside the week (YYYY-MM-DD), defaults to today"
// @Param groupId query string false "Filter by group"
// @Param teacherId query string false "Filter by teacher"
// @Param roomId query string false "Filter by room"
// @Param subjectId query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		GroupID:   c.Query("groupId"),
		TeacherID: c.Query("teacherId"),
		RoomID:    c.Query("roomId"),
		SubjectID: c.Query("subjectId"),
	}

	sessions, week, err := h.service.ListWeek(c.Request.Context(), c.Query("week"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"week_start": week.Start.Format("2006-01-02"),
		"week_end":   week.End().Format("2006-01-02"),
		"sessions":   sessions,
	}, nil)
}

// Create godoc
// @Summary Book a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// CheckSlot godoc
// @Summary Preview a booking for conflicts
// @Description Non-locking availability check; the booking itself re-validates under locks
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Candidate session"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/check [post]
func (h *SessionHandler) CheckSlot(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	conflict, err := h.service.CheckSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"available": conflict == nil,
		"conflict":  conflict,
	}, nil)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateMakeup godoc
// @Summary Book a makeup session
// @Description Book a replacement for an existing session; the original is cancelled when still planned
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Original session ID"
// @Param payload body service.MakeupSessionRequest true "Makeup payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/makeup [post]
func (h *SessionHandler) CreateMakeup(c *gin.Context) {
	var req service.MakeupSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.service.CreateMakeup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}
