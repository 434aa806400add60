package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniport-dev/uni-portal-api/internal/service"
	"github.com/uniport-dev/uni-portal-api/pkg/response"
)

// RefDataHandler serves the reference catalogues.
type RefDataHandler struct {
	service *service.RefDataService
}

// NewRefDataHandler constructs handler.
func NewRefDataHandler(svc *service.RefDataService) *RefDataHandler {
	return &RefDataHandler{service: svc}
}

// ListRooms godoc
// @Summary List rooms
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms [get]
func (h *RefDataHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.Rooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// GetRoom godoc
// @Summary Get room by id
// @Tags Reference
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms/{id} [get]
func (h *RefDataHandler) GetRoom(c *gin.Context) {
	room, err := h.service.Room(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// ListGroups godoc
// @Summary List student groups
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /groups [get]
func (h *RefDataHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.Groups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// GetGroup godoc
// @Summary Get group by id
// @Tags Reference
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *RefDataHandler) GetGroup(c *gin.Context) {
	group, err := h.service.Group(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *RefDataHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.Subjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GetSubject godoc
// @Summary Get subject by id
// @Tags Reference
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id} [get]
func (h *RefDataHandler) GetSubject(c *gin.Context) {
	subject, err := h.service.Subject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// ListSpecialties godoc
// @Summary List specialties
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /specialties [get]
func (h *RefDataHandler) ListSpecialties(c *gin.Context) {
	specialties, err := h.service.Specialties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialties, nil)
}

// ListTeachers godoc
// @Summary List active teachers
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers [get]
func (h *RefDataHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
