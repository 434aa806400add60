package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniport-dev/uni-portal-api/internal/service"
	"github.com/uniport-dev/uni-portal-api/internal/timetable"
	"github.com/uniport-dev/uni-portal-api/pkg/response"
)

// TimetableHandler serves merged week views and exports.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Grid godoc
// @Summary Timetable grid metadata
// @Description Slot starts and teaching days the scheduler operates on
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/grid [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"slot_minutes": timetable.SlotMinutes,
		"slots":        timetable.Slots(),
		"days":         timetable.Days(),
	}, nil)
}

// WeekView godoc
// @Summary Merged week view for a scope
// @Tags Timetable
// @Produce json
// @Param scope path string true "Scope" Enums(group, teacher, room)
// @Param id path string true "Scope ID"
// @Param week query string false "Any date inside the week (YYYY-MM-DD), defaults to today"
// @Param offset query int false "Signed week offset applied after resolving the week"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/{scope}/{id} [get]
func (h *TimetableHandler) WeekView(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	week, err := h.service.ResolveWeek(c.Query("week"), offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.WeekViewFor(c.Request.Context(), c.Param("scope"), c.Param("id"), week)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// ExportPDF godoc
// @Summary Export a week view as PDF
// @Tags Timetable
// @Produce application/pdf
// @Param scope path string true "Scope" Enums(group, teacher, room)
// @Param id path string true "Scope ID"
// @Param week query string false "Any date inside the week (YYYY-MM-DD), defaults to today"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/{scope}/{id}/export [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	week, err := h.service.ResolveWeek(c.Query("week"), 0)
	if err != nil {
		response.Error(c, err)
		return
	}

	out, err := h.service.ExportWeekPDF(c.Request.Context(), c.Param("scope"), c.Param("id"), week)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("timetable-%s-%s-%s.pdf", c.Param("scope"), c.Param("id"), week.Start.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", out)
}
