package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniport-dev/uni-portal-api/internal/service"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
	"github.com/uniport-dev/uni-portal-api/pkg/response"
)

// GeneratorHandler exposes batch timetable generation.
type GeneratorHandler struct {
	service *service.GeneratorService
}

// NewGeneratorHandler constructs handler.
func NewGeneratorHandler(svc *service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Queue a batch generation run
// @Description Validates the demand worklist and queues a background run; poll the returned run id for the outcome
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.GenerateRequest true "Generation request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/generate [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	requestedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		requestedBy = claims.UserID
	}

	run, err := h.service.Enqueue(c.Request.Context(), req, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, run)
}

// GetRun godoc
// @Summary Fetch a generation run
// @Tags Generation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /timetable/generate/{id} [get]
func (h *GeneratorHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, run, nil)
}
