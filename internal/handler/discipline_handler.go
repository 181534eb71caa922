package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unilab-dev/uni-records-api/internal/service"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
	"github.com/unilab-dev/uni-records-api/pkg/response"
)

// DisciplineHandler exposes discipline endpoints.
type DisciplineHandler struct {
	disciplines *service.DisciplineService
}

// NewDisciplineHandler constructs DisciplineHandler.
func NewDisciplineHandler(disciplines *service.DisciplineService) *DisciplineHandler {
	return &DisciplineHandler{disciplines: disciplines}
}

// List godoc
// @Summary List disciplines
// @Tags Disciplines
// @Produce json
// @Param direction query string false "Restrict to one direction"
// @Success 200 {object} response.Envelope
// @Router /disciplines [get]
func (h *DisciplineHandler) List(c *gin.Context) {
	direction := strings.TrimSpace(c.Query("direction"))
	disciplines, err := h.disciplines.List(c.Request.Context(), direction)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, disciplines)
}

// Create godoc
// @Summary Create discipline
// @Tags Disciplines
// @Accept json
// @Produce json
// @Param payload body service.CreateDisciplineRequest true "Discipline payload"
// @Success 201 {object} response.Envelope
// @Router /disciplines [post]
func (h *DisciplineHandler) Create(c *gin.Context) {
	var req service.CreateDisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	discipline, err := h.disciplines.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, discipline)
}
