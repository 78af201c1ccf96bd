package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// ActiviteHandler exposes coordinator activities: drafting, submission,
// planning and the closing report.
type ActiviteHandler struct {
	activites *services.ActiviteService
}

func NewActiviteHandler(activites *services.ActiviteService) *ActiviteHandler {
	return &ActiviteHandler{activites: activites}
}

// POST /api/activites
func (h *ActiviteHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateActiviteInput
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.activites.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// GET /api/activites
func (h *ActiviteHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.activites.List(requestContext(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(page, pageSize, total))
}

// GET /api/activites/:id
func (h *ActiviteHandler) Get(c *gin.Context) {
	item, err := h.activites.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// POST /api/activites/:id/submit
func (h *ActiviteHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	item, err := h.activites.Submit(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// POST /api/activites/:id/transition
func (h *ActiviteHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.activites.Transition(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.Statut)),
		req.Motif)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

type reportRequest struct {
	Rapport string `json:"rapport" validate:"required"`
}

// POST /api/activites/:id/report
func (h *ActiviteHandler) FileReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req reportRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.activites.FileReport(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")), req.Rapport)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}
