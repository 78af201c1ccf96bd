package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// CampagneHandler exposes sensibilisation campaigns; the lifecycle matches
// news items.
type CampagneHandler struct {
	campagnes *services.CampagneService
}

func NewCampagneHandler(campagnes *services.CampagneService) *CampagneHandler {
	return &CampagneHandler{campagnes: campagnes}
}

// POST /api/campagnes
func (h *CampagneHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateCampagneInput
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.campagnes.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// GET /api/campagnes
func (h *CampagneHandler) List(c *gin.Context) {
	h.list(c, false)
}

// GET /api/public/campagnes
func (h *CampagneHandler) ListPublic(c *gin.Context) {
	h.list(c, true)
}

func (h *CampagneHandler) list(c *gin.Context, publicOnly bool) {
	page, pageSize := pagination(c)

	items, total, err := h.campagnes.List(requestContext(c), publicOnly, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(page, pageSize, total))
}

// GET /api/campagnes/:id
func (h *CampagneHandler) Get(c *gin.Context) {
	item, err := h.campagnes.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// PATCH /api/campagnes/:id
func (h *CampagneHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateCampagneInput
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.campagnes.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// POST /api/campagnes/:id/transition
func (h *CampagneHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.campagnes.Transition(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.Statut)),
		req.Motif)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}
