package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// ActualiteHandler exposes news items and their publication lifecycle.
type ActualiteHandler struct {
	actualites *services.ActualiteService
}

func NewActualiteHandler(actualites *services.ActualiteService) *ActualiteHandler {
	return &ActualiteHandler{actualites: actualites}
}

// POST /api/actualites
func (h *ActualiteHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateActualiteInput
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.actualites.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// GET /api/actualites
func (h *ActualiteHandler) List(c *gin.Context) {
	h.list(c, false)
}

// GET /api/public/actualites
func (h *ActualiteHandler) ListPublic(c *gin.Context) {
	h.list(c, true)
}

func (h *ActualiteHandler) list(c *gin.Context, publicOnly bool) {
	page, pageSize := pagination(c)

	items, total, err := h.actualites.List(requestContext(c), publicOnly, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(page, pageSize, total))
}

// GET /api/actualites/:id
func (h *ActualiteHandler) Get(c *gin.Context) {
	item, err := h.actualites.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// PATCH /api/actualites/:id applies an author edit; editing validated content
// silently reverts it to pending validation.
func (h *ActualiteHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateActualiteInput
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.actualites.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// POST /api/actualites/:id/transition
func (h *ActualiteHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.actualites.Transition(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.Statut)),
		req.Motif)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}
