package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// EvenementHandler exposes the event lifecycle endpoints.
type EvenementHandler struct {
	evenements *services.EvenementService
}

func NewEvenementHandler(evenements *services.EvenementService) *EvenementHandler {
	return &EvenementHandler{evenements: evenements}
}

// POST /api/evenements
func (h *EvenementHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateEvenementInput
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.evenements.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// GET /api/evenements returns the authenticated staff view, every state.
func (h *EvenementHandler) List(c *gin.Context) {
	h.list(c, false)
}

// GET /api/public/evenements lists only published, publicly visible events.
func (h *EvenementHandler) ListPublic(c *gin.Context) {
	h.list(c, true)
}

func (h *EvenementHandler) list(c *gin.Context, publicOnly bool) {
	page, pageSize := pagination(c)

	items, total, err := h.evenements.List(requestContext(c), publicOnly, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(page, pageSize, total))
}

// GET /api/evenements/:id
func (h *EvenementHandler) Get(c *gin.Context) {
	event, err := h.evenements.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

type transitionRequest struct {
	Statut string `json:"statut" validate:"required"`
	Motif  string `json:"motif"`
}

// POST /api/evenements/:id/transition
func (h *EvenementHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.evenements.Transition(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.Statut)),
		req.Motif)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

type closeRequest struct {
	Rapport string `json:"rapport" validate:"required"`
}

// POST /api/evenements/:id/close
func (h *EvenementHandler) Close(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req closeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.evenements.CloseWithReport(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")), req.Rapport)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}
