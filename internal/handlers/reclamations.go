package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// ReclamationHandler exposes the complaint lifecycle: submission, triage
// decision, territorial assignment and resolution.
type ReclamationHandler struct {
	reclamations *services.ReclamationService
}

func NewReclamationHandler(reclamations *services.ReclamationService) *ReclamationHandler {
	return &ReclamationHandler{reclamations: reclamations}
}

// POST /api/reclamations
func (h *ReclamationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateReclamationInput
	if !bindAndValidate(c, &req) {
		return
	}

	rec, err := h.reclamations.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, rec)
}

// GET /api/reclamations
func (h *ReclamationHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	filters := services.ReclamationFilters{
		CommuneID:   strings.TrimSpace(c.Query("commune_id")),
		Affectation: strings.TrimSpace(c.Query("affectation")),
		AffecteAID:  strings.TrimSpace(c.Query("affecte_a_id")),
		CitoyenID:   strings.TrimSpace(c.Query("citoyen_id")),
	}
	if decision := strings.TrimSpace(c.Query("decision")); decision != "" {
		filters.Decision = &decision
	}

	items, total, err := h.reclamations.List(requestContext(c), filters, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(page, pageSize, total))
}

// GET /api/reclamations/:id
func (h *ReclamationHandler) Get(c *gin.Context) {
	rec, err := h.reclamations.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

type decideRequest struct {
	Decision string `json:"decision" validate:"required"`
	Motif    string `json:"motif"`
}

// POST /api/reclamations/:id/decision
func (h *ReclamationHandler) Decide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req decideRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rec, err := h.reclamations.Decide(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.Decision)),
		req.Motif)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

// POST /api/reclamations/:id/assign/self
func (h *ReclamationHandler) AssignToSelf(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rec, err := h.reclamations.AssignToSelf(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// POST /api/reclamations/:id/assign
func (h *ReclamationHandler) Assign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req assignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rec, err := h.reclamations.Assign(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.AssigneeID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

// POST /api/reclamations/:id/unassign
func (h *ReclamationHandler) Unassign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rec, err := h.reclamations.Unassign(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

// POST /api/reclamations/:id/reassign
func (h *ReclamationHandler) Reassign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req assignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rec, err := h.reclamations.Reassign(requestContext(c), userID,
		strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.AssigneeID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

type resolveRequest struct {
	Note string `json:"note"`
}

// POST /api/reclamations/:id/resolve
func (h *ReclamationHandler) Resolve(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req resolveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rec, err := h.reclamations.Resolve(requestContext(c), userID, strings.TrimSpace(c.Param("id")), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rec)
}

// GET /api/reclamations/:id/history returns the append-only assignment and
// decision trail, oldest first.
func (h *ReclamationHandler) History(c *gin.Context) {
	entries, err := h.reclamations.History(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	if entries == nil {
		entries = []models.AuditLog{}
	}
	response.Success(c, http.StatusOK, entries)
}
