package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/dispatch"
	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/metrics"
)

// CreateReclamationInput describes a citizen complaint submission.
type CreateReclamationInput struct {
	Titre       string `json:"titre" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	CommuneID   string `json:"commune_id" validate:"required"`
}

// ReclamationFilters narrows complaint listings.
type ReclamationFilters struct {
	CommuneID   string
	Decision    *string
	Affectation string
	AffecteAID  string
	CitoyenID   string
}

// ReclamationService owns the complaint lifecycle: submission, the
// binary accept/reject decision, territorial assignment and resolution.
// Decisions go through the state machine; assignment and resolution are
// delegated to the dispatcher.
type ReclamationService struct {
	db         *gorm.DB
	machine    *lifecycle.Machine
	dispatcher *dispatch.Dispatcher
	notifier   *NotificationService
	audit      *AuditService
}

func NewReclamationService(db *gorm.DB, machine *lifecycle.Machine, dispatcher *dispatch.Dispatcher, notifier *NotificationService, audit *AuditService) (*ReclamationService, error) {
	if db == nil {
		return nil, errors.New("reclamation service: db is required")
	}
	if machine == nil {
		return nil, errors.New("reclamation service: machine is required")
	}
	if dispatcher == nil {
		return nil, errors.New("reclamation service: dispatcher is required")
	}
	if notifier == nil {
		return nil, errors.New("reclamation service: notifier is required")
	}
	if audit == nil {
		return nil, errors.New("reclamation service: audit service is required")
	}
	return &ReclamationService{
		db:         db,
		machine:    machine,
		dispatcher: dispatcher,
		notifier:   notifier,
		audit:      audit,
	}, nil
}

// Create registers a complaint for the commune it concerns.
func (s *ReclamationService) Create(ctx context.Context, citoyenID string, input CreateReclamationInput) (*models.Reclamation, error) {
	ctx = ensureContext(ctx)

	var commune models.Commune
	if err := s.db.WithContext(ctx).First(&commune, "id = ?", input.CommuneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("commune introuvable")
		}
		return nil, fmt.Errorf("reclamation service: load commune: %w", err)
	}

	rec := models.Reclamation{
		Titre:       strings.TrimSpace(input.Titre),
		Description: strings.TrimSpace(input.Description),
		CitoyenID:   citoyenID,
		CommuneID:   commune.ID,
		Affectation: models.AffectationNonAffectee,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("reclamation service: create: %w", err)
	}

	_ = s.audit.Log(ctx, AuditEntry{
		UserID:   &citoyenID,
		Action:   "reclamation.creation",
		Resource: "reclamation:" + rec.ID,
	})
	return &rec, nil
}

// Get loads one complaint with its relations.
func (s *ReclamationService) Get(ctx context.Context, id string) (*models.Reclamation, error) {
	ctx = ensureContext(ctx)
	var rec models.Reclamation
	if err := s.db.WithContext(ctx).
		Preload("Citoyen").
		Preload("Commune").
		Preload("AffecteA").
		First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("reclamation introuvable")
		}
		return nil, fmt.Errorf("reclamation service: load: %w", err)
	}
	return &rec, nil
}

// List returns complaints matching the filters, newest first.
func (s *ReclamationService) List(ctx context.Context, filters ReclamationFilters, page, pageSize int) ([]models.Reclamation, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Reclamation{})
	if filters.CommuneID != "" {
		query = query.Where("commune_id = ?", filters.CommuneID)
	}
	if filters.Decision != nil {
		query = query.Where("decision = ?", *filters.Decision)
	}
	if filters.Affectation != "" {
		query = query.Where("affectation = ?", filters.Affectation)
	}
	if filters.AffecteAID != "" {
		query = query.Where("affecte_a_id = ?", filters.AffecteAID)
	}
	if filters.CitoyenID != "" {
		query = query.Where("citoyen_id = ?", filters.CitoyenID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("reclamation service: count: %w", err)
	}

	var rows []models.Reclamation
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("reclamation service: list: %w", err)
	}
	return rows, total, nil
}

// Decide records the binary accept/reject decision. Rejection demands a
// substantive motive and fully un-triages the complaint: assignment and
// commune fields are cleared whatever their prior state. A concurrent
// decision loses with Conflict.
func (s *ReclamationService) Decide(ctx context.Context, actorID, reclamationID, requested, motif string) (*models.Reclamation, error) {
	ctx = ensureContext(ctx)

	rec, err := s.Get(ctx, reclamationID)
	if err != nil {
		return nil, err
	}

	decision, err := s.machine.Decide(ctx, lifecycle.Request{
		Kind:           lifecycle.KindReclamation,
		CurrentState:   rec.Decision,
		RequestedState: requested,
		ActorID:        actorID,
		CreatorID:      rec.CitoyenID,
		Reason:         motif,
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"decision": decision.NewState}
		if decision.NewState == models.DecisionRejetee {
			updates["motif_rejet"] = strings.TrimSpace(motif)
		}

		res := tx.Model(&models.Reclamation{}).
			Where("id = ? AND decision = ?", rec.ID, rec.Decision).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("reclamation service: apply decision: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}
		rec.Decision = decision.NewState
		if decision.NewState == models.DecisionRejetee {
			rec.MotifRejet = strings.TrimSpace(motif)
			// a rejected complaint carries no triage state
			if err := s.dispatcher.ResetAssignment(tx, rec); err != nil {
				return fmt.Errorf("reclamation service: reset assignment: %w", err)
			}
		}

		return s.appendDecisionAudit(tx, actorID, rec)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues("reclamation", decision.NewState).Inc()
	s.notifier.EmitLifecycle(ctx, decision.Effects.Notification)
	return rec, nil
}

// AssignToSelf routes the complaint to the calling local authority.
func (s *ReclamationService) AssignToSelf(ctx context.Context, actorID, reclamationID string) (*models.Reclamation, error) {
	return s.dispatchOp(ctx, "assign_self", func(ctx context.Context) (*dispatch.Result, error) {
		return s.dispatcher.AssignToSelf(ctx, reclamationID, actorID)
	})
}

// Assign routes the complaint to the given local authority.
func (s *ReclamationService) Assign(ctx context.Context, actorID, reclamationID, assigneeID string) (*models.Reclamation, error) {
	return s.dispatchOp(ctx, "assign", func(ctx context.Context) (*dispatch.Result, error) {
		return s.dispatcher.Assign(ctx, reclamationID, actorID, assigneeID)
	})
}

// Unassign releases the complaint back to the pool.
func (s *ReclamationService) Unassign(ctx context.Context, actorID, reclamationID string) (*models.Reclamation, error) {
	return s.dispatchOp(ctx, "unassign", func(ctx context.Context) (*dispatch.Result, error) {
		return s.dispatcher.Unassign(ctx, reclamationID, actorID)
	})
}

// Reassign hands the complaint to another local authority in one step.
func (s *ReclamationService) Reassign(ctx context.Context, actorID, reclamationID, newAssigneeID string) (*models.Reclamation, error) {
	return s.dispatchOp(ctx, "reassign", func(ctx context.Context) (*dispatch.Result, error) {
		return s.dispatcher.Reassign(ctx, reclamationID, actorID, newAssigneeID)
	})
}

// Resolve closes out the complaint with a resolution note.
func (s *ReclamationService) Resolve(ctx context.Context, actorID, reclamationID, note string) (*models.Reclamation, error) {
	return s.dispatchOp(ctx, "resolve", func(ctx context.Context) (*dispatch.Result, error) {
		return s.dispatcher.Resolve(ctx, reclamationID, actorID, strings.TrimSpace(note))
	})
}

func (s *ReclamationService) dispatchOp(ctx context.Context, action string, op func(context.Context) (*dispatch.Result, error)) (*models.Reclamation, error) {
	ctx = ensureContext(ctx)

	result, err := op(ctx)
	if err != nil {
		metrics.Assignments.WithLabelValues(action, "failure").Inc()
		return nil, err
	}

	metrics.Assignments.WithLabelValues(action, "success").Inc()
	s.notifier.EmitDispatch(ctx, result.Notifications)
	return result.Reclamation, nil
}

// History returns the append-only provenance trail of the complaint.
func (s *ReclamationService) History(ctx context.Context, reclamationID string) ([]models.AuditLog, error) {
	return s.audit.History(ensureContext(ctx), "reclamation:"+reclamationID)
}

func (s *ReclamationService) appendDecisionAudit(tx *gorm.DB, actorID string, rec *models.Reclamation) error {
	action := "reclamation.acceptation"
	metadata := map[string]any{}
	if rec.Decision == models.DecisionRejetee {
		action = "reclamation.rejet"
		metadata["motif"] = rec.MotifRejet
	}
	entry := models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Resource: "reclamation:" + rec.ID,
		Result:   "success",
	}
	if len(metadata) > 0 {
		encoded, err := jsonMarshal(metadata)
		if err != nil {
			return err
		}
		entry.Metadata = encoded
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("reclamation service: append history: %w", err)
	}
	return nil
}
