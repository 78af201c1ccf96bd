package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/metrics"
)

// CreateEvenementInput describes an event submission.
type CreateEvenementInput struct {
	Titre       string    `json:"titre" validate:"required,max=255"`
	Description string    `json:"description"`
	Lieu        string    `json:"lieu"`
	DateDebut   time.Time `json:"date_debut" validate:"required"`
	DateFin     time.Time `json:"date_fin" validate:"required,gtfield=DateDebut"`
}

// EvenementService owns the event lifecycle from submission to closure.
type EvenementService struct {
	db       *gorm.DB
	machine  *lifecycle.Machine
	notifier *NotificationService
	now      func() time.Time
}

func NewEvenementService(db *gorm.DB, machine *lifecycle.Machine, notifier *NotificationService) (*EvenementService, error) {
	if db == nil {
		return nil, errors.New("evenement service: db is required")
	}
	if machine == nil {
		return nil, errors.New("evenement service: machine is required")
	}
	if notifier == nil {
		return nil, errors.New("evenement service: notifier is required")
	}
	return &EvenementService{db: db, machine: machine, notifier: notifier, now: time.Now}, nil
}

// Create submits an event; it awaits moderation before going public.
func (s *EvenementService) Create(ctx context.Context, creatorID string, input CreateEvenementInput) (*models.Evenement, error) {
	ctx = ensureContext(ctx)

	event := models.Evenement{
		Titre:       strings.TrimSpace(input.Titre),
		Description: strings.TrimSpace(input.Description),
		Lieu:        strings.TrimSpace(input.Lieu),
		Statut:      models.EvenementEnAttenteValidation,
		DateDebut:   input.DateDebut,
		DateFin:     input.DateFin,
		CreatedByID: creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("evenement service: create: %w", err)
	}
	return &event, nil
}

// Get loads one event.
func (s *EvenementService) Get(ctx context.Context, id string) (*models.Evenement, error) {
	ctx = ensureContext(ctx)
	var event models.Evenement
	if err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("evenement introuvable")
		}
		return nil, fmt.Errorf("evenement service: load: %w", err)
	}
	return &event, nil
}

// List returns events, optionally restricted to the publicly visible ones.
func (s *EvenementService) List(ctx context.Context, publicOnly bool, page, pageSize int) ([]models.Evenement, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Evenement{})
	if publicOnly {
		query = query.Where("is_visible_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("evenement service: count: %w", err)
	}

	var rows []models.Evenement
	if err := query.
		Order("date_debut ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("evenement service: list: %w", err)
	}
	return rows, total, nil
}

// Transition moves the event to the requested status. Cancellation takes
// the motive through motif; closure goes through CloseWithReport.
func (s *EvenementService) Transition(ctx context.Context, actorID, eventID, requested, motif string) (*models.Evenement, error) {
	return s.transition(ctx, actorID, eventID, requested, motif, "")
}

// CloseWithReport closes an event that ran, filing its closure report.
func (s *EvenementService) CloseWithReport(ctx context.Context, actorID, eventID, rapport string) (*models.Evenement, error) {
	return s.transition(ctx, actorID, eventID, models.EvenementCloturee, "", rapport)
}

func (s *EvenementService) transition(ctx context.Context, actorID, eventID, requested, motif, rapport string) (*models.Evenement, error) {
	ctx = ensureContext(ctx)

	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	decision, err := s.machine.Decide(ctx, lifecycle.Request{
		Kind:           lifecycle.KindEvenement,
		CurrentState:   event.Statut,
		RequestedState: requested,
		ActorID:        actorID,
		CreatorID:      event.CreatedByID,
		Reason:         motif,
		Report:         rapport,
		StartsAt:       &event.DateDebut,
		Now:            s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{"statut": decision.NewState}
	if decision.Effects.StampPublication {
		updates["date_publication"] = now
	}
	if decision.Effects.SetVisible != nil {
		updates["is_visible_public"] = *decision.Effects.SetVisible
	}
	if decision.Effects.ClearMotif {
		updates["motif_annulation"] = ""
	}
	if decision.NewState == models.EvenementAnnulee {
		updates["motif_annulation"] = strings.TrimSpace(motif)
	}
	if decision.NewState == models.EvenementCloturee {
		updates["rapport_cloture"] = strings.TrimSpace(rapport)
	}

	res := s.db.WithContext(ctx).Model(&models.Evenement{}).
		Where("id = ? AND statut = ?", event.ID, event.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("evenement service: apply transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	metrics.Transitions.WithLabelValues("evenement", decision.NewState).Inc()
	s.notifier.EmitLifecycle(ctx, decision.Effects.Notification)

	return s.Get(ctx, event.ID)
}
