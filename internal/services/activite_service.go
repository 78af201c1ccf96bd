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

// CreateActiviteInput describes a new activity draft.
type CreateActiviteInput struct {
	Titre       string    `json:"titre" validate:"required,max=255"`
	Description string    `json:"description"`
	DateDebut   time.Time `json:"date_debut" validate:"required"`
	DateFin     time.Time `json:"date_fin" validate:"required,gtfield=DateDebut"`
}

// ActiviteService owns coordinator activities: drafted, submitted,
// planned, finished, then reported on.
type ActiviteService struct {
	db       *gorm.DB
	machine  *lifecycle.Machine
	notifier *NotificationService
	now      func() time.Time
}

func NewActiviteService(db *gorm.DB, machine *lifecycle.Machine, notifier *NotificationService) (*ActiviteService, error) {
	if db == nil {
		return nil, errors.New("activite service: db is required")
	}
	if machine == nil {
		return nil, errors.New("activite service: machine is required")
	}
	if notifier == nil {
		return nil, errors.New("activite service: notifier is required")
	}
	return &ActiviteService{db: db, machine: machine, notifier: notifier, now: time.Now}, nil
}

// Create registers an activity as a draft.
func (s *ActiviteService) Create(ctx context.Context, creatorID string, input CreateActiviteInput) (*models.Activite, error) {
	ctx = ensureContext(ctx)

	activite := models.Activite{
		Titre:       strings.TrimSpace(input.Titre),
		Description: strings.TrimSpace(input.Description),
		Statut:      models.ActiviteBrouillon,
		DateDebut:   input.DateDebut,
		DateFin:     input.DateFin,
		CreatedByID: creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&activite).Error; err != nil {
		return nil, fmt.Errorf("activite service: create: %w", err)
	}
	return &activite, nil
}

// Get loads one activity.
func (s *ActiviteService) Get(ctx context.Context, id string) (*models.Activite, error) {
	ctx = ensureContext(ctx)
	var activite models.Activite
	if err := s.db.WithContext(ctx).First(&activite, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("activite introuvable")
		}
		return nil, fmt.Errorf("activite service: load: %w", err)
	}
	return &activite, nil
}

// List returns activities, newest first.
func (s *ActiviteService) List(ctx context.Context, page, pageSize int) ([]models.Activite, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Activite{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("activite service: count: %w", err)
	}

	var rows []models.Activite
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("activite service: list: %w", err)
	}
	return rows, total, nil
}

// Submit moves a draft into the validation queue.
func (s *ActiviteService) Submit(ctx context.Context, actorID, id string) (*models.Activite, error) {
	return s.transition(ctx, actorID, id, models.ActiviteEnAttenteValidation, "", "")
}

// Transition moves the activity to the requested status.
func (s *ActiviteService) Transition(ctx context.Context, actorID, id, requested, motif string) (*models.Activite, error) {
	return s.transition(ctx, actorID, id, requested, motif, "")
}

// FileReport completes the activity with its report, allowed only after
// the end date has passed.
func (s *ActiviteService) FileReport(ctx context.Context, actorID, id, rapport string) (*models.Activite, error) {
	return s.transition(ctx, actorID, id, models.ActiviteRapportComplete, "", rapport)
}

func (s *ActiviteService) transition(ctx context.Context, actorID, id, requested, motif, rapport string) (*models.Activite, error) {
	ctx = ensureContext(ctx)

	activite, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.machine.Decide(ctx, lifecycle.Request{
		Kind:           lifecycle.KindActivite,
		CurrentState:   activite.Statut,
		RequestedState: requested,
		ActorID:        actorID,
		CreatorID:      activite.CreatedByID,
		Reason:         motif,
		Report:         rapport,
		EndsAt:         &activite.DateFin,
		Now:            s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{"statut": decision.NewState}
	if decision.Effects.StampRapport {
		updates["rapport"] = strings.TrimSpace(rapport)
		updates["date_rapport"] = now
	}
	if decision.NewState == models.ActiviteBrouillon && strings.TrimSpace(motif) != "" {
		// a refused submission goes back to draft with the motive attached
		updates["motif_rejet"] = strings.TrimSpace(motif)
	}
	if decision.NewState == models.ActiviteEnAttenteValidation {
		updates["motif_rejet"] = ""
	}

	res := s.db.WithContext(ctx).Model(&models.Activite{}).
		Where("id = ? AND statut = ?", activite.ID, activite.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("activite service: apply transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	metrics.Transitions.WithLabelValues("activite", decision.NewState).Inc()
	s.notifier.EmitLifecycle(ctx, decision.Effects.Notification)

	return s.Get(ctx, activite.ID)
}
