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

// CreateCampagneInput describes a campaign submission.
type CreateCampagneInput struct {
	Titre     string     `json:"titre" validate:"required,max=255"`
	Contenu   string     `json:"contenu" validate:"required"`
	Theme     string     `json:"theme"`
	DateDebut *time.Time `json:"date_debut"`
	DateFin   *time.Time `json:"date_fin"`
}

// UpdateCampagneInput carries an author edit.
type UpdateCampagneInput struct {
	Titre   *string `json:"titre" validate:"omitempty,max=255"`
	Contenu *string `json:"contenu"`
	Theme   *string `json:"theme"`
}

// CampagneService owns sensibilisation campaigns; same lifecycle as news
// items.
type CampagneService struct {
	db       *gorm.DB
	machine  *lifecycle.Machine
	notifier *NotificationService
	now      func() time.Time
}

func NewCampagneService(db *gorm.DB, machine *lifecycle.Machine, notifier *NotificationService) (*CampagneService, error) {
	if db == nil {
		return nil, errors.New("campagne service: db is required")
	}
	if machine == nil {
		return nil, errors.New("campagne service: machine is required")
	}
	if notifier == nil {
		return nil, errors.New("campagne service: notifier is required")
	}
	return &CampagneService{db: db, machine: machine, notifier: notifier, now: time.Now}, nil
}

// Create submits a campaign for moderation.
func (s *CampagneService) Create(ctx context.Context, creatorID string, input CreateCampagneInput) (*models.Campagne, error) {
	ctx = ensureContext(ctx)

	campagne := models.Campagne{
		Titre:       strings.TrimSpace(input.Titre),
		Contenu:     strings.TrimSpace(input.Contenu),
		Theme:       strings.TrimSpace(input.Theme),
		Statut:      models.PublicationEnAttenteValidation,
		DateDebut:   input.DateDebut,
		DateFin:     input.DateFin,
		CreatedByID: creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&campagne).Error; err != nil {
		return nil, fmt.Errorf("campagne service: create: %w", err)
	}
	return &campagne, nil
}

// Get loads one campaign.
func (s *CampagneService) Get(ctx context.Context, id string) (*models.Campagne, error) {
	ctx = ensureContext(ctx)
	var campagne models.Campagne
	if err := s.db.WithContext(ctx).First(&campagne, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("campagne introuvable")
		}
		return nil, fmt.Errorf("campagne service: load: %w", err)
	}
	return &campagne, nil
}

// List returns campaigns, optionally only the publicly visible ones.
func (s *CampagneService) List(ctx context.Context, publicOnly bool, page, pageSize int) ([]models.Campagne, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Campagne{})
	if publicOnly {
		query = query.Where("is_visible_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("campagne service: count: %w", err)
	}

	var rows []models.Campagne
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("campagne service: list: %w", err)
	}
	return rows, total, nil
}

// Update applies an edit by the author or a moderator, with the same
// validated-item fallback as news items for the author's edits.
func (s *CampagneService) Update(ctx context.Context, actorID, id string, input UpdateCampagneInput) (*models.Campagne, error) {
	ctx = ensureContext(ctx)

	campagne, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	moderator, err := s.machine.CanModerate(ctx, actorID, lifecycle.KindCampagne)
	if err != nil {
		return nil, fmt.Errorf("campagne service: moderation check: %w", err)
	}
	if campagne.CreatedByID != actorID && !moderator {
		return nil, apperrors.ErrForbidden.WithMessage("seul l'auteur peut modifier ce contenu")
	}

	updates := map[string]any{}
	if input.Titre != nil {
		updates["titre"] = strings.TrimSpace(*input.Titre)
	}
	if input.Contenu != nil {
		updates["contenu"] = strings.TrimSpace(*input.Contenu)
	}
	if input.Theme != nil {
		updates["theme"] = strings.TrimSpace(*input.Theme)
	}
	if len(updates) == 0 {
		return campagne, nil
	}

	if campagne.Statut == models.PublicationValidee && !moderator {
		for column, value := range authorEditUpdates() {
			updates[column] = value
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Campagne{}).
		Where("id = ? AND statut = ?", campagne.ID, campagne.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("campagne service: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}
	return s.Get(ctx, campagne.ID)
}

// Transition moves the campaign to the requested status.
func (s *CampagneService) Transition(ctx context.Context, actorID, id, requested, motif string) (*models.Campagne, error) {
	ctx = ensureContext(ctx)

	campagne, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.machine.Decide(ctx, lifecycle.Request{
		Kind:           lifecycle.KindCampagne,
		CurrentState:   campagne.Statut,
		RequestedState: requested,
		ActorID:        actorID,
		CreatorID:      campagne.CreatedByID,
		Reason:         motif,
		Validated:      campagne.IsValide,
		Now:            s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	updates := publicationUpdates(decision, motifForState(decision.NewState, motif), s.now().UTC())
	res := s.db.WithContext(ctx).Model(&models.Campagne{}).
		Where("id = ? AND statut = ?", campagne.ID, campagne.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("campagne service: apply transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	metrics.Transitions.WithLabelValues("campagne", decision.NewState).Inc()
	s.notifier.EmitLifecycle(ctx, decision.Effects.Notification)

	return s.Get(ctx, campagne.ID)
}
