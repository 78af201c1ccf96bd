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

// CreateActualiteInput describes a news item submission.
type CreateActualiteInput struct {
	Titre   string `json:"titre" validate:"required,max=255"`
	Contenu string `json:"contenu" validate:"required"`
}

// UpdateActualiteInput carries an author edit.
type UpdateActualiteInput struct {
	Titre   *string `json:"titre" validate:"omitempty,max=255"`
	Contenu *string `json:"contenu"`
}

// ActualiteService owns news items and their validate-then-publish
// lifecycle.
type ActualiteService struct {
	db       *gorm.DB
	machine  *lifecycle.Machine
	notifier *NotificationService
	now      func() time.Time
}

func NewActualiteService(db *gorm.DB, machine *lifecycle.Machine, notifier *NotificationService) (*ActualiteService, error) {
	if db == nil {
		return nil, errors.New("actualite service: db is required")
	}
	if machine == nil {
		return nil, errors.New("actualite service: machine is required")
	}
	if notifier == nil {
		return nil, errors.New("actualite service: notifier is required")
	}
	return &ActualiteService{db: db, machine: machine, notifier: notifier, now: time.Now}, nil
}

// Create submits a news item for moderation.
func (s *ActualiteService) Create(ctx context.Context, creatorID string, input CreateActualiteInput) (*models.Actualite, error) {
	ctx = ensureContext(ctx)

	item := models.Actualite{
		Titre:       strings.TrimSpace(input.Titre),
		Contenu:     strings.TrimSpace(input.Contenu),
		Statut:      models.PublicationEnAttenteValidation,
		CreatedByID: creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("actualite service: create: %w", err)
	}
	return &item, nil
}

// Get loads one news item.
func (s *ActualiteService) Get(ctx context.Context, id string) (*models.Actualite, error) {
	ctx = ensureContext(ctx)
	var item models.Actualite
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("actualite introuvable")
		}
		return nil, fmt.Errorf("actualite service: load: %w", err)
	}
	return &item, nil
}

// List returns news items, optionally only the publicly visible ones.
func (s *ActualiteService) List(ctx context.Context, publicOnly bool, page, pageSize int) ([]models.Actualite, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Actualite{})
	if publicOnly {
		query = query.Where("is_visible_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("actualite service: count: %w", err)
	}

	var rows []models.Actualite
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("actualite service: list: %w", err)
	}
	return rows, total, nil
}

// Update applies an edit by the author or a moderator. An author editing
// a validated item sends it back to the moderation queue with all public
// flags dropped; that fallback is a rule of the lifecycle, not an
// authorized transition. A moderator's edit never triggers the reversion.
func (s *ActualiteService) Update(ctx context.Context, actorID, id string, input UpdateActualiteInput) (*models.Actualite, error) {
	ctx = ensureContext(ctx)

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	moderator, err := s.machine.CanModerate(ctx, actorID, lifecycle.KindActualite)
	if err != nil {
		return nil, fmt.Errorf("actualite service: moderation check: %w", err)
	}
	if item.CreatedByID != actorID && !moderator {
		return nil, apperrors.ErrForbidden.WithMessage("seul l'auteur peut modifier ce contenu")
	}

	updates := map[string]any{}
	if input.Titre != nil {
		updates["titre"] = strings.TrimSpace(*input.Titre)
	}
	if input.Contenu != nil {
		updates["contenu"] = strings.TrimSpace(*input.Contenu)
	}
	if len(updates) == 0 {
		return item, nil
	}

	reverted := false
	if item.Statut == models.PublicationValidee && !moderator {
		for column, value := range authorEditUpdates() {
			updates[column] = value
		}
		reverted = true
	}

	res := s.db.WithContext(ctx).Model(&models.Actualite{}).
		Where("id = ? AND statut = ?", item.ID, item.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("actualite service: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	if reverted {
		metrics.Transitions.WithLabelValues("actualite", models.PublicationEnAttenteValidation).Inc()
	}
	return s.Get(ctx, item.ID)
}

// Transition moves the news item to the requested status.
func (s *ActualiteService) Transition(ctx context.Context, actorID, id, requested, motif string) (*models.Actualite, error) {
	ctx = ensureContext(ctx)

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.machine.Decide(ctx, lifecycle.Request{
		Kind:           lifecycle.KindActualite,
		CurrentState:   item.Statut,
		RequestedState: requested,
		ActorID:        actorID,
		CreatorID:      item.CreatedByID,
		Reason:         motif,
		Validated:      item.IsValide,
		Now:            s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	updates := publicationUpdates(decision, motifForState(decision.NewState, motif), s.now().UTC())
	res := s.db.WithContext(ctx).Model(&models.Actualite{}).
		Where("id = ? AND statut = ?", item.ID, item.Statut).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("actualite service: apply transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	metrics.Transitions.WithLabelValues("actualite", decision.NewState).Inc()
	s.notifier.EmitLifecycle(ctx, decision.Effects.Notification)

	return s.Get(ctx, item.ID)
}

// motifForState only persists the motive on a rejection; other moves
// never touch the stored motive unless the effects clear it.
func motifForState(state, motif string) string {
	if state == models.PublicationRejetee {
		return motif
	}
	return ""
}
