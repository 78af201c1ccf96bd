package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/permissions"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// GrantInput describes an explicit permission grant to create or refresh.
type GrantInput struct {
	UserID       string
	PermissionID string
	ExpiresAt    *time.Time
}

// GrantService manages explicit permission grants. Only SUPER_ADMIN may
// create or revoke grants; every other role, including ADMIN, has its
// grants managed for it. Rows are never deleted, only deactivated, so
// the grant trail stays auditable.
type GrantService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

func NewGrantService(db *gorm.DB, audit *AuditService) (*GrantService, error) {
	if db == nil {
		return nil, errors.New("grant service: db is required")
	}
	if audit == nil {
		return nil, errors.New("grant service: audit service is required")
	}
	return &GrantService{db: db, audit: audit, now: time.Now}, nil
}

// Grant creates a grant, or refreshes the existing row for the same
// (user, permission) pair in place.
func (s *GrantService) Grant(ctx context.Context, actorID string, input GrantInput) (*models.PermissionGrant, error) {
	ctx = ensureContext(ctx)

	actor, err := s.requireSuperAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID == strings.TrimSpace(input.UserID) {
		return nil, apperrors.NewValidation("un compte ne peut pas modifier ses propres droits")
	}
	if !permissions.IsActive(input.PermissionID) {
		return nil, apperrors.NewValidation(fmt.Sprintf("permission inconnue ou desactivee: %s", input.PermissionID))
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		return nil, apperrors.NewValidation("la date d'expiration est deja passee")
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, "id = ?", strings.TrimSpace(input.UserID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("compte cible introuvable")
		}
		return nil, fmt.Errorf("grant service: load target: %w", err)
	}

	var grant models.PermissionGrant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND permission_id = ?", target.ID, input.PermissionID).
			First(&grant).Error
		switch {
		case err == nil:
			// re-grant refreshes the existing row
			grant.GrantedByID = actor.ID
			grant.ExpiresAt = input.ExpiresAt
			grant.Active = true
			if err := tx.Save(&grant).Error; err != nil {
				return fmt.Errorf("grant service: refresh grant: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			grant = models.PermissionGrant{
				UserID:       target.ID,
				PermissionID: input.PermissionID,
				GrantedByID:  actor.ID,
				ExpiresAt:    input.ExpiresAt,
				Active:       true,
			}
			if err := tx.Create(&grant).Error; err != nil {
				if isUniqueConstraintError(err) {
					return apperrors.ErrConflict
				}
				return fmt.Errorf("grant service: create grant: %w", err)
			}
		default:
			return fmt.Errorf("grant service: load grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, AuditEntry{
		UserID:   &actor.ID,
		Action:   "permission.grant",
		Resource: "user:" + target.ID,
		Metadata: map[string]any{"permission": grant.PermissionID},
	})
	return &grant, nil
}

// Revoke deactivates a grant. The row is kept for audit.
func (s *GrantService) Revoke(ctx context.Context, actorID, userID, permissionID string) error {
	ctx = ensureContext(ctx)

	actor, err := s.requireSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&models.PermissionGrant{}).
		Where("user_id = ? AND permission_id = ? AND active = ?", userID, permissionID, true).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("grant service: revoke grant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("aucun droit actif a revoquer")
	}

	_ = s.audit.Log(ctx, AuditEntry{
		UserID:   &actor.ID,
		Action:   "permission.revoke",
		Resource: "user:" + userID,
		Metadata: map[string]any{"permission": permissionID},
	})
	return nil
}

// ListForUser returns all grant rows of a user, active or not.
func (s *GrantService) ListForUser(ctx context.Context, userID string) ([]models.PermissionGrant, error) {
	ctx = ensureContext(ctx)
	var grants []models.PermissionGrant
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("grant service: list grants: %w", err)
	}
	return grants, nil
}

func (s *GrantService) requireSuperAdmin(ctx context.Context, actorID string) (*models.User, error) {
	var actor models.User
	if err := s.db.WithContext(ctx).First(&actor, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("grant service: load actor: %w", err)
	}
	if !actor.IsActive || actor.Role != models.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden.WithMessage("seul le super administrateur gere les droits explicites")
	}
	return &actor, nil
}
