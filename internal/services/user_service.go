package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/pkg/crypto"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nom      string `json:"nom" validate:"required"`
	Prenom   string `json:"prenom"`
	Role     models.Role
}

// SetRoleInput describes a role change. CommuneID is required when the
// new role is AUTORITE_LOCALE and ignored otherwise.
type SetRoleInput struct {
	UserID    string
	Role      models.Role
	CommuneID *string
}

// UserService manages portal accounts and guards role transitions.
type UserService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewUserService(db *gorm.DB, audit *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if audit == nil {
		return nil, errors.New("user service: audit service is required")
	}
	return &UserService{db: db, audit: audit}, nil
}

// Create registers an account. Citizens self-register with RoleCitoyen;
// privileged roles are set afterwards through SetRole.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	role := input.Role
	if role == "" {
		role = models.RoleCitoyen
	}
	if !role.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("role inconnu: %s", role))
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: hashed,
		Nom:      strings.TrimSpace(input.Nom),
		Prenom:   strings.TrimSpace(input.Prenom),
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("un compte existe deja pour cette adresse")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return &user, nil
}

// Get loads one account by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("compte introuvable")
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns accounts ordered by creation, paginated.
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = clampPage(page, pageSize)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}
	return users, total, nil
}

// SetRole changes an account's role. Rules:
//   - nobody changes their own role;
//   - only SUPER_ADMIN may hand out ADMIN or SUPER_ADMIN;
//   - AUTORITE_LOCALE requires a commune, and a commune holds at most one
//     active local authority at a time (the dispatcher trusts this mapping);
//   - leaving AUTORITE_LOCALE clears the commune binding.
func (s *UserService) SetRole(ctx context.Context, actorID string, input SetRoleInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	if !input.Role.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("role inconnu: %s", input.Role))
	}
	if actorID == input.UserID {
		return nil, apperrors.ErrForbidden.WithMessage("un compte ne peut pas changer son propre role")
	}

	actor, err := s.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if (input.Role == models.RoleAdmin || input.Role == models.RoleSuperAdmin) &&
		actor.Role != models.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden.WithMessage("seul le super administrateur nomme des administrateurs")
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound.WithMessage("compte introuvable")
			}
			return fmt.Errorf("user service: load user: %w", err)
		}

		updates := map[string]any{
			"role":                   input.Role,
			"commune_responsable_id": nil,
		}

		if input.Role == models.RoleAutoriteLocale {
			if input.CommuneID == nil || strings.TrimSpace(*input.CommuneID) == "" {
				return apperrors.ErrNoJurisdiction.WithMessage("une autorite locale doit etre rattachee a une commune")
			}

			var commune models.Commune
			if err := tx.First(&commune, "id = ?", *input.CommuneID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrNotFound.WithMessage("commune introuvable")
				}
				return fmt.Errorf("user service: load commune: %w", err)
			}

			// at most one active local authority per commune
			var holders int64
			if err := tx.Model(&models.User{}).
				Where("role = ? AND commune_responsable_id = ? AND is_active = ? AND id <> ?",
					models.RoleAutoriteLocale, commune.ID, true, user.ID).
				Count(&holders).Error; err != nil {
				return fmt.Errorf("user service: count commune holders: %w", err)
			}
			if holders > 0 {
				return apperrors.ErrConflict.WithMessage("cette commune a deja une autorite locale active")
			}
			updates["commune_responsable_id"] = commune.ID
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("user service: update role: %w", err)
		}
		return tx.First(&user, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, AuditEntry{
		UserID:   &actor.ID,
		Action:   "user.role_change",
		Resource: "user:" + user.ID,
		Metadata: map[string]any{"role": string(input.Role)},
	})
	return &user, nil
}

// SetActive activates or deactivates an account. Self-deactivation is
// refused so the last admin cannot lock everyone out by accident.
func (s *UserService) SetActive(ctx context.Context, actorID, userID string, active bool) (*models.User, error) {
	ctx = ensureContext(ctx)

	if actorID == userID && !active {
		return nil, apperrors.ErrForbidden.WithMessage("un compte ne peut pas se desactiver lui-meme")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("user service: update active flag: %w", err)
	}
	user.IsActive = active

	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	_ = s.audit.Log(ctx, AuditEntry{
		UserID:   &actorID,
		Action:   action,
		Resource: "user:" + user.ID,
	})
	return user, nil
}
