package permissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sbenhamida/mouwatin/internal/models"
)

// Sync persists registered permissions to the backing database so grant
// rows can reference them with referential integrity.
func Sync(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("permission: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	perms := GetAll()
	if len(perms) == 0 {
		return nil
	}

	tx := db.WithContext(ctx)
	for _, perm := range perms {
		record := models.Permission{
			BaseModel:   models.BaseModel{ID: perm.ID},
			Groupe:      perm.Groupe,
			Description: perm.Description,
			Active:      perm.Active,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"groupe", "description"}),
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("permission: sync %s: %w", perm.ID, err)
		}
	}

	return nil
}

// Deactivate marks a permission code inactive in the registry and the
// database. Codes are never hard-deleted; the count of grants still
// referencing the code is returned so callers can surface it.
func Deactivate(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	if db == nil {
		return 0, errors.New("permission: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := Get(id); !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownPermission, id)
	}

	var affected int64
	if err := db.WithContext(ctx).
		Model(&models.PermissionGrant{}).
		Where("permission_id = ? AND active = ?", id, true).
		Count(&affected).Error; err != nil {
		return 0, fmt.Errorf("permission: count grants for %s: %w", id, err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Permission{}).
		Where("id = ?", id).
		Update("active", false).Error; err != nil {
		return 0, fmt.Errorf("permission: deactivate %s: %w", id, err)
	}

	markInactive(id)
	return affected, nil
}
