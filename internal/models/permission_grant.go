package models

import (
	"time"
)

// PermissionGrant is an explicit, revocable, optionally time-bound permission
// assigned to one account beyond its role defaults. One row per
// (user, permission) pair; re-granting updates the row in place. Revoked and
// expired rows are kept for audit and simply excluded from the effective set.
type PermissionGrant struct {
	BaseModel

	UserID       string `gorm:"type:uuid;not null;uniqueIndex:idx_grant_user_permission,priority:1" json:"user_id"`
	PermissionID string `gorm:"type:varchar(128);not null;uniqueIndex:idx_grant_user_permission,priority:2" json:"permission_id"`

	GrantedByID string     `gorm:"type:uuid;not null" json:"granted_by_id"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Active      bool       `gorm:"default:true;index" json:"active"`
}

// TableName overrides the default table name for GORM.
func (PermissionGrant) TableName() string {
	return "permission_grants"
}

// Effective reports whether the grant contributes to the holder's permission
// set at the supplied instant.
func (g PermissionGrant) Effective(now time.Time) bool {
	if !g.Active {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
		return false
	}
	return true
}
