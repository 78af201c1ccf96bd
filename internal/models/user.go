package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies the tier an account belongs to. Roles carry a fixed
// default permission set compiled into the permissions package.
type Role string

const (
	RoleCitoyen                Role = "CITOYEN"
	RoleDelegation             Role = "DELEGATION"
	RoleAutoriteLocale         Role = "AUTORITE_LOCALE"
	RoleCoordinateurActivites  Role = "COORDINATEUR_ACTIVITES"
	RoleAdmin                  Role = "ADMIN"
	RoleSuperAdmin             Role = "SUPER_ADMIN"
	RoleGouverneur             Role = "GOUVERNEUR"
)

// Valid reports whether the role is one of the declared tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleCitoyen, RoleDelegation, RoleAutoriteLocale,
		RoleCoordinateurActivites, RoleAdmin, RoleSuperAdmin, RoleGouverneur:
		return true
	}
	return false
}

// User describes every portal account, from citizens up to the super admin.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`

	Role     Role `gorm:"type:varchar(32);not null;index" json:"role"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	// CommuneResponsableID binds an AUTORITE_LOCALE account to the commune
	// it answers for. At most one active local authority holds a commune;
	// the user service enforces this when the role is granted.
	CommuneResponsableID *string  `gorm:"type:uuid;index" json:"commune_responsable_id"`
	CommuneResponsable   *Commune `gorm:"foreignKey:CommuneResponsableID" json:"commune_responsable,omitempty"`

	Grants []PermissionGrant `gorm:"foreignKey:UserID" json:"grants,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
