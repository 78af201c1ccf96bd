package models

// Permission mirrors the in-code permission catalog in the database so
// grants can reference codes with referential integrity. The code itself
// is the primary key and never changes; deactivation is the only mutation.
type Permission struct {
	BaseModel

	Groupe      string `gorm:"not null;index" json:"groupe"`
	Description string `json:"description"`
	Active      bool   `gorm:"default:true;index" json:"active"`

	Grants []PermissionGrant `gorm:"foreignKey:PermissionID" json:"grants,omitempty"`
}
