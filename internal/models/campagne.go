package models

import (
	"time"
)

// Campagne is a sensibilisation campaign. It follows the same
// validate-then-publish lifecycle as Actualite.
type Campagne struct {
	BaseModel

	Titre   string `gorm:"not null" json:"titre"`
	Contenu string `gorm:"type:text;not null" json:"contenu"`
	Theme   string `json:"theme"`

	Statut   string `gorm:"type:varchar(32);not null;default:'EN_ATTENTE_VALIDATION';index" json:"statut"`
	IsValide bool   `gorm:"default:false" json:"is_valide"`
	IsPublie bool   `gorm:"default:false;index" json:"is_publie"`

	IsVisiblePublic bool `gorm:"default:false;index" json:"is_visible_public"`

	MotifRejet      string     `gorm:"type:text" json:"motif_rejet"`
	DatePublication *time.Time `json:"date_publication"`

	DateDebut *time.Time `json:"date_debut"`
	DateFin   *time.Time `json:"date_fin"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
