package models

import (
	"time"
)

// Shared validate-then-publish states used by news items and campaigns.
const (
	PublicationEnAttenteValidation = "EN_ATTENTE_VALIDATION"
	PublicationValidee             = "VALIDEE"
	PublicationPubliee             = "PUBLIEE"
	PublicationRejetee             = "REJETEE"
	PublicationDepubliee           = "DEPUBLIEE"
	PublicationArchivee            = "ARCHIVEE"
)

// Actualite is a delegation-authored news item. The statut column is
// mirrored by the IsValide/IsPublie booleans; publication requires a prior
// validation, and any author edit while VALIDEE reverts the item to
// EN_ATTENTE_VALIDATION.
type Actualite struct {
	BaseModel

	Titre   string `gorm:"not null" json:"titre"`
	Contenu string `gorm:"type:text;not null" json:"contenu"`

	Statut   string `gorm:"type:varchar(32);not null;default:'EN_ATTENTE_VALIDATION';index" json:"statut"`
	IsValide bool   `gorm:"default:false" json:"is_valide"`
	IsPublie bool   `gorm:"default:false;index" json:"is_publie"`

	IsVisiblePublic bool `gorm:"default:false;index" json:"is_visible_public"`

	MotifRejet      string     `gorm:"type:text" json:"motif_rejet"`
	DatePublication *time.Time `json:"date_publication"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
