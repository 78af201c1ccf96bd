package models

import (
	"time"
)

// Evenement lifecycle states.
const (
	EvenementEnAttenteValidation = "EN_ATTENTE_VALIDATION"
	EvenementValidee             = "VALIDEE"
	EvenementPubliee             = "PUBLIEE"
	EvenementEnAction            = "EN_ACTION"
	EvenementCloturee            = "CLOTUREE"
	EvenementAnnulee             = "ANNULEE"
)

// Evenement is a delegation-published event moving through a moderated
// lifecycle from submission to closure.
type Evenement struct {
	BaseModel

	Titre       string `gorm:"not null" json:"titre"`
	Description string `gorm:"type:text" json:"description"`
	Lieu        string `json:"lieu"`

	Statut string `gorm:"type:varchar(32);not null;default:'EN_ATTENTE_VALIDATION';index" json:"statut"`

	DateDebut time.Time `gorm:"not null" json:"date_debut"`
	DateFin   time.Time `gorm:"not null" json:"date_fin"`

	DatePublication *time.Time `json:"date_publication"`
	MotifAnnulation string     `gorm:"type:text" json:"motif_annulation"`

	// RapportCloture is required to enter CLOTUREE; closing is a dedicated
	// operation, never a bare status change.
	RapportCloture string `gorm:"type:text" json:"rapport_cloture"`

	IsVisiblePublic bool `gorm:"default:false;index" json:"is_visible_public"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
