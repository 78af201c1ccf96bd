package models

import (
	"time"
)

// Activite lifecycle states.
const (
	ActiviteBrouillon            = "BROUILLON"
	ActiviteEnAttenteValidation  = "EN_ATTENTE_VALIDATION"
	ActivitePlanifiee            = "PLANIFIEE"
	ActiviteTerminee             = "TERMINEE"
	ActiviteRapportComplete      = "RAPPORT_COMPLETE"
)

// Activite is a coordinator-run activity: drafted, submitted for
// validation, planned, then reported on once its end date has passed.
type Activite struct {
	BaseModel

	Titre       string `gorm:"not null" json:"titre"`
	Description string `gorm:"type:text" json:"description"`

	Statut string `gorm:"type:varchar(32);not null;default:'BROUILLON';index" json:"statut"`

	DateDebut time.Time `gorm:"not null" json:"date_debut"`
	DateFin   time.Time `gorm:"not null" json:"date_fin"`

	// Rapport may only be filed once DateFin is in the past.
	Rapport         string     `gorm:"type:text" json:"rapport"`
	DateRapport     *time.Time `json:"date_rapport"`
	MotifRejet      string     `gorm:"type:text" json:"motif_rejet"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
