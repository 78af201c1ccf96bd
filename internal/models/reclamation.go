package models

import (
	"time"
)

// Decision values for a complaint. The decision is binary and final: once
// rejected the complaint is terminal, once accepted its remaining lifecycle
// is carried by the assignment sub-state.
const (
	DecisionAcceptee = "ACCEPTEE"
	DecisionRejetee  = "REJETEE"
)

// Assignment sub-states.
const (
	AffectationNonAffectee = "NON_AFFECTEE"
	AffectationAffectee    = "AFFECTEE"
)

// Reclamation is a citizen-submitted complaint tied to a commune.
type Reclamation struct {
	BaseModel

	Titre       string `gorm:"not null" json:"titre"`
	Description string `gorm:"type:text;not null" json:"description"`

	CitoyenID string `gorm:"type:uuid;not null;index" json:"citoyen_id"`
	Citoyen   *User  `gorm:"foreignKey:CitoyenID" json:"citoyen,omitempty"`

	// CommuneID locates the complaint; dispatch routes it to the local
	// authority bound to this commune.
	CommuneID string   `gorm:"type:uuid;not null;index" json:"commune_id"`
	Commune   *Commune `gorm:"foreignKey:CommuneID" json:"commune,omitempty"`

	// Decision is empty until an admin accepts or rejects the complaint.
	Decision   string `gorm:"type:varchar(16);index" json:"decision"`
	MotifRejet string `gorm:"type:text" json:"motif_rejet"`

	Affectation      string     `gorm:"type:varchar(16);not null;default:'NON_AFFECTEE';index" json:"affectation"`
	AffecteAID       *string    `gorm:"type:uuid;index" json:"affecte_a_id"`
	AffecteA         *User      `gorm:"foreignKey:AffecteAID" json:"affecte_a,omitempty"`
	CommuneAffecteeID *string   `gorm:"type:uuid" json:"commune_affectee_id"`
	DateAffectation  *time.Time `json:"date_affectation"`

	DateResolution *time.Time `json:"date_resolution"`
	NoteResolution string     `gorm:"type:text" json:"note_resolution"`
}

// Assigned reports whether the complaint currently has an active assignee.
func (r *Reclamation) Assigned() bool {
	return r.Affectation == AffectationAffectee && r.AffecteAID != nil
}

// Resolved reports whether the complaint has been closed out by its assignee.
func (r *Reclamation) Resolved() bool {
	return r.DateResolution != nil
}
