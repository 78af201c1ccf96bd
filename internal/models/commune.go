package models

// Commune is the territorial unit a local authority answers for.
type Commune struct {
	BaseModel

	Nom         string `gorm:"not null;index" json:"nom"`
	Gouvernorat string `gorm:"index" json:"gouvernorat"`
	CodePostal  string `json:"code_postal"`
}
