package database

import (
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Commune{},
		&models.Permission{},
		&models.PermissionGrant{},
		&models.Reclamation{},
		&models.Evenement{},
		&models.Actualite{},
		&models.Campagne{},
		&models.Activite{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// SeedData populates the bootstrap super admin and a starter set of communes.
func SeedData(db *gorm.DB) error {
	password, err := crypto.HashPassword("changeme")
	if err != nil {
		return err
	}

	superAdmin := models.User{
		ID:       "super-admin",
		Email:    "admin@mouwatin.tn",
		Password: password,
		Nom:      "Administrateur",
		Prenom:   "Principal",
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	if err := db.Where(models.User{Email: superAdmin.Email}).Attrs(superAdmin).FirstOrCreate(&models.User{}).Error; err != nil {
		return err
	}

	communes := []models.Commune{
		{BaseModel: models.BaseModel{ID: "commune-tunis"}, Nom: "Tunis", Gouvernorat: "Tunis"},
		{BaseModel: models.BaseModel{ID: "commune-ariana"}, Nom: "Ariana", Gouvernorat: "Ariana"},
		{BaseModel: models.BaseModel{ID: "commune-sousse"}, Nom: "Sousse", Gouvernorat: "Sousse"},
	}
	for _, commune := range communes {
		if err := db.Where(models.Commune{BaseModel: models.BaseModel{ID: commune.ID}}).Attrs(commune).FirstOrCreate(&models.Commune{}).Error; err != nil {
			return err
		}
	}

	return nil
}
