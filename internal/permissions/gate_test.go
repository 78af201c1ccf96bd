package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
)

func setupGateTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Commune{},
		&models.Permission{},
		&models.PermissionGrant{},
	))
	require.NoError(t, Sync(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func removePermission(id string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	delete(globalRegistry.permissions, id)
}

func createUser(t *testing.T, db *gorm.DB, id string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:       id,
		Email:    id + "@example.tn",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGateRoleDefaults(t *testing.T) {
	db := setupGateTestDB(t)
	delegation := createUser(t, db, "user-delegation", models.RoleDelegation)

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), delegation.ID, "actualites.create")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = gate.Can(context.Background(), delegation.ID, "actualites.validate")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGateSuperAdminHoldsEverything(t *testing.T) {
	db := setupGateTestDB(t)
	super := createUser(t, db, "user-super", models.RoleSuperAdmin)

	gate, err := NewGate(db)
	require.NoError(t, err)

	for _, code := range ActiveIDs() {
		ok, err := gate.Can(context.Background(), super.ID, code)
		require.NoError(t, err)
		require.True(t, ok, "super admin should hold %s", code)
	}

	// explicit grants do not change the outcome
	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       super.ID,
		PermissionID: "audit.view",
		GrantedByID:  super.ID,
		Active:       false,
	}).Error)

	ok, err := gate.Can(context.Background(), super.ID, "audit.view")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGateGrantIsMonotonic(t *testing.T) {
	db := setupGateTestDB(t)
	admin := createUser(t, db, "user-admin", models.RoleAdmin)

	gate, err := NewGate(db)
	require.NoError(t, err)

	before, err := gate.EffectivePermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotContains(t, before, "utilisateurs.manage")

	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       admin.ID,
		PermissionID: "utilisateurs.manage",
		GrantedByID:  "user-super",
		Active:       true,
	}).Error)

	after, err := gate.EffectivePermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Contains(t, after, "utilisateurs.manage")
	require.Subset(t, after, before)
}

func TestGateExpiredGrantIsExcluded(t *testing.T) {
	db := setupGateTestDB(t)
	admin := createUser(t, db, "user-admin-2", models.RoleAdmin)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       admin.ID,
		PermissionID: "utilisateurs.manage",
		GrantedByID:  "user-super",
		ExpiresAt:    &past,
		Active:       true,
	}).Error)

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), admin.ID, "utilisateurs.manage")
	require.NoError(t, err)
	require.False(t, ok)

	perms, err := gate.EffectivePermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotContains(t, perms, "utilisateurs.manage")
}

func TestGateFutureExpiryStillAuthorizes(t *testing.T) {
	db := setupGateTestDB(t)
	citoyen := createUser(t, db, "user-citoyen", models.RoleCitoyen)

	future := time.Now().Add(time.Hour)
	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       citoyen.ID,
		PermissionID: "evenements.view",
		GrantedByID:  "user-super",
		ExpiresAt:    &future,
		Active:       true,
	}).Error)

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), citoyen.ID, "evenements.view")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGateUnknownCodeFailsClosed(t *testing.T) {
	db := setupGateTestDB(t)
	admin := createUser(t, db, "user-admin-3", models.RoleAdmin)

	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       admin.ID,
		PermissionID: "ghost.permission",
		GrantedByID:  "user-super",
		Active:       true,
	}).Error)

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), admin.ID, "ghost.permission")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGateDeactivatedCodeFailsClosed(t *testing.T) {
	db := setupGateTestDB(t)
	admin := createUser(t, db, "user-admin-4", models.RoleAdmin)

	require.NoError(t, db.Create(&models.PermissionGrant{
		UserID:       admin.ID,
		PermissionID: "permissions.manage",
		GrantedByID:  "user-super",
		Active:       true,
	}).Error)

	_, err := Deactivate(context.Background(), db, "permissions.manage")
	require.NoError(t, err)
	t.Cleanup(func() {
		reactivate("permissions.manage")
	})

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), admin.ID, "permissions.manage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeactivateReportsAffectedGrants(t *testing.T) {
	db := setupGateTestDB(t)
	createUser(t, db, "user-a", models.RoleAdmin)
	createUser(t, db, "user-b", models.RoleAdmin)

	for _, userID := range []string{"user-a", "user-b"} {
		require.NoError(t, db.Create(&models.PermissionGrant{
			UserID:       userID,
			PermissionID: "notifications.manage",
			GrantedByID:  "user-super",
			Active:       true,
		}).Error)
	}

	affected, err := Deactivate(context.Background(), db, "notifications.manage")
	require.NoError(t, err)
	require.EqualValues(t, 2, affected)
	t.Cleanup(func() {
		reactivate("notifications.manage")
	})

	require.False(t, IsActive("notifications.manage"))
}

func TestGateDeactivatedAccountHoldsNothing(t *testing.T) {
	db := setupGateTestDB(t)
	super := createUser(t, db, "user-inactive", models.RoleSuperAdmin)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", super.ID).
		Update("is_active", false).Error)

	gate, err := NewGate(db)
	require.NoError(t, err)

	ok, err := gate.Can(context.Background(), super.ID, "reclamations.view")
	require.NoError(t, err)
	require.False(t, ok)

	perms, err := gate.EffectivePermissions(context.Background(), super.ID)
	require.NoError(t, err)
	require.Empty(t, perms)
}
