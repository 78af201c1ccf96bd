package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/sbenhamida/mouwatin/internal/database/testutil"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/permissions"
	"github.com/sbenhamida/mouwatin/internal/services"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func seedGrantUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	user := models.User{
		ID:       id,
		Email:    id + "@exemple.tn",
		Password: "hash",
		Role:     models.RoleCitoyen,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedGrant(t *testing.T, db *gorm.DB, userID, permissionID string, expiresAt *time.Time) models.PermissionGrant {
	t.Helper()
	grant := models.PermissionGrant{
		UserID:       userID,
		PermissionID: permissionID,
		GrantedByID:  userID,
		ExpiresAt:    expiresAt,
		Active:       true,
	}
	require.NoError(t, db.Create(&grant).Error)
	return grant
}

func TestDeactivateExpiredGrants(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, permissions.Sync(context.Background(), db))

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	alice := seedGrantUser(t, db, "alice")
	bob := seedGrantUser(t, db, "bob")

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	expired := seedGrant(t, db, alice.ID, "actualites.create", &past)
	still := seedGrant(t, db, bob.ID, "actualites.create", &future)
	openEnded := seedGrant(t, db, bob.ID, "evenements.create", nil)

	count, err := DeactivateExpiredGrants(context.Background(), db, auditSvc, testNow)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	reload := func(id string) models.PermissionGrant {
		var grant models.PermissionGrant
		require.NoError(t, db.First(&grant, "id = ?", id).Error)
		return grant
	}

	require.False(t, reload(expired.ID).Active)
	require.True(t, reload(still.ID).Active)
	require.True(t, reload(openEnded.ID).Active)

	var entries []models.AuditLog
	require.NoError(t, db.Where("action = ?", "permission.expiration").Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, "user:"+alice.ID, entries[0].Resource)

	// Second pass finds nothing left to do.
	count, err = DeactivateExpiredGrants(context.Background(), db, auditSvc, testNow)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPurgeReadNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	oldRead := testNow.AddDate(0, 0, -120)
	recentRead := testNow.AddDate(0, 0, -5)

	seed := func(userID string, isRead bool, readAt *time.Time) {
		notification := models.Notification{
			UserID:  userID,
			Type:    "reclamation.statut",
			Title:   "Mise a jour",
			Message: "Votre reclamation a change de statut",
			IsRead:  isRead,
			ReadAt:  readAt,
		}
		require.NoError(t, db.Create(&notification).Error)
	}

	seed("user-1", true, &oldRead)
	seed("user-1", true, &recentRead)
	seed("user-2", false, nil)

	cutoff := testNow.AddDate(0, 0, -90)
	count, err := PurgeReadNotifications(context.Background(), db, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	var remaining int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&remaining).Error)
	require.Equal(t, int64(2), remaining)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, permissions.Sync(context.Background(), db))

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	user := seedGrantUser(t, db, "cleanup-user")
	past := testNow.Add(-time.Minute)
	seedGrant(t, db, user.ID, "campagnes.create", &past)

	oldRead := testNow.AddDate(0, 0, -200)
	notification := models.Notification{
		UserID: user.ID,
		Type:   "reclamation.statut",
		Title:  "Ancienne notification",
		IsRead: true,
		ReadAt: &oldRead,
	}
	require.NoError(t, db.Create(&notification).Error)

	cleaner := NewCleaner(db, auditSvc,
		WithNow(func() time.Time { return testNow }),
		WithNotificationRetentionDays(30),
	)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var activeGrants int64
	require.NoError(t, db.Model(&models.PermissionGrant{}).Where("active = ?", true).Count(&activeGrants).Error)
	require.Zero(t, activeGrants)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	require.Zero(t, notifications)
}

func TestCleanerDisabledWithoutDatabase(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
