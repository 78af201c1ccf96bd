package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/database/testutil"
	"github.com/sbenhamida/mouwatin/internal/dispatch"
	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/permissions"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// testEnv bundles the collaborators most service tests need.
type testEnv struct {
	db         *gorm.DB
	gate       *permissions.Gate
	machine    *lifecycle.Machine
	dispatcher *dispatch.Dispatcher
	audit      *AuditService
	notifier   *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, permissions.Sync(context.Background(), db))

	gate, err := permissions.NewGate(db)
	require.NoError(t, err)

	machine, err := lifecycle.NewMachine(gate)
	require.NoError(t, err)

	dispatcher, err := dispatch.NewDispatcher(db)
	require.NoError(t, err)

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	return &testEnv{
		db:         db,
		gate:       gate,
		machine:    machine,
		dispatcher: dispatcher,
		audit:      audit,
		notifier:   notifier,
	}
}

func (env *testEnv) createUser(t *testing.T, id string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:       id,
		Email:    id + "@mouwatin.tn",
		Password: "hashed",
		Nom:      id,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createCommune(t *testing.T, id string) *models.Commune {
	t.Helper()
	commune := &models.Commune{
		BaseModel: models.BaseModel{ID: id},
		Nom:       "Commune " + id,
	}
	require.NoError(t, env.db.Create(commune).Error)
	return commune
}

func (env *testEnv) createAutorite(t *testing.T, id, communeID string) *models.User {
	t.Helper()
	user := env.createUser(t, id, models.RoleAutoriteLocale)
	require.NoError(t, env.db.Model(user).Update("commune_responsable_id", communeID).Error)
	user.CommuneResponsableID = &communeID
	return user
}

// interleavingAuth runs a hook before delegating to the real gate; tests
// use it to slip a competing write between a service's read and its
// conditional update.
type interleavingAuth struct {
	gate *permissions.Gate
	hook func()
	done bool
}

func (a *interleavingAuth) Can(ctx context.Context, userID, permissionID string) (bool, error) {
	if a.hook != nil && !a.done {
		a.done = true
		a.hook()
	}
	return a.gate.Can(ctx, userID, permissionID)
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}

func notificationsFor(t *testing.T, db *gorm.DB, userID string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Find(&rows).Error)
	return rows
}
