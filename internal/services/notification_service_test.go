package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/dispatch"
	"github.com/sbenhamida/mouwatin/internal/models"
)

func TestNotificationCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "citoyen-1", models.RoleCitoyen)
	ctx := context.Background()

	created, err := env.notifier.Create(ctx, CreateNotificationInput{
		UserID:  user.ID,
		Type:    "reclamation.affectation",
		Title:   "Nouvelle reclamation",
		Message: "Une reclamation vous a ete affectee",
	})
	require.NoError(t, err)
	require.Equal(t, "info", created.Severity)
	require.False(t, created.IsRead)

	rows, err := env.notifier.ListForUser(ctx, ListNotificationsInput{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	unread, err := env.notifier.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
}

func TestNotificationMarkRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "citoyen-1", models.RoleCitoyen)
	other := env.createUser(t, "citoyen-2", models.RoleCitoyen)
	ctx := context.Background()

	created, err := env.notifier.Create(ctx, CreateNotificationInput{
		UserID: user.ID,
		Type:   "test",
		Title:  "Titre",
	})
	require.NoError(t, err)

	// someone else's notification is invisible
	_, err = env.notifier.MarkRead(ctx, other.ID, created.ID)
	requireAppError(t, err, "NOT_FOUND")

	read, err := env.notifier.MarkRead(ctx, user.ID, created.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	unread, err := env.notifier.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestNotificationMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "citoyen-1", models.RoleCitoyen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.notifier.Create(ctx, CreateNotificationInput{UserID: user.ID, Type: "test", Title: "Titre"})
		require.NoError(t, err)
	}

	require.NoError(t, env.notifier.MarkAllRead(ctx, user.ID))

	unread, err := env.notifier.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestEmitDispatchExpandsRoleBroadcast(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	inactive := env.createUser(t, "admin-2", models.RoleAdmin)
	require.NoError(t, env.db.Model(inactive).Update("is_active", false).Error)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)
	ctx := context.Background()

	env.notifier.EmitDispatch(ctx, []dispatch.Notification{{
		Roles:   []models.Role{models.RoleAdmin, models.RoleSuperAdmin},
		Type:    "reclamation.resolution",
		Title:   "Reclamation resolue",
		Message: "Une reclamation vient d'etre resolue",
	}})

	require.Len(t, notificationsFor(t, env.db, admin.ID), 1)
	require.Len(t, notificationsFor(t, env.db, superAdmin.ID), 1)
	require.Empty(t, notificationsFor(t, env.db, inactive.ID))
	require.Empty(t, notificationsFor(t, env.db, citoyen.ID))
}
