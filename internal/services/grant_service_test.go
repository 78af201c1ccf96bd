package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/models"
)

func newGrantService(t *testing.T, env *testEnv) *GrantService {
	t.Helper()
	svc, err := NewGrantService(env.db, env.audit)
	require.NoError(t, err)
	return svc
}

func TestGrantExtendsEffectiveSet(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)
	ctx := context.Background()

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	ok, err := env.gate.Can(ctx, citoyen.ID, "reclamations.view")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Grant(ctx, superAdmin.ID, GrantInput{
		UserID:       citoyen.ID,
		PermissionID: "reclamations.view",
	})
	require.NoError(t, err)

	ok, err = env.gate.Can(ctx, citoyen.ID, "reclamations.view")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGrantOnlySuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)
	ctx := context.Background()

	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	_, err := svc.Grant(ctx, admin.ID, GrantInput{UserID: citoyen.ID, PermissionID: "reclamations.view"})
	requireAppError(t, err, "FORBIDDEN")

	err = svc.Revoke(ctx, admin.ID, citoyen.ID, "reclamations.view")
	requireAppError(t, err, "FORBIDDEN")
}

func TestGrantSelfRefused(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)

	_, err := svc.Grant(context.Background(), superAdmin.ID, GrantInput{
		UserID:       superAdmin.ID,
		PermissionID: "reclamations.view",
	})
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestGrantUnknownPermissionRefused(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	_, err := svc.Grant(context.Background(), superAdmin.ID, GrantInput{
		UserID:       citoyen.ID,
		PermissionID: "reclamations.inexistant",
	})
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestRegrantUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)
	ctx := context.Background()

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	first, err := svc.Grant(ctx, superAdmin.ID, GrantInput{UserID: citoyen.ID, PermissionID: "reclamations.view"})
	require.NoError(t, err)

	expiry := time.Now().Add(48 * time.Hour).UTC()
	second, err := svc.Grant(ctx, superAdmin.ID, GrantInput{
		UserID:       citoyen.ID,
		PermissionID: "reclamations.view",
		ExpiresAt:    &expiry,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.ExpiresAt)

	var count int64
	require.NoError(t, env.db.Model(&models.PermissionGrant{}).
		Where("user_id = ? AND permission_id = ?", citoyen.ID, "reclamations.view").
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGrantExpiryInPastRefused(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	past := time.Now().Add(-time.Hour)
	_, err := svc.Grant(context.Background(), superAdmin.ID, GrantInput{
		UserID:       citoyen.ID,
		PermissionID: "reclamations.view",
		ExpiresAt:    &past,
	})
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestRevokeKeepsRowForAudit(t *testing.T) {
	env := newTestEnv(t)
	svc := newGrantService(t, env)
	ctx := context.Background()

	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	_, err := svc.Grant(ctx, superAdmin.ID, GrantInput{UserID: citoyen.ID, PermissionID: "reclamations.view"})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, superAdmin.ID, citoyen.ID, "reclamations.view"))

	ok, err := env.gate.Can(ctx, citoyen.ID, "reclamations.view")
	require.NoError(t, err)
	require.False(t, ok)

	grants, err := svc.ListForUser(ctx, citoyen.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.False(t, grants[0].Active)

	// revoking twice finds nothing active
	err = svc.Revoke(ctx, superAdmin.ID, citoyen.ID, "reclamations.view")
	requireAppError(t, err, "NOT_FOUND")
}
