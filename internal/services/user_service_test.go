package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/models"
)

func newUserService(t *testing.T, env *testEnv) *UserService {
	t.Helper()
	svc, err := NewUserService(env.db, env.audit)
	require.NoError(t, err)
	return svc
}

func TestUserCreateDefaultsToCitizen(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "Amine.Bs@Mouwatin.TN",
		Password: "motdepasse",
		Nom:      "Ben Salah",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleCitoyen, user.Role)
	require.Equal(t, "amine.bs@mouwatin.tn", user.Email)
	require.True(t, user.IsActive)
	require.NotEqual(t, "motdepasse", user.Password)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "a@mouwatin.tn", Password: "motdepasse", Nom: "A"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "a@mouwatin.tn", Password: "motdepasse", Nom: "B"})
	requireAppError(t, err, "CONFLICT")
}

func TestUserCannotChangeOwnRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	_, err := svc.SetRole(context.Background(), admin.ID, SetRoleInput{
		UserID: admin.ID,
		Role:   models.RoleSuperAdmin,
	})
	requireAppError(t, err, "FORBIDDEN")
}

func TestOnlySuperAdminPromotesAdmins(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	superAdmin := env.createUser(t, "super-1", models.RoleSuperAdmin)
	target := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	_, err := svc.SetRole(ctx, admin.ID, SetRoleInput{UserID: target.ID, Role: models.RoleAdmin})
	requireAppError(t, err, "FORBIDDEN")

	updated, err := svc.SetRole(ctx, superAdmin.ID, SetRoleInput{UserID: target.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)
}

func TestAutoriteLocaleRequiresCommune(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	target := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	_, err := svc.SetRole(ctx, admin.ID, SetRoleInput{UserID: target.ID, Role: models.RoleAutoriteLocale})
	requireAppError(t, err, "NO_JURISDICTION")
}

func TestOneActiveAutoriteLocalePerCommune(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	env.createCommune(t, "commune-1")
	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	first := env.createUser(t, "user-1", models.RoleCitoyen)
	second := env.createUser(t, "user-2", models.RoleCitoyen)
	communeID := "commune-1"

	bound, err := svc.SetRole(ctx, admin.ID, SetRoleInput{UserID: first.ID, Role: models.RoleAutoriteLocale, CommuneID: &communeID})
	require.NoError(t, err)
	require.Equal(t, "commune-1", *bound.CommuneResponsableID)

	_, err = svc.SetRole(ctx, admin.ID, SetRoleInput{UserID: second.ID, Role: models.RoleAutoriteLocale, CommuneID: &communeID})
	requireAppError(t, err, "CONFLICT")
}

func TestLeavingAutoriteLocaleClearsCommune(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	env.createCommune(t, "commune-1")
	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	autorite := env.createAutorite(t, "autorite-1", "commune-1")

	updated, err := svc.SetRole(ctx, admin.ID, SetRoleInput{UserID: autorite.ID, Role: models.RoleCitoyen})
	require.NoError(t, err)
	require.Equal(t, models.RoleCitoyen, updated.Role)
	require.Nil(t, updated.CommuneResponsableID)
}

func TestUserCannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	_, err := svc.SetActive(context.Background(), admin.ID, admin.ID, false)
	requireAppError(t, err, "FORBIDDEN")
}

func TestUserDeactivation(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(t, env)
	ctx := context.Background()

	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	target := env.createUser(t, "citoyen-1", models.RoleCitoyen)

	updated, err := svc.SetActive(ctx, admin.ID, target.ID, false)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	// deactivated accounts fail closed at the gate
	ok, err := env.gate.Can(ctx, target.ID, "reclamations.create")
	require.NoError(t, err)
	require.False(t, ok)
}
