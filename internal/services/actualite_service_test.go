package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
)

func newActualiteService(t *testing.T, env *testEnv) *ActualiteService {
	t.Helper()
	svc, err := NewActualiteService(env.db, env.machine, env.notifier)
	require.NoError(t, err)
	return svc
}

func TestActualiteValidateThenPublish(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{
		Titre:   "Travaux avenue Bourguiba",
		Contenu: "Les travaux commencent lundi",
	})
	require.NoError(t, err)
	require.Equal(t, models.PublicationEnAttenteValidation, item.Statut)

	item, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationValidee, "")
	require.NoError(t, err)
	require.Equal(t, models.PublicationValidee, item.Statut)
	require.True(t, item.IsValide)
	require.False(t, item.IsPublie)

	item, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationPubliee, "")
	require.NoError(t, err)
	require.Equal(t, models.PublicationPubliee, item.Statut)
	require.True(t, item.IsPublie)
	require.True(t, item.IsVisiblePublic)
	require.NotNil(t, item.DatePublication)

	// the author is told about each move
	require.NotEmpty(t, notificationsFor(t, env.db, author.ID))
}

func TestActualiteCannotPublishBeforeValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationPubliee, "")
	requireAppError(t, err, "INVALID_TRANSITION")
}

func TestActualiteRejectPersistsMotif(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationRejetee, "trop court")
	requireAppError(t, err, "VALIDATION_ERROR")

	item, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationRejetee, "contenu non conforme a la charte")
	require.NoError(t, err)
	require.Equal(t, models.PublicationRejetee, item.Statut)
	require.Equal(t, "contenu non conforme a la charte", item.MotifRejet)
	require.False(t, item.IsValide)
	require.False(t, item.IsVisiblePublic)
}

func TestActualiteAuthorEditRevertsValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)
	item, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationValidee, "")
	require.NoError(t, err)
	require.True(t, item.IsValide)

	newTitle := "Titre corrige"
	item, err = svc.Update(ctx, author.ID, item.ID, UpdateActualiteInput{Titre: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Titre corrige", item.Titre)
	require.Equal(t, models.PublicationEnAttenteValidation, item.Statut)
	require.False(t, item.IsValide)
	require.False(t, item.IsPublie)
	require.False(t, item.IsVisiblePublic)
}

func TestActualiteModeratorEditKeepsValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)
	item, err = svc.Transition(ctx, admin.ID, item.ID, models.PublicationValidee, "")
	require.NoError(t, err)

	newTitle := "Titre corrige par la moderation"
	item, err = svc.Update(ctx, admin.ID, item.ID, UpdateActualiteInput{Titre: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Titre corrige par la moderation", item.Titre)
	require.Equal(t, models.PublicationValidee, item.Statut)
	require.True(t, item.IsValide)
}

func TestActualiteUpdateByNonAuthorForbidden(t *testing.T) {
	env := newTestEnv(t)
	svc := newActualiteService(t, env)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	other := env.createUser(t, "delegation-2", models.RoleDelegation)

	item, err := svc.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)

	newTitle := "Pirate"
	_, err = svc.Update(ctx, other.ID, item.ID, UpdateActualiteInput{Titre: &newTitle})
	requireAppError(t, err, "FORBIDDEN")
}

func TestActualiteConcurrentPublishLosesWithConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.createUser(t, "delegation-1", models.RoleDelegation)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	base := newActualiteService(t, env)
	item, err := base.Create(ctx, author.ID, CreateActualiteInput{Titre: "Titre", Contenu: "Contenu"})
	require.NoError(t, err)
	item, err = base.Transition(ctx, admin.ID, item.ID, models.PublicationValidee, "")
	require.NoError(t, err)

	// The competing admin publishes between this service's read and its
	// conditional update.
	auth := &interleavingAuth{gate: env.gate, hook: func() {
		_, err := base.Transition(ctx, admin.ID, item.ID, models.PublicationPubliee, "")
		require.NoError(t, err)
	}}
	machine, err := lifecycle.NewMachine(auth)
	require.NoError(t, err)
	racing, err := NewActualiteService(env.db, machine, env.notifier)
	require.NoError(t, err)

	_, err = racing.Transition(ctx, admin.ID, item.ID, models.PublicationPubliee, "")
	requireAppError(t, err, "CONFLICT")

	// exactly one publication happened
	final, err := base.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.PublicationPubliee, final.Statut)
}
