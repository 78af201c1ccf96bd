package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
)

func newReclamationService(t *testing.T, env *testEnv) *ReclamationService {
	t.Helper()
	svc, err := NewReclamationService(env.db, env.machine, env.dispatcher, env.notifier, env.audit)
	require.NoError(t, err)
	return svc
}

func reclamationFixture(t *testing.T, env *testEnv, svc *ReclamationService) (*models.Reclamation, *models.User, *models.User, *models.User) {
	t.Helper()
	env.createCommune(t, "commune-1")
	citoyen := env.createUser(t, "citoyen-1", models.RoleCitoyen)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)
	autorite := env.createAutorite(t, "autorite-1", "commune-1")

	rec, err := svc.Create(context.Background(), citoyen.ID, CreateReclamationInput{
		Titre:       "Fuite d'eau",
		Description: "Fuite importante rue de la Liberte",
		CommuneID:   "commune-1",
	})
	require.NoError(t, err)
	return rec, citoyen, admin, autorite
}

func TestReclamationAccept(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, _, admin, _ := reclamationFixture(t, env, svc)

	updated, err := svc.Decide(context.Background(), admin.ID, rec.ID, models.DecisionAcceptee, "")
	require.NoError(t, err)
	require.Equal(t, models.DecisionAcceptee, updated.Decision)

	history, err := svc.History(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 2) // creation + acceptation
}

func TestReclamationRejectRequiresSubstantiveMotif(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, _, admin, _ := reclamationFixture(t, env, svc)
	ctx := context.Background()

	_, err := svc.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "")
	requireAppError(t, err, "VALIDATION_ERROR")

	_, err = svc.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "too short")
	requireAppError(t, err, "VALIDATION_ERROR")

	updated, err := svc.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "quinze caracteres")
	require.NoError(t, err)
	require.Equal(t, models.DecisionRejetee, updated.Decision)
	require.Equal(t, "quinze caracteres", updated.MotifRejet)
	require.Equal(t, models.AffectationNonAffectee, updated.Affectation)
}

func TestReclamationRejectClearsAssignment(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, _, admin, autorite := reclamationFixture(t, env, svc)
	ctx := context.Background()

	assigned, err := svc.Assign(ctx, admin.ID, rec.ID, autorite.ID)
	require.NoError(t, err)
	require.True(t, assigned.Assigned())

	rejected, err := svc.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "hors du perimetre communal")
	require.NoError(t, err)
	require.Equal(t, models.AffectationNonAffectee, rejected.Affectation)
	require.Nil(t, rejected.AffecteAID)
	require.Nil(t, rejected.CommuneAffecteeID)
	require.Nil(t, rejected.DateAffectation)
}

func TestReclamationDecisionIsFinal(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, _, admin, _ := reclamationFixture(t, env, svc)
	ctx := context.Background()

	_, err := svc.Decide(ctx, admin.ID, rec.ID, models.DecisionAcceptee, "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "changement d'avis tardif")
	requireAppError(t, err, "INVALID_TRANSITION")
}

func TestReclamationDecideForbiddenForCitizen(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, citoyen, _, _ := reclamationFixture(t, env, svc)

	_, err := svc.Decide(context.Background(), citoyen.ID, rec.ID, models.DecisionAcceptee, "")
	requireAppError(t, err, "FORBIDDEN")
}

func TestReclamationResolveFlow(t *testing.T) {
	env := newTestEnv(t)
	svc := newReclamationService(t, env)
	rec, citoyen, admin, autorite := reclamationFixture(t, env, svc)
	ctx := context.Background()

	_, err := svc.Decide(ctx, admin.ID, rec.ID, models.DecisionAcceptee, "")
	require.NoError(t, err)

	_, err = svc.AssignToSelf(ctx, autorite.ID, rec.ID)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, autorite.ID, rec.ID, "Fuite reparee par les services techniques")
	require.NoError(t, err)
	require.True(t, resolved.Resolved())

	// complainant notified, plus the admin broadcast
	require.NotEmpty(t, notificationsFor(t, env.db, citoyen.ID))
	require.NotEmpty(t, notificationsFor(t, env.db, admin.ID))

	// creation, acceptation, affectation, resolution
	history, err := svc.History(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
}

func TestReclamationConcurrentDecisionLosesWithConflict(t *testing.T) {
	env := newTestEnv(t)
	base := newReclamationService(t, env)
	rec, _, admin, _ := reclamationFixture(t, env, base)
	ctx := context.Background()

	auth := &interleavingAuth{gate: env.gate, hook: func() {
		_, err := base.Decide(ctx, admin.ID, rec.ID, models.DecisionAcceptee, "")
		require.NoError(t, err)
	}}
	machine, err := lifecycle.NewMachine(auth)
	require.NoError(t, err)
	racing, err := NewReclamationService(env.db, machine, env.dispatcher, env.notifier, env.audit)
	require.NoError(t, err)

	_, err = racing.Decide(ctx, admin.ID, rec.ID, models.DecisionRejetee, "hors du perimetre communal")
	requireAppError(t, err, "CONFLICT")

	final, err := base.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, models.DecisionAcceptee, final.Decision)
}
