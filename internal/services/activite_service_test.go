package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/models"
)

func newActiviteService(t *testing.T, env *testEnv, now time.Time) *ActiviteService {
	t.Helper()
	svc, err := NewActiviteService(env.db, env.machine, env.notifier)
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func TestActiviteFullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newActiviteService(t, env, now)
	ctx := context.Background()

	coordinateur := env.createUser(t, "coordinateur-1", models.RoleCoordinateurActivites)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	activite, err := svc.Create(ctx, coordinateur.ID, CreateActiviteInput{
		Titre:     "Atelier jeunes",
		DateDebut: now.Add(-48 * time.Hour),
		DateFin:   now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.ActiviteBrouillon, activite.Statut)

	activite, err = svc.Submit(ctx, coordinateur.ID, activite.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActiviteEnAttenteValidation, activite.Statut)

	activite, err = svc.Transition(ctx, admin.ID, activite.ID, models.ActivitePlanifiee, "")
	require.NoError(t, err)

	activite, err = svc.Transition(ctx, coordinateur.ID, activite.ID, models.ActiviteTerminee, "")
	require.NoError(t, err)

	activite, err = svc.FileReport(ctx, coordinateur.ID, activite.ID, "30 jeunes presents, partenariat reconduit")
	require.NoError(t, err)
	require.Equal(t, models.ActiviteRapportComplete, activite.Statut)
	require.Equal(t, "30 jeunes presents, partenariat reconduit", activite.Rapport)
	require.NotNil(t, activite.DateRapport)
}

func TestActiviteReportBeforeEndDateRefused(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newActiviteService(t, env, now)
	ctx := context.Background()

	coordinateur := env.createUser(t, "coordinateur-1", models.RoleCoordinateurActivites)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	activite, err := svc.Create(ctx, coordinateur.ID, CreateActiviteInput{
		Titre:     "Tournoi de quartier",
		DateDebut: now.Add(24 * time.Hour),
		DateFin:   now.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, coordinateur.ID, activite.ID)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, admin.ID, activite.ID, models.ActivitePlanifiee, "")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, coordinateur.ID, activite.ID, models.ActiviteTerminee, "")
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestActiviteRefusedSubmissionBackToDraft(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newActiviteService(t, env, now)
	ctx := context.Background()

	coordinateur := env.createUser(t, "coordinateur-1", models.RoleCoordinateurActivites)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	activite, err := svc.Create(ctx, coordinateur.ID, CreateActiviteInput{
		Titre:     "Sortie culturelle",
		DateDebut: now.Add(24 * time.Hour),
		DateFin:   now.Add(30 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, coordinateur.ID, activite.ID)
	require.NoError(t, err)

	activite, err = svc.Transition(ctx, admin.ID, activite.ID, models.ActiviteBrouillon, "budget previsionnel manquant")
	require.NoError(t, err)
	require.Equal(t, models.ActiviteBrouillon, activite.Statut)
	require.Equal(t, "budget previsionnel manquant", activite.MotifRejet)

	// resubmitting clears the motive
	activite, err = svc.Submit(ctx, coordinateur.ID, activite.ID)
	require.NoError(t, err)
	require.Empty(t, activite.MotifRejet)
}

func TestActiviteReportRequiresText(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newActiviteService(t, env, now)
	ctx := context.Background()

	coordinateur := env.createUser(t, "coordinateur-1", models.RoleCoordinateurActivites)
	admin := env.createUser(t, "admin-1", models.RoleAdmin)

	activite, err := svc.Create(ctx, coordinateur.ID, CreateActiviteInput{
		Titre:     "Collecte de dons",
		DateDebut: now.Add(-48 * time.Hour),
		DateFin:   now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, coordinateur.ID, activite.ID)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, admin.ID, activite.ID, models.ActivitePlanifiee, "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, coordinateur.ID, activite.ID, models.ActiviteTerminee, "")
	require.NoError(t, err)

	_, err = svc.FileReport(ctx, coordinateur.ID, activite.ID, "   ")
	requireAppError(t, err, "VALIDATION_ERROR")
}
