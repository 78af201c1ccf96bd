package services

import (
	"strings"
	"time"

	"github.com/sbenhamida/mouwatin/internal/lifecycle"
)

// publicationUpdates translates a validate-then-publish decision into the
// column updates shared by news items and campaigns. The statut column and
// the IsValide/IsPublie mirrors always move together.
func publicationUpdates(decision *lifecycle.Decision, motif string, now time.Time) map[string]any {
	updates := map[string]any{"statut": decision.NewState}

	effects := decision.Effects
	if effects.SetValide != nil {
		updates["is_valide"] = *effects.SetValide
	}
	if effects.SetPublie != nil {
		updates["is_publie"] = *effects.SetPublie
	}
	if effects.SetVisible != nil {
		updates["is_visible_public"] = *effects.SetVisible
	}
	if effects.StampPublication {
		updates["date_publication"] = now
	}
	if effects.ClearMotif {
		updates["motif_rejet"] = ""
	}
	if motif = strings.TrimSpace(motif); motif != "" && !effects.ClearMotif {
		updates["motif_rejet"] = motif
	}
	return updates
}

// authorEditUpdates is the automatic fallback applied when a non-admin
// author edits a validated item: back to the moderation queue, all
// public flags dropped.
func authorEditUpdates() map[string]any {
	state, effects := lifecycle.AuthorEditReversion()
	updates := map[string]any{
		"statut":   state,
		"is_valide": *effects.SetValide,
		"is_publie": *effects.SetPublie,
		"is_visible_public": *effects.SetVisible,
	}
	if effects.ClearMotif {
		updates["motif_rejet"] = ""
	}
	return updates
}
