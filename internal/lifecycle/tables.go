package lifecycle

import (
	"github.com/sbenhamida/mouwatin/internal/models"
)

// Kind identifies a moderated content type.
type Kind string

const (
	KindReclamation Kind = "reclamation"
	KindEvenement   Kind = "evenement"
	KindActualite   Kind = "actualite"
	KindCampagne    Kind = "campagne"
	KindActivite    Kind = "activite"
)

// decisionPending is the empty state of a complaint awaiting its
// accept/reject decision.
const decisionPending = ""

// transitionTables is the single source of truth for legal moves. A state
// missing from its kind's table is terminal; a requested state absent from
// the current state's set is an invalid transition, never a silent no-op.
var transitionTables = map[Kind]map[string][]string{
	KindEvenement: {
		models.EvenementEnAttenteValidation: {models.EvenementValidee, models.EvenementAnnulee},
		models.EvenementValidee:             {models.EvenementPubliee, models.EvenementAnnulee, models.EvenementEnAttenteValidation},
		models.EvenementPubliee:             {models.EvenementEnAction, models.EvenementAnnulee},
		models.EvenementEnAction:            {models.EvenementCloturee, models.EvenementAnnulee},
		models.EvenementCloturee:            {},
		models.EvenementAnnulee:             {models.EvenementEnAttenteValidation},
	},
	KindReclamation: {
		decisionPending:         {models.DecisionAcceptee, models.DecisionRejetee},
		models.DecisionAcceptee: {},
		models.DecisionRejetee:  {},
	},
	KindActualite: {
		models.PublicationEnAttenteValidation: {models.PublicationValidee, models.PublicationRejetee},
		models.PublicationValidee:             {models.PublicationPubliee, models.PublicationEnAttenteValidation},
		models.PublicationPubliee:             {models.PublicationDepubliee, models.PublicationArchivee},
		models.PublicationDepubliee:           {models.PublicationPubliee, models.PublicationArchivee},
		models.PublicationRejetee:             {},
		models.PublicationArchivee:            {},
	},
	KindCampagne: {
		models.PublicationEnAttenteValidation: {models.PublicationValidee, models.PublicationRejetee},
		models.PublicationValidee:             {models.PublicationPubliee, models.PublicationEnAttenteValidation},
		models.PublicationPubliee:             {models.PublicationDepubliee, models.PublicationArchivee},
		models.PublicationDepubliee:           {models.PublicationPubliee, models.PublicationArchivee},
		models.PublicationRejetee:             {},
		models.PublicationArchivee:            {},
	},
	KindActivite: {
		models.ActiviteBrouillon:           {models.ActiviteEnAttenteValidation},
		models.ActiviteEnAttenteValidation: {models.ActivitePlanifiee, models.ActiviteBrouillon},
		models.ActivitePlanifiee:           {models.ActiviteTerminee},
		models.ActiviteTerminee:            {models.ActiviteRapportComplete},
		models.ActiviteRapportComplete:     {},
	},
}

// accessRule maps a requested state to the capability required to enter it.
// When creatorAllowed is set the content's author may trigger the move
// without holding the permission (admin override still applies).
type accessRule struct {
	permission     string
	creatorAllowed bool
}

var accessRules = map[Kind]map[string]accessRule{
	KindEvenement: {
		models.EvenementValidee:             {permission: "evenements.validate"},
		models.EvenementPubliee:             {permission: "evenements.publish"},
		models.EvenementEnAction:            {permission: "evenements.publish"},
		models.EvenementCloturee:            {permission: "evenements.close"},
		models.EvenementAnnulee:             {permission: "evenements.cancel", creatorAllowed: true},
		models.EvenementEnAttenteValidation: {permission: "evenements.validate", creatorAllowed: true},
	},
	KindReclamation: {
		models.DecisionAcceptee: {permission: "reclamations.decide"},
		models.DecisionRejetee:  {permission: "reclamations.decide"},
	},
	KindActualite: {
		models.PublicationValidee:             {permission: "actualites.validate"},
		models.PublicationPubliee:             {permission: "actualites.publish"},
		models.PublicationDepubliee:           {permission: "actualites.publish"},
		models.PublicationRejetee:             {permission: "actualites.reject"},
		models.PublicationArchivee:            {permission: "actualites.archive"},
		models.PublicationEnAttenteValidation: {permission: "actualites.validate", creatorAllowed: true},
	},
	KindCampagne: {
		models.PublicationValidee:             {permission: "campagnes.validate"},
		models.PublicationPubliee:             {permission: "campagnes.publish"},
		models.PublicationDepubliee:           {permission: "campagnes.publish"},
		models.PublicationRejetee:             {permission: "campagnes.reject"},
		models.PublicationArchivee:            {permission: "campagnes.archive"},
		models.PublicationEnAttenteValidation: {permission: "campagnes.validate", creatorAllowed: true},
	},
	KindActivite: {
		models.ActiviteEnAttenteValidation: {permission: "activites.submit", creatorAllowed: true},
		models.ActivitePlanifiee:           {permission: "activites.validate"},
		models.ActiviteBrouillon:           {permission: "activites.validate"},
		models.ActiviteTerminee:            {permission: "activites.validate", creatorAllowed: true},
		models.ActiviteRapportComplete:     {permission: "activites.report", creatorAllowed: true},
	},
}

// stateLabels carries the human wording used in notification messages.
var stateLabels = map[string]string{
	decisionPending:                       "en attente de decision",
	models.DecisionAcceptee:               "acceptee",
	models.DecisionRejetee:                "rejetee",
	models.EvenementEnAttenteValidation:   "en attente de validation",
	models.EvenementValidee:               "validee",
	models.EvenementPubliee:               "publiee",
	models.EvenementEnAction:              "en action",
	models.EvenementCloturee:              "cloturee",
	models.EvenementAnnulee:               "annulee",
	models.PublicationDepubliee:           "depubliee",
	models.PublicationArchivee:            "archivee",
	models.ActiviteBrouillon:              "brouillon",
	models.ActivitePlanifiee:              "planifiee",
	models.ActiviteTerminee:               "terminee",
	models.ActiviteRapportComplete:        "rapport complete",
}

// StateLabel renders a state in human terms for notification messages.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}

// KnownState reports whether the state belongs to the kind's declared set.
func KnownState(kind Kind, state string) bool {
	table, ok := transitionTables[kind]
	if !ok {
		return false
	}
	if _, ok := table[state]; ok {
		return true
	}
	for _, targets := range table {
		for _, target := range targets {
			if target == state {
				return true
			}
		}
	}
	return false
}

func allowedTargets(kind Kind, current string) ([]string, bool) {
	table, ok := transitionTables[kind]
	if !ok {
		return nil, false
	}
	targets, ok := table[current]
	return targets, ok
}
