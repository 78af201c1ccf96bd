package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sbenhamida/mouwatin/internal/models"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// MinReasonLength is the minimum length of a rejection reason. Shorter
// reasons are a validation error, never silently defaulted.
const MinReasonLength = 10

// Authorizer answers capability checks for the acting account.
type Authorizer interface {
	Can(ctx context.Context, userID, permissionID string) (bool, error)
}

// Request describes one attempted transition. The machine is a pure
// decision function over this input: it never touches storage, and the
// caller applies the returned decision under its own concurrency control.
type Request struct {
	Kind           Kind
	CurrentState   string
	RequestedState string

	ActorID   string
	CreatorID string

	// Reason carries the rejection or cancellation motive when required.
	Reason string
	// Report carries the closure or activity report text when required.
	Report string

	// Validated mirrors the isValide flag for validate-then-publish kinds.
	Validated bool

	// StartsAt / EndsAt feed the date gates (event start, activity end).
	StartsAt *time.Time
	EndsAt   *time.Time

	Now time.Time
}

// Notification describes the single side-effect notification addressed to
// the content's creator. Delivery is the caller's concern and best-effort.
type Notification struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
}

// Effects lists the mutations the caller must apply alongside the state
// change. Pointer fields are nil when the flag is untouched.
type Effects struct {
	StampPublication bool
	StampRapport     bool
	SetVisible       *bool
	SetValide        *bool
	SetPublie        *bool
	ClearMotif       bool

	Notification *Notification
}

// Decision is the outcome of a legal, authorized, guarded transition.
type Decision struct {
	NewState string
	Effects  Effects
}

// Machine validates transitions against the per-kind tables and computes
// their side effects.
type Machine struct {
	auth Authorizer
}

// NewMachine constructs a Machine bound to the supplied authorizer.
func NewMachine(auth Authorizer) (*Machine, error) {
	if auth == nil {
		return nil, errors.New("lifecycle: authorizer is required")
	}
	return &Machine{auth: auth}, nil
}

// Decide validates the requested transition and returns the resulting state
// and side effects. Failures keep their taxonomy: Forbidden for a missing
// capability, InvalidTransition for an illegal move, and a validation error
// when a guard wants more input.
func (m *Machine) Decide(ctx context.Context, req Request) (*Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}

	targets, ok := allowedTargets(req.Kind, req.CurrentState)
	if !ok {
		if !KnownState(req.Kind, req.CurrentState) {
			return nil, fmt.Errorf("lifecycle: unknown state %q for kind %s", req.CurrentState, req.Kind)
		}
		return nil, invalidTransition(req)
	}

	if !containsState(targets, req.RequestedState) {
		return nil, invalidTransition(req)
	}

	if err := m.authorize(ctx, req); err != nil {
		return nil, err
	}

	if err := applyGuards(req); err != nil {
		return nil, err
	}

	decision := &Decision{
		NewState: req.RequestedState,
		Effects:  computeEffects(req),
	}
	return decision, nil
}

func (m *Machine) authorize(ctx context.Context, req Request) error {
	rule, ok := accessRules[req.Kind][req.RequestedState]
	if !ok {
		// No rule means the move is internal-only and callers gate it
		// themselves; refuse by default.
		return apperrors.ErrForbidden
	}

	if rule.creatorAllowed && req.ActorID != "" && req.ActorID == req.CreatorID {
		return nil
	}

	allowed, err := m.auth.Can(ctx, req.ActorID, rule.permission)
	if err != nil {
		return fmt.Errorf("lifecycle: permission check: %w", err)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

// applyGuards enforces the type-specific preconditions: date gates and
// required reasons/reports.
func applyGuards(req Request) error {
	switch req.Kind {
	case KindEvenement:
		return guardEvenement(req)
	case KindReclamation:
		return guardReclamation(req)
	case KindActualite, KindCampagne:
		return guardPublication(req)
	case KindActivite:
		return guardActivite(req)
	}
	return nil
}

func guardEvenement(req Request) error {
	switch req.RequestedState {
	case models.EvenementEnAction:
		if req.StartsAt == nil {
			return apperrors.NewValidation("l'evenement n'a pas de date de debut")
		}
		if req.Now.Before(*req.StartsAt) {
			return apperrors.NewValidation("l'evenement ne peut pas demarrer avant sa date de debut")
		}
	case models.EvenementCloturee:
		if strings.TrimSpace(req.Report) == "" {
			return apperrors.NewValidation("la cloture d'un evenement exige un rapport")
		}
	}
	return nil
}

func guardReclamation(req Request) error {
	if req.RequestedState == models.DecisionRejetee {
		return requireReason(req.Reason)
	}
	return nil
}

func guardPublication(req Request) error {
	switch req.RequestedState {
	case models.PublicationRejetee:
		return requireReason(req.Reason)
	case models.PublicationPubliee:
		// publication always follows validation, including republication
		// after a depublish
		if !req.Validated && req.CurrentState != models.PublicationValidee {
			return apperrors.NewValidation("le contenu doit etre valide avant publication")
		}
	}
	return nil
}

func guardActivite(req Request) error {
	switch req.RequestedState {
	case models.ActiviteTerminee, models.ActiviteRapportComplete:
		if req.EndsAt == nil {
			return apperrors.NewValidation("l'activite n'a pas de date de fin")
		}
		if req.Now.Before(*req.EndsAt) {
			return apperrors.NewValidation("le rapport ne peut etre depose qu'apres la fin de l'activite")
		}
		if req.RequestedState == models.ActiviteRapportComplete && strings.TrimSpace(req.Report) == "" {
			return apperrors.NewValidation("le rapport d'activite est requis")
		}
	}
	return nil
}

func requireReason(reason string) error {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return apperrors.NewValidation("le motif de rejet est requis")
	}
	if len(trimmed) < MinReasonLength {
		return apperrors.NewValidation(fmt.Sprintf("le motif de rejet doit contenir au moins %d caracteres", MinReasonLength))
	}
	return nil
}

func computeEffects(req Request) Effects {
	effects := Effects{}

	switch req.Kind {
	case KindEvenement:
		switch req.RequestedState {
		case models.EvenementPubliee:
			effects.StampPublication = true
			effects.SetVisible = boolPtr(true)
		case models.EvenementAnnulee:
			effects.SetVisible = boolPtr(false)
		case models.EvenementEnAttenteValidation:
			effects.ClearMotif = true
		}
	case KindActualite, KindCampagne:
		switch req.RequestedState {
		case models.PublicationValidee:
			effects.SetValide = boolPtr(true)
		case models.PublicationPubliee:
			effects.SetPublie = boolPtr(true)
			effects.SetVisible = boolPtr(true)
			effects.StampPublication = true
		case models.PublicationDepubliee:
			effects.SetPublie = boolPtr(false)
			effects.SetVisible = boolPtr(false)
		case models.PublicationRejetee:
			effects.SetValide = boolPtr(false)
			effects.SetPublie = boolPtr(false)
			effects.SetVisible = boolPtr(false)
		case models.PublicationArchivee:
			effects.SetPublie = boolPtr(false)
			effects.SetVisible = boolPtr(false)
		case models.PublicationEnAttenteValidation:
			effects.SetValide = boolPtr(false)
			effects.SetPublie = boolPtr(false)
			effects.SetVisible = boolPtr(false)
			effects.ClearMotif = true
		}
	case KindActivite:
		if req.RequestedState == models.ActiviteRapportComplete {
			effects.StampRapport = true
		}
	}

	effects.Notification = creatorNotification(req)
	return effects
}

// creatorNotification builds the single descriptor addressed to the
// content's creator, skipped when the creator performed the move.
func creatorNotification(req Request) *Notification {
	if req.CreatorID == "" || req.CreatorID == req.ActorID {
		return nil
	}

	return &Notification{
		RecipientID: req.CreatorID,
		Type:        fmt.Sprintf("%s.statut", req.Kind),
		Title:       "Changement de statut",
		Message: fmt.Sprintf("Votre contenu est passe de %q a %q",
			StateLabel(req.CurrentState), StateLabel(req.RequestedState)),
	}
}

// CanModerate reports whether the actor holds the kind's validation
// capability. Edit paths use it to let moderators amend content directly,
// without the author reversion.
func (m *Machine) CanModerate(ctx context.Context, actorID string, kind Kind) (bool, error) {
	rule, ok := accessRules[kind][models.PublicationValidee]
	if !ok || rule.permission == "" {
		return false, nil
	}
	return m.auth.Can(ctx, actorID, rule.permission)
}

// AuthorEditReversion returns the effects of the automatic fallback to
// EN_ATTENTE_VALIDATION when a non-admin author edits a VALIDEE item.
// This move bypasses the gate: it is a rule, not an action.
func AuthorEditReversion() (string, Effects) {
	return models.PublicationEnAttenteValidation, Effects{
		SetValide:  boolPtr(false),
		SetPublie:  boolPtr(false),
		SetVisible: boolPtr(false),
		ClearMotif: true,
	}
}

func invalidTransition(req Request) error {
	return apperrors.ErrInvalidTransition.WithMessage(fmt.Sprintf(
		"le passage de %q a %q n'est pas permis pour ce contenu",
		StateLabel(req.CurrentState), StateLabel(req.RequestedState)))
}

func containsState(states []string, target string) bool {
	for _, state := range states {
		if state == target {
			return true
		}
	}
	return false
}

func boolPtr(v bool) *bool {
	return &v
}
