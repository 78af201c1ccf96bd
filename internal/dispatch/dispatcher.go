package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
)

// Notification is a delivery-agnostic side-effect descriptor. Either
// RecipientID or Roles is set; Roles means one notification per active
// account holding any of the listed roles.
type Notification struct {
	RecipientID string
	Roles       []models.Role
	Type        string
	Title       string
	Message     string
}

// Result carries the updated complaint plus the notifications the caller
// must hand to the emitter. Delivery failures do not undo the assignment.
type Result struct {
	Reclamation   *models.Reclamation
	Notifications []Notification
}

// Dispatcher routes complaints to the local authority bound to their
// commune and keeps the at-most-one-assignee invariant. It trusts the
// commune binding on the user row; the binding itself is policed when
// the AUTORITE_LOCALE role is granted, not here.
type Dispatcher struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Dispatcher)

// WithClock overrides the dispatcher clock, used in tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(db *gorm.DB, opts ...Option) (*Dispatcher, error) {
	if db == nil {
		return nil, errors.New("dispatch: database handle is required")
	}
	d := &Dispatcher{db: db, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// AssignToSelf binds a complaint to the calling AUTORITE_LOCALE account,
// routed through the commune that account is responsible for. An account
// with no commune binding is a configuration defect, not a permission
// failure.
func (d *Dispatcher) AssignToSelf(ctx context.Context, reclamationID, actorID string) (*Result, error) {
	actor, err := d.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.CommuneResponsableID == nil {
		return nil, apperrors.ErrNoJurisdiction
	}
	return d.assign(ctx, reclamationID, actorID, actor, "reclamation.affectation.self")
}

// Assign is the admin-directed form: the admin picks the assignee. The
// target must be an active AUTORITE_LOCALE account with a commune binding.
func (d *Dispatcher) Assign(ctx context.Context, reclamationID, actorID, assigneeID string) (*Result, error) {
	assignee, err := d.loadAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	return d.assign(ctx, reclamationID, actorID, assignee, "reclamation.affectation")
}

// Unassign releases the complaint back to the unassigned pool.
func (d *Dispatcher) Unassign(ctx context.Context, reclamationID, actorID string) (*Result, error) {
	var rec models.Reclamation
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReclamation(tx, reclamationID, &rec); err != nil {
			return err
		}
		if rec.Resolved() {
			return apperrors.ErrInvalidTransition.WithMessage("une reclamation resolue ne peut plus etre liberee")
		}

		previous := ""
		if rec.AffecteAID != nil {
			previous = *rec.AffecteAID
		}
		res := tx.Model(&models.Reclamation{}).
			Where("id = ? AND affectation = ?", reclamationID, models.AffectationAffectee).
			Updates(map[string]interface{}{
				"affectation":         models.AffectationNonAffectee,
				"affecte_a_id":        nil,
				"commune_affectee_id": nil,
				"date_affectation":    nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		rec.Affectation = models.AffectationNonAffectee
		rec.AffecteAID = nil
		rec.CommuneAffecteeID = nil
		rec.DateAffectation = nil

		return d.appendHistory(tx, actorID, "reclamation.liberation", reclamationID, map[string]interface{}{
			"ancien_assigne": previous,
		})
	})
	if err != nil {
		return nil, err
	}
	return &Result{Reclamation: &rec}, nil
}

// Reassign moves the complaint to a new assignee in one step: a single
// state change and a single history entry, never an intermediate
// unassigned window.
func (d *Dispatcher) Reassign(ctx context.Context, reclamationID, actorID, newAssigneeID string) (*Result, error) {
	assignee, err := d.loadAssignee(ctx, newAssigneeID)
	if err != nil {
		return nil, err
	}

	var rec models.Reclamation
	now := d.now()
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReclamation(tx, reclamationID, &rec); err != nil {
			return err
		}
		if rec.Resolved() {
			return apperrors.ErrInvalidTransition.WithMessage("une reclamation resolue ne peut plus etre reaffectee")
		}

		previous := ""
		if rec.AffecteAID != nil {
			previous = *rec.AffecteAID
		}
		res := tx.Model(&models.Reclamation{}).
			Where("id = ? AND affectation = ? AND date_resolution IS NULL", reclamationID, models.AffectationAffectee).
			Updates(map[string]interface{}{
				"affecte_a_id":        assignee.ID,
				"commune_affectee_id": assignee.CommuneResponsableID,
				"date_affectation":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		rec.AffecteAID = &assignee.ID
		rec.CommuneAffecteeID = assignee.CommuneResponsableID
		rec.DateAffectation = &now

		return d.appendHistory(tx, actorID, "reclamation.reaffectation", reclamationID, map[string]interface{}{
			"ancien_assigne":  previous,
			"nouvel_assigne":  assignee.ID,
			"commune_affectee": deref(assignee.CommuneResponsableID),
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Reclamation:   &rec,
		Notifications: []Notification{assigneeNotification(assignee.ID, &rec)},
	}, nil
}

// Resolve closes out an accepted, assigned complaint. Resolving a second
// time, or resolving an unassigned or undecided complaint, is refused.
func (d *Dispatcher) Resolve(ctx context.Context, reclamationID, actorID, note string) (*Result, error) {
	var rec models.Reclamation
	now := d.now()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReclamation(tx, reclamationID, &rec); err != nil {
			return err
		}
		if rec.Decision != models.DecisionAcceptee {
			return apperrors.ErrInvalidTransition.WithMessage("seule une reclamation acceptee peut etre resolue")
		}
		if !rec.Assigned() {
			return apperrors.ErrInvalidTransition.WithMessage("la reclamation n'est affectee a personne")
		}
		if rec.Resolved() {
			return apperrors.ErrInvalidTransition.WithMessage("la reclamation est deja resolue")
		}

		res := tx.Model(&models.Reclamation{}).
			Where("id = ? AND affectation = ? AND decision = ? AND date_resolution IS NULL",
				reclamationID, models.AffectationAffectee, models.DecisionAcceptee).
			Updates(map[string]interface{}{
				"date_resolution": now,
				"note_resolution": note,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		rec.DateResolution = &now
		rec.NoteResolution = note

		return d.appendHistory(tx, actorID, "reclamation.resolution", reclamationID, map[string]interface{}{
			"note": note,
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Reclamation: &rec,
		Notifications: []Notification{
			{
				RecipientID: rec.CitoyenID,
				Type:        "reclamation.resolution",
				Title:       "Reclamation resolue",
				Message:     fmt.Sprintf("Votre reclamation %q a ete resolue", rec.Titre),
			},
			{
				Roles:   []models.Role{models.RoleAdmin, models.RoleSuperAdmin},
				Type:    "reclamation.resolution",
				Title:   "Reclamation resolue",
				Message: fmt.Sprintf("La reclamation %q a ete resolue", rec.Titre),
			},
		},
	}, nil
}

// ResetAssignment forces the complaint back to the unassigned pool inside
// the caller's transaction. Rejection uses it unconditionally: a rejected
// complaint carries no triage state, whether or not it was assigned. The
// reset is idempotent.
func (d *Dispatcher) ResetAssignment(tx *gorm.DB, rec *models.Reclamation) error {
	res := tx.Model(&models.Reclamation{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"affectation":         models.AffectationNonAffectee,
			"affecte_a_id":        nil,
			"commune_affectee_id": nil,
			"date_affectation":    nil,
		})
	if res.Error != nil {
		return res.Error
	}
	rec.Affectation = models.AffectationNonAffectee
	rec.AffecteAID = nil
	rec.CommuneAffecteeID = nil
	rec.DateAffectation = nil
	return nil
}

func (d *Dispatcher) assign(ctx context.Context, reclamationID, actorID string, assignee *models.User, action string) (*Result, error) {
	if assignee.CommuneResponsableID == nil {
		return nil, apperrors.ErrNoJurisdiction
	}

	var rec models.Reclamation
	now := d.now()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadReclamation(tx, reclamationID, &rec); err != nil {
			return err
		}
		if rec.Resolved() {
			return apperrors.ErrInvalidTransition.WithMessage("une reclamation resolue ne peut plus etre affectee")
		}
		if rec.Decision == models.DecisionRejetee {
			return apperrors.ErrInvalidTransition.WithMessage("une reclamation rejetee ne peut plus etre affectee")
		}

		res := tx.Model(&models.Reclamation{}).
			Where("id = ? AND affectation = ?", reclamationID, models.AffectationNonAffectee).
			Updates(map[string]interface{}{
				"affectation":         models.AffectationAffectee,
				"affecte_a_id":        assignee.ID,
				"commune_affectee_id": assignee.CommuneResponsableID,
				"date_affectation":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		rec.Affectation = models.AffectationAffectee
		rec.AffecteAID = &assignee.ID
		rec.CommuneAffecteeID = assignee.CommuneResponsableID
		rec.DateAffectation = &now

		return d.appendHistory(tx, actorID, action, reclamationID, map[string]interface{}{
			"assigne":          assignee.ID,
			"commune_affectee": deref(assignee.CommuneResponsableID),
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Reclamation:   &rec,
		Notifications: []Notification{assigneeNotification(assignee.ID, &rec)},
	}, nil
}

func (d *Dispatcher) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("compte introuvable")
		}
		return nil, apperrors.Wrap(err, "lecture du compte")
	}
	return &user, nil
}

func (d *Dispatcher) loadAssignee(ctx context.Context, assigneeID string) (*models.User, error) {
	assignee, err := d.loadUser(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee.Role != models.RoleAutoriteLocale || !assignee.IsActive {
		return nil, apperrors.ErrInvalidAssignee
	}
	return assignee, nil
}

func (d *Dispatcher) appendHistory(tx *gorm.DB, actorID, action, reclamationID string, details map[string]interface{}) error {
	metadata, err := json.Marshal(details)
	if err != nil {
		return apperrors.Wrap(err, "encodage des details d'audit")
	}
	entry := models.AuditLog{
		UserID:    &actorID,
		Action:    action,
		Resource:  "reclamation:" + reclamationID,
		Result:    "success",
		Metadata:  string(metadata),
		CreatedAt: d.now(),
	}
	return tx.Create(&entry).Error
}

func loadReclamation(tx *gorm.DB, id string, dst *models.Reclamation) error {
	if err := tx.First(dst, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("reclamation introuvable")
		}
		return apperrors.Wrap(err, "lecture de la reclamation")
	}
	return nil
}

func assigneeNotification(assigneeID string, rec *models.Reclamation) Notification {
	return Notification{
		RecipientID: assigneeID,
		Type:        "reclamation.affectation",
		Title:       "Nouvelle reclamation affectee",
		Message:     fmt.Sprintf("La reclamation %q vous a ete affectee", rec.Titre),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
