package permissions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
)

// Gate resolves effective permission sets against the registry. It is a
// pure read over the role-default table and the grant store; invariants
// about who may edit grants are enforced by the grant service, not here.
type Gate struct {
	db  *gorm.DB
	now func() time.Time
}

// GateOption customises gate construction.
type GateOption func(*Gate)

// WithClock overrides the time source, used by tests exercising expiry.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate constructs an authorization gate backed by the provided database.
func NewGate(db *gorm.DB, opts ...GateOption) (*Gate, error) {
	if db == nil {
		return nil, errors.New("authorization gate: db is required")
	}
	gate := &Gate{db: db, now: time.Now}
	for _, opt := range opts {
		opt(gate)
	}
	return gate, nil
}

// Can determines whether the account holds the permission code right now.
// Unknown and deactivated codes never authorize, even when a grant row
// exists for them.
func (g *Gate) Can(ctx context.Context, userID, permissionID string) (bool, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, errors.New("authorization gate: user id is required")
	}
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return false, errors.New("authorization gate: permission id is required")
	}

	user, err := g.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsActive {
		// a deactivated account holds nothing, whatever its role or grants
		return false, nil
	}

	if !IsActive(permissionID) {
		// fail closed: the code is either unregistered or deactivated
		return false, nil
	}

	if user.Role == models.RoleSuperAdmin {
		return true, nil
	}

	effective := g.effectiveSet(user)
	_, ok := effective[permissionID]
	return ok, nil
}

// EffectivePermissions returns the sorted, distinct permission codes the
// account currently holds.
func (g *Gate) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("authorization gate: user id is required")
	}

	user, err := g.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	if user.Role == models.RoleSuperAdmin {
		return ActiveIDs(), nil
	}

	effective := g.effectiveSet(user)
	ids := make([]string, 0, len(effective))
	for id := range effective {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (g *Gate) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).
		Preload("Grants").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("authorization gate: load user: %w", err)
	}
	return &user, nil
}

func (g *Gate) effectiveSet(user *models.User) map[string]struct{} {
	now := g.now()
	effective := make(map[string]struct{})

	for _, id := range RoleDefaults(user.Role) {
		if IsActive(id) {
			effective[id] = struct{}{}
		}
	}

	for _, grant := range user.Grants {
		if !grant.Effective(now) {
			continue
		}
		if !IsActive(grant.PermissionID) {
			continue
		}
		effective[grant.PermissionID] = struct{}{}
	}

	return effective
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
