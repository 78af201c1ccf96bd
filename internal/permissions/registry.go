package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Permission describes a permission code registered by feature modules.
// Codes are immutable identifiers; deactivation is the only lifecycle
// mutation and deactivated codes never authorize.
type Permission struct {
	ID          string
	Groupe      string
	Description string
	Active      bool
}

type permissionRegistry struct {
	mu          sync.RWMutex
	permissions map[string]*Permission
}

var globalRegistry = &permissionRegistry{
	permissions: make(map[string]*Permission),
}

var (
	errNilPermission = errors.New("permission: nil definition")
	errEmptyID       = errors.New("permission: id is required")
	errDuplicateID   = errors.New("permission: already registered")
)

// ErrUnknownPermission indicates a permission lookup failed because the code
// has never been registered.
var ErrUnknownPermission = errors.New("permission: unknown permission")

// Register adds a permission definition to the global registry.
func Register(perm *Permission) error {
	if perm == nil {
		return errNilPermission
	}

	id := strings.TrimSpace(perm.ID)
	if id == "" {
		return errEmptyID
	}

	def := *perm
	def.ID = id
	def.Groupe = strings.TrimSpace(def.Groupe)
	def.Active = true

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.permissions[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateID, id)
	}

	globalRegistry.permissions[id] = &def
	return nil
}

// Get returns a copy of the permission definition when registered.
func Get(id string) (*Permission, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	perm, ok := globalRegistry.permissions[id]
	if !ok {
		return nil, false
	}
	cp := *perm
	return &cp, true
}

// IsActive reports whether the code exists and has not been deactivated.
func IsActive(id string) bool {
	perm, ok := Get(id)
	return ok && perm.Active
}

// GetAll returns a copy of all registered permissions keyed by ID.
func GetAll() map[string]*Permission {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make(map[string]*Permission, len(globalRegistry.permissions))
	for id, perm := range globalRegistry.permissions {
		cp := *perm
		out[id] = &cp
	}
	return out
}

// ActiveIDs returns the sorted identifiers of all active permissions.
func ActiveIDs() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	ids := make([]string, 0, len(globalRegistry.permissions))
	for id, perm := range globalRegistry.permissions {
		if perm.Active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetByGroupe gathers permissions registered under the specified group.
func GetByGroupe(groupe string) []*Permission {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	groupe = strings.TrimSpace(groupe)
	var perms []*Permission
	for _, perm := range globalRegistry.permissions {
		if perm.Groupe == groupe {
			cp := *perm
			perms = append(perms, &cp)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms
}

// ListByGroupe returns the full catalog grouped for display.
func ListByGroupe() map[string][]*Permission {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make(map[string][]*Permission)
	for _, perm := range globalRegistry.permissions {
		cp := *perm
		out[perm.Groupe] = append(out[perm.Groupe], &cp)
	}
	for groupe := range out {
		perms := out[groupe]
		sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	}
	return out
}

// markInactive flips the in-memory registry entry; callers go through
// Deactivate which also persists the change.
func markInactive(id string) bool {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	perm, ok := globalRegistry.permissions[id]
	if !ok {
		return false
	}
	perm.Active = false
	return true
}

// reset clears registry entries. Intended for testing only.
func reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.permissions = make(map[string]*Permission)
}

// reactivate restores a deactivated code. Intended for testing only.
func reactivate(id string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if perm, ok := globalRegistry.permissions[id]; ok {
		perm.Active = true
	}
}
