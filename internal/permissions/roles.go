package permissions

import (
	"github.com/sbenhamida/mouwatin/internal/models"
)

// roleDefaults is the compiled default permission set per role. An account's
// effective set is this table unioned with its active explicit grants;
// SUPER_ADMIN bypasses the table entirely and holds every active code.
var roleDefaults = map[models.Role][]string{
	models.RoleCitoyen: {
		"reclamations.create",
		"notifications.view",
	},
	models.RoleDelegation: {
		"evenements.view",
		"evenements.create",
		"actualites.view",
		"actualites.create",
		"campagnes.view",
		"campagnes.create",
		"notifications.view",
	},
	models.RoleAutoriteLocale: {
		"reclamations.view",
		"reclamations.assign",
		"reclamations.resolve",
		"notifications.view",
	},
	models.RoleCoordinateurActivites: {
		"activites.view",
		"activites.create",
		"activites.submit",
		"activites.report",
		"notifications.view",
	},
	models.RoleGouverneur: {
		"reclamations.view",
		"evenements.view",
		"actualites.view",
		"campagnes.view",
		"activites.view",
		"audit.view",
		"notifications.view",
	},
	models.RoleAdmin: {
		"reclamations.view",
		"reclamations.decide",
		"reclamations.assign",
		"evenements.view",
		"evenements.validate",
		"evenements.publish",
		"evenements.cancel",
		"evenements.close",
		"actualites.view",
		"actualites.validate",
		"actualites.publish",
		"actualites.reject",
		"actualites.archive",
		"campagnes.view",
		"campagnes.validate",
		"campagnes.publish",
		"campagnes.reject",
		"campagnes.archive",
		"activites.view",
		"activites.validate",
		"utilisateurs.view",
		"audit.view",
		"notifications.view",
		"notifications.manage",
	},
	// SUPER_ADMIN is resolved in code, not via this table.
}

// RoleDefaults returns a copy of the default permission codes for the role.
func RoleDefaults(role models.Role) []string {
	defaults, ok := roleDefaults[role]
	if !ok {
		return nil
	}
	return append([]string(nil), defaults...)
}
