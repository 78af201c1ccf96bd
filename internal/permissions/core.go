package permissions

func init() {
	perms := []*Permission{
		{
			ID:          "reclamations.view",
			Groupe:      "reclamations",
			Description: "Consulter les reclamations",
		},
		{
			ID:          "reclamations.create",
			Groupe:      "reclamations",
			Description: "Soumettre une reclamation",
		},
		{
			ID:          "reclamations.decide",
			Groupe:      "reclamations",
			Description: "Accepter ou rejeter une reclamation",
		},
		{
			ID:          "reclamations.assign",
			Groupe:      "reclamations",
			Description: "Affecter une reclamation a une autorite locale",
		},
		{
			ID:          "reclamations.resolve",
			Groupe:      "reclamations",
			Description: "Resoudre une reclamation affectee",
		},
		{
			ID:          "evenements.view",
			Groupe:      "evenements",
			Description: "Consulter les evenements",
		},
		{
			ID:          "evenements.create",
			Groupe:      "evenements",
			Description: "Proposer un evenement",
		},
		{
			ID:          "evenements.validate",
			Groupe:      "evenements",
			Description: "Valider un evenement en attente",
		},
		{
			ID:          "evenements.publish",
			Groupe:      "evenements",
			Description: "Publier ou demarrer un evenement valide",
		},
		{
			ID:          "evenements.cancel",
			Groupe:      "evenements",
			Description: "Annuler un evenement",
		},
		{
			ID:          "evenements.close",
			Groupe:      "evenements",
			Description: "Cloturer un evenement avec rapport",
		},
		{
			ID:          "actualites.view",
			Groupe:      "actualites",
			Description: "Consulter les actualites",
		},
		{
			ID:          "actualites.create",
			Groupe:      "actualites",
			Description: "Rediger une actualite",
		},
		{
			ID:          "actualites.validate",
			Groupe:      "actualites",
			Description: "Valider une actualite en attente",
		},
		{
			ID:          "actualites.publish",
			Groupe:      "actualites",
			Description: "Publier ou depublier une actualite validee",
		},
		{
			ID:          "actualites.reject",
			Groupe:      "actualites",
			Description: "Rejeter une actualite avec motif",
		},
		{
			ID:          "actualites.archive",
			Groupe:      "actualites",
			Description: "Archiver une actualite",
		},
		{
			ID:          "campagnes.view",
			Groupe:      "campagnes",
			Description: "Consulter les campagnes",
		},
		{
			ID:          "campagnes.create",
			Groupe:      "campagnes",
			Description: "Rediger une campagne",
		},
		{
			ID:          "campagnes.validate",
			Groupe:      "campagnes",
			Description: "Valider une campagne en attente",
		},
		{
			ID:          "campagnes.publish",
			Groupe:      "campagnes",
			Description: "Publier ou depublier une campagne validee",
		},
		{
			ID:          "campagnes.reject",
			Groupe:      "campagnes",
			Description: "Rejeter une campagne avec motif",
		},
		{
			ID:          "campagnes.archive",
			Groupe:      "campagnes",
			Description: "Archiver une campagne",
		},
		{
			ID:          "activites.view",
			Groupe:      "activites",
			Description: "Consulter les activites",
		},
		{
			ID:          "activites.create",
			Groupe:      "activites",
			Description: "Creer une activite en brouillon",
		},
		{
			ID:          "activites.submit",
			Groupe:      "activites",
			Description: "Soumettre une activite pour validation",
		},
		{
			ID:          "activites.validate",
			Groupe:      "activites",
			Description: "Valider ou renvoyer une activite soumise",
		},
		{
			ID:          "activites.report",
			Groupe:      "activites",
			Description: "Deposer le rapport d'une activite terminee",
		},
		{
			ID:          "utilisateurs.view",
			Groupe:      "administration",
			Description: "Consulter les comptes",
		},
		{
			ID:          "utilisateurs.manage",
			Groupe:      "administration",
			Description: "Gerer les comptes et les roles",
		},
		{
			ID:          "permissions.view",
			Groupe:      "administration",
			Description: "Consulter le catalogue des permissions",
		},
		{
			ID:          "permissions.manage",
			Groupe:      "administration",
			Description: "Accorder et revoquer des permissions",
		},
		{
			ID:          "audit.view",
			Groupe:      "administration",
			Description: "Consulter le journal d'audit",
		},
		{
			ID:          "notifications.view",
			Groupe:      "notifications",
			Description: "Consulter ses notifications",
		},
		{
			ID:          "notifications.manage",
			Groupe:      "notifications",
			Description: "Diffuser des notifications",
		},
	}

	for _, perm := range perms {
		if err := Register(perm); err != nil {
			panic(err)
		}
	}
}
