package auth

import "inkwell/internal/models"

// Allow decides whether p may mutate a resource owned by ownerID: owners may
// act on their own resources, elevated roles (admin, moderator) on anyone's.
// Callers must check that the resource exists before evaluating the policy so
// a missing resource reports NotFound rather than Forbidden.
func Allow(p models.Principal, ownerID uint) bool {
	return p.ID == ownerID || p.Role.Elevated()
}
