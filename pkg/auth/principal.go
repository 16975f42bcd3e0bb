// Package auth verifies caller identity and extracts the marketplace roles
// carried in the IdP-issued token.
package auth

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Marketplace roles assigned by the identity provider.
const (
	RoleSeller  = "seller"
	RoleShopper = "shopper"
	RoleAdmin   = "admin"
)

// Principal is an authenticated caller: the token subject plus the realm
// roles granted to it. It lives only for the duration of one request.
type Principal struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// PrincipalFromToken builds a Principal from a verified token. The subject
// must be a UUID; roles come from the realm_access.roles claim and an absent
// claim yields a principal with no roles, not an error.
func PrincipalFromToken(token jwt.Token) (Principal, error) {
	subject, ok := token.Subject()
	if !ok {
		return Principal{}, fmt.Errorf("token has no `sub` claim")
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return Principal{}, fmt.Errorf("token subject is not a valid UUID: %w", err)
	}

	principal := Principal{ID: id}

	var realmAccess map[string]any
	if err := token.Get("realm_access", &realmAccess); err != nil {
		return principal, nil
	}
	// The claim arrives as []any when parsed from the wire, []string when the
	// token was built in-process.
	switch roles := realmAccess["roles"].(type) {
	case []string:
		principal.Roles = roles
	case []any:
		for _, r := range roles {
			if role, ok := r.(string); ok {
				principal.Roles = append(principal.Roles, role)
			}
		}
	}
	return principal, nil
}
