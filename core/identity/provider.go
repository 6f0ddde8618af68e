// Package identity knows who is asking and which roles count as elevated.
package identity

import (
	"context"
	"strings"
)

// RoleProvider answers identity questions from the roles carried by the Actor itself.
//
// A role ending with ":" names a whole family: "admin:" matches "admin:", "admin:owner" and
// "admin:principal". Any other role must match exactly.
type RoleProvider struct {
	Elevated []string
}

// NewRoleProvider returns a RoleProvider treating `elevated` as the elevated roles.
// With no roles given, every admin role is elevated.
func NewRoleProvider(elevated ...string) *RoleProvider {
	if len(elevated) == 0 {
		elevated = AdminRoles
	}
	return &RoleProvider{Elevated: elevated}
}

// CurrentActor returns the Actor stored in ctx, or Anonymous.
func (p *RoleProvider) CurrentActor(ctx context.Context) Actor {
	if a, ok := ActorFrom(ctx); ok {
		return a
	}
	return Anonymous
}

// HasAnyRole reports whether actor holds at least one of roles.
func (p *RoleProvider) HasAnyRole(actor Actor, roles []string) bool {
	for _, want := range roles {
		for _, have := range actor.Roles {
			if roleMatches(want, have) {
				return true
			}
		}
	}
	return false
}

// IsElevated reports whether actor holds one of the elevated roles.
func (p *RoleProvider) IsElevated(actor Actor) bool {
	return p.HasAnyRole(actor, p.Elevated)
}

func roleMatches(want, have string) bool {
	if strings.HasSuffix(want, ":") {
		return strings.HasPrefix(have, want)
	}
	return want == have
}
