package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core/identity"
)

// adminMiddleware only lets admins holding one of roles through (any admin without roles).
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	provider := identity.NewRoleProvider()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			actor := getContextActor(ctx)
			if claims.IsAdmin && actor.IsAdmin() && (len(roles) == 0 || provider.HasAnyRole(actor, roles)) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
