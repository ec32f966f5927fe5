package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/core/domain"
)

// RBAC admits the request when the actor set by Auth holds one of roles.
// Failures are returned as domain errors for the HTTP error handler.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return echo.ErrUnauthorized
			}
			if !slices.Contains(roles, actor.Role) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
