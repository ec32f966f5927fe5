package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/middleware"
	"github.com/altrapisos/crm/internal/core/domain"
)

// actorFrom returns the caller set by the Auth middleware. A missing actor
// means the route was mounted without Auth.
func actorFrom(c echo.Context) (domain.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.Username == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}

// bindValid binds the body into req and runs the registered validator. A
// rejected field comes back as *ValidationError.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
