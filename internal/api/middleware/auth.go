package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/core/domain"
)

// Context keys set by Auth.
const (
	ActorKey    = "actor"
	UsernameKey = "username"
	RoleKey     = "role"
)

// tokenQueryParam carries the token for clients that cannot set headers,
// such as a browser EventSource.
const tokenQueryParam = "access_token"

// Auth validates the bearer JWT issued at login and stores the caller as a
// domain.Actor in the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actor := domain.Actor{
				Username: claimString(claims, "username"),
				Email:    claimString(claims, "email"),
				Name:     claimString(claims, "name"),
				Role:     claimString(claims, "role"),
			}
			if actor.Username == "" || actor.Role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
			}

			c.Set(ActorKey, actor)
			c.Set(UsernameKey, actor.Username)
			c.Set(RoleKey, actor.Role)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if t := c.QueryParam(tokenQueryParam); t != "" {
			return t, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c echo.Context) (domain.Actor, bool) {
	a, ok := c.Get(ActorKey).(domain.Actor)
	return a, ok
}
