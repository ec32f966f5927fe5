package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// loginRequest accepts a username or an email in Identifier.
type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Username or email and password"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, res)
}

// Me returns the caller as carried by the session token.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Actor
// @Router       /v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, actor)
}

