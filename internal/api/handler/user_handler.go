package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// UserHandler serves user administration and password changes.
type UserHandler struct {
	auth  ports.AuthService
	audit ports.AuditService
}

func NewUserHandler(auth ports.AuthService, audit ports.AuditService) *UserHandler {
	return &UserHandler{auth: auth, audit: audit}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// updateUserRequest leaves the password unchanged when it is blank.
type updateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

// List handles GET /v1/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.auth.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Create handles POST /v1/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      409   {object}  map[string]string
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	u := domain.User(req)
	if err := h.auth.CreateUser(c.Request().Context(), u, actor); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u.Public())
}

// Update handles PUT /v1/users/:username.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string             true  "Current username"
// @Param        body      body      updateUserRequest  true  "Replacement profile"
// @Success      200       {object}  domain.User
// @Failure      404       {object}  map[string]string
// @Router       /v1/users/{username} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	u := domain.User(req)
	if err := h.auth.UpdateUser(c.Request().Context(), c.Param("username"), u, actor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Delete handles DELETE /v1/users/:username.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        username  path  string  true  "Username"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/users/{username} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteUser(c.Request().Context(), c.Param("username"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword handles PUT /v1/users/:username/password. Users may
// change their own password; admins may change anyone's.
//
// @Summary      Change a password
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        username  path  string           true  "Username"
// @Param        body      body  passwordRequest  true  "New password"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/users/{username}/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req passwordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.Request().Context(), c.Param("username"), req.Password, actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AuditLogs handles GET /v1/audit-logs.
//
// @Summary      Audit trail, newest first
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.AuditLog
// @Router       /v1/audit-logs [get]
func (h *UserHandler) AuditLogs(c echo.Context) error {
	logs, err := h.audit.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}
