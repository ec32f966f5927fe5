package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/api/handler"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/pkg/config"
)

// errorResponse is the envelope of every failed request.
type errorResponse struct {
	Error  string               `json:"error"`
	Fields []handler.FieldError `json:"fields,omitempty"`
}

// NewHTTPErrorHandler maps domain errors to status codes. Anything it does
// not recognise is logged and rendered as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *handler.ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload", Fields: ve.Fields})
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrMasterAdmin):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrUnknownOwner),
		errors.Is(err, domain.ErrInvalidBackup),
		errors.Is(err, config.ErrInvalidRemote):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUnknownOptionList):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, "remote store unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
