package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/api/handler"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/pkg/config"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want errorResponse
	}{
		{"record missing", fmt.Errorf("get: %w", domain.ErrRecordNotFound), http.StatusNotFound, errorResponse{Error: "record not found"}},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, errorResponse{Error: "access forbidden"}},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}},
		{"duplicate user", domain.ErrUserExists, http.StatusConflict, errorResponse{Error: "user already exists"}},
		{"bad remote", config.ErrInvalidRemote, http.StatusUnprocessableEntity, errorResponse{Error: config.ErrInvalidRemote.Error()}},
		{"remote down", domain.ErrRemoteUnavailable, http.StatusServiceUnavailable, errorResponse{Error: "remote store unavailable"}},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "lang must be es or en"), http.StatusBadRequest, errorResponse{Error: "lang must be es or en"}},
		{
			"validation",
			&handler.ValidationError{Fields: []handler.FieldError{{Field: "email", Message: "email must be a valid email"}}},
			http.StatusBadRequest,
			errorResponse{Error: "invalid payload", Fields: []handler.FieldError{{Field: "email", Message: "email must be a valid email"}}},
		},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, errorResponse{Error: "internal server error"}},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/records", nil), rec)

			h(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var got errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/v1/records/X", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrRecordNotFound, c)

	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected bodiless 404, got %d %q", rec.Code, rec.Body.String())
	}
}
