package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/persistence"
	"github.com/altrapisos/crm/internal/core/ports"
)

// maxBackupSize bounds restore uploads.
const maxBackupSize = 32 << 20

type VaultHandler struct {
	vault ports.VaultService
}

func NewVaultHandler(vault ports.VaultService) *VaultHandler {
	return &VaultHandler{vault: vault}
}

type restoreResponse struct {
	Restored bool   `json:"restored"`
	Warning  string `json:"warning,omitempty"`
}

// Backup handles GET /v1/vault/backup.
//
// @Summary      Download a full backup
// @Tags         vault
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Backup
// @Failure      403  {object}  map[string]string
// @Router       /v1/vault/backup [get]
func (h *VaultHandler) Backup(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	b, err := h.vault.Backup(c.Request().Context(), actor)
	metrics.VaultOperationsTotal.WithLabelValues("backup", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := persistence.WriteBackup(&buf, b); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", b.Filename(time.Now())))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, buf.Bytes())
}

// Restore handles POST /v1/vault/restore. The backup is either the raw
// request body or a multipart field named "file".
//
// @Summary      Restore a backup into local storage
// @Tags         vault
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  restoreResponse
// @Failure      422  {object}  map[string]string
// @Router       /v1/vault/restore [post]
func (h *VaultHandler) Restore(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	body, closeBody, err := backupBody(c)
	if err != nil {
		return err
	}
	defer closeBody()

	res, err := h.vault.Restore(c.Request().Context(), actor, io.LimitReader(body, maxBackupSize))
	switch {
	case err != nil:
		metrics.VaultOperationsTotal.WithLabelValues("restore", "error").Inc()
		return err
	case res.Warning != "":
		metrics.VaultOperationsTotal.WithLabelValues("restore", "warning").Inc()
	default:
		metrics.VaultOperationsTotal.WithLabelValues("restore", "ok").Inc()
	}
	return c.JSON(http.StatusOK, restoreResponse{Restored: true, Warning: res.Warning})
}

func backupBody(c echo.Context) (io.Reader, func(), error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return c.Request().Body, func() {}, nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing file field", domain.ErrInvalidBackup)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
