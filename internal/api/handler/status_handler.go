package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/pkg/config"
)

// StatusHandler reports the storage mode and manages the saved manual
// connection. Mode is fixed at startup, so saved changes apply on restart.
type StatusHandler struct {
	mode   ports.Mode
	remote config.RemoteConfig
	kv     ports.KVStore
}

func NewStatusHandler(mode ports.Mode, remote config.RemoteConfig, kv ports.KVStore) *StatusHandler {
	return &StatusHandler{mode: mode, remote: remote, kv: kv}
}

type remoteView struct {
	Driver   string `json:"driver"`
	URL      string `json:"url"`
	Database string `json:"database,omitempty"`
}

type statusResponse struct {
	Mode   ports.Mode  `json:"mode"`
	Online bool        `json:"online"`
	Remote *remoteView `json:"remote,omitempty"`
	Saved  *remoteView `json:"saved,omitempty"`
}

type connectionResponse struct {
	Saved           *remoteView `json:"saved,omitempty"`
	RestartRequired bool        `json:"restartRequired"`
}

func viewOf(r config.RemoteConfig) *remoteView {
	return &remoteView{Driver: r.Driver, URL: r.Redacted(), Database: r.Database}
}

// Status handles GET /v1/status.
//
// @Summary      Storage mode
// @Tags         connection
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /v1/status [get]
func (h *StatusHandler) Status(c echo.Context) error {
	resp := statusResponse{Mode: h.mode, Online: h.mode == ports.ModeRemote}
	if resp.Online {
		resp.Remote = viewOf(h.remote)
	}
	saved, ok, err := config.LoadRemote(c.Request().Context(), h.kv)
	if err != nil {
		return err
	}
	if ok {
		resp.Saved = viewOf(saved)
	}
	return c.JSON(http.StatusOK, resp)
}

// SaveConnection handles PUT /v1/connection.
//
// @Summary      Save a manual remote connection
// @Tags         connection
// @Accept       json
// @Produce      json
// @Param        body  body      config.RemoteConfig  true  "Driver, URL and optional database"
// @Success      200   {object}  connectionResponse
// @Failure      422   {object}  map[string]string
// @Router       /v1/connection [put]
func (h *StatusHandler) SaveConnection(c echo.Context) error {
	var req config.RemoteConfig
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	saved, err := config.SaveRemote(c.Request().Context(), h.kv, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectionResponse{Saved: viewOf(saved), RestartRequired: true})
}

// ClearConnection handles DELETE /v1/connection.
//
// @Summary      Forget the manual remote connection
// @Tags         connection
// @Produce      json
// @Success      200  {object}  connectionResponse
// @Router       /v1/connection [delete]
func (h *StatusHandler) ClearConnection(c echo.Context) error {
	if err := config.ClearRemote(c.Request().Context(), h.kv); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectionResponse{RestartRequired: h.mode == ports.ModeRemote})
}
