package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

type OptionsHandler struct {
	options ports.OptionsService
}

func NewOptionsHandler(options ports.OptionsService) *OptionsHandler {
	return &OptionsHandler{options: options}
}

type optionValueRequest struct {
	Value string `json:"value" validate:"required"`
}

// Get handles GET /v1/options.
//
// @Summary      Controlled vocabularies
// @Tags         options
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AppOptions
// @Router       /v1/options [get]
func (h *OptionsHandler) Get(c echo.Context) error {
	o, err := h.options.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Save handles PUT /v1/options.
//
// @Summary      Replace every vocabulary
// @Tags         options
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.AppOptions  true  "All lists"
// @Success      200   {object}  domain.AppOptions
// @Failure      403   {object}  map[string]string
// @Router       /v1/options [put]
func (h *OptionsHandler) Save(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var o domain.AppOptions
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	saved, err := h.options.Save(c.Request().Context(), actor, o)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

// Add handles POST /v1/options/:list.
//
// @Summary      Add a value to a vocabulary
// @Tags         options
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        list  path      string              true  "owners, products, cities, industries, stages or leadSources"
// @Param        body  body      optionValueRequest  true  "Value to add"
// @Success      200   {object}  domain.AppOptions
// @Failure      404   {object}  map[string]string
// @Router       /v1/options/{list} [post]
func (h *OptionsHandler) Add(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req optionValueRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	o, err := h.options.Add(c.Request().Context(), actor, c.Param("list"), req.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Remove handles DELETE /v1/options/:list?value=...
//
// @Summary      Remove a value from a vocabulary
// @Tags         options
// @Produce      json
// @Security     BearerAuth
// @Param        list   path      string  true  "List name"
// @Param        value  query     string  true  "Value to remove"
// @Success      200    {object}  domain.AppOptions
// @Router       /v1/options/{list} [delete]
func (h *OptionsHandler) Remove(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	value := c.QueryParam("value")
	if value == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "value is required")
	}
	o, err := h.options.Remove(c.Request().Context(), actor, c.Param("list"), value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Reset handles POST /v1/options/reset.
//
// @Summary      Restore the default vocabularies
// @Tags         options
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AppOptions
// @Router       /v1/options/reset [post]
func (h *OptionsHandler) Reset(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	o, err := h.options.Reset(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
