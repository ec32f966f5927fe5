package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/query"
)

// RecordHandler serves the record grid, editor, exports and dashboard.
type RecordHandler struct {
	records ports.RecordService
}

func NewRecordHandler(records ports.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

type listResponse struct {
	Records []domain.Record `json:"records"`
	Count   int             `json:"count"`
}

type exportResponse struct {
	Count int `json:"count"`
}

// CSVFilename is the download name of the CSV export.
const CSVFilename = "altra_crm_export.csv"

type orderRequest struct {
	Text string `json:"text" validate:"required"`
}

// parseQuery reads the filter and sort from query parameters. Multi-valued
// dimensions repeat the parameter (?industry=Salud&industry=Retail).
func parseQuery(c echo.Context) (query.Filter, query.Sort, error) {
	var (
		f   query.Filter
		s   query.Sort
		dir string
	)
	err := echo.QueryParamsBinder(c).
		String("search", &f.Search).
		Strings("industry", &f.Industries).
		String("leadSource", &f.LeadSource).
		String("saleStage", &f.SaleStage).
		String("product", &f.Product).
		Strings("city", &f.Cities).
		Strings("owner", &f.Owners).
		String("sort", &s.Field).
		String("dir", &dir).
		BindError()
	if err != nil {
		return f, s, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if raw := c.QueryParam("minDealValue"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, s, echo.NewHTTPError(http.StatusBadRequest, "minDealValue must be a number")
		}
		f.MinDealValue = &v
	}
	s.Direction = query.Direction(strings.ToLower(dir))
	if err := s.Valid(); err != nil {
		return f, s, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return f, s, nil
}

// List handles GET /v1/records.
//
// @Summary      List records
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        search        query     string    false  "Company, contact or notes substring"
// @Param        industry      query     []string  false  "Industry (repeatable)"
// @Param        leadSource    query     string    false  "Lead source or All"
// @Param        saleStage     query     string    false  "Sale stage or All"
// @Param        product       query     string    false  "Product or All"
// @Param        city          query     []string  false  "City substring (repeatable)"
// @Param        owner         query     []string  false  "Owner substring (repeatable)"
// @Param        minDealValue  query     number    false  "Minimum deal value"
// @Param        sort          query     string    false  "Field to sort by"
// @Param        dir           query     string    false  "asc or desc"
// @Success      200           {object}  listResponse
// @Failure      400           {object}  map[string]string
// @Router       /v1/records [get]
func (h *RecordHandler) List(c echo.Context) error {
	f, s, err := parseQuery(c)
	if err != nil {
		return err
	}
	rs, err := h.records.List(c.Request().Context(), f, s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse{Records: rs, Count: len(rs)})
}

// Template handles GET /v1/records/template.
//
// @Summary      Blank record for the editor
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Record
// @Router       /v1/records/template [get]
func (h *RecordHandler) Template(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.records.Template(actor))
}

// Get handles GET /v1/records/:id.
//
// @Summary      Get a record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  domain.Record
// @Failure      404  {object}  map[string]string
// @Router       /v1/records/{id} [get]
func (h *RecordHandler) Get(c echo.Context) error {
	r, err := h.records.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// Save handles PUT /v1/records/:id. The body is a partial record merged
// over the stored one.
//
// @Summary      Create or update a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Record id"
// @Param        body  body      domain.RecordPatch  true  "Fields to change"
// @Success      200   {object}  domain.Record
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/records/{id} [put]
func (h *RecordHandler) Save(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var patch domain.RecordPatch
	if err := bindValid(c, &patch); err != nil {
		return err
	}

	r, err := h.records.Save(c.Request().Context(), actor, c.Param("id"), patch)
	metrics.RecordMutationsTotal.WithLabelValues("save", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /v1/records/:id.
//
// @Summary      Delete a record
// @Tags         records
// @Security     BearerAuth
// @Param        id   path  string  true  "Record id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/records/{id} [delete]
func (h *RecordHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	err = h.records.Delete(c.Request().Context(), actor, c.Param("id"))
	metrics.RecordMutationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ApplyOrder handles POST /v1/records/:id/apply-order.
//
// @Summary      Apply a free-text sales order to a record
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Record id"
// @Param        body  body      orderRequest  true  "Order, quote or email text"
// @Success      200   {object}  domain.Record
// @Router       /v1/records/{id}/apply-order [post]
func (h *RecordHandler) ApplyOrder(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req orderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	r, err := h.records.ApplySalesOrder(c.Request().Context(), actor, c.Param("id"), req.Text)
	metrics.AssistantDuration.WithLabelValues("parse_order").Observe(time.Since(start).Seconds())
	metrics.RecordMutationsTotal.WithLabelValues("apply_order", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// ExportCSV handles GET /v1/records/export.csv with the same filter
// parameters as List.
//
// @Summary      Download the filtered records as CSV
// @Tags         records
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200  {file}  file
// @Router       /v1/records/export.csv [get]
func (h *RecordHandler) ExportCSV(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	f, s, err := parseQuery(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := h.records.ExportCSV(c.Request().Context(), actor, f, s, &buf)
	if err != nil {
		return err
	}
	metrics.ExportsTotal.WithLabelValues("csv").Inc()
	metrics.ExportedRecordsTotal.Add(float64(n))

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", CSVFilename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// EmailExport handles POST /v1/records/export-email. Nothing is sent; the
// request is only recorded in the audit log.
//
// @Summary      Request an e-mailed export
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  exportResponse
// @Router       /v1/records/export-email [post]
func (h *RecordHandler) EmailExport(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	f, s, err := parseQuery(c)
	if err != nil {
		return err
	}
	n, err := h.records.EmailExport(c.Request().Context(), actor, f, s)
	if err != nil {
		return err
	}
	metrics.ExportsTotal.WithLabelValues("email").Inc()
	metrics.ExportedRecordsTotal.Add(float64(n))
	return c.JSON(http.StatusAccepted, exportResponse{Count: n})
}

// Dashboard handles GET /v1/dashboard.
//
// @Summary      Pipeline summary
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  query.Summary
// @Router       /v1/dashboard [get]
func (h *RecordHandler) Dashboard(c echo.Context) error {
	s, err := h.records.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
