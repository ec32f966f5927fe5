package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/query"
	"github.com/altrapisos/crm/internal/core/service"
)

// AssistantHandler exposes the AI assistant. Its responses are always 200:
// a failed generation comes back as the fixed fallback text.
type AssistantHandler struct {
	assistant ports.AssistantService
	records   ports.RecordService
}

func NewAssistantHandler(assistant ports.AssistantService, records ports.RecordService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, records: records}
}

type analyzeRequest struct {
	RecordID string `json:"recordId" validate:"required"`
	Prompt   string `json:"prompt"`
	Lang     string `json:"lang" validate:"omitempty,oneof=es en"`
}

type textResponse struct {
	Text string `json:"text"`
}

func observe(op string, start time.Time, fallback bool) {
	result := "ok"
	if fallback {
		result = "fallback"
	}
	metrics.AssistantRequestsTotal.WithLabelValues(op, result).Inc()
	metrics.AssistantDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Analyze handles POST /v1/assistant/analyze.
//
// @Summary      Strategic analysis of one record
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      analyzeRequest  true  "Record id, optional prompt and language"
// @Success      200   {object}  textResponse
// @Failure      404   {object}  map[string]string
// @Router       /v1/assistant/analyze [post]
func (h *AssistantHandler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	r, err := h.records.Get(ctx, req.RecordID)
	if err != nil {
		return err
	}

	start := time.Now()
	text := h.assistant.AnalyzeRecord(ctx, r, req.Prompt, req.Lang)
	observe("analyze", start, text == service.AnalysisErrorText)
	return c.JSON(http.StatusOK, textResponse{Text: text})
}

// Briefing handles GET /v1/assistant/briefing.
//
// @Summary      Daily coaching briefing over the open pipeline
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Param        lang  query     string  false  "es or en"
// @Success      200   {object}  textResponse
// @Router       /v1/assistant/briefing [get]
func (h *AssistantHandler) Briefing(c echo.Context) error {
	lang := c.QueryParam("lang")
	if lang != "" && lang != ports.LanguageES && lang != ports.LanguageEN {
		return echo.NewHTTPError(http.StatusBadRequest, "lang must be es or en")
	}
	ctx := c.Request().Context()
	rs, err := h.records.List(ctx, query.Filter{}, query.Sort{})
	if err != nil {
		return err
	}

	start := time.Now()
	text := h.assistant.DailyBriefing(ctx, rs, lang)
	observe("briefing", start, text == service.BriefingErrorText)
	return c.JSON(http.StatusOK, textResponse{Text: text})
}

// ParseOrder handles POST /v1/assistant/parse-order without touching any
// record.
//
// @Summary      Extract value and stage from order text
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      orderRequest  true  "Order text"
// @Success      200   {object}  ports.SalesOrder
// @Router       /v1/assistant/parse-order [post]
func (h *AssistantHandler) ParseOrder(c echo.Context) error {
	var req orderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	order := h.assistant.ParseSalesOrder(c.Request().Context(), req.Text)
	observe("parse_order", start, order == service.OrderFallback())
	return c.JSON(http.StatusOK, order)
}
