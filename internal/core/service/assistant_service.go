package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// Fallback texts returned in place of any generation failure.
const (
	AnalysisErrorText = "Error generating analysis. Please check your API Quota or Key."
	BriefingErrorText = "Error generating briefing."
	OrderErrorNote    = "Error parsing order."
	EmptyAnalysisText = "No response generated."
	EmptyBriefingText = "No briefing generated."
)

const assistantTemperature = 0.7

// AssistantService turns CRM data into prompts for the text generator. It
// never returns an error: every failure becomes fallback output.
type AssistantService struct {
	gen         ports.TextGenerator
	defaultLang string
	logger      zerolog.Logger
}

func NewAssistantService(gen ports.TextGenerator, defaultLang string, logger zerolog.Logger) *AssistantService {
	if defaultLang != ports.LanguageEN {
		defaultLang = ports.LanguageES
	}
	return &AssistantService{gen: gen, defaultLang: defaultLang, logger: logger}
}

func (s *AssistantService) langInstruction(lang string) string {
	if lang == "" {
		lang = s.defaultLang
	}
	if lang == ports.LanguageEN {
		return "Respond in English."
	}
	return "Responder en Español."
}

func temperature() *float32 {
	t := float32(assistantTemperature)
	return &t
}

func (s *AssistantService) AnalyzeRecord(ctx context.Context, r domain.Record, prompt, lang string) string {
	system := `You are an expert CRM Sales Assistant.
Analyze the provided customer record.
` + s.langInstruction(lang) + `
If a custom prompt is provided, follow it strictly using the record as context.
If no custom prompt is provided, provide:
1. A brief strategic recommendation to close this specific deal.
2. A tactical next step.`

	recordJSON, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Str("record_id", r.ID).Msg("encode record for analysis")
		return AnalysisErrorText
	}
	content := "Analyze this record for strategic next steps: " + string(recordJSON)
	if strings.TrimSpace(prompt) != "" {
		content = fmt.Sprintf("Record: %s\n\nUser Request: %s", recordJSON, prompt)
	}

	out, err := s.gen.Generate(ctx, ports.GenerateRequest{
		SystemInstruction: system,
		Prompt:            content,
		Temperature:       temperature(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("record_id", r.ID).Msg("record analysis failed")
		return AnalysisErrorText
	}
	if strings.TrimSpace(out) == "" {
		return EmptyAnalysisText
	}
	return out
}

type pipelineEntry struct {
	Company      string  `json:"company"`
	Stage        string  `json:"stage"`
	Value        float64 `json:"value"`
	NextAction   string  `json:"nextAction"`
	Date         string  `json:"date"`
	LastActivity string  `json:"lastActivity"`
}

// activePipeline summarises every record outside the two closed stages.
func activePipeline(records []domain.Record) []pipelineEntry {
	out := []pipelineEntry{}
	for _, r := range records {
		if r.IsClosed() {
			continue
		}
		out = append(out, pipelineEntry{
			Company:      r.CompanyName,
			Stage:        r.SaleStage,
			Value:        r.DealValue,
			NextAction:   r.NextAction,
			Date:         r.NextActionDate,
			LastActivity: r.LastActivityDate,
		})
	}
	return out
}

func (s *AssistantService) DailyBriefing(ctx context.Context, records []domain.Record, lang string) string {
	system := `You are a VP of Sales acting as a daily coach.
Review the list of active opportunities.
` + s.langInstruction(lang) + `

Task:
1. Identify the top 3 priorities for TODAY based on 'nextActionDate' (urgency) and 'dealValue' (impact).
2. Highlight any stalled deals (no activity in >30 days).
3. Provide a motivational quote or quick tip for the day.

Format nicely with bullet points and bold text for readability.`

	summary, err := json.Marshal(activePipeline(records))
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode pipeline summary")
		return BriefingErrorText
	}

	out, err := s.gen.Generate(ctx, ports.GenerateRequest{
		SystemInstruction: system,
		Prompt:            "Here is the current pipeline summary: " + string(summary),
		Temperature:       temperature(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("daily briefing failed")
		return BriefingErrorText
	}
	if strings.TrimSpace(out) == "" {
		return EmptyBriefingText
	}
	return out
}

var salesOrderSchema = ports.Schema{
	Type: "object",
	Properties: map[string]ports.Schema{
		"dealValue": {Type: "number"},
		"saleStage": {Type: "string", Enum: domain.SaleStages},
		"summary":   {Type: "string"},
	},
	Required: []string{"dealValue", "saleStage", "summary"},
}

// OrderFallback is returned when an order cannot be parsed.
func OrderFallback() ports.SalesOrder {
	return ports.SalesOrder{DealValue: 0, SaleStage: domain.StageNegotiation, Notes: OrderErrorNote}
}

func (s *AssistantService) ParseSalesOrder(ctx context.Context, text string) ports.SalesOrder {
	system := fmt.Sprintf(`You are a Sales Operations Data Entry Agent.
Extract the total monetary value from the provided text (Sales Order, Email, Invoice, etc.).
Determine if this indicates a %[1]q sale, or a %[2]q/%[3]q stage.

Return JSON format only:
{
  "dealValue": number,
  "saleStage": %[1]q | %[2]q | %[3]q,
  "summary": "string (short summary of what was ordered)"
}

If no value is found, estimate or set to 0.
If the text implies a confirmed order, use %[1]q.
If it is a quote request, use %[3]q.`, domain.StageClosedWon, domain.StageNegotiation, domain.StageProposal)

	out, err := s.gen.Generate(ctx, ports.GenerateRequest{
		SystemInstruction: system,
		Prompt:            text,
		ResponseSchema:    &salesOrderSchema,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("sales order parsing failed")
		return OrderFallback()
	}

	var parsed struct {
		DealValue *float64 `json:"dealValue"`
		SaleStage string   `json:"saleStage"`
		Summary   string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		s.logger.Warn().Err(err).Msg("sales order response is not JSON")
		return OrderFallback()
	}
	if parsed.DealValue == nil || *parsed.DealValue < 0 || !containsString(domain.SaleStages, parsed.SaleStage) {
		s.logger.Warn().Str("stage", parsed.SaleStage).Msg("sales order response out of schema")
		return OrderFallback()
	}
	return ports.SalesOrder{DealValue: *parsed.DealValue, SaleStage: parsed.SaleStage, Notes: parsed.Summary}
}
