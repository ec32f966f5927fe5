package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

func TestAssistantService_AnalyzeRecord(t *testing.T) {
	gen := &stubGenerator{out: "Llamar mañana."}
	svc := NewAssistantService(gen, ports.LanguageES, zerolog.Nop())
	r := domain.Record{ID: "H-001", CompanyName: "IMSS"}

	if got := svc.AnalyzeRecord(context.Background(), r, "", ""); got != "Llamar mañana." {
		t.Fatalf("unexpected analysis %q", got)
	}
	req := gen.reqs[0]
	if !strings.Contains(req.SystemInstruction, "Responder en Español.") {
		t.Fatalf("default language not applied: %q", req.SystemInstruction)
	}
	if !strings.HasPrefix(req.Prompt, "Analyze this record for strategic next steps: ") || !strings.Contains(req.Prompt, `"companyName": "IMSS"`) {
		t.Fatalf("unexpected prompt %q", req.Prompt)
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", req.Temperature)
	}

	_ = svc.AnalyzeRecord(context.Background(), r, "Write an email", ports.LanguageEN)
	req = gen.reqs[1]
	if !strings.Contains(req.SystemInstruction, "Respond in English.") || !strings.HasSuffix(req.Prompt, "User Request: Write an email") {
		t.Fatalf("custom prompt not used: %+v", req)
	}
}

func TestAssistantService_Fallbacks(t *testing.T) {
	ctx := context.Background()
	failing := NewAssistantService(&stubGenerator{err: errors.New("no key")}, "", zerolog.Nop())
	empty := NewAssistantService(&stubGenerator{out: "  "}, "", zerolog.Nop())

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"analysis error", failing.AnalyzeRecord(ctx, domain.Record{}, "", ""), AnalysisErrorText},
		{"analysis empty", empty.AnalyzeRecord(ctx, domain.Record{}, "", ""), EmptyAnalysisText},
		{"briefing error", failing.DailyBriefing(ctx, nil, ""), BriefingErrorText},
		{"briefing empty", empty.DailyBriefing(ctx, nil, ""), EmptyBriefingText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestAssistantService_BriefingSkipsClosedDeals(t *testing.T) {
	gen := &stubGenerator{out: "ok"}
	svc := NewAssistantService(gen, ports.LanguageEN, zerolog.Nop())
	records := []domain.Record{
		{CompanyName: "Abierta", SaleStage: domain.StageProposal, DealValue: 100, NextAction: "Llamar", NextActionDate: "2026-10-15"},
		{CompanyName: "Ganada", SaleStage: domain.StageClosedWon, DealValue: 200},
		{CompanyName: "Perdida", SaleStage: domain.StageClosedLost, DealValue: 300},
	}

	_ = svc.DailyBriefing(context.Background(), records, "")
	payload := strings.TrimPrefix(gen.reqs[0].Prompt, "Here is the current pipeline summary: ")

	var got []pipelineEntry
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("pipeline summary is not JSON: %v", err)
	}
	want := []pipelineEntry{{Company: "Abierta", Stage: domain.StageProposal, Value: 100, NextAction: "Llamar", Date: "2026-10-15"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pipeline mismatch (-want +got):\n%s", diff)
	}
}

func TestAssistantService_ParseSalesOrder(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want ports.SalesOrder
	}{
		{
			name: "confirmed order",
			out:  `{"dealValue": 1200.5, "saleStage": "Cerrado Ganado", "summary": "Piso técnico"}`,
			want: ports.SalesOrder{DealValue: 1200.5, SaleStage: domain.StageClosedWon, Notes: "Piso técnico"},
		},
		{name: "not json", out: "sure, here you go", want: OrderFallback()},
		{name: "stage outside enum", out: `{"dealValue": 10, "saleStage": "Closed Won", "summary": "x"}`, want: OrderFallback()},
		{name: "missing value", out: `{"saleStage": "Propuesta", "summary": "x"}`, want: OrderFallback()},
		{name: "negative value", out: `{"dealValue": -5, "saleStage": "Propuesta", "summary": "x"}`, want: OrderFallback()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{out: tt.out}
			svc := NewAssistantService(gen, "", zerolog.Nop())
			got := svc.ParseSalesOrder(context.Background(), "orden")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
			if gen.reqs[0].ResponseSchema == nil || gen.reqs[0].ResponseSchema.Properties["saleStage"].Enum[0] != domain.StageNew {
				t.Fatalf("expected stage-constrained schema, got %+v", gen.reqs[0].ResponseSchema)
			}
		})
	}
}
