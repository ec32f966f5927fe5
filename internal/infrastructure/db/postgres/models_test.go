package postgres

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/altrapisos/crm/internal/core/domain"
)

func TestStringList_ValueScan(t *testing.T) {
	v, err := stringList(nil).Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected nil list stored as [], got %v", v)
	}

	var l stringList
	if err := l.Scan([]byte(`["Piso Técnico","Piso Conductivo"]`)); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if diff := cmp.Diff(stringList{"Piso Técnico", "Piso Conductivo"}, l); diff != "" {
		t.Fatalf("scan mismatch (-want +got):\n%s", diff)
	}

	if err := l.Scan(nil); err != nil || l == nil || len(l) != 0 {
		t.Fatalf("expected empty non-nil list from NULL, got %#v err=%v", l, err)
	}
	if err := l.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported source")
	}
}

func TestRecordRow_RoundTrip(t *testing.T) {
	r := domain.Record{
		ID:          "M-000001",
		CompanyName: "Grupo Alfa",
		Owner:       "Ana",
		SaleStage:   domain.StageProposal,
		Product:     []string{"Piso Técnico"},
		DealValue:   2500,
	}
	if diff := cmp.Diff(r, toRecordRow(r).toDomain()); diff != "" {
		t.Fatalf("record round trip mismatch (-want +got):\n%s", diff)
	}

	empty := toRecordRow(domain.Record{ID: "x"}).toDomain()
	if empty.Product == nil {
		t.Fatalf("expected non-nil product list")
	}
}

func TestSettingsRow_KeyedGlobal(t *testing.T) {
	row := toSettingsRow(domain.DefaultOptions())
	if row.ID != "global" {
		t.Fatalf("unexpected settings id %q", row.ID)
	}
	if diff := cmp.Diff(domain.DefaultOptions(), row.toDomain()); diff != "" {
		t.Fatalf("settings mismatch:\n%s", diff)
	}
}
