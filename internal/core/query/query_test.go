package query

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/altrapisos/crm/internal/core/domain"
)

var (
	testCities   = []string{"CDMX", "Monterrey", "Guadalajara", "Puebla", "Ciudad Juárez"}
	testOwners   = []string{"", "Ana", "Ana María", "Beto", "Carla"}
	testProducts = []string{"Piso Homogéneo", "Piso Heterogéneo", "Piso Conductivo", "Piso Técnico"}
	testWords    = []string{"acero", "Construye", "hospital", "BODEGA", "nave", ""}
)

func pick(rng *rand.Rand, vs []string) string { return vs[rng.Intn(len(vs))] }

func randomRecord(rng *rand.Rand, i int) domain.Record {
	var products []string
	for _, p := range testProducts {
		if rng.Intn(3) == 0 {
			products = append(products, p)
		}
	}
	if products == nil {
		products = []string{}
	}
	return domain.Record{
		ID:            fmt.Sprintf("R-%03d", i),
		CompanyName:   pick(rng, testWords) + " SA",
		ContactPerson: pick(rng, testWords),
		Notes:         pick(rng, testWords),
		City:          pick(rng, testCities),
		Owner:         pick(rng, testOwners),
		Industry:      pick(rng, domain.Industries),
		LeadSource:    pick(rng, domain.LeadSources),
		SaleStage:     pick(rng, domain.SaleStages),
		Product:       products,
		DealValue:     float64(rng.Intn(20)) * 500,
	}
}

func randomFilter(rng *rand.Rand) Filter {
	f := Filter{LeadSource: All, SaleStage: All, Product: All}
	if rng.Intn(2) == 0 {
		f.Search = strings.ToUpper(pick(rng, testWords))
	}
	if rng.Intn(3) == 0 {
		f.Industries = []string{pick(rng, domain.Industries), pick(rng, domain.Industries)}
	}
	if rng.Intn(3) == 0 {
		f.LeadSource = pick(rng, domain.LeadSources)
	}
	if rng.Intn(3) == 0 {
		f.SaleStage = pick(rng, domain.SaleStages)
	}
	if rng.Intn(3) == 0 {
		f.Product = pick(rng, testProducts)
	}
	if rng.Intn(3) == 0 {
		f.Cities = []string{strings.ToLower(pick(rng, testCities)[:3])}
	}
	if rng.Intn(3) == 0 {
		f.Owners = []string{"ana", "carla"}
	}
	if rng.Intn(3) == 0 {
		v := float64(rng.Intn(10)) * 500
		f.MinDealValue = &v
	}
	return f
}

// satisfies re-checks one dimension at a time, independently of Match.
func satisfies(t *testing.T, f Filter, r domain.Record) {
	t.Helper()
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		hay := strings.ToLower(r.CompanyName + "\x00" + r.ContactPerson + "\x00" + r.Notes)
		if !strings.Contains(hay, q) {
			t.Fatalf("record %s fails search %q", r.ID, f.Search)
		}
	}
	if len(f.Industries) > 0 && r.Industry != f.Industries[0] && r.Industry != f.Industries[1] {
		t.Fatalf("record %s fails industry %v", r.ID, f.Industries)
	}
	if f.LeadSource != All && r.LeadSource != f.LeadSource {
		t.Fatalf("record %s fails lead source %q", r.ID, f.LeadSource)
	}
	if f.SaleStage != All && r.SaleStage != f.SaleStage {
		t.Fatalf("record %s fails stage %q", r.ID, f.SaleStage)
	}
	if f.Product != All && !r.HasProduct(f.Product) {
		t.Fatalf("record %s fails product %q", r.ID, f.Product)
	}
	if len(f.Cities) > 0 && !strings.Contains(strings.ToLower(r.City), f.Cities[0]) {
		t.Fatalf("record %s fails city %v", r.ID, f.Cities)
	}
	if len(f.Owners) > 0 {
		lo := strings.ToLower(r.Owner)
		if !strings.Contains(lo, "ana") && !strings.Contains(lo, "carla") {
			t.Fatalf("record %s fails owner %v", r.ID, f.Owners)
		}
	}
	if f.MinDealValue != nil && r.DealValue < *f.MinDealValue {
		t.Fatalf("record %s fails min value %v", r.ID, *f.MinDealValue)
	}
}

func TestFilter_SubsetAndPredicate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	records := make([]domain.Record, 200)
	for i := range records {
		records[i] = randomRecord(rng, i)
	}
	ids := make(map[string]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}

	for iter := 0; iter < 300; iter++ {
		f := randomFilter(rng)
		got := f.Apply(records)
		if len(got) > len(records) {
			t.Fatalf("filter returned more records than input")
		}
		for _, r := range got {
			if !ids[r.ID] {
				t.Fatalf("filter invented record %s", r.ID)
			}
			satisfies(t, f, r)
		}
		// every excluded record must fail Match
		kept := make(map[string]bool, len(got))
		for _, r := range got {
			kept[r.ID] = true
		}
		for _, r := range records {
			if !kept[r.ID] && f.Match(r) {
				t.Fatalf("record %s matches but was excluded", r.ID)
			}
		}
	}
}

func TestFilter_ZeroValueKeepsAll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	records := []domain.Record{randomRecord(rng, 1), randomRecord(rng, 2)}
	if got := (Filter{}).Apply(records); len(got) != 2 {
		t.Fatalf("expected all records, got %d", len(got))
	}
}

func TestFilter_Dimensions(t *testing.T) {
	r := domain.Record{
		CompanyName:   "Constructora Norte",
		ContactPerson: "Luisa",
		Notes:         "Llamar el lunes",
		City:          "Ciudad Juárez",
		Owner:         "Ana María",
		Industry:      domain.IndustryConstruction,
		LeadSource:    domain.LeadSourceReferral,
		SaleStage:     domain.StageProposal,
		Product:       []string{"Piso Técnico"},
		DealValue:     1000,
	}
	minOK, minHigh := 1000.0, 1000.01

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"search notes", Filter{Search: "LUNES"}, true},
		{"search miss", Filter{Search: "hospital"}, false},
		{"industry set", Filter{Industries: []string{domain.IndustryRetail, domain.IndustryConstruction}}, true},
		{"industry miss", Filter{Industries: []string{domain.IndustryRetail}}, false},
		{"lead source all", Filter{LeadSource: All}, true},
		{"lead source miss", Filter{LeadSource: domain.LeadSourceEvent}, false},
		{"stage", Filter{SaleStage: domain.StageProposal}, true},
		{"product contains", Filter{Product: "Piso Técnico"}, true},
		{"product miss", Filter{Product: "Piso Conductivo"}, false},
		{"city substring", Filter{Cities: []string{"mty", "juárez"}}, true},
		{"city miss", Filter{Cities: []string{"puebla"}}, false},
		{"owner substring", Filter{Owners: []string{"ana"}}, true},
		{"min value inclusive", Filter{MinDealValue: &minOK}, true},
		{"min value above", Filter{MinDealValue: &minHigh}, false},
		{"and across dimensions", Filter{Search: "norte", SaleStage: domain.StageNew}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(r); got != tc.want {
				t.Fatalf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func reverse(rs []domain.Record) []domain.Record {
	out := make([]domain.Record, len(rs))
	for i, r := range rs {
		out[len(rs)-1-i] = r
	}
	return out
}

func TestSort_ReverseEqualsOpposite(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]domain.Record, 120)
	for i := range records {
		records[i] = randomRecord(rng, i)
		// unique keys so the comparison is a strict total order
		records[i].CompanyName = fmt.Sprintf("%s %03d", records[i].CompanyName, i)
		records[i].DealValue = float64(i*37%120) + 0.5
	}

	for _, field := range []string{"companyName", "dealValue", "id"} {
		asc := Sort{Field: field, Direction: Asc}.Apply(records)
		desc := Sort{Field: field, Direction: Desc}.Apply(records)
		if diff := cmp.Diff(reverse(asc), desc); diff != "" {
			t.Fatalf("%s: reversed asc != desc (-want +got):\n%s", field, diff)
		}
	}
}

func TestSort_NumericNotLexicographic(t *testing.T) {
	rs := []domain.Record{{ID: "a", DealValue: 900}, {ID: "b", DealValue: 10000}, {ID: "c", DealValue: 50}}
	got := Sort{Field: "dealValue", Direction: Asc}.Apply(rs)
	order := []string{got[0].ID, got[1].ID, got[2].ID}
	if diff := cmp.Diff([]string{"c", "a", "b"}, order); diff != "" {
		t.Fatalf("unexpected order:\n%s", diff)
	}
	if rs[0].ID != "a" {
		t.Fatalf("input slice was reordered")
	}
}

func TestSort_Toggle(t *testing.T) {
	s := Sort{}.Toggle("companyName")
	if s != (Sort{Field: "companyName", Direction: Asc}) {
		t.Fatalf("new field should start ascending, got %+v", s)
	}
	s = s.Toggle("companyName")
	if s.Direction != Desc {
		t.Fatalf("same field should flip, got %+v", s)
	}
	s = s.Toggle("dealValue")
	if s != (Sort{Field: "dealValue", Direction: Asc}) {
		t.Fatalf("switching field should reset to ascending, got %+v", s)
	}
}

func TestSort_Valid(t *testing.T) {
	if err := (Sort{Field: "dealValue", Direction: Desc}).Valid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Sort{Field: "password"}).Valid(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestWriteCSV_Products(t *testing.T) {
	rs := []domain.Record{
		{ID: "M-1", CompanyName: "Alfa", Website: "alfa.mx", ContactPerson: "Ana", ContactEmail: "a@alfa.mx", DealValue: 1500, SaleStage: domain.StageProposal, Product: []string{"A", "B"}},
		{ID: "M-2", CompanyName: "Beta, SA", DealValue: 0, SaleStage: domain.StageNew, Product: []string{}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rs); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"ID,Company,Website,Contact,Email,Value,Stage,Products",
		"M-1,Alfa,alfa.mx,Ana,a@alfa.mx,1500,Propuesta,A;B",
		`M-2,"Beta, SA",,,,0,Nuevo,`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	rs := []domain.Record{
		{Industry: domain.IndustryRetail, SaleStage: domain.StageClosedWon, DealValue: 1000},
		{Industry: domain.IndustryRetail, SaleStage: domain.StageClosedLost, DealValue: 5000},
		{Industry: domain.IndustryFinance, SaleStage: domain.StageProposal, DealValue: 2000},
		{SaleStage: domain.StageNew},
	}
	s := Summarize(rs)
	if s.TotalRecords != 4 || s.ClosedWon != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.PipelineValue != 3000 {
		t.Fatalf("expected pipeline 3000 excluding lost, got %v", s.PipelineValue)
	}
	if s.ConversionRate != 25 {
		t.Fatalf("expected 25%% conversion, got %v", s.ConversionRate)
	}
	if s.AverageValue != 750 {
		t.Fatalf("expected average 750, got %v", s.AverageValue)
	}
	if s.ValueByIndustry[domain.IndustryRetail] != 6000 || s.CountByIndustry[domain.IndustryOther] != 1 {
		t.Fatalf("unexpected industry breakdown %+v", s.ValueByIndustry)
	}
	if s.CountByStage[domain.StageClosedLost] != 1 {
		t.Fatalf("unexpected stage breakdown %+v", s.CountByStage)
	}

	empty := Summarize(nil)
	if empty.ConversionRate != 0 || empty.AverageValue != 0 {
		t.Fatalf("empty summary should be zero, got %+v", empty)
	}
}
