package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/altrapisos/crm/internal/core/domain"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Sort selects a field (by its JSON name) and a direction. An empty Field
// keeps the input order.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Toggle returns the sort state after the user picks field: the same field
// flips direction, a new field starts ascending.
func (s Sort) Toggle(field string) Sort {
	if s.Field == field {
		return Sort{Field: field, Direction: s.Direction.Opposite()}
	}
	return Sort{Field: field, Direction: Asc}
}

type fieldKey struct {
	text    func(domain.Record) string
	numeric func(domain.Record) float64
}

var sortFields = map[string]fieldKey{
	"id":               {text: func(r domain.Record) string { return r.ID }},
	"companyName":      {text: func(r domain.Record) string { return r.CompanyName }},
	"website":          {text: func(r domain.Record) string { return r.Website }},
	"contactPerson":    {text: func(r domain.Record) string { return r.ContactPerson }},
	"contactPhone":     {text: func(r domain.Record) string { return r.ContactPhone }},
	"contactEmail":     {text: func(r domain.Record) string { return r.ContactEmail }},
	"city":             {text: func(r domain.Record) string { return r.City }},
	"dateAdded":        {text: func(r domain.Record) string { return r.DateAdded }},
	"lastActivityDate": {text: func(r domain.Record) string { return r.LastActivityDate }},
	"nextActionDate":   {text: func(r domain.Record) string { return r.NextActionDate }},
	"nextAction":       {text: func(r domain.Record) string { return r.NextAction }},
	"owner":            {text: func(r domain.Record) string { return r.Owner }},
	"industry":         {text: func(r domain.Record) string { return r.Industry }},
	"leadSource":       {text: func(r domain.Record) string { return r.LeadSource }},
	"saleStage":        {text: func(r domain.Record) string { return r.SaleStage }},
	"product":          {text: func(r domain.Record) string { return strings.Join(r.Product, ",") }},
	"notes":            {text: func(r domain.Record) string { return r.Notes }},
	"dealValue":        {numeric: func(r domain.Record) float64 { return r.DealValue }},
}

// Valid reports whether s names a sortable field (or no field).
func (s Sort) Valid() error {
	if s.Field == "" {
		return nil
	}
	if _, ok := sortFields[s.Field]; !ok {
		return fmt.Errorf("unknown sort field %q", s.Field)
	}
	if s.Direction != "" && s.Direction != Asc && s.Direction != Desc {
		return fmt.Errorf("unknown sort direction %q", s.Direction)
	}
	return nil
}

// Apply sorts a copy of rs. Unknown fields leave the order unchanged.
func (s Sort) Apply(rs []domain.Record) []domain.Record {
	out := append([]domain.Record(nil), rs...)
	key, ok := sortFields[s.Field]
	if !ok {
		return out
	}

	less := func(a, b domain.Record) bool {
		if key.numeric != nil {
			return key.numeric(a) < key.numeric(b)
		}
		return key.text(a) < key.text(b)
	}
	if s.Direction == Desc {
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}
