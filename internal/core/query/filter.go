// Package query derives the visible record subset: filtering, sorting,
// dashboard aggregation and CSV rendering. Everything here is pure.
package query

import (
	"strings"

	"github.com/altrapisos/crm/internal/core/domain"
)

// All disables a single-value filter dimension.
const All = "All"

// Filter selects records for listing and export. Zero values impose no
// constraint, except that single-value fields also accept All.
type Filter struct {
	Search       string   `json:"search"`
	Industries   []string `json:"industries"`
	LeadSource   string   `json:"leadSource"`
	SaleStage    string   `json:"saleStage"`
	Product      string   `json:"product"`
	Cities       []string `json:"cities"`
	Owners       []string `json:"owners"`
	MinDealValue *float64 `json:"minDealValue,omitempty"`
}

// Match reports whether r passes every active dimension of f.
func (f Filter) Match(r domain.Record) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !containsFold(r.CompanyName, q) && !containsFold(r.ContactPerson, q) && !containsFold(r.Notes, q) {
			return false
		}
	}
	if len(f.Industries) > 0 && !anyEqual(f.Industries, r.Industry) {
		return false
	}
	if active(f.LeadSource) && r.LeadSource != f.LeadSource {
		return false
	}
	if active(f.SaleStage) && r.SaleStage != f.SaleStage {
		return false
	}
	if active(f.Product) && !r.HasProduct(f.Product) {
		return false
	}
	if len(f.Cities) > 0 && !anySubstring(f.Cities, r.City) {
		return false
	}
	if len(f.Owners) > 0 && !anySubstring(f.Owners, r.Owner) {
		return false
	}
	if f.MinDealValue != nil && r.DealValue < *f.MinDealValue {
		return false
	}
	return true
}

// Apply returns the records of rs that match f, preserving order.
func (f Filter) Apply(rs []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func active(v string) bool { return v != "" && v != All }

// containsFold expects lowerSub already lower-cased.
func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func anyEqual(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func anySubstring(subs []string, v string) bool {
	lv := strings.ToLower(v)
	for _, s := range subs {
		if strings.Contains(lv, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
