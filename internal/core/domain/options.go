package domain

import "fmt"

// Option list names, as used in the stored settings object.
const (
	ListOwners      = "owners"
	ListProducts    = "products"
	ListCities      = "cities"
	ListIndustries  = "industries"
	ListStages      = "stages"
	ListLeadSources = "leadSources"
)

// AppOptions holds the controlled vocabularies for classification fields.
type AppOptions struct {
	Owners      []string `json:"owners" bson:"owners"`
	Products    []string `json:"products" bson:"products"`
	Cities      []string `json:"cities" bson:"cities"`
	Industries  []string `json:"industries" bson:"industries"`
	Stages      []string `json:"stages" bson:"stages"`
	LeadSources []string `json:"leadSources" bson:"leadSources"`
}

// DefaultOptions returns a fresh copy of the built-in vocabulary.
func DefaultOptions() AppOptions {
	return AppOptions{
		Owners: []string{},
		Products: []string{
			"Piso Homogéneo",
			"Piso Heterogéneo",
			"Piso Conductivo",
			"Piso Técnico",
		},
		Cities: []string{
			"CDMX",
			"Monterrey",
			"Guadalajara",
			"Puebla",
			"Querétaro",
			"Mexicali",
			"Chihuahua",
			"Ciudad Juárez",
			"Hidalgo",
			"Saltillo",
			"Aguascalientes",
		},
		Industries:  append([]string(nil), Industries...),
		Stages:      append([]string(nil), SaleStages...),
		LeadSources: append([]string(nil), LeadSources...),
	}
}

// WithDefaults overlays o on top of the built-in defaults: any list left nil
// falls back to its default so no field is ever undefined. Owners default to
// an empty list.
func (o AppOptions) WithDefaults() AppOptions {
	d := DefaultOptions()
	pick := func(v, def []string) []string {
		if v == nil {
			return def
		}
		return append([]string{}, v...)
	}
	return AppOptions{
		Owners:      pick(o.Owners, d.Owners),
		Products:    pick(o.Products, d.Products),
		Cities:      pick(o.Cities, d.Cities),
		Industries:  pick(o.Industries, d.Industries),
		Stages:      pick(o.Stages, d.Stages),
		LeadSources: pick(o.LeadSources, d.LeadSources),
	}
}

// List returns a pointer to the named vocabulary.
func (o *AppOptions) List(name string) (*[]string, error) {
	switch name {
	case ListOwners:
		return &o.Owners, nil
	case ListProducts:
		return &o.Products, nil
	case ListCities:
		return &o.Cities, nil
	case ListIndustries:
		return &o.Industries, nil
	case ListStages:
		return &o.Stages, nil
	case ListLeadSources:
		return &o.LeadSources, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOptionList, name)
}

// HasOwner reports whether name is an exact (case-sensitive) owner entry.
func (o AppOptions) HasOwner(name string) bool {
	return contains(o.Owners, name)
}

// RenameOwner replaces every owner entry equal to oldName with newName.
// It returns false when oldName was not present.
func (o *AppOptions) RenameOwner(oldName, newName string) bool {
	changed := false
	seen := make(map[string]struct{}, len(o.Owners))
	out := make([]string, 0, len(o.Owners))
	for _, v := range o.Owners {
		if v == oldName {
			v = newName
			changed = true
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if changed {
		o.Owners = out
	}
	return changed
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
