package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// OptionsService manages the controlled vocabularies. Mutations are
// restricted to admins.
type OptionsService struct {
	store  ports.Store
	notify Notify
	logger zerolog.Logger
}

func NewOptionsService(store ports.Store, notify Notify, logger zerolog.Logger) *OptionsService {
	return &OptionsService{store: store, notify: notify, logger: logger}
}

func (s *OptionsService) Get(ctx context.Context) (domain.AppOptions, error) {
	return s.store.GetOptions(ctx)
}

// Save replaces the vocabulary wholesale, deduplicating each list.
func (s *OptionsService) Save(ctx context.Context, actor domain.Actor, o domain.AppOptions) (domain.AppOptions, error) {
	if !actor.IsAdmin() {
		return domain.AppOptions{}, domain.ErrForbidden
	}
	o = o.WithDefaults()
	for _, name := range []string{domain.ListOwners, domain.ListProducts, domain.ListCities, domain.ListIndustries, domain.ListStages, domain.ListLeadSources} {
		list, _ := o.List(name)
		*list = normalizeList(*list)
	}
	if err := s.store.SaveOptions(ctx, o); err != nil {
		return domain.AppOptions{}, err
	}
	s.changed()
	return o, nil
}

// Add appends value to list unless it is already present.
func (s *OptionsService) Add(ctx context.Context, actor domain.Actor, list, value string) (domain.AppOptions, error) {
	return s.mutate(ctx, actor, list, func(vs []string) []string {
		value = strings.TrimSpace(value)
		if value == "" || containsString(vs, value) {
			return vs
		}
		return append(vs, value)
	})
}

func (s *OptionsService) Remove(ctx context.Context, actor domain.Actor, list, value string) (domain.AppOptions, error) {
	return s.mutate(ctx, actor, list, func(vs []string) []string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if v != value {
				out = append(out, v)
			}
		}
		return out
	})
}

func (s *OptionsService) Reset(ctx context.Context, actor domain.Actor) (domain.AppOptions, error) {
	if !actor.IsAdmin() {
		return domain.AppOptions{}, domain.ErrForbidden
	}
	o, err := s.store.ResetOptions(ctx)
	if err != nil {
		return domain.AppOptions{}, err
	}
	s.logger.Info().Str("username", actor.Username).Msg("options reset to defaults")
	s.changed()
	return o, nil
}

func (s *OptionsService) mutate(ctx context.Context, actor domain.Actor, name string, fn func([]string) []string) (domain.AppOptions, error) {
	if !actor.IsAdmin() {
		return domain.AppOptions{}, domain.ErrForbidden
	}
	o, err := s.store.GetOptions(ctx)
	if err != nil {
		return domain.AppOptions{}, err
	}
	list, err := o.List(name)
	if err != nil {
		return domain.AppOptions{}, err
	}
	*list = fn(*list)
	if err := s.store.SaveOptions(ctx, o); err != nil {
		return domain.AppOptions{}, err
	}
	s.changed()
	return o, nil
}

func (s *OptionsService) changed() {
	s.notify.send(ports.CollectionSettings)
}

// normalizeList trims entries, drops blanks and keeps the first occurrence
// of each value.
func normalizeList(vs []string) []string {
	out := make([]string, 0, len(vs))
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsString(vs []string, v string) bool {
	for _, s := range vs {
		if s == v {
			return true
		}
	}
	return false
}
