package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

func TestOptionsService_AdminOnly(t *testing.T) {
	svc := NewOptionsService(newTestStore(), nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Add(ctx, anaActor, domain.ListCities, "León"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Add: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Remove(ctx, anaActor, domain.ListCities, "CDMX"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Remove: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Save(ctx, anaActor, domain.DefaultOptions()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Save: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Reset(ctx, anaActor); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Reset: expected ErrForbidden, got %v", err)
	}
}

func TestOptionsService_AddRemove(t *testing.T) {
	notify := &recordedNotify{}
	svc := NewOptionsService(newTestStore(), notify.fn(), zerolog.Nop())
	ctx := context.Background()

	o, err := svc.Add(ctx, adminActor, domain.ListCities, " León ")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	again, _ := svc.Add(ctx, adminActor, domain.ListCities, "León")
	if diff := cmp.Diff(o.Cities, again.Cities); diff != "" {
		t.Fatalf("second Add changed the list (-first +second):\n%s", diff)
	}
	if got := again.Cities[len(again.Cities)-1]; got != "León" {
		t.Fatalf("expected trimmed value appended, got %q", got)
	}

	o, _ = svc.Remove(ctx, adminActor, domain.ListCities, "CDMX")
	for _, c := range o.Cities {
		if c == "CDMX" {
			t.Fatalf("CDMX still present: %v", o.Cities)
		}
	}

	if _, err := svc.Add(ctx, adminActor, "colors", "red"); !errors.Is(err, domain.ErrUnknownOptionList) {
		t.Fatalf("expected ErrUnknownOptionList, got %v", err)
	}
	if len(notify.topics) != 3 || notify.topics[0] != ports.CollectionSettings {
		t.Fatalf("unexpected notices %v", notify.topics)
	}
}

func TestOptionsService_SaveAndReset(t *testing.T) {
	svc := NewOptionsService(newTestStore(), nil, zerolog.Nop())
	ctx := context.Background()

	saved, err := svc.Save(ctx, adminActor, domain.AppOptions{Owners: []string{"Ana", " Ana", "", "Luis"}})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Ana", "Luis"}, saved.Owners); diff != "" {
		t.Fatalf("owners not normalised (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(domain.DefaultOptions().Products, saved.Products); diff != "" {
		t.Fatalf("missing lists should default (-want +got):\n%s", diff)
	}

	got, _ := svc.Get(ctx)
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Fatalf("stored options differ (-want +got):\n%s", diff)
	}

	reset, _ := svc.Reset(ctx, adminActor)
	if diff := cmp.Diff(domain.DefaultOptions(), reset); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
}
