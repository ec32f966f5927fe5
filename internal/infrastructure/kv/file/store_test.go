package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetGetRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "crm_data"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "crm_data", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	v, ok, err := s.Get(ctx, "crm_data")
	if err != nil || !ok || v != `[{"id":"1"}]` {
		t.Fatalf("unexpected Get result %q ok=%v err=%v", v, ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "crm_data.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	if err := s.Remove(ctx, "crm_data"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := s.Remove(ctx, "crm_data"); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "crm_data"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, _ := Open(dir)
	if err := s.Set(ctx, "crm_options", `{"owners":[]}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	reopened, _ := Open(dir)
	if v, ok, _ := reopened.Get(ctx, "crm_options"); !ok || v != `{"owners":[]}` {
		t.Fatalf("value not persisted, got %q", v)
	}
}

func TestStore_RejectsPathKeys(t *testing.T) {
	s, _ := Open(t.TempDir())
	if err := s.Set(context.Background(), "../escape", "x"); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
