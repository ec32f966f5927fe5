package bolt

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if _, ok, err := s.Get(ctx, "crm_users"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "crm_users", `[]`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer s.Close()
	if v, ok, _ := s.Get(ctx, "crm_users"); !ok || v != `[]` {
		t.Fatalf("value not persisted, got %q ok=%v", v, ok)
	}
	if err := s.Remove(ctx, "crm_users"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "crm_users"); ok {
		t.Fatalf("expected key removed")
	}
}
