package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

func TestBackup_RoundTripIntoFreshStore(t *testing.T) {
	ctx := context.Background()
	src := newTestLocalStore(newStubKV())

	if err := src.AddOrUpdateRecord(ctx, domain.Record{ID: "M-1", CompanyName: "Alfa", Product: []string{"Piso Técnico"}, DealValue: 10}); err != nil {
		t.Fatalf("AddOrUpdateRecord returned error: %v", err)
	}
	_ = src.AddOwner(ctx, "Ana")
	_ = src.AddLogEntry(ctx, domain.AuditLog{ID: "l1", Action: domain.ActionLogin, Details: "Logged in"})
	_ = src.InsertUser(ctx, domain.DefaultAdmin())

	b, err := src.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("CreateBackup returned error: %v", err)
	}
	if b.Version != domain.BackupVersion || b.Source != domain.SourceLocal || b.Data == nil {
		t.Fatalf("unexpected backup envelope: %+v", b)
	}

	var buf bytes.Buffer
	if err := WriteBackup(&buf, b); err != nil {
		t.Fatalf("WriteBackup returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"version\"") {
		t.Fatalf("expected two-space indented output, got %s", buf.String())
	}

	dst := newTestLocalStore(newStubKV())
	res, err := dst.RestoreBackup(ctx, &buf)
	if err != nil {
		t.Fatalf("RestoreBackup returned error: %v", err)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning in local mode: %q", res.Warning)
	}

	wantRecords, _ := src.GetRecords(ctx)
	gotRecords, _ := dst.GetRecords(ctx)
	if diff := cmp.Diff(wantRecords, gotRecords); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	wantOpts, _ := src.GetOptions(ctx)
	gotOpts, _ := dst.GetOptions(ctx)
	if diff := cmp.Diff(wantOpts, gotOpts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	wantUsers, _ := src.GetUsers(ctx)
	gotUsers, _ := dst.GetUsers(ctx)
	if diff := cmp.Diff(wantUsers, gotUsers); diff != "" {
		t.Fatalf("users mismatch (-want +got):\n%s", diff)
	}
	wantLogs, _ := src.GetLogs(ctx)
	gotLogs, _ := dst.GetLogs(ctx)
	if diff := cmp.Diff(wantLogs, gotLogs); diff != "" {
		t.Fatalf("logs mismatch (-want +got):\n%s", diff)
	}
}

func TestBackup_UsersAbsentIsNull(t *testing.T) {
	s := newTestLocalStore(newStubKV())
	b, err := s.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("CreateBackup returned error: %v", err)
	}
	if b.Data.Users != nil {
		t.Fatalf("expected null users section, got %q", *b.Data.Users)
	}
	raw, _ := json.Marshal(b)
	if !strings.Contains(string(raw), `"users":null`) {
		t.Fatalf("expected users:null in %s", raw)
	}
}

func TestRestore_RejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"missing data": `{"version":"1.0","timestamp":"2026-01-01T00:00:00Z","source":"local"}`,
		"null data":    `{"version":"1.0","data":null}`,
		"not json":     `{"version":`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			kv := newStubKV()
			kv.data[ports.KeyRecords] = `[{"id":"keep","product":[]}]`
			s := newTestLocalStore(kv)
			before := kv.snapshot()

			_, err := s.RestoreBackup(context.Background(), strings.NewReader(input))
			if !errors.Is(err, domain.ErrInvalidBackup) {
				t.Fatalf("expected ErrInvalidBackup, got %v", err)
			}
			if diff := cmp.Diff(before, kv.snapshot()); diff != "" {
				t.Fatalf("storage changed on rejected restore:\n%s", diff)
			}
		})
	}
}

func TestRestore_SkipsAbsentSections(t *testing.T) {
	kv := newStubKV()
	kv.data[ports.KeyUsers] = `[{"username":"mharari"}]`
	s := newTestLocalStore(kv)

	input := `{"version":"1.0","data":{"records":"[]","options":null,"users":null,"logs":"[]"}}`
	if _, err := s.RestoreBackup(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("RestoreBackup returned error: %v", err)
	}
	got := kv.snapshot()
	if got[ports.KeyRecords] != "[]" || got[ports.KeyAuditLogs] != "[]" {
		t.Fatalf("present sections not written: %+v", got)
	}
	if got[ports.KeyUsers] != `[{"username":"mharari"}]` {
		t.Fatalf("absent users section should leave blob untouched, got %q", got[ports.KeyUsers])
	}
	if _, ok := got[ports.KeyOptions]; ok {
		t.Fatalf("absent options section should not be written")
	}
}
