package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/query"
)

// RecordService orchestrates record edits on top of the facade and keeps a
// snapshot of the full record set. The snapshot is never patched: any
// mutation or change notice drops it and the next read reloads everything.
type RecordService struct {
	store     ports.Store
	audit     *AuditService
	assistant ports.AssistantService
	notify    Notify
	ids       *idClock
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	cache  []domain.Record
	loaded bool
	gen    uint64
}

func NewRecordService(store ports.Store, audit *AuditService, assistant ports.AssistantService, notify Notify, logger zerolog.Logger) *RecordService {
	return &RecordService{
		store:     store,
		audit:     audit,
		assistant: assistant,
		notify:    notify,
		ids:       newIDClock(time.Now),
		logger:    logger,
		now:       time.Now,
	}
}

// Invalidate drops the snapshot. Safe to call from any goroutine.
func (s *RecordService) Invalidate() {
	s.mu.Lock()
	s.cache, s.loaded = nil, false
	s.gen++
	s.mu.Unlock()
}

func (s *RecordService) snapshot(ctx context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	if s.loaded {
		rs := s.cache
		s.mu.RUnlock()
		return rs, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	rs, err := s.store.GetRecords(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// a notice that arrived during the load wins
	if s.gen == gen {
		s.cache, s.loaded = rs, true
	}
	s.mu.Unlock()
	return rs, nil
}

// Template returns a blank record owned by actor with a fresh id.
func (s *RecordService) Template(actor domain.Actor) domain.Record {
	return domain.Record{
		ID:        s.ids.recordID(),
		DateAdded: s.now().Format(domain.DateLayout),
		Owner:     actor.Name,
		SaleStage: domain.StageNew,
		Product:   []string{},
	}
}

func (s *RecordService) List(ctx context.Context, f query.Filter, srt query.Sort) ([]domain.Record, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return srt.Apply(f.Apply(rs)), nil
}

func (s *RecordService) Get(ctx context.Context, id string) (domain.Record, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	for _, r := range rs {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return domain.Record{}, domain.ErrRecordNotFound
}

func canEdit(actor domain.Actor, r domain.Record) bool {
	return actor.IsAdmin() || r.Owner == actor.Name
}

// Save merges patch over the stored record with id (or over a blank record
// when none exists) and persists the full result.
func (s *RecordService) Save(ctx context.Context, actor domain.Actor, id string, patch domain.RecordPatch) (domain.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Record{}, fmt.Errorf("%w: missing id", domain.ErrInvalidRecord)
	}

	base := domain.Record{ID: id, Product: []string{}}
	existing, err := s.Get(ctx, id)
	switch {
	case err == nil:
		if !canEdit(actor, existing) {
			return domain.Record{}, domain.ErrForbidden
		}
		base = existing
	case !errors.Is(err, domain.ErrRecordNotFound):
		return domain.Record{}, err
	}

	merged := patch.Apply(base)
	merged.ID = id
	merged.Product = normalizeList(merged.Product)
	if merged.DealValue < 0 {
		return domain.Record{}, fmt.Errorf("%w: negative deal value", domain.ErrInvalidRecord)
	}
	if merged.Owner != "" && merged.Owner != base.Owner {
		opts, err := s.store.GetOptions(ctx)
		if err != nil {
			return domain.Record{}, err
		}
		if !opts.HasOwner(merged.Owner) {
			return domain.Record{}, fmt.Errorf("%w: %q", domain.ErrUnknownOwner, merged.Owner)
		}
	}

	if err := s.store.AddOrUpdateRecord(ctx, merged); err != nil {
		return domain.Record{}, err
	}
	s.changed()
	s.logger.Debug().Str("record_id", id).Str("username", actor.Username).Msg("record saved")
	return merged, nil
}

// Delete removes id. Deleting a missing record is not an error.
func (s *RecordService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	existing, err := s.Get(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return s.store.DeleteRecord(ctx, id)
	}
	if err != nil {
		return err
	}
	if !canEdit(actor, existing) {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// ExportCSV writes the filtered records as CSV and returns how many rows
// were written.
func (s *RecordService) ExportCSV(ctx context.Context, actor domain.Actor, f query.Filter, srt query.Sort, w io.Writer) (int, error) {
	rs, err := s.List(ctx, f, srt)
	if err != nil {
		return 0, err
	}
	if err := query.WriteCSV(w, rs); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	s.audit.record(ctx, actor, domain.ActionExportDownload, fmt.Sprintf("Downloaded CSV containing %d records.", len(rs)))
	return len(rs), nil
}

// EmailExport only records the request; no mail is sent.
func (s *RecordService) EmailExport(ctx context.Context, actor domain.Actor, f query.Filter, srt query.Sort) (int, error) {
	rs, err := s.List(ctx, f, srt)
	if err != nil {
		return 0, err
	}
	s.audit.record(ctx, actor, domain.ActionExportEmail, fmt.Sprintf("Emailed export of %d records to %s", len(rs), actor.Email))
	return len(rs), nil
}

// ApplySalesOrder parses text with the assistant and writes value, stage and
// an order note onto the record. Products are left as they are.
func (s *RecordService) ApplySalesOrder(ctx context.Context, actor domain.Actor, id, text string) (domain.Record, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Record{}, fmt.Errorf("%w: empty order text", domain.ErrInvalidRecord)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	if !canEdit(actor, r) {
		return domain.Record{}, domain.ErrForbidden
	}

	order := s.assistant.ParseSalesOrder(ctx, text)
	notes := r.Notes + "\n[Auto-Order]: " + order.Notes
	return s.Save(ctx, actor, id, domain.RecordPatch{
		DealValue: &order.DealValue,
		SaleStage: &order.SaleStage,
		Notes:     &notes,
	})
}

func (s *RecordService) Dashboard(ctx context.Context) (query.Summary, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return query.Summary{}, err
	}
	return query.Summarize(rs), nil
}

func (s *RecordService) changed() {
	s.Invalidate()
	s.notify.send(ports.CollectionRecords)
}
