package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/persistence"
	"github.com/altrapisos/crm/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (kv *memKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *memKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

func (kv *memKV) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

func (kv *memKV) Ping(context.Context) error { return nil }
func (kv *memKV) Close() error               { return nil }

// countingStore wraps the local facade and counts record reloads.
type countingStore struct {
	ports.Store
	mu    sync.Mutex
	loads int
}

func (s *countingStore) GetRecords(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.Store.GetRecords(ctx)
}

func newTestStore() *countingStore {
	return &countingStore{Store: persistence.NewLocalStore(newMemKV(), zerolog.Nop())}
}

type stubGenerator struct {
	out  string
	err  error
	reqs []ports.GenerateRequest
}

func (g *stubGenerator) Generate(_ context.Context, req ports.GenerateRequest) (string, error) {
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

type recordedNotify struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordedNotify) fn() Notify {
	return func(topic string) {
		n.mu.Lock()
		n.topics = append(n.topics, topic)
		n.mu.Unlock()
	}
}

var (
	adminActor = domain.DefaultAdmin().Actor()
	anaActor   = domain.Actor{Username: "ana", Email: "ana@altra.mx", Name: "Ana", Role: domain.RoleUser}
)
