package persistence

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/altrapisos/crm/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubKV struct {
	mu     sync.Mutex
	data   map[string]string
	sets   int
	getErr error
	setErr error
}

func newStubKV() *stubKV {
	return &stubKV{data: make(map[string]string)}
}

func (kv *stubKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.getErr != nil {
		return "", false, kv.getErr
	}
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *stubKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.sets++
	kv.data[key] = value
	return nil
}

func (kv *stubKV) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

func (kv *stubKV) Ping(context.Context) error { return nil }
func (kv *stubKV) Close() error               { return nil }

func (kv *stubKV) snapshot() map[string]string {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	out := make(map[string]string, len(kv.data))
	for k, v := range kv.data {
		out[k] = v
	}
	return out
}

// yieldingKV hands the scheduler to other goroutines after every read so
// unguarded read-modify-writes interleave.
type yieldingKV struct {
	*stubKV
}

func (kv yieldingKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := kv.stubKV.Get(ctx, key)
	runtime.Gosched()
	return v, ok, err
}

type stubBackend struct {
	mu       sync.Mutex
	records  []domain.Record
	settings *domain.AppOptions
	users    []domain.User
	logs     []domain.AuditLog

	inserts     int
	ownerErrFor map[string]error
	watchCalls  chan func(string)
	watchDone   chan struct{}
}

func newStubBackend() *stubBackend {
	return &stubBackend{ownerErrFor: map[string]error{}}
}

func (b *stubBackend) ListRecords(context.Context) ([]domain.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Record, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (b *stubBackend) InsertRecords(_ context.Context, records []domain.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inserts++
	b.records = append(b.records, records...)
	return nil
}

func (b *stubBackend) UpsertRecord(_ context.Context, r domain.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.records {
		if b.records[i].ID == r.ID {
			b.records[i] = r
			return nil
		}
	}
	b.records = append(b.records, r)
	return nil
}

func (b *stubBackend) DeleteRecord(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.records {
		if b.records[i].ID == id {
			b.records = append(b.records[:i], b.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *stubBackend) SetRecordOwner(_ context.Context, id, owner string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ownerErrFor[id]; err != nil {
		return err
	}
	for i := range b.records {
		if b.records[i].ID == id {
			b.records[i].Owner = owner
		}
	}
	return nil
}

func (b *stubBackend) GetSettings(context.Context) (domain.AppOptions, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.settings == nil {
		return domain.AppOptions{}, false, nil
	}
	return *b.settings, true, nil
}

func (b *stubBackend) InsertSettings(_ context.Context, o domain.AppOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = &o
	return nil
}

func (b *stubBackend) UpsertSettings(ctx context.Context, o domain.AppOptions) error {
	return b.InsertSettings(ctx, o)
}

func (b *stubBackend) ListUsers(context.Context) ([]domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.User(nil), b.users...), nil
}

func (b *stubBackend) InsertUser(_ context.Context, u domain.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.users {
		if existing.Username == u.Username {
			return domain.ErrUserExists
		}
	}
	b.users = append(b.users, u)
	return nil
}

func (b *stubBackend) mutate(username string, fn func(*domain.User)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].Username == username {
			fn(&b.users[i])
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (b *stubBackend) UpdateUser(_ context.Context, username string, u domain.User) error {
	return b.mutate(username, func(dst *domain.User) { *dst = u })
}

func (b *stubBackend) SetUserProfile(_ context.Context, username, name, email string) error {
	return b.mutate(username, func(dst *domain.User) { dst.Name, dst.Email = name, email })
}

func (b *stubBackend) SetUserPassword(_ context.Context, username, password string) error {
	return b.mutate(username, func(dst *domain.User) { dst.Password = password })
}

func (b *stubBackend) DeleteUser(_ context.Context, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].Username == username {
			b.users = append(b.users[:i], b.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (b *stubBackend) ListLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]domain.AuditLog(nil), b.logs...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *stubBackend) InsertLog(_ context.Context, l domain.AuditLog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append([]domain.AuditLog{l}, b.logs...)
	return nil
}

// Watch hands fn to the test through watchCalls and blocks until cancelled.
func (b *stubBackend) Watch(ctx context.Context, _ []string, fn func(string)) error {
	if b.watchCalls != nil {
		b.watchCalls <- fn
	}
	<-ctx.Done()
	if b.watchDone != nil {
		close(b.watchDone)
	}
	return ctx.Err()
}

func (b *stubBackend) Ping(context.Context) error  { return nil }
func (b *stubBackend) Close(context.Context) error { return nil }

var errStub = errors.New("stub failure")
