package handlers

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"flyerflix/internal/domain"
	"flyerflix/internal/engagement"
	"flyerflix/internal/middleware"
	"flyerflix/internal/recommend"
)

// fakeSQL dispatches on the exact query constant, so each test declares the
// statements it expects and anything else fails loudly.
type fakeSQL struct {
	rowFns   map[string]func(args []any) func(dest ...any) error
	queryFns map[string]func(args []any) *fakeRows
	execFns  map[string]func(args []any) (pgconn.CommandTag, error)

	mu    sync.Mutex
	execs []string
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		rowFns:   map[string]func(args []any) func(dest ...any) error{},
		queryFns: map[string]func(args []any) *fakeRows{},
		execFns:  map[string]func(args []any) (pgconn.CommandTag, error){},
	}
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	f.execs = append(f.execs, query)
	f.mu.Unlock()
	if fn, ok := f.execFns[query]; ok {
		return fn(args)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if fn, ok := f.rowFns[query]; ok {
		return SimpleRow{scan: fn(args)}
	}
	return SimpleRow{}
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if fn, ok := f.queryFns[query]; ok {
		return fn(args), nil
	}
	return nil, fmt.Errorf("unexpected query: %.40s", query)
}

func (f *fakeSQL) execCount(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.execs {
		if q == query {
			n++
		}
	}
	return n
}

type fakeRows struct {
	TestRowsBase
	rows []func(dest ...any) error
	idx  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.idx-1](dest...) }

// scanValues produces a scanner assigning the given values positionally.
func scanValues(values ...any) func(dest ...any) error {
	return func(dest ...any) error {
		if len(dest) != len(values) {
			return fmt.Errorf("scan arity mismatch: %d dest, %d values", len(dest), len(values))
		}
		for i, src := range values {
			dst := reflect.ValueOf(dest[i]).Elem()
			if src == nil {
				dst.Set(reflect.Zero(dst.Type()))
				continue
			}
			dst.Set(reflect.ValueOf(src).Convert(dst.Type()))
		}
		return nil
	}
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	setPlan func(ctx context.Context, userID string, plan domain.UserPlan, maxDownloads int, resetUsage bool) (*domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) SetPlan(ctx context.Context, userID string, plan domain.UserPlan, maxDownloads int, resetUsage bool) (*domain.User, error) {
	if f.setPlan != nil {
		return f.setPlan(ctx, userID, plan, maxDownloads, resetUsage)
	}
	return nil, domain.ErrNotFound
}

type fakeWebhookRepo struct {
	mu       sync.Mutex
	recorded []*domain.WebhookEvent
	seen     map[string]bool
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{seen: map[string]bool{}}
}

func (f *fakeWebhookRepo) Record(ctx context.Context, event *domain.WebhookEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[event.ExternalID] {
		return "", domain.ErrDuplicateOperation
	}
	f.seen[event.ExternalID] = true
	f.recorded = append(f.recorded, event)
	return fmt.Sprintf("evt-row-%d", len(f.recorded)), nil
}

func (f *fakeWebhookRepo) NextPending(ctx context.Context) (*domain.WebhookEvent, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeWebhookRepo) MarkProcessed(ctx context.Context, id string) error { return nil }

func (f *fakeWebhookRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

var testClock = time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, sql *fakeSQL) (*App, *memKV) {
	t.Helper()
	kv := newMemKV()
	return &App{
		SQL:           sql,
		Logger:        zerolog.Nop(),
		JWTSecret:     "test-secret",
		Engagement:    engagement.NewStore(kv, zerolog.Nop()),
		Recommend:     recommend.New(nil),
		Users:         &fakeUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}},
		WebhookEvents: newFakeWebhookRepo(),
		WebhookSecret: "whsec_test",
		PriceDisplay:  "R$ 23,90/mes",
		QuotaLoc:      time.UTC,
		Now:           func() time.Time { return testClock },
	}, kv
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
