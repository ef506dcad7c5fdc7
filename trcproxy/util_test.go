package trcproxy_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/peterbourgon/calltrc/trcproxy"
)

func AssertEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Fatalf("want %v, have %v", want, have)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("error %v", err)
	}
}

func ExpectEqual[X comparable](t *testing.T, want, have X) {
	t.Helper()
	if want != have {
		t.Errorf("want %v, have %v", want, have)
	}
}

//
//
//

var errNotFound = errors.New("not found")

// Store is the capability interface of the test target.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, val string) error
	Len() int
}

type memStore struct {
	mtx   sync.Mutex
	data  map[string]string
	calls atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.calls.Add(1)
	s.mtx.Lock()
	defer s.mtx.Unlock()
	val, ok := s.data[key]
	if !ok {
		return "", errNotFound
	}
	return val, nil
}

func (s *memStore) Put(ctx context.Context, key, val string) error {
	s.calls.Add(1)
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.data[key] = val
	return nil
}

func (s *memStore) Len() int {
	s.calls.Add(1)
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.data)
}

// Join is not part of Store.
func (s *memStore) Join(sep string, keys ...string) string {
	return strings.Join(keys, sep)
}

type storeProxy struct{ p *trcproxy.Proxy }

func newStoreProxy(p *trcproxy.Proxy) Store { return storeProxy{p} }

func (s storeProxy) Get(ctx context.Context, key string) (string, error) {
	return trcproxy.Call1[string](s.p, ctx, "Get", key)
}

func (s storeProxy) Put(ctx context.Context, key, val string) error {
	return trcproxy.Call0(s.p, ctx, "Put", key, val)
}

func (s storeProxy) Len() int {
	n, _ := trcproxy.Call1[int](s.p, context.Background(), "Len")
	return n
}

// journal records advice events in order.
type journal struct {
	mtx    sync.Mutex
	events []string
}

func (j *journal) add(event string) {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	j.events = append(j.events, event)
}

func (j *journal) String() string {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	return strings.Join(j.events, " ")
}

func journalAdvice(j *journal, name string) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		j.add(name + ">" + inv.Method.Name)
		res, err := proceed(ctx)
		j.add(name + "<" + inv.Method.Name)
		return res, err
	})
}
