package trcadvice_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/zoobzio/clockz"
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

//
//
//

type recorder struct {
	mtx   sync.Mutex
	lines []string
}

func (r *recorder) WriteLine(ln calltrc.Line) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.lines = append(r.lines, ln.String())
}

func (r *recorder) Strings() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]string(nil), r.lines...)
}

func newTestTracer() (*calltrc.Tracer, *recorder) {
	var (
		rec   = &recorder{}
		clock = clockz.NewFakeClockAt(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC))
	)
	return calltrc.NewTracer(calltrc.WithSink(rec), calltrc.WithClock(clock)), rec
}

//
//
//

var errIllegalItem = errors.New("illegal item")

type Repository interface {
	Save(ctx context.Context, item string) error
}

type repository struct {
	calls atomic.Int64
}

func (r *repository) Save(ctx context.Context, item string) error {
	r.calls.Add(1)
	if item == "ex" {
		return errIllegalItem
	}
	return nil
}

type repositoryProxy struct{ p *trcproxy.Proxy }

func (r repositoryProxy) Save(ctx context.Context, item string) error {
	return trcproxy.Call0(r.p, ctx, "Save", item)
}

func newRepositoryProxy(p *trcproxy.Proxy) Repository { return repositoryProxy{p} }

type Service interface {
	Order(ctx context.Context, item string) error
	Price(ctx context.Context, item string) (int, error)
}

type service struct {
	repo   Repository
	priced atomic.Int64
}

func (s *service) Order(ctx context.Context, item string) error {
	return s.repo.Save(ctx, item)
}

func (s *service) Price(ctx context.Context, item string) (int, error) {
	s.priced.Add(1)
	if item == "ex" {
		return 0, errIllegalItem
	}
	return len(item) * 100, nil
}

type serviceProxy struct{ p *trcproxy.Proxy }

func (s serviceProxy) Order(ctx context.Context, item string) error {
	return trcproxy.Call0(s.p, ctx, "Order", item)
}

func (s serviceProxy) Price(ctx context.Context, item string) (int, error) {
	return trcproxy.Call1[int](s.p, ctx, "Price", item)
}

func newServiceProxy(p *trcproxy.Proxy) Service { return serviceProxy{p} }
