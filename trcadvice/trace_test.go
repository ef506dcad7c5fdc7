package trcadvice_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/trcadvice"
	"github.com/peterbourgon/calltrc/trcproxy"
)

func buildTraced(t *testing.T, tracer *calltrc.Tracer, options ...trcadvice.LogTraceOption) (Service, *repository) {
	t.Helper()

	policies := []trcproxy.Policy{
		trcproxy.MustPolicy("trace", "execution(* *(..))", trcadvice.LogTrace(tracer, options...)),
	}

	repo := &repository{}
	r, err := trcproxy.Build[Repository](repo, policies, newRepositoryProxy)
	AssertNoError(t, err)

	s, err := trcproxy.Build[Service](&service{repo: r}, policies, newServiceProxy)
	AssertNoError(t, err)

	return s, repo
}

// stripIDs replaces the trace ID of each line with "ID", and returns the set
// of distinct IDs that were seen.
func stripIDs(lines []string) ([]string, map[string]bool) {
	var (
		res = make([]string, len(lines))
		ids = map[string]bool{}
	)
	for i, ln := range lines {
		end := strings.Index(ln, "]")
		ids[ln[1:end]] = true
		res[i] = "[ID" + ln[end:]
	}
	return res, ids
}

func TestLogTrace(t *testing.T) {
	t.Parallel()

	tracer, rec := newTestTracer()
	s, _ := buildTraced(t, tracer)

	AssertNoError(t, s.Order(context.Background(), "itemA"))

	lines, ids := stripIDs(rec.Strings())
	AssertEqual(t, 1, len(ids))

	want := []string{
		"[ID] --> service.Order(string)",
		"[ID] | --> repository.Save(string)",
		"[ID] | <-- repository.Save(string) time=0ms",
		"[ID] <-- service.Order(string) time=0ms",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("lines (-want +have):\n%s", diff)
	}
}

func TestLogTraceException(t *testing.T) {
	t.Parallel()

	tracer, rec := newTestTracer()
	s, repo := buildTraced(t, tracer)

	err := s.Order(context.Background(), "ex")
	if err != errIllegalItem {
		t.Fatalf("want %v (identical), have %v", errIllegalItem, err)
	}
	AssertEqual(t, int64(1), repo.calls.Load())

	lines, _ := stripIDs(rec.Strings())
	want := []string{
		"[ID] --> service.Order(string)",
		"[ID] | --> repository.Save(string)",
		"[ID] | <X- repository.Save(string) time=0ms ex=illegal item",
		"[ID] <X- service.Order(string) time=0ms ex=illegal item",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("lines (-want +have):\n%s", diff)
	}
}

func TestLogTraceSeparateChains(t *testing.T) {
	t.Parallel()

	tracer, rec := newTestTracer()
	s, _ := buildTraced(t, tracer)

	AssertNoError(t, s.Order(context.Background(), "a"))
	AssertNoError(t, s.Order(context.Background(), "b"))

	_, ids := stripIDs(rec.Strings())
	AssertEqual(t, 2, len(ids))
}

func TestLogTraceContinuesChain(t *testing.T) {
	t.Parallel()

	tracer, rec := newTestTracer()
	s, _ := buildTraced(t, tracer, trcadvice.WithPrefix("app: "))

	err := tracer.Trace(context.Background(), "request", func(ctx context.Context) error {
		return s.Order(ctx, "itemA")
	})
	AssertNoError(t, err)

	lines, ids := stripIDs(rec.Strings())
	AssertEqual(t, 1, len(ids))

	want := []string{
		"[ID] --> request",
		"[ID] | --> app: service.Order(string)",
		"[ID] | | --> app: repository.Save(string)",
		"[ID] | | <-- app: repository.Save(string) time=0ms",
		"[ID] | <-- app: service.Order(string) time=0ms",
		"[ID] <-- request time=0ms",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("lines (-want +have):\n%s", diff)
	}
}

func TestLogTraceMessage(t *testing.T) {
	t.Parallel()

	tracer, rec := newTestTracer()
	s, _ := buildTraced(t, tracer, trcadvice.WithMessage(func(inv *trcproxy.Invocation) string {
		return strings.ToLower(inv.Method.Name)
	}))

	price, err := s.Price(context.Background(), "abc")
	AssertNoError(t, err)
	AssertEqual(t, 300, price)

	lines, _ := stripIDs(rec.Strings())
	if diff := cmp.Diff([]string{"[ID] --> price", "[ID] <-- price time=0ms"}, lines); diff != "" {
		t.Errorf("lines (-want +have):\n%s", diff)
	}
}
