package calltrc_test

import (
	"sync"
	"testing"

	"github.com/peterbourgon/calltrc"
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

type recorder struct {
	mtx   sync.Mutex
	lines []calltrc.Line
}

func (r *recorder) WriteLine(ln calltrc.Line) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.lines = append(r.lines, ln)
}

func (r *recorder) Lines() []calltrc.Line {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]calltrc.Line(nil), r.lines...)
}

func (r *recorder) Strings() []string {
	var res []string
	for _, ln := range r.Lines() {
		res = append(res, ln.String())
	}
	return res
}
