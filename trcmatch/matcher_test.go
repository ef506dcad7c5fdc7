package trcmatch_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterbourgon/calltrc/internal/example/app/member"
	"github.com/peterbourgon/calltrc/trcmatch"
)

const memberPkg = "github.com/peterbourgon/calltrc/internal/example/app/member"

func describeMember(t *testing.T, name string) trcmatch.Method {
	t.Helper()

	typ := reflect.TypeOf(&member.ServiceImpl{})
	m, ok := typ.MethodByName(name)
	if !ok {
		t.Fatalf("%s: no such method", name)
	}

	return trcmatch.Describe(typ, m, reflect.TypeOf((*member.Service)(nil)).Elem())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	hello := describeMember(t, "Hello")
	want := trcmatch.Method{
		Package:    memberPkg,
		Type:       "ServiceImpl",
		Name:       "Hello",
		Params:     []string{"string"},
		Results:    []string{"string"},
		Supertypes: []trcmatch.TypeRef{{Package: memberPkg, Name: "Service"}},
	}
	if diff := cmp.Diff(want, hello); diff != "" {
		t.Errorf("Hello (-want +have):\n%s", diff)
	}

	internal := describeMember(t, "Internal")
	if len(internal.Supertypes) != 0 {
		t.Errorf("Internal: unexpected supertypes %v", internal.Supertypes)
	}

	greet := describeMember(t, "Greet")
	AssertEqual(t, true, greet.Context)
	if diff := cmp.Diff([]string{"string", "int"}, greet.Params); diff != "" {
		t.Errorf("Greet params (-want +have):\n%s", diff)
	}
	AssertEqual(t, "(string, error)", greet.Result())
	AssertEqual(t, "ServiceImpl.Greet(string, int)", greet.Short())
}

func TestExecution(t *testing.T) {
	t.Parallel()

	hello := describeMember(t, "Hello")
	internal := describeMember(t, "Internal")

	for _, tc := range []struct {
		name   string
		expr   string
		method trcmatch.Method
		want   bool
	}{
		{"exact match", "execution(public string " + memberPkg + ".ServiceImpl.Hello(string))", hello, true},
		{"all match", "execution(* *(..))", hello, true},
		{"name match", "execution(* Hello(..))", hello, true},
		{"name prefix", "execution(* Hel*(..))", hello, true},
		{"name contains", "execution(* *el*(..))", hello, true},
		{"name suffix", "execution(* *llo(..))", hello, true},
		{"name mismatch", "execution(* nono(..))", hello, false},
		{"package exact type", "execution(* " + memberPkg + ".ServiceImpl.Hello(..))", hello, true},
		{"package any type", "execution(* " + memberPkg + ".*.*(..))", hello, true},
		{"parent package any type", "execution(* github.com/peterbourgon/calltrc/internal/example/app.*.*(..))", hello, false},
		{"package subtree", "execution(* " + memberPkg + "..*.*(..))", hello, true},
		{"parent package subtree", "execution(* github.com/peterbourgon/calltrc/internal/example..*.*(..))", hello, true},
		{"any package subtree", "execution(* *..ServiceImpl.*(..))", hello, true},
		{"type exact", "execution(* " + memberPkg + ".ServiceImpl.*(..))", hello, true},
		{"supertype", "execution(* " + memberPkg + ".Service.*(..))", hello, true},
		{"internal via concrete type", "execution(* " + memberPkg + ".ServiceImpl.*(..))", internal, true},
		{"internal via supertype", "execution(* " + memberPkg + ".Service.*(..))", internal, false},
		{"internal exact name", "execution(* " + memberPkg + ".ServiceImpl.Internal(..))", internal, true},
		{"internal exact name rejects hello", "execution(* " + memberPkg + ".ServiceImpl.Internal(..))", hello, false},
		{"type suffix wildcard", "execution(* *..*Impl.*(..))", hello, true},
		{"args exact", "execution(* *(string))", hello, true},
		{"args none", "execution(* *())", hello, false},
		{"args star", "execution(* *(*))", hello, true},
		{"args star star", "execution(* *(*, *))", hello, false},
		{"args any", "execution(* *(..))", hello, true},
		{"args complex", "execution(* *(string, ..))", hello, true},
		{"result mismatch", "execution(error *(..))", hello, false},
		{"within", "within(" + memberPkg + "..*)", hello, true},
		{"and", "execution(* *(..)) && execution(* Hello(..))", internal, false},
		{"or", "execution(* Hello(..)) || execution(* Internal(..))", internal, true},
		{"not", "!execution(* Hello(..))", internal, true},
		{"grouping", "!(execution(* Hello(..)) || within(*..Other))", hello, false},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := trcmatch.Parse(tc.expr)
			AssertNoError(t, err)
			if want, have := tc.want, m.Matches(tc.method); want != have {
				t.Errorf("%s vs. %s: want %v, have %v", tc.expr, tc.method, want, have)
			}
		})
	}
}

func TestContextParameterInvisible(t *testing.T) {
	t.Parallel()

	greet := describeMember(t, "Greet")
	for _, tc := range []struct {
		expr string
		want bool
	}{
		{"execution(* Greet(string, int))", true},
		{"execution(* Greet(string, ..))", true},
		{"execution(* Greet(context.Context, ..))", false},
		{"execution((string, error) Greet(..))", true},
		{"execution(string Greet(..))", false},
	} {
		AssertEqual(t, tc.want, trcmatch.MustParse(tc.expr).Matches(greet))
	}
}

func TestParams(t *testing.T) {
	t.Parallel()

	sig := func(params ...string) trcmatch.Method {
		return trcmatch.Method{Package: "app", Type: "T", Name: "F", Params: params}
	}

	for _, tc := range []struct {
		expr   string
		method trcmatch.Method
		want   bool
	}{
		{"execution(* *(string, ..))", sig("string"), true},
		{"execution(* *(string, ..))", sig("string", "int"), true},
		{"execution(* *(string, ..))", sig("string", "int", "int"), true},
		{"execution(* *(string, ..))", sig(), false},
		{"execution(* *(int, string))", sig("int", "string"), true},
		{"execution(* *(string, ..))", sig("int", "string"), false},
		{"execution(* *(..))", sig(), true},
		{"execution(* *(..))", sig("a", "b", "c"), true},
		{"execution(* *(*))", sig(), false},
		{"execution(* *(*))", sig("x"), true},
		{"execution(* *(*))", sig("x", "y"), false},
		{"execution(* *())", sig(), true},
		{"execution(* *())", sig("x"), false},
		{"execution(* *(.., error))", sig("int", "error"), true},
		{"execution(* *(.., error))", sig("error", "int"), false},
		{"execution(* *(map[string]int, func(int, int) error))", sig("map[string]int", "func(int, int) error"), true},
		{"execution(* *(func(int,int) error))", sig("func(int, int) error"), true},
	} {
		if want, have := tc.want, trcmatch.MustParse(tc.expr).Matches(tc.method); want != have {
			t.Errorf("%s vs. %s: want %v, have %v", tc.expr, tc.method, want, have)
		}
	}
}

func TestPackageSubtree(t *testing.T) {
	t.Parallel()

	m := trcmatch.MustParse("execution(* app/order..*.*(..))")
	for _, tc := range []struct {
		pkg  string
		want bool
	}{
		{"app/order", true},
		{"app/order/sub", true},
		{"app/order/sub/deeper", true},
		{"app/orderOther", false},
		{"app/orders/sub", false},
		{"app", false},
		{"other/app/order", false},
	} {
		method := trcmatch.Method{Package: tc.pkg, Type: "Type", Name: "Method"}
		if want, have := tc.want, m.Matches(method); want != have {
			t.Errorf("%s: want %v, have %v", tc.pkg, want, have)
		}
	}
}

type Base struct{}

func (Base) Ping() string { return "pong" }

type Derived struct{ Base }

func (Derived) Only() string { return "only" }

func TestEmbeddedSupertype(t *testing.T) {
	t.Parallel()

	methods := map[string]trcmatch.Method{}
	for _, m := range trcmatch.DescribeAll(reflect.TypeOf(Derived{})) {
		methods[m.Name] = m
	}
	AssertEqual(t, 2, len(methods))

	base := trcmatch.MustParse("execution(* *..Base.*(..))")
	AssertEqual(t, true, base.Matches(methods["Ping"]))
	AssertEqual(t, false, base.Matches(methods["Only"]))

	derived := trcmatch.MustParse("execution(* *..Derived.*(..))")
	AssertEqual(t, true, derived.Matches(methods["Ping"]))
	AssertEqual(t, true, derived.Matches(methods["Only"]))
}

func TestSyntaxErrors(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		"",
		"execution",
		"execution(",
		"execution(* *)",
		"execution(*(..))",
		"execution(* *(..)",
		"execution(* *(string,,int))",
		"execution(* *(..)) &&",
		"execution(* *(..)) extra",
		"call(* *(..))",
		"execution(* app/order..(..))",
		"execution(* .Hello(..))",
		"execution(* a..b.T.M(..))",
		"(execution(* *(..))",
		"within()",
	} {
		_, err := trcmatch.Parse(expr)
		var se *trcmatch.SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: want SyntaxError, have %v", expr, err)
		}
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	m := trcmatch.MustParse("execution(* Hello(..)) && !within(app..*)")
	AssertEqual(t, "(execution(* Hello(..)) && !within(app..*))", m.String())
}

func TestPublicModifierWhitespace(t *testing.T) {
	t.Parallel()

	hello := describeMember(t, "Hello")
	hidden := trcmatch.Method{Package: "app", Type: "T", Name: "hidden"}

	for _, expr := range []string{
		"execution(public * Hello(..))",
		"execution(public\t* Hello(..))",
		"execution(public\n  *  Hello(..))",
		"execution(  public   string\tHello(string))",
	} {
		m, err := trcmatch.Parse(expr)
		AssertNoError(t, err)
		AssertEqual(t, true, m.Matches(hello))
	}

	m, err := trcmatch.Parse("execution(public\t* *(..))")
	AssertNoError(t, err)
	AssertEqual(t, false, m.Matches(hidden))
}
