package trcmatch

import (
	"context"
	"reflect"
	"strings"
)

// TypeRef names a Go type by its package import path and its name.
type TypeRef struct {
	Package string
	Name    string
}

// String returns the qualified name, e.g. "example.com/app/order.Service".
func (ref TypeRef) String() string {
	if ref.Package == "" {
		return ref.Name
	}
	return ref.Package + "." + ref.Name
}

// Method is a plain description of a method signature, which is what matchers
// evaluate. Descriptors are built once, when a proxy is constructed, so that no
// reflection is required to match individual calls.
type Method struct {
	// Package is the import path of the declaring type.
	Package string

	// Type is the name of the declaring type, without the package.
	Type string

	// Name is the method name.
	Name string

	// Params are the parameter type strings, as rendered by reflect, e.g.
	// "string" or "*order.Item". A leading context.Context is not included.
	Params []string

	// Results are the result type strings.
	Results []string

	// Supertypes are the interfaces, and embedded types, that also declare
	// the method. A pattern naming a supertype matches the method.
	Supertypes []TypeRef

	// Context is true if the first parameter is a context.Context.
	Context bool

	// Variadic is true if the final parameter is variadic.
	Variadic bool
}

// Declarer returns the declaring type.
func (m Method) Declarer() TypeRef {
	return TypeRef{Package: m.Package, Name: m.Type}
}

// Result renders the results in the form matched by return type patterns: the
// single type for one result, and a parenthesized list otherwise.
func (m Method) Result() string {
	if len(m.Results) == 1 {
		return m.Results[0]
	}
	return "(" + strings.Join(m.Results, ", ") + ")"
}

// Short renders the method as "Type.Name(params)", which is a good default
// message for trace lines.
func (m Method) Short() string {
	var sb strings.Builder
	if m.Type != "" {
		sb.WriteString(m.Type)
		sb.WriteString(".")
	}
	sb.WriteString(m.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(m.Params, ", "))
	sb.WriteString(")")
	return sb.String()
}

// String renders the full signature, e.g.
// "example.com/app/order.OrderService.OrderItem(string) error".
func (m Method) String() string {
	s := m.Short()
	if pkg := m.Package; pkg != "" {
		s = pkg + "." + s
	}
	if len(m.Results) > 0 {
		s += " " + m.Result()
	}
	return s
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Describe builds the descriptor for method m of type t. If t is a pointer,
// the declaring type is the pointed-to type. Any of the given supertypes that
// are interfaces implemented by t and declaring a method of the same name are
// recorded as supertypes of the method, as are embedded fields of t that
// declare it.
func Describe(t reflect.Type, m reflect.Method, supertypes ...reflect.Type) Method {
	named := t
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}

	desc := Method{
		Package:  named.PkgPath(),
		Type:     named.Name(),
		Name:     m.Name,
		Variadic: m.Type.IsVariadic(),
	}

	first := 0
	if t.Kind() != reflect.Interface {
		first = 1 // receiver
	}

	mt := m.Type
	for i := first; i < mt.NumIn(); i++ {
		in := mt.In(i)
		if i == first && in == contextType {
			desc.Context = true
			continue
		}
		desc.Params = append(desc.Params, in.String())
	}
	for i := 0; i < mt.NumOut(); i++ {
		desc.Results = append(desc.Results, mt.Out(i).String())
	}

	for _, st := range supertypes {
		for st != nil && st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		if st == nil || st.Kind() != reflect.Interface || st == t {
			continue
		}
		if !t.Implements(st) {
			continue
		}
		if _, ok := st.MethodByName(m.Name); !ok {
			continue
		}
		desc.Supertypes = appendRef(desc.Supertypes, TypeRef{Package: st.PkgPath(), Name: st.Name()})
	}

	desc.Supertypes = appendEmbedded(desc.Supertypes, named, m.Name, 0)

	return desc
}

// DescribeAll describes every exported method of t, in the order reported by
// reflect.
func DescribeAll(t reflect.Type, supertypes ...reflect.Type) []Method {
	res := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		res = append(res, Describe(t, m, supertypes...))
	}
	return res
}

const maxEmbedDepth = 8

// appendEmbedded walks the anonymous fields of struct type t and records every
// embedded type that declares the named method. Those methods are promoted to
// t, so a pattern naming the embedded type should still match them.
func appendEmbedded(refs []TypeRef, t reflect.Type, name string, depth int) []TypeRef {
	if t.Kind() != reflect.Struct || depth > maxEmbedDepth {
		return refs
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		ft := f.Type
		if _, ok := ft.MethodByName(name); !ok {
			if _, ok := reflect.PointerTo(ft).MethodByName(name); !ok {
				continue
			}
		}

		named := ft
		if named.Kind() == reflect.Pointer {
			named = named.Elem()
		}
		if named.Name() != "" {
			refs = appendRef(refs, TypeRef{Package: named.PkgPath(), Name: named.Name()})
		}
		refs = appendEmbedded(refs, named, name, depth+1)
	}

	return refs
}

func appendRef(refs []TypeRef, ref TypeRef) []TypeRef {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	return append(refs, ref)
}
