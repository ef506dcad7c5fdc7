package trcmatch

import (
	"fmt"
	"path"
	"strings"
)

// nameKind is the shape of a name pattern.
type nameKind uint8

const (
	nameAny nameKind = iota
	nameExact
	namePrefix
	nameSuffix
	nameContains
	nameGlob
)

// namePattern matches identifiers, i.e. method names and type names.
type namePattern struct {
	kind nameKind
	text string
}

func compileName(s string) (namePattern, error) {
	switch {
	case s == "":
		return namePattern{}, fmt.Errorf("empty name pattern")
	case s == "*":
		return namePattern{kind: nameAny}, nil
	case strings.ContainsAny(s, "/. \t"):
		return namePattern{}, fmt.Errorf("invalid name pattern %q", s)
	case strings.ContainsAny(s, "?[\\"):
		return compileGlob(s)
	}

	switch stars := strings.Count(s, "*"); {
	case stars == 0:
		return namePattern{kind: nameExact, text: s}, nil
	case stars == 1 && strings.HasSuffix(s, "*"):
		return namePattern{kind: namePrefix, text: strings.TrimSuffix(s, "*")}, nil
	case stars == 1 && strings.HasPrefix(s, "*"):
		return namePattern{kind: nameSuffix, text: strings.TrimPrefix(s, "*")}, nil
	case stars == 2 && len(s) > 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*"):
		return namePattern{kind: nameContains, text: s[1 : len(s)-1]}, nil
	default:
		return compileGlob(s)
	}
}

func compileGlob(s string) (namePattern, error) {
	if _, err := path.Match(s, ""); err != nil {
		return namePattern{}, fmt.Errorf("invalid name pattern %q: %w", s, err)
	}
	return namePattern{kind: nameGlob, text: s}, nil
}

func (p namePattern) match(name string) bool {
	switch p.kind {
	case nameAny:
		return true
	case nameExact:
		return name == p.text
	case namePrefix:
		return strings.HasPrefix(name, p.text)
	case nameSuffix:
		return strings.HasSuffix(name, p.text)
	case nameContains:
		return strings.Contains(name, p.text)
	case nameGlob:
		ok, _ := path.Match(p.text, name)
		return ok
	default:
		return false
	}
}

func (p namePattern) String() string {
	switch p.kind {
	case nameAny:
		return "*"
	case namePrefix:
		return p.text + "*"
	case nameSuffix:
		return "*" + p.text
	case nameContains:
		return "*" + p.text + "*"
	default:
		return p.text
	}
}

//
//
//

// packageKind is the shape of a package pattern.
type packageKind uint8

const (
	packageAny packageKind = iota
	packageExact
	packageGlob
)

// packagePattern matches Go import paths. If subtree is set, the pattern also
// matches every package below the named one, where "below" is defined by path
// segments, so "app/order" never matches "app/orders".
type packagePattern struct {
	kind    packageKind
	text    string
	subtree bool
}

func compilePackage(s string, subtree bool) (packagePattern, error) {
	switch {
	case s == "" || s == "*":
		return packagePattern{kind: packageAny}, nil
	case strings.ContainsAny(s, " \t()"):
		return packagePattern{}, fmt.Errorf("invalid package pattern %q", s)
	case strings.HasSuffix(s, "/") || strings.HasPrefix(s, "/") || strings.Contains(s, "//"):
		return packagePattern{}, fmt.Errorf("invalid package pattern %q", s)
	case strings.ContainsAny(s, "*?["):
		if _, err := path.Match(s, ""); err != nil {
			return packagePattern{}, fmt.Errorf("invalid package pattern %q: %w", s, err)
		}
		return packagePattern{kind: packageGlob, text: s, subtree: subtree}, nil
	default:
		return packagePattern{kind: packageExact, text: s, subtree: subtree}, nil
	}
}

func (p packagePattern) match(pkg string) bool {
	if p.kind == packageAny {
		return true
	}

	if p.matchOne(pkg) {
		return true
	}

	if !p.subtree {
		return false
	}

	for i := len(pkg) - 1; i > 0; i-- {
		if pkg[i] == '/' && p.matchOne(pkg[:i]) {
			return true
		}
	}

	return false
}

func (p packagePattern) matchOne(pkg string) bool {
	switch p.kind {
	case packageExact:
		return pkg == p.text
	case packageGlob:
		ok, _ := path.Match(p.text, pkg)
		return ok
	default:
		return true
	}
}

func (p packagePattern) String() string {
	s := p.text
	if p.kind == packageAny {
		s = "*"
	}
	if p.subtree {
		s += "."
	}
	return s
}

//
//
//

// typePattern matches a declaring type, or any of its supertypes.
type typePattern struct {
	pkg  packagePattern
	name namePattern
}

func (p typePattern) matchRef(ref TypeRef) bool {
	return p.name.match(ref.Name) && p.pkg.match(ref.Package)
}

func (p typePattern) match(m Method) bool {
	if p.matchRef(m.Declarer()) {
		return true
	}
	for _, ref := range m.Supertypes {
		if p.matchRef(ref) {
			return true
		}
	}
	return false
}

func (p typePattern) String() string {
	if p.pkg.kind == packageAny && !p.pkg.subtree {
		return p.name.String()
	}
	return p.pkg.String() + "." + p.name.String()
}

// parseTypePattern parses declaring type patterns of the forms
//
//	Type                     any package
//	pkg/path.Type            exactly that package
//	pkg/path..Type           that package or any package below it
//	*..Type                  any package
//
// where Type may itself contain wildcards.
func parseTypePattern(s string) (typePattern, error) {
	var (
		pkgText  string
		nameText string
		subtree  bool
	)
	switch i, j := strings.LastIndex(s, ".."), strings.LastIndex(s, "."); {
	case i >= 0 && i == j-1:
		pkgText, nameText, subtree = s[:i], s[i+2:], true
		if pkgText == "" {
			return typePattern{}, fmt.Errorf("missing package before %q", "..")
		}
	case j >= 0:
		pkgText, nameText = s[:j], s[j+1:]
		if pkgText == "" || strings.Contains(pkgText, "..") {
			return typePattern{}, fmt.Errorf("invalid package in type pattern %q", s)
		}
	default:
		nameText = s
	}

	if pkgText == "*" && subtree {
		pkgText, subtree = "", false
	}

	pkg, err := compilePackage(pkgText, subtree)
	if err != nil {
		return typePattern{}, err
	}

	if strings.Contains(nameText, "/") {
		return typePattern{}, fmt.Errorf("invalid type pattern %q: missing type name", s)
	}

	name, err := compileName(nameText)
	if err != nil {
		return typePattern{}, err
	}

	return typePattern{pkg: pkg, name: name}, nil
}

//
//
//

// paramKind is the shape of a single parameter slot.
type paramKind uint8

const (
	paramExact paramKind = iota // exactly this type
	paramAny                    // `*`, exactly one parameter of any type
	paramRest                   // `..`, zero or more parameters of any type
)

type paramSlot struct {
	kind paramKind
	text string
}

// paramPattern matches parameter lists.
type paramPattern []paramSlot

func parseParams(s string) (paramPattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return paramPattern{}, nil
	}

	var res paramPattern
	for _, field := range splitParams(s) {
		field = normalizeType(field)
		switch field {
		case "":
			return nil, fmt.Errorf("empty parameter in %q", s)
		case "..":
			res = append(res, paramSlot{kind: paramRest})
		case "*":
			res = append(res, paramSlot{kind: paramAny})
		default:
			if strings.Contains(field, "..") {
				return nil, fmt.Errorf("invalid parameter %q", field)
			}
			res = append(res, paramSlot{kind: paramExact, text: field})
		}
	}
	return res, nil
}

// splitParams splits on commas that aren't nested inside brackets or
// parentheses, so that types like map[string]int or func(int, int) survive.
func splitParams(s string) []string {
	var (
		res   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				res = append(res, s[start:i])
				start = i + 1
			}
		}
	}
	return append(res, s[start:])
}

// normalizeType trims and removes insignificant whitespace, so that patterns
// like "func(int,int)" and "func(int, int)" are equivalent. Spaces that
// separate keywords, like "chan int", are kept.
func normalizeType(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			prev := fields[i-1]
			last := prev[len(prev)-1]
			if last != ',' && last != '(' && f[0] != ')' {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(f)
	}
	return strings.ReplaceAll(sb.String(), ",", ", ")
}

func (pp paramPattern) match(params []string) bool {
	if len(pp) == 0 {
		return len(params) == 0
	}

	switch head := pp[0]; head.kind {
	case paramRest:
		for i := 0; i <= len(params); i++ {
			if pp[1:].match(params[i:]) {
				return true
			}
		}
		return false
	case paramAny:
		return len(params) > 0 && pp[1:].match(params[1:])
	default:
		return len(params) > 0 && normalizeType(params[0]) == head.text && pp[1:].match(params[1:])
	}
}

func (pp paramPattern) String() string {
	strs := make([]string, len(pp))
	for i, slot := range pp {
		switch slot.kind {
		case paramRest:
			strs[i] = ".."
		case paramAny:
			strs[i] = "*"
		default:
			strs[i] = slot.text
		}
	}
	return "(" + strings.Join(strs, ", ") + ")"
}
