package trcmatch

import (
	"fmt"
	"go/token"
	"strings"
)

// Matcher decides whether a method is selected by a pointcut.
//
// Implementations are immutable after construction and safe for concurrent
// use.
type Matcher interface {
	// Matches returns true if the method is selected.
	Matches(m Method) bool

	// String returns the canonical form of the expression.
	String() string
}

// Any matches every method.
var Any Matcher = MustParse("execution(* *(..))")

//
//
//

// execution matches method signatures. Sub-patterns are evaluated in order of
// how selective they usually are, and evaluation stops at the first failure.
type execution struct {
	public  bool
	result  string // normalized, "*" for any
	decl    *typePattern
	name    namePattern
	params  paramPattern
	literal string
}

func (e *execution) Matches(m Method) bool {
	if e.decl != nil && !e.decl.match(m) {
		return false
	}
	if !e.name.match(m.Name) {
		return false
	}
	if !e.params.match(m.Params) {
		return false
	}
	if e.public && !token.IsExported(m.Name) {
		return false
	}
	if e.result != "*" && e.result != normalizeType(m.Result()) {
		return false
	}
	return true
}

func (e *execution) String() string {
	return e.literal
}

// within matches every method declared by a matching type.
type within struct {
	decl    typePattern
	literal string
}

func (w *within) Matches(m Method) bool { return w.decl.match(m) }
func (w *within) String() string        { return w.literal }

type and struct{ left, right Matcher }

func (a *and) Matches(m Method) bool { return a.left.Matches(m) && a.right.Matches(m) }
func (a *and) String() string        { return "(" + a.left.String() + " && " + a.right.String() + ")" }

type or struct{ left, right Matcher }

func (o *or) Matches(m Method) bool { return o.left.Matches(m) || o.right.Matches(m) }
func (o *or) String() string        { return "(" + o.left.String() + " || " + o.right.String() + ")" }

type not struct{ inner Matcher }

func (n *not) Matches(m Method) bool { return !n.inner.Matches(m) }
func (n *not) String() string        { return "!" + n.inner.String() }

// And returns a matcher selecting methods selected by every given matcher.
func And(first Matcher, rest ...Matcher) Matcher {
	m := first
	for _, r := range rest {
		m = &and{left: m, right: r}
	}
	return m
}

// Or returns a matcher selecting methods selected by any given matcher.
func Or(first Matcher, rest ...Matcher) Matcher {
	m := first
	for _, r := range rest {
		m = &or{left: m, right: r}
	}
	return m
}

// Not returns a matcher selecting methods not selected by m.
func Not(m Matcher) Matcher {
	return &not{inner: m}
}

//
//
//

// SyntaxError describes a malformed pointcut expression.
type SyntaxError struct {
	Expr   string // complete expression
	Offset int    // byte offset of the problem in Expr
	Msg    string
}

// Error implements error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pointcut %q: offset %d: %s", e.Expr, e.Offset, e.Msg)
}

// MustParse is like Parse, but panics on error. It's meant for expressions
// which are constants in the program.
func MustParse(expr string) Matcher {
	m, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse a pointcut expression. The grammar is
//
//	expr       = term { "||" term }
//	term       = factor { "&&" factor }
//	factor     = "!" factor | "(" expr ")" | designator
//	designator = "execution(" signature ")" | "within(" type ")"
//	signature  = [ "public" ] result [ type "." ] name "(" params ")"
//
// A result is "*", a single type, or a parenthesized list of types. A type is
// a package import path followed by "." and a type name, e.g.
// "example.com/app/order.Service"; "pkg..Type" matches Type in pkg or any
// package below pkg, and "*..Type" matches Type in any package. Type and method
// names may contain "*" wildcards. Params is a comma-separated list, where each
// element is a type, "*" for exactly one parameter of any type, or ".." for any
// number of parameters of any type.
//
// A leading context.Context parameter of a method is not visible to the
// parameter pattern.
func Parse(expr string) (Matcher, error) {
	p := &parser{src: expr}

	m, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf(p.pos, "unexpected %q", p.src[p.pos:])
	}

	return m, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Matcher, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &or{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Matcher, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.consume("&&") {
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &and{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Matcher, error) {
	p.skipSpace()

	switch {
	case p.eof():
		return nil, p.errorf(p.pos, "unexpected end of expression")

	case p.consume("!"):
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &not{inner: inner}, nil

	case p.consume("("):
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, p.errorf(p.pos, "missing %q", ")")
		}
		return inner, nil

	default:
		return p.parseDesignator()
	}
}

func (p *parser) parseDesignator() (Matcher, error) {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	ident := p.src[start:p.pos]
	if ident == "" {
		return nil, p.errorf(start, "expected designator, found %q", p.src[start:])
	}

	if !p.consume("(") {
		return nil, p.errorf(p.pos, "expected %q after %s", "(", ident)
	}

	bodyStart := p.pos
	bodyEnd, ok := matchingParen(p.src, bodyStart)
	if !ok {
		return nil, p.errorf(bodyStart-1, "unbalanced parentheses")
	}
	p.pos = bodyEnd + 1

	body := p.src[bodyStart:bodyEnd]
	literal := p.src[start:p.pos]

	switch ident {
	case "execution":
		return p.parseExecution(body, bodyStart, literal)
	case "within":
		decl, err := parseTypePattern(strings.TrimSpace(body))
		if err != nil {
			return nil, p.errorf(bodyStart, "%v", err)
		}
		return &within{decl: decl, literal: literal}, nil
	default:
		return nil, p.errorf(start, "unknown designator %q", ident)
	}
}

// parseExecution parses a signature pattern. The parameter list is the final
// parenthesized group, which is located first, since the result pattern may
// itself contain parentheses.
func (p *parser) parseExecution(body string, offset int, literal string) (Matcher, error) {
	trimmed := strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(trimmed, ")") {
		return nil, p.errorf(offset+len(trimmed), "missing parameter list")
	}

	open, ok := matchingParenBackward(trimmed, len(trimmed)-1)
	if !ok {
		return nil, p.errorf(offset, "unbalanced parentheses in signature")
	}

	params, err := parseParams(trimmed[open+1 : len(trimmed)-1])
	if err != nil {
		return nil, p.errorf(offset+open, "%v", err)
	}

	head := trimmed[:open]
	headStart := len(head) - len(strings.TrimLeft(head, " \t\r\n"))
	head = strings.TrimSpace(head)

	e := &execution{params: params, literal: literal}

	if rest, ok := strings.CutPrefix(head, "public"); ok && rest != "" && isSpace(rest[0]) {
		e.public = true
		head = strings.TrimSpace(rest)
	}

	switch {
	case head == "":
		return nil, p.errorf(offset+headStart, "missing result pattern")
	case head[0] == '(':
		end, ok := matchingParen(head, 1)
		if !ok {
			return nil, p.errorf(offset+headStart, "unbalanced result pattern")
		}
		e.result = normalizeResult(head[:end+1])
		head = strings.TrimSpace(head[end+1:])
	default:
		i := strings.IndexAny(head, " \t\r\n")
		if i < 0 {
			return nil, p.errorf(offset+headStart, "missing method pattern after result %q", head)
		}
		e.result = normalizeType(head[:i])
		head = strings.TrimSpace(head[i:])
	}

	if head == "" {
		return nil, p.errorf(offset+open, "missing method pattern")
	}
	if strings.ContainsAny(head, " \t\r\n") {
		return nil, p.errorf(offset+headStart, "unexpected whitespace in %q", head)
	}

	nameText := head
	if i := strings.LastIndex(head, "."); i >= 0 {
		decl, err := parseTypePattern(head[:i])
		if err != nil {
			return nil, p.errorf(offset+headStart, "%v", err)
		}
		e.decl = &decl
		nameText = head[i+1:]
	}

	if e.name, err = compileName(nameText); err != nil {
		return nil, p.errorf(offset+headStart, "%v", err)
	}

	return e, nil
}

func normalizeResult(s string) string {
	s = normalizeType(s)
	if inner := strings.TrimSuffix(strings.TrimPrefix(s, "("), ")"); !strings.Contains(inner, ",") && inner != "" && s != inner {
		return inner // "(error)" is just "error"
	}
	return s
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isIdentByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// matchingParen returns the index of the ")" closing a group whose contents
// start at from.
func matchingParen(s string, from int) (int, bool) {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}

// matchingParenBackward returns the index of the "(" opening the group closed
// by the ")" at index close.
func matchingParenBackward(s string, close int) (int, bool) {
	depth := 0
	for i := close; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}
