package trcproxy

import (
	"errors"
	"fmt"

	"github.com/peterbourgon/calltrc/trcmatch"
)

// ErrInvalidPolicy is returned for policies without a matcher or an advice.
var ErrInvalidPolicy = errors.New("invalid policy")

// Policy pairs an advice with the matcher that selects the methods it applies
// to. Policies are applied in the order they're given to a proxy: the first
// policy is the outermost.
type Policy struct {
	Name    string
	Matcher trcmatch.Matcher
	Advice  Advice
}

// NewPolicy parses expr as a pointcut expression and returns a policy applying
// advice to the methods it selects. Syntax errors are returned as
// *trcmatch.SyntaxError.
func NewPolicy(name, expr string, advice Advice) (Policy, error) {
	m, err := trcmatch.Parse(expr)
	if err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", name, err)
	}

	p := Policy{Name: name, Matcher: m, Advice: advice}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// MustPolicy is like NewPolicy, but panics on error.
func MustPolicy(name, expr string, advice Advice) Policy {
	p, err := NewPolicy(name, expr, advice)
	if err != nil {
		panic(err)
	}
	return p
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if p.Matcher == nil {
		return p.Name
	}
	return p.Name + " " + p.Matcher.String()
}

func (p Policy) validate() error {
	switch {
	case p.Matcher == nil:
		return fmt.Errorf("policy %s: missing matcher: %w", p.Name, ErrInvalidPolicy)
	case p.Advice == nil:
		return fmt.Errorf("policy %s: missing advice: %w", p.Name, ErrInvalidPolicy)
	default:
		return nil
	}
}
