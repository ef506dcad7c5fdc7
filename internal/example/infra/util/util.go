// Package util is infrastructure outside the example application's base
// package, which a wrapper should leave alone.
package util

import (
	"context"
	"strings"

	"github.com/peterbourgon/calltrc/trcproxy"
)

// Formatter renders item IDs for display.
type Formatter interface {
	Format(ctx context.Context, itemID string) string
}

// ItemFormatter implements Formatter.
type ItemFormatter struct{}

// Format implements Formatter.
func (ItemFormatter) Format(ctx context.Context, itemID string) string {
	return "item:" + strings.ToLower(itemID)
}

// FormatterProxy implements Formatter by dispatching through a proxy.
type FormatterProxy struct{ p *trcproxy.Proxy }

// NewFormatterProxy is a stub constructor for trcproxy.Build.
func NewFormatterProxy(p *trcproxy.Proxy) Formatter { return FormatterProxy{p} }

// Format implements Formatter.
func (f FormatterProxy) Format(ctx context.Context, itemID string) string {
	s, _ := trcproxy.Call1[string](f.p, ctx, "Format", itemID)
	return s
}
