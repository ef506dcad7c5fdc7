package order

import (
	"context"

	"github.com/peterbourgon/calltrc/trcproxy"
)

// RepositoryProxy implements Repository by dispatching through a proxy.
type RepositoryProxy struct{ p *trcproxy.Proxy }

// NewRepositoryProxy is a stub constructor for trcproxy.Build.
func NewRepositoryProxy(p *trcproxy.Proxy) Repository { return RepositoryProxy{p} }

// Save implements Repository.
func (r RepositoryProxy) Save(ctx context.Context, itemID string) error {
	return trcproxy.Call0(r.p, ctx, "Save", itemID)
}

// ServiceProxy implements Service by dispatching through a proxy.
type ServiceProxy struct{ p *trcproxy.Proxy }

// NewServiceProxy is a stub constructor for trcproxy.Build.
func NewServiceProxy(p *trcproxy.Proxy) Service { return ServiceProxy{p} }

// OrderItem implements Service.
func (s ServiceProxy) OrderItem(ctx context.Context, itemID string) error {
	return trcproxy.Call0(s.p, ctx, "OrderItem", itemID)
}

// ControllerProxy implements Controller by dispatching through a proxy.
type ControllerProxy struct{ p *trcproxy.Proxy }

// NewControllerProxy is a stub constructor for trcproxy.Build.
func NewControllerProxy(p *trcproxy.Proxy) Controller { return ControllerProxy{p} }

// Request implements Controller.
func (c ControllerProxy) Request(ctx context.Context, itemID string) (string, error) {
	return trcproxy.Call1[string](c.p, ctx, "Request", itemID)
}

// NoLog implements Controller.
func (c ControllerProxy) NoLog() string {
	s, _ := trcproxy.Call1[string](c.p, context.Background(), "NoLog")
	return s
}
