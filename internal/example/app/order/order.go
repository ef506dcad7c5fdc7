// Package order is the example application: a controller taking order
// requests, a service, and a repository. None of it knows about tracing.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/clockz"
)

// ErrIllegalItem is returned by the repository for the item ID "ex".
var ErrIllegalItem = errors.New("illegal item")

// Repository stores orders.
type Repository interface {
	Save(ctx context.Context, itemID string) error
}

// Service orders items.
type Service interface {
	OrderItem(ctx context.Context, itemID string) error
}

// Controller handles order requests.
type Controller interface {
	Request(ctx context.Context, itemID string) (string, error)
	NoLog() string
}

// RepositoryImpl pretends to store orders, taking a fixed time to do so.
type RepositoryImpl struct {
	clock clockz.Clock
	delay time.Duration
}

// NewRepository returns a repository where each save takes delay, as measured
// by clock. A nil clock means the real clock.
func NewRepository(clock clockz.Clock, delay time.Duration) *RepositoryImpl {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &RepositoryImpl{clock: clock, delay: delay}
}

// Save implements Repository.
func (r *RepositoryImpl) Save(ctx context.Context, itemID string) error {
	if itemID == "ex" {
		return ErrIllegalItem
	}

	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.delay):
		}
	}

	return nil
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	repo Repository
}

// NewService returns a service saving orders to repo.
func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

// OrderItem implements Service.
func (s *ServiceImpl) OrderItem(ctx context.Context, itemID string) error {
	return s.repo.Save(ctx, itemID)
}

// ControllerImpl implements Controller.
type ControllerImpl struct {
	service Service
}

// NewController returns a controller ordering items via service.
func NewController(service Service) *ControllerImpl {
	return &ControllerImpl{service: service}
}

// Request implements Controller.
func (c *ControllerImpl) Request(ctx context.Context, itemID string) (string, error) {
	if err := c.service.OrderItem(ctx, itemID); err != nil {
		return "", err
	}
	return "ok", nil
}

// NoLog implements Controller.
func (c *ControllerImpl) NoLog() string {
	return "ok"
}
