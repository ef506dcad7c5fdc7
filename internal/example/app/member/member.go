// Package member is a tiny example domain used to exercise pointcut matching
// against real method sets.
package member

import "context"

// Service is the capability exposed to callers.
type Service interface {
	Hello(param string) string
}

// ServiceImpl implements Service, and has an extra method which is not part
// of the interface.
type ServiceImpl struct{}

var _ Service = (*ServiceImpl)(nil)

// Hello implements Service.
func (s *ServiceImpl) Hello(param string) string {
	return "ok"
}

// Internal is only reachable through the concrete type.
func (s *ServiceImpl) Internal(param string) string {
	return "ok"
}

// Greet takes a context, which is invisible to parameter patterns.
func (s *ServiceImpl) Greet(ctx context.Context, name string, times int) (string, error) {
	return "hi " + name, nil
}
