package trcadvice

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/peterbourgon/calltrc/trcproxy"
)

// Cache is advice which remembers the results of successful invocations, per
// target, keyed by method and arguments, and short-circuits later invocations
// on the same target with the same key. Failed invocations aren't cached.
// Arguments are keyed by their default formatting, so Cache only suits methods
// whose arguments are plain values.
//
// Targets are distinguished by identity when they're comparable, which is the
// usual case of pointer receivers, and by their formatted value otherwise.
type Cache struct {
	mtx     sync.Mutex
	targets map[any]map[string][]any
	count   int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{targets: map[any]map[string][]any{}}
}

// Around implements trcproxy.Advice.
func (c *Cache) Around(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
	var (
		tkey = targetKey(inv.Target)
		key  = cacheKey(inv)
	)

	c.mtx.Lock()
	res, ok := c.targets[tkey][key]
	c.mtx.Unlock()

	if ok {
		return res, nil
	}

	res, err := proceed(ctx)
	if err != nil {
		return res, err
	}

	c.mtx.Lock()
	entries, ok := c.targets[tkey]
	if !ok {
		entries = map[string][]any{}
		c.targets[tkey] = entries
	}
	if _, ok := entries[key]; !ok {
		c.count++
	}
	entries[key] = res
	c.mtx.Unlock()

	return res, nil
}

// Len returns the number of cached entries, over all targets.
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.count
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.targets = map[any]map[string][]any{}
	c.count = 0
}

func targetKey(target any) any {
	if target == nil || reflect.ValueOf(target).Comparable() {
		return target
	}
	return fmt.Sprintf("%T\x00%#v", target, target)
}

func cacheKey(inv *trcproxy.Invocation) string {
	var sb strings.Builder
	sb.WriteString(inv.Method.String())
	for _, arg := range inv.Args {
		fmt.Fprintf(&sb, "\x00%#v", arg)
	}
	return sb.String()
}
