package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
)

// ErrUncomparableParams is returned when memoisation params cannot be used as a map key.
var ErrUncomparableParams = errors.New("request cache params must be comparable")

type requestKey struct {
	name   string
	params any
}

type requestCall struct {
	done chan struct{}
	val  any
	err  error
}

// RequestCache memoises function results for the lifetime of one incoming
// request. Both values and errors are shared with every caller using the same
// (name, params) key, including callers that arrive while the first call is
// still in flight.
type RequestCache struct {
	mu     sync.Mutex
	calls  map[requestKey]*requestCall
	loads  atomic.Int64
	shared atomic.Int64
}

func NewRequestCache() *RequestCache {
	return &RequestCache{calls: make(map[requestKey]*requestCall)}
}

type requestCacheKey struct{}

func WithRequestCache(ctx context.Context, c *RequestCache) context.Context {
	return context.WithValue(ctx, requestCacheKey{}, c)
}

func FromContext(ctx context.Context) (*RequestCache, bool) {
	c, ok := ctx.Value(requestCacheKey{}).(*RequestCache)
	return c, ok && c != nil
}

// Middleware gives every request a fresh RequestCache.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestCache(r.Context(), NewRequestCache())))
	})
}

// Do returns the memoised outcome for (name, params) from the request cache in
// ctx. Without a cache in ctx the loader runs directly.
func Do(ctx context.Context, name string, params any, loader func(context.Context) (any, error)) (any, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return loader(ctx)
	}
	return c.Do(ctx, name, params, loader)
}

func (c *RequestCache) Do(ctx context.Context, name string, params any, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if params != nil && !reflect.TypeOf(params).Comparable() {
		return nil, fmt.Errorf("%w: %s(%T)", ErrUncomparableParams, name, params)
	}

	key := requestKey{name: name, params: params}

	c.mu.Lock()
	if existing, ok := c.calls[key]; ok {
		c.mu.Unlock()
		c.shared.Add(1)
		select {
		case <-existing.done:
			// The leader's cancellation is not ours; its entry is already gone.
			if isCancellation(existing.err) && ctx.Err() == nil {
				return c.Do(ctx, name, params, loader)
			}
			return existing.val, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &requestCall{done: make(chan struct{})}
	c.calls[key] = call
	c.mu.Unlock()
	c.loads.Add(1)

	defer func() {
		if rec := recover(); rec != nil {
			call.err = fmt.Errorf("request cache loader %s panicked: %v", name, rec)
			c.forget(key, call)
			close(call.done)
			panic(rec)
		}
		// A cancelled caller must not poison the key for the rest of the request.
		if isCancellation(call.err) {
			c.forget(key, call)
		}
		close(call.done)
	}()

	call.val, call.err = loader(ctx)
	return call.val, call.err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Stats reports how many loaders ran and how many calls joined an existing entry.
func (c *RequestCache) Stats() (loads, shared int64) {
	return c.loads.Load(), c.shared.Load()
}

func (c *RequestCache) forget(key requestKey, call *requestCall) {
	c.mu.Lock()
	if c.calls[key] == call {
		delete(c.calls, key)
	}
	c.mu.Unlock()
}

// Memoize wraps fn so calls with equal params share one result per request.
func Memoize[P comparable, R any](name string, fn func(context.Context, P) (R, error)) func(context.Context, P) (R, error) {
	return func(ctx context.Context, params P) (R, error) {
		out, err := Do(ctx, name, params, func(ctx context.Context) (any, error) {
			return fn(ctx, params)
		})
		if err != nil {
			var zero R
			return zero, err
		}
		value, ok := out.(R)
		if !ok && out != nil {
			var zero R
			return zero, fmt.Errorf("request cache %s: unexpected value type %T", name, out)
		}
		return value, nil
	}
}
