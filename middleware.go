package brk

import "context"

// Pattern: Decorator — each pipeline stage wraps the next. The stage order
// is fixed by construction: the circuit breaker is always the outermost
// wrapper and the retry loop the innermost, so an open circuit rejects the
// call before the retry loop is ever entered.

// Middleware wraps an operation with additional behavior. Each middleware
// receives the next function in the chain and returns a wrapped version.
type Middleware[T any] func(next func(context.Context) (T, error)) func(context.Context) (T, error)

// Chain composes multiple middlewares into a single middleware.
// Middlewares are applied in order: the first middleware is the outermost
// wrapper.
//
// Chain(a, b) produces a(b(next)) — a is outermost, b is innermost.
// Chain() with zero middlewares returns an identity middleware that passes
// through to next.
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}

		return next
	}
}
