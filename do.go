package brk

import "context"

// Do is a convenience function that runs a single call through a
// breaker-and-retry pipeline without creating a named [Pipeline]. It builds
// an anonymous pipeline internally and calls [Pipeline.Execute]. The
// pipeline is not registered with any [Registry].
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	p := NewPipeline[T]("", opts...)
	return p.Execute(ctx, fn)
}
