package capability

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// WithTimeout runs fn under a failsafe timeout policy. The context handed to
// fn is cancelled when the limit is hit; an exceeded limit is reported as a
// ReasonTimeout failure. A non-positive limit runs fn directly.
func WithTimeout[T any](ctx context.Context, name string, limit time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if limit <= 0 {
		return fn(ctx)
	}

	policy := timeout.New[T](limit)
	result, err := failsafe.With[T](policy).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[T]) (T, error) {
			return fn(exec.Context())
		})
	if err != nil {
		var zero T
		if errors.Is(err, timeout.ErrExceeded) {
			return zero, fail(name, ReasonTimeout, err)
		}
		return zero, err
	}
	return result, nil
}
