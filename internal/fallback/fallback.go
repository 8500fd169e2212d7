// Package fallback runs an ordered chain of alternatives and returns the
// first success. Summary providers, image providers and the publish
// candidate loop all share it.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/upliftnews/uplift/internal/logger"
)

// ErrExhausted is returned when every step in the chain failed.
var ErrExhausted = errors.New("all fallback steps failed")

// Func produces a value or an error. A failing step must leave no visible
// side effects that the next step would trip over.
type Func[T any] func(ctx context.Context) (T, error)

// Step is one named alternative in a chain.
type Step[T any] struct {
	Name string
	Run  Func[T]
}

// First tries each step in order and returns the first successful value
// along with the name of the step that produced it. When every step fails
// the error wraps ErrExhausted and all collected step errors.
func First[T any](ctx context.Context, steps []Step[T]) (T, string, error) {
	var zero T
	var errs []error

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		value, err := step.Run(ctx)
		if err == nil {
			return value, step.Name, nil
		}

		logger.Debug("fallback step failed", "step", step.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
	}

	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
