package fallback

import (
	"context"
	"errors"
	"testing"
)

func TestFirst_ReturnsFirstSuccess(t *testing.T) {
	var tried []string
	steps := []Step[string]{
		{Name: "primary", Run: func(ctx context.Context) (string, error) {
			tried = append(tried, "primary")
			return "", errors.New("down")
		}},
		{Name: "secondary", Run: func(ctx context.Context) (string, error) {
			tried = append(tried, "secondary")
			return "from secondary", nil
		}},
		{Name: "tertiary", Run: func(ctx context.Context) (string, error) {
			tried = append(tried, "tertiary")
			return "from tertiary", nil
		}},
	}

	value, name, err := First(context.Background(), steps)
	if err != nil {
		t.Fatalf("First(): %v", err)
	}
	if value != "from secondary" || name != "secondary" {
		t.Errorf("First() = (%q, %q), want (from secondary, secondary)", value, name)
	}
	if len(tried) != 2 {
		t.Errorf("tried steps = %v, later steps must not run after a success", tried)
	}
}

func TestFirst_SuccessOnFirstStep(t *testing.T) {
	steps := []Step[int]{
		{Name: "only", Run: func(ctx context.Context) (int, error) { return 7, nil }},
		{Name: "never", Run: func(ctx context.Context) (int, error) {
			t.Error("step after a success was run")
			return 0, nil
		}},
	}

	value, name, err := First(context.Background(), steps)
	if err != nil || value != 7 || name != "only" {
		t.Errorf("First() = (%d, %q, %v), want (7, only, nil)", value, name, err)
	}
}

func TestFirst_AllFail(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	steps := []Step[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) { return "", errA }},
		{Name: "b", Run: func(ctx context.Context) (string, error) { return "", errB }},
	}

	_, _, err := First(context.Background(), steps)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("First() error = %v, want ErrExhausted", err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("exhaustion error %v must wrap every step error", err)
	}
}

func TestFirst_EmptyChain(t *testing.T) {
	_, _, err := First[string](context.Background(), nil)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("First() on empty chain = %v, want ErrExhausted", err)
	}
}

func TestFirst_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	steps := []Step[string]{
		{Name: "canceller", Run: func(ctx context.Context) (string, error) {
			cancel()
			return "", errors.New("failed")
		}},
		{Name: "after", Run: func(ctx context.Context) (string, error) {
			t.Error("step ran after context cancellation")
			return "late", nil
		}},
	}

	_, _, err := First(ctx, steps)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("First() = %v, want context.Canceled", err)
	}
}
