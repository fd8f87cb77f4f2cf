package funcmon

import "fmt"

// This file adapts ordinary typed Go functions to the Callable shape the
// monitor instruments. An argument of the wrong dynamic type is reported as
// an execution error through the usual envelope, not as a panic.

// F0 adapts a function taking no arguments.
func F0[R any](fn func() (R, error)) Callable {
	return func(args ...any) (any, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("expected 0 arguments, got %d", len(args))
		}
		return fn()
	}
}

// F1 adapts a single-argument function.
func F1[A, R any](fn func(A) (R, error)) Callable {
	return func(args ...any) (any, error) {
		a, err := arg[A](args, 0, 1)
		if err != nil {
			return nil, err
		}
		return fn(a)
	}
}

// F2 adapts a two-argument function.
func F2[A, B, R any](fn func(A, B) (R, error)) Callable {
	return func(args ...any) (any, error) {
		a, err := arg[A](args, 0, 2)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1, 2)
		if err != nil {
			return nil, err
		}
		return fn(a, b)
	}
}

// F3 adapts a three-argument function.
func F3[A, B, C, R any](fn func(A, B, C) (R, error)) Callable {
	return func(args ...any) (any, error) {
		a, err := arg[A](args, 0, 3)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1, 3)
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args, 2, 3)
		if err != nil {
			return nil, err
		}
		return fn(a, b, c)
	}
}

func arg[T any](args []any, i, want int) (T, error) {
	var zero T
	if len(args) != want {
		return zero, fmt.Errorf("expected %d arguments, got %d", want, len(args))
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("argument %d: expected %T, got %T", i, zero, args[i])
	}
	return v, nil
}
