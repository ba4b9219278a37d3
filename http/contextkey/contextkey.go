// Package contextkey provides typed context keys.
package contextkey

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("contextkey: key not found")

// ContextKey stores and retrieves a value of type T. The string is only used
// to describe the key in errors.
//
//	var requestID contextkey.ContextKey[string] = "request_id"
type ContextKey[T any] string

func (k ContextKey[T]) WithValue(ctx context.Context, t T) context.Context {
	return context.WithValue(ctx, k, t)
}

func (k ContextKey[T]) Value(ctx context.Context) (T, error) {
	t, ok := ctx.Value(k).(T)
	if !ok {
		return t, fmt.Errorf("%w: %s", ErrNotFound, string(k))
	}

	return t, nil
}

// MustValue panics when the key is missing. Use it only where a middleware
// guarantees the value.
func (k ContextKey[T]) MustValue(ctx context.Context) T {
	t, err := k.Value(ctx)
	if err != nil {
		panic(err)
	}

	return t
}
