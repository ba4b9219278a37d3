package contextkey_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alextanhongpin/shopobs/http/contextkey"
	"github.com/stretchr/testify/assert"
)

func TestContextKey(t *testing.T) {
	var requestID contextkey.ContextKey[string] = "request_id"

	ctx := context.Background()
	_, err := requestID.Value(ctx)
	assert.True(t, errors.Is(err, contextkey.ErrNotFound))
	assert.Panics(t, func() {
		requestID.MustValue(ctx)
	})

	ctx = requestID.WithValue(ctx, "abc")
	id, err := requestID.Value(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", requestID.MustValue(ctx))
}
