package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alextanhongpin/shopobs/http/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	srv := server.New(":8000", handler, server.WriteTimeout(10*time.Second))

	is := assert.New(t)
	is.Equal(":8000", srv.Addr)
	is.NotNil(srv.Handler)
	is.Equal(5*time.Second, srv.ReadTimeout)
	is.Equal(5*time.Second, srv.ReadHeaderTimeout)
	is.Equal(10*time.Second, srv.WriteTimeout)
}

type ctxKey struct{}

func TestBaseContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))
	cancel()

	srv := server.New(":0", http.NotFoundHandler(), server.BaseContext{Context: ctx})

	base := srv.BaseContext(nil)
	assert.Equal(t, "v", base.Value(ctxKey{}))
	assert.NoError(t, base.Err())
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	srv := server.New(":0", handler, server.MaxBytes(4))
	req, err := http.NewRequest("POST", "/", strings.NewReader("too large"))
	require.NoError(t, err)

	srv.Handler.ServeHTTP(discard{}, req)

	var mbe *http.MaxBytesError
	assert.True(t, errors.As(readErr, &mbe))
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var flushed bool
	srv := server.New("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, srv, time.Second, func(ctx context.Context) error {
			flushed = true
			return nil
		})
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, flushed)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunHookError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := server.New("127.0.0.1:0", http.NotFoundHandler())
	err := server.Run(ctx, srv, time.Second, func(ctx context.Context) error {
		return errors.New("flush failed")
	})
	assert.ErrorContains(t, err, "flush failed")
}

func TestRunListenError(t *testing.T) {
	srv := server.New("invalid-addr", http.NotFoundHandler())

	err := server.Run(context.Background(), srv, time.Second)
	assert.ErrorContains(t, err, "server: listen")
}

type discard struct{}

func (discard) Header() http.Header { return http.Header{} }

func (discard) Write(b []byte) (int, error) { return len(b), nil }

func (discard) WriteHeader(int) {}
