package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	MB                = 1 << 20 // 1 MB
	readTimeout       = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Option interface {
	Apply(s *http.Server)
}

type ReadTimeout time.Duration

func (r ReadTimeout) Apply(s *http.Server) {
	s.ReadTimeout = time.Duration(r)
}

type WriteTimeout time.Duration

func (r WriteTimeout) Apply(s *http.Server) {
	s.WriteTimeout = time.Duration(r)
}

type MaxBytes int64

func (r MaxBytes) Apply(s *http.Server) {
	s.Handler = http.MaxBytesHandler(s.Handler, int64(r))
}

// BaseContext is the parent of every request context. The context values are
// kept but its cancellation is not, so in-flight requests can drain during
// shutdown.
type BaseContext struct {
	Context context.Context
}

func (b BaseContext) Apply(s *http.Server) {
	ctx := context.WithoutCancel(b.Context)
	s.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
}

// New returns a new server with the default settings.
// WriteTimeout is left unset: /random_sleep and the payment simulation can
// legitimately take several seconds.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.MaxBytesHandler(handler, MB),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	for _, o := range opts {
		o.Apply(srv)
	}

	return srv
}

// ShutdownFunc is called after the server stopped accepting requests, e.g. to
// flush the tracer provider.
type ShutdownFunc func(context.Context) error

// Run serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts the server down and runs the hooks in order, all within
// timeout.
func Run(ctx context.Context, srv *http.Server, timeout time.Duration, hooks ...ShutdownFunc) error {
	if timeout <= 0 {
		timeout = shutdownTimeout
	}

	// SIGINT: When a process is interrupted from keyboard by pressing CTRL+C.
	// SIGTERM: A process is killed. Kubernetes sends this when performing a rolling update.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", srv.Addr, err)
	}

	logger := slog.Default()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(ctx, "server started", slog.String("addr", l.Addr().String()))

		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		// Restore default behaviour on the interrupt signal.
		stop()
		logger.InfoContext(ctx, "server shutting down", slog.String("addr", l.Addr().String()))

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		errs := []error{srv.Shutdown(ctx)}
		for _, hook := range hooks {
			errs = append(errs, hook(ctx))
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}
