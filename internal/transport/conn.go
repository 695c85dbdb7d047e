package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/danmuck/hcicodec/internal/param"
)

var _ param.ContextWriter = ConnWriter{}

// ConnWriter is a cooperative sink over a net.Conn. A write blocks until the
// bytes are accepted, ctx is done, or Timeout elapses.
type ConnWriter struct {
	Conn    net.Conn
	Timeout time.Duration
}

func (w ConnWriter) WriteContext(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Conn.SetWriteDeadline(deadline(ctx, w.Timeout)); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = w.Conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := w.Conn.Write(p)
	if err != nil {
		return contextError(ctx, err)
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// readDeadliner is the subset of net.Conn a Link needs to bound reads.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// watchRead arms a read deadline on r for the lifetime of ctx. The returned
// func must be called once the read is done.
func watchRead(ctx context.Context, r io.Reader, timeout time.Duration) (func(), error) {
	d, ok := r.(readDeadliner)
	if !ok {
		return func() {}, nil
	}
	if err := d.SetReadDeadline(deadline(ctx, timeout)); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = d.SetReadDeadline(time.Unix(1, 0))
	})
	return func() { stop() }, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var t time.Time
	if d, ok := ctx.Deadline(); ok {
		t = d
	}
	if timeout > 0 {
		limit := time.Now().Add(timeout)
		if t.IsZero() || limit.Before(t) {
			t = limit
		}
	}
	return t
}

// contextError prefers the context's error when a deadline we set on its
// behalf caused err.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return ctxErr
	}
	return err
}
