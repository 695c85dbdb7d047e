package param

import (
	"context"
	"io"
)

// Compile-time interface checks.
var (
	_ io.Writer     = (*Counter)(nil)
	_ ContextWriter = (*Counter)(nil)
	_ ContextWriter = WriterFunc(nil)
	_ ContextWriter = blockingWriter{}
)

// ContextWriter is a byte sink whose writes may suspend until the bytes are
// accepted. Implementations return their own error values; codecs pass them
// through unchanged.
type ContextWriter interface {
	WriteContext(ctx context.Context, p []byte) error
}

// WriterFunc adapts a plain function to ContextWriter.
type WriterFunc func(ctx context.Context, p []byte) error

func (f WriterFunc) WriteContext(ctx context.Context, p []byte) error {
	return f(ctx, p)
}

// Blocking lets a blocking io.Writer stand in for a ContextWriter.
// ctx is only consulted between writes.
func Blocking(w io.Writer) ContextWriter {
	return blockingWriter{w: w}
}

type blockingWriter struct {
	w io.Writer
}

func (b blockingWriter) WriteContext(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAll(b.w, p)
}

// Emitter receives each chunk a codec writes, in order.
type Emitter func(p []byte) error

func blockingEmitter(w io.Writer) Emitter {
	return func(p []byte) error {
		return writeAll(w, p)
	}
}

// contextEmitter treats every chunk as a suspension point: once ctx is done
// no further chunks reach the sink. Chunks already written stay written.
func contextEmitter(ctx context.Context, w ContextWriter) Emitter {
	return func(p []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return w.WriteContext(ctx, p)
	}
}

func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Counter discards written bytes and counts them.
type Counter struct {
	N int
}

func (c *Counter) Write(p []byte) (int, error) {
	c.N += len(p)
	return len(p), nil
}

func (c *Counter) WriteContext(_ context.Context, p []byte) error {
	c.N += len(p)
	return nil
}
