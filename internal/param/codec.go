package param

import (
	"context"
	"fmt"
	"io"
	"slices"
)

// Codec converts values of T to and from their wire encoding.
// The zero Codec is not usable; build one with New, Fixed, Map or one of the
// combinators in this package.
type Codec[T any] struct {
	size   func(T) int
	write  func(Emitter, T) error
	decode func([]byte) (T, []byte, error)
}

// New builds a codec from its three parts. write must emit exactly size(v)
// bytes; decode must only consume from the front of data.
func New[T any](
	size func(T) int,
	write func(e Emitter, v T) error,
	decode func(data []byte) (T, []byte, error),
) Codec[T] {
	if size == nil || write == nil || decode == nil {
		panic("param: New requires size, write and decode")
	}
	return Codec[T]{size: size, write: write, decode: decode}
}

// Fixed builds a codec for values that always occupy width bytes.
func Fixed[T any](width int, put func([]byte, T), get func([]byte) T) Codec[T] {
	if width <= 0 {
		panic("param: fixed width must be positive")
	}
	return Codec[T]{
		size: func(T) int { return width },
		write: func(e Emitter, v T) error {
			buf := make([]byte, width)
			put(buf, v)
			return e(buf)
		},
		decode: func(data []byte) (T, []byte, error) {
			head, rest, err := split(data, width)
			if err != nil {
				var zero T
				return zero, nil, err
			}
			return get(head), rest, nil
		},
	}
}

// Map wraps a codec for T as a codec for U, the usual shape for newtypes.
func Map[T, U any](c Codec[T], to func(T) U, from func(U) T) Codec[U] {
	return Codec[U]{
		size: func(v U) int { return c.size(from(v)) },
		write: func(e Emitter, v U) error {
			return c.write(e, from(v))
		},
		decode: func(data []byte) (U, []byte, error) {
			v, rest, err := c.decode(data)
			if err != nil {
				var zero U
				return zero, nil, err
			}
			return to(v), rest, nil
		},
	}
}

// Size returns the exact number of bytes Write emits for v.
func (c Codec[T]) Size(v T) int {
	return c.size(v)
}

// Write emits v to a blocking writer. The first failing write aborts the
// encode and its error is returned as is; earlier bytes stay on w.
func (c Codec[T]) Write(w io.Writer, v T) error {
	return c.write(blockingEmitter(w), v)
}

// WriteContext emits v to a sink whose writes may suspend.
func (c Codec[T]) WriteContext(ctx context.Context, w ContextWriter, v T) error {
	return c.write(contextEmitter(ctx, w), v)
}

// WriteTo emits v through a raw Emitter. Custom codecs use it to delegate.
func (c Codec[T]) WriteTo(e Emitter, v T) error {
	return c.write(e, v)
}

// Decode reads one value from the front of data and returns it with the
// unconsumed remainder. On error the remainder is nil.
func (c Codec[T]) Decode(data []byte) (T, []byte, error) {
	return c.decode(data)
}

// Append appends the encoding of v to dst.
func (c Codec[T]) Append(dst []byte, v T) ([]byte, error) {
	dst = slices.Grow(dst, c.size(v))
	err := c.write(func(p []byte) error {
		dst = append(dst, p...)
		return nil
	}, v)
	return dst, err
}

// Marshal encodes v into a new buffer so it can be handed to a transport in
// a single write.
func (c Codec[T]) Marshal(v T) ([]byte, error) {
	return c.Append(nil, v)
}

// Unmarshal decodes data that must hold exactly one value.
func (c Codec[T]) Unmarshal(data []byte) (T, error) {
	v, rest, err := c.decode(data)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(rest) != 0 {
		var zero T
		return zero, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	return v, nil
}

// Verify checks that Size(v) matches the number of bytes Write emits.
// Size is never cross-checked on the hot path; call this from tests or debug
// builds of hand-written codecs.
func (c Codec[T]) Verify(v T) error {
	var n Counter
	if err := c.Write(&n, v); err != nil {
		return err
	}
	if size := c.size(v); size != n.N {
		return fmt.Errorf("%w: size=%d written=%d", ErrSizeMismatch, size, n.N)
	}
	return nil
}

// split is the bounds-checked boundary between a span and a fixed-size head.
// The head is capped so appends to it never clobber the remainder.
func split(data []byte, n int) ([]byte, []byte, error) {
	if n < 0 || len(data) < n {
		return nil, nil, ErrInvalidSize
	}
	return data[:n:n], data[n:], nil
}
