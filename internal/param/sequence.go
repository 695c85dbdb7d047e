package param

import (
	"fmt"
	"strconv"
)

// MaxSequenceLen is the largest element count a one-byte prefix can carry.
const MaxSequenceLen = 255

// Slice encodes a homogeneous sequence as a count byte followed by each
// element in order.
func Slice[T any](elem Codec[T]) Codec[[]T] {
	return Codec[[]T]{
		size: func(v []T) int {
			total := 1
			for _, x := range v {
				total += elem.size(x)
			}
			return total
		},
		write: func(e Emitter, v []T) error {
			if len(v) > MaxSequenceLen {
				return fmt.Errorf("%w: %d", ErrSequenceTooLong, len(v))
			}
			if err := e([]byte{byte(len(v))}); err != nil {
				return err
			}
			for _, x := range v {
				if err := elem.write(e, x); err != nil {
					return err
				}
			}
			return nil
		},
		decode: func(data []byte) ([]T, []byte, error) {
			if len(data) == 0 {
				return nil, nil, ErrInvalidSize
			}
			n := int(data[0])
			data = data[1:]
			var out []T
			if n > 0 {
				out = make([]T, 0, n)
			}
			for i := 0; i < n; i++ {
				x, rest, err := elem.decode(data)
				if err != nil {
					return nil, nil, fieldError(strconv.Itoa(i), err)
				}
				out = append(out, x)
				data = rest
			}
			return out, data, nil
		},
	}
}
