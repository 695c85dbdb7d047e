package param

import (
	"fmt"
	"slices"
)

// Enum encodes a closed set of discriminant-only variants as one byte.
// Decoding matches against variants in the order given. Writing a value
// outside the set fails with ErrInvalidValue so every written byte decodes.
// Duplicate discriminants panic.
func Enum[E ~uint8](variants ...E) Codec[E] {
	if len(variants) == 0 {
		panic("param: enum needs at least one variant")
	}
	known := slices.Clone(variants)
	var seen [256]bool
	for _, v := range known {
		if seen[v] {
			panic(fmt.Sprintf("param: duplicate enum discriminant %#04x", uint8(v)))
		}
		seen[v] = true
	}
	return Codec[E]{
		size: func(E) int { return 1 },
		write: func(e Emitter, v E) error {
			if !seen[v] {
				return fmt.Errorf("%w: discriminant %#04x", ErrInvalidValue, uint8(v))
			}
			return e([]byte{byte(v)})
		},
		decode: func(data []byte) (E, []byte, error) {
			if len(data) == 0 {
				return 0, nil, ErrInvalidSize
			}
			for _, v := range known {
				if byte(v) == data[0] {
					return v, data[1:], nil
				}
			}
			return 0, nil, fmt.Errorf("%w: discriminant %#04x", ErrInvalidValue, data[0])
		},
	}
}
