package param

import "slices"

// Field is one member of a Struct group.
type Field[S any] struct {
	name   string
	size   func(*S) int
	write  func(Emitter, *S) error
	decode func([]byte, *S) ([]byte, error)
}

// FieldOf binds a member codec to the location ref returns inside S.
func FieldOf[S, V any](name string, c Codec[V], ref func(*S) *V) Field[S] {
	if ref == nil {
		panic("param: field " + name + " has no accessor")
	}
	return Field[S]{
		name: name,
		size: func(s *S) int { return c.size(*ref(s)) },
		write: func(e Emitter, s *S) error {
			return c.write(e, *ref(s))
		},
		decode: func(data []byte, s *S) ([]byte, error) {
			v, rest, err := c.decode(data)
			if err != nil {
				return nil, err
			}
			*ref(s) = v
			return rest, nil
		},
	}
}

// Struct encodes S as the plain concatenation of its fields in the order
// given. There is no padding, alignment or length prefix.
func Struct[S any](fields ...Field[S]) Codec[S] {
	fields = slices.Clone(fields)
	return Codec[S]{
		size: func(v S) int {
			total := 0
			for _, f := range fields {
				total += f.size(&v)
			}
			return total
		},
		write: func(e Emitter, v S) error {
			for _, f := range fields {
				if err := f.write(e, &v); err != nil {
					return err
				}
			}
			return nil
		},
		decode: func(data []byte) (S, []byte, error) {
			var v S
			for _, f := range fields {
				rest, err := f.decode(data, &v)
				if err != nil {
					var zero S
					return zero, nil, fieldError(f.name, err)
				}
				data = rest
			}
			return v, data, nil
		},
	}
}

// Unit is the empty group: zero bytes in both directions.
var Unit = Struct[struct{}]()

// Tuple is an anonymous two-member group.
type Tuple[A, B any] struct {
	First  A
	Second B
}

// Pair encodes a Tuple as a followed by b.
func Pair[A, B any](a Codec[A], b Codec[B]) Codec[Tuple[A, B]] {
	return Struct(
		FieldOf("0", a, func(t *Tuple[A, B]) *A { return &t.First }),
		FieldOf("1", b, func(t *Tuple[A, B]) *B { return &t.Second }),
	)
}
