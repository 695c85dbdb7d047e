package param

import "encoding/binary"

// Little-endian fixed-width integers.
var (
	Uint8  = Fixed(1, func(b []byte, v uint8) { b[0] = v }, func(b []byte) uint8 { return b[0] })
	Int8   = Fixed(1, func(b []byte, v int8) { b[0] = byte(v) }, func(b []byte) int8 { return int8(b[0]) })
	Uint16 = Fixed(2, binary.LittleEndian.PutUint16, binary.LittleEndian.Uint16)
	Int16  = Fixed(2, func(b []byte, v int16) { binary.LittleEndian.PutUint16(b, uint16(v)) }, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
	Uint32 = Fixed(4, binary.LittleEndian.PutUint32, binary.LittleEndian.Uint32)
	Int32  = Fixed(4, func(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) }, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
)

// Octets is an opaque n-byte array. Decoded values alias the input span;
// writing a value whose length is not n fails with ErrInvalidSize.
func Octets(n int) Codec[[]byte] {
	if n <= 0 {
		panic("param: octet count must be positive")
	}
	return Codec[[]byte]{
		size: func([]byte) int { return n },
		write: func(e Emitter, v []byte) error {
			if len(v) != n {
				return ErrInvalidSize
			}
			return e(v)
		},
		decode: func(data []byte) ([]byte, []byte, error) {
			return split(data, n)
		},
	}
}
