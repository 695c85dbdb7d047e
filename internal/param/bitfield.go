package param

import (
	"encoding/hex"
	"fmt"
	"slices"
)

// Flags8 is a one-octet bitfield. Bit 0 is the least significant bit.
type Flags8 uint8

func (f Flags8) Get(bit uint) bool {
	checkBit(bit, 1)
	return f&(1<<bit) != 0
}

// Set returns f with only bit changed.
func (f Flags8) Set(bit uint, v bool) Flags8 {
	checkBit(bit, 1)
	mask := Flags8(1) << bit
	if v {
		return f | mask
	}
	return f &^ mask
}

// Flags8Codec encodes a Flags8 as its single octet.
var Flags8Codec = Map(Uint8, func(b uint8) Flags8 { return Flags8(b) }, func(f Flags8) uint8 { return uint8(f) })

// MaxBitfieldOctets bounds Bitfield storage to what one length-prefixed
// parameter block can carry.
const MaxBitfieldOctets = 255

// Bitfield is a packed set of flags over a run of octets. Bit b lives in
// octet b/8 at position b%8, LSB first. Values are immutable: Set returns a
// copy and never touches the storage of the receiver, so decoded values may
// alias the input span.
//
// The zero Bitfield has every bit clear and encodes as all-zero octets.
type Bitfield struct {
	octets []byte
}

// BitfieldOf copies raw into a new Bitfield.
func BitfieldOf(raw []byte) Bitfield {
	return Bitfield{octets: slices.Clone(raw)}
}

func (b Bitfield) Get(bit uint) bool {
	i := int(bit / 8)
	if i >= len(b.octets) {
		return false
	}
	return b.octets[i]&(1<<(bit%8)) != 0
}

// Set returns a copy of b with only bit changed, growing storage if needed.
// It panics if bit does not fit in MaxBitfieldOctets.
func (b Bitfield) Set(bit uint, v bool) Bitfield {
	checkBit(bit, MaxBitfieldOctets)
	i := int(bit / 8)
	out := make([]byte, max(len(b.octets), i+1))
	copy(out, b.octets)
	mask := byte(1) << (bit % 8)
	if v {
		out[i] |= mask
	} else {
		out[i] &^= mask
	}
	return Bitfield{octets: out}
}

// Bytes returns a copy of the storage octets.
func (b Bitfield) Bytes() []byte {
	return slices.Clone(b.octets)
}

// Equal reports whether b and o have the same bits set. Missing trailing
// octets count as zero.
func (b Bitfield) Equal(o Bitfield) bool {
	n := max(len(b.octets), len(o.octets))
	for i := 0; i < n; i++ {
		if octetAt(b.octets, i) != octetAt(o.octets, i) {
			return false
		}
	}
	return true
}

func (b Bitfield) String() string {
	return hex.EncodeToString(b.octets)
}

// BitfieldCodec encodes a Bitfield as exactly octets bytes. Short storage is
// zero-padded; a value with a bit set beyond the last octet fails with
// ErrInvalidSize.
func BitfieldCodec(octets int) Codec[Bitfield] {
	if octets > MaxBitfieldOctets {
		panic(fmt.Sprintf("param: bitfield of %d octets exceeds %d", octets, MaxBitfieldOctets))
	}
	raw := Octets(octets)
	return Codec[Bitfield]{
		size: func(Bitfield) int { return octets },
		write: func(e Emitter, v Bitfield) error {
			buf, err := fitOctets(v.octets, octets)
			if err != nil {
				return err
			}
			return e(buf)
		},
		decode: func(data []byte) (Bitfield, []byte, error) {
			p, rest, err := raw.decode(data)
			if err != nil {
				return Bitfield{}, nil, err
			}
			return Bitfield{octets: p}, rest, nil
		},
	}
}

func fitOctets(p []byte, n int) ([]byte, error) {
	if len(p) == n {
		return p, nil
	}
	for i := n; i < len(p); i++ {
		if p[i] != 0 {
			return nil, fmt.Errorf("%w: bit set in octet %d of %d", ErrInvalidSize, i, n)
		}
	}
	buf := make([]byte, n)
	copy(buf, p)
	return buf, nil
}

func octetAt(p []byte, i int) byte {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func checkBit(bit uint, octets int) {
	if bit >= uint(octets)*8 {
		panic(fmt.Sprintf("param: bit %d out of range for %d octet(s)", bit, octets))
	}
}
