package param

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	A uint8
	B uint16
}

var sampleCodec = Struct(
	FieldOf("a", Uint8, func(s *sample) *uint8 { return &s.A }),
	FieldOf("b", Uint16, func(s *sample) *uint16 { return &s.B }),
)

type letter uint8

const (
	letterA letter = 0
	letterB letter = 1
)

var letterCodec = Enum(letterA, letterB)

func TestUint16EncodesLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Uint16.Write(&buf, 0x1234))
	require.Equal(t, []byte{0x34, 0x12}, buf.Bytes())

	v, rest, err := Uint16.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), v)
	require.Empty(t, rest)
}

func TestIntegerRoundTripPreservesRemainder(t *testing.T) {
	data := []byte{0xfe, 0xff, 0xff, 0xff, 0xaa}

	i32, rest, err := Int32.Decode(data)
	require.NoError(t, err)
	require.Equal(t, int32(-2), i32)
	require.Equal(t, []byte{0xaa}, rest)

	i8, rest, err := Int8.Decode(data)
	require.NoError(t, err)
	require.Equal(t, int8(-2), i8)
	require.Len(t, rest, 4)

	i16, _, err := Int16.Decode(data)
	require.NoError(t, err)
	require.Equal(t, int16(-2), i16)

	out, err := Int16.Marshal(-2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xfe, 0xff}, out)

	u32, err := Uint32.Marshal(0x01020304)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, u32)
}

func TestUint32ShortSpanIsInvalidSize(t *testing.T) {
	_, rest, err := Uint32.Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidSize)
	require.Nil(t, rest)
}

func TestStructConcatenatesInDeclaredOrder(t *testing.T) {
	v := sample{A: 1, B: 0x0203}
	out, err := sampleCodec.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x03, 0x02}, out)
	require.Equal(t, 3, sampleCodec.Size(v))

	got, err := sampleCodec.Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestStructTruncationReportsField(t *testing.T) {
	_, _, err := sampleCodec.Decode([]byte{0x01, 0x03})
	require.ErrorIs(t, err, ErrInvalidSize)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "b", fe.Field)
}

func TestNestedStructFieldPath(t *testing.T) {
	type outer struct {
		Inner sample
	}
	c := Struct(FieldOf("inner", sampleCodec, func(o *outer) *sample { return &o.Inner }))

	_, _, err := c.Decode([]byte{0x01})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "inner.b", fe.Field)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestUnitIsIdentity(t *testing.T) {
	require.Equal(t, 0, Unit.Size(struct{}{}))

	out, err := Unit.Marshal(struct{}{})
	require.NoError(t, err)
	require.Empty(t, out)

	_, rest, err := Unit.Decode([]byte{0x09})
	require.NoError(t, err)
	require.Equal(t, []byte{0x09}, rest)
}

func TestPairRoundTrip(t *testing.T) {
	c := Pair(Uint16, letterCodec)
	in := Tuple[uint16, letter]{First: 0xbeef, Second: letterB}

	out, err := c.Marshal(in)
	require.NoError(t, err)
	require.Equal(t, []byte{0xef, 0xbe, 0x01}, out)

	got, err := c.Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestEnumDiscriminants(t *testing.T) {
	out, err := letterCodec.Marshal(letterB)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, out)

	v, rest, err := letterCodec.Decode([]byte{0x01})
	require.NoError(t, err)
	require.Equal(t, letterB, v)
	require.Empty(t, rest)

	_, _, err = letterCodec.Decode([]byte{0x02})
	require.ErrorIs(t, err, ErrInvalidValue)

	_, _, err = letterCodec.Decode(nil)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestEnumRejectsUnknownOnWrite(t *testing.T) {
	var buf bytes.Buffer
	err := letterCodec.Write(&buf, letter(7))
	require.ErrorIs(t, err, ErrInvalidValue)
	require.ErrorContains(t, err, "discriminant 0x07")
	require.Zero(t, buf.Len())

	_, _, err = letterCodec.Decode([]byte{0x0a})
	require.ErrorContains(t, err, "discriminant 0x0a")
}

func TestEnumDuplicateDiscriminantPanics(t *testing.T) {
	require.Panics(t, func() { Enum(letterA, letterA) })
}

func TestFlags8SetAndClear(t *testing.T) {
	const flagA uint = 0
	var f Flags8
	require.False(t, f.Get(flagA))

	f = f.Set(flagA, true)
	require.Equal(t, Flags8(0b00000001), f)
	require.True(t, f.Get(flagA))

	f = f.Set(flagA, false)
	require.Equal(t, Flags8(0b00000000), f)

	require.Panics(t, func() { f.Get(8) })
}

func TestBitfieldIndependence(t *testing.T) {
	base := BitfieldOf([]byte{0xa5, 0x3c, 0x00})
	for i := uint(0); i < 24; i++ {
		for _, v := range []bool{true, false} {
			next := base.Set(i, v)
			require.Equal(t, v, next.Get(i))
			for j := uint(0); j < 24; j++ {
				if j == i {
					continue
				}
				require.Equal(t, base.Get(j), next.Get(j), "bit %d changed after set %d", j, i)
			}
		}
	}
	require.Equal(t, []byte{0xa5, 0x3c, 0x00}, base.Bytes(), "set must not mutate receiver")
}

func TestBitfieldLayoutLSBFirst(t *testing.T) {
	b := Bitfield{}.Set(0, true).Set(9, true).Set(23, true)
	c := BitfieldCodec(3)

	out, err := c.Marshal(b)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x80}, out)

	got, err := c.Unmarshal(out)
	require.NoError(t, err)
	require.True(t, b.Equal(got))
}

func TestBitfieldCodecSizing(t *testing.T) {
	c := BitfieldCodec(8)

	out, err := c.Marshal(Bitfield{})
	require.NoError(t, err)
	require.Equal(t, make([]byte, 8), out)

	_, err = c.Marshal(Bitfield{}.Set(64, true))
	require.ErrorIs(t, err, ErrInvalidSize)

	_, _, err = c.Decode(make([]byte, 7))
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestBitfieldSetBounded(t *testing.T) {
	last := uint(MaxBitfieldOctets*8 - 1)
	b := Bitfield{}.Set(last, true)
	require.True(t, b.Get(last))
	require.Len(t, b.Bytes(), MaxBitfieldOctets)

	require.Panics(t, func() { Bitfield{}.Set(last+1, true) })
	require.Panics(t, func() { Bitfield{}.Set(^uint(0), true) })
	require.False(t, Bitfield{}.Get(^uint(0)))
	require.Panics(t, func() { BitfieldCodec(MaxBitfieldOctets + 1) })
}

func TestDecodedBitfieldDoesNotAliasWrites(t *testing.T) {
	src := []byte{0x00, 0x00}
	b, _, err := BitfieldCodec(2).Decode(src)
	require.NoError(t, err)

	_ = b.Set(3, true)
	require.Equal(t, []byte{0x00, 0x00}, src)
}

func TestSliceEncodesCountPrefix(t *testing.T) {
	c := Slice(Uint8)
	out, err := c.Marshal([]uint8{10, 20, 30})
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 10, 20, 30}, out)

	got, err := c.Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, []uint8{10, 20, 30}, got)
}

func TestSliceEmpty(t *testing.T) {
	c := Slice(Uint16)
	out, err := c.Marshal(nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, out)

	got, err := c.Unmarshal(out)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSliceMaxLengthRoundTrip(t *testing.T) {
	c := Slice(Pair(Uint8, Uint16))
	in := make([]Tuple[uint8, uint16], MaxSequenceLen)
	for i := range in {
		in[i] = Tuple[uint8, uint16]{First: uint8(i), Second: uint16(i * 3)}
	}
	out, err := c.Marshal(in)
	require.NoError(t, err)
	require.Len(t, out, 1+MaxSequenceLen*3)
	require.Equal(t, byte(MaxSequenceLen), out[0])

	got, err := c.Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestSliceTooLong(t *testing.T) {
	var buf bytes.Buffer
	err := Slice(Uint8).Write(&buf, make([]uint8, MaxSequenceLen+1))
	require.ErrorIs(t, err, ErrSequenceTooLong)
	require.Zero(t, buf.Len())
}

func TestSliceDecodeFailures(t *testing.T) {
	c := Slice(Uint16)

	_, _, err := c.Decode(nil)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, _, err = c.Decode([]byte{0x02, 0x01, 0x00, 0x02})
	require.ErrorIs(t, err, ErrInvalidSize)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "1", fe.Field)
}

func TestTruncationEveryPrefix(t *testing.T) {
	type record struct {
		Kind  letter
		Flags Flags8
		Mask  Bitfield
		Items []uint16
		Tail  int32
	}
	c := Struct(
		FieldOf("kind", letterCodec, func(r *record) *letter { return &r.Kind }),
		FieldOf("flags", Flags8Codec, func(r *record) *Flags8 { return &r.Flags }),
		FieldOf("mask", BitfieldCodec(2), func(r *record) *Bitfield { return &r.Mask }),
		FieldOf("items", Slice(Uint16), func(r *record) *[]uint16 { return &r.Items }),
		FieldOf("tail", Int32, func(r *record) *int32 { return &r.Tail }),
	)
	in := record{
		Kind:  letterB,
		Flags: Flags8(0).Set(2, true),
		Mask:  Bitfield{}.Set(15, true),
		Items: []uint16{1, 0x0203},
		Tail:  -7,
	}
	require.NoError(t, c.Verify(in))

	full, err := c.Marshal(in)
	require.NoError(t, err)
	require.Len(t, full, c.Size(in))

	got, err := c.Unmarshal(full)
	require.NoError(t, err)
	require.Equal(t, in.Kind, got.Kind)
	require.Equal(t, in.Flags, got.Flags)
	require.True(t, in.Mask.Equal(got.Mask))
	require.Equal(t, in.Items, got.Items)
	require.Equal(t, in.Tail, got.Tail)

	for n := 0; n < len(full); n++ {
		_, _, err := c.Decode(full[:n])
		require.ErrorIs(t, err, ErrInvalidSize, "prefix length %d", n)
	}
}

func TestUnmarshalTrailingData(t *testing.T) {
	_, err := Uint8.Unmarshal([]byte{1, 2})
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestVerifyDetectsSizeMismatch(t *testing.T) {
	lying := New(
		func(uint8) int { return 2 },
		func(e Emitter, v uint8) error { return e([]byte{v}) },
		Uint8.Decode,
	)
	require.ErrorIs(t, lying.Verify(1), ErrSizeMismatch)
	require.NoError(t, Uint8.Verify(1))
}

type failingWriter struct {
	after int
	err   error
	buf   bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after == 0 {
		return 0, w.err
	}
	w.after--
	return w.buf.Write(p)
}

func TestWriteErrorPropagatesUnchanged(t *testing.T) {
	sinkErr := errors.New("link down")
	w := &failingWriter{after: 1, err: sinkErr}

	err := sampleCodec.Write(w, sample{A: 9, B: 1})
	require.Same(t, sinkErr, err)
	require.Equal(t, []byte{9}, w.buf.Bytes(), "prefix stays written")
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestShortWriteIsReported(t *testing.T) {
	require.ErrorIs(t, Uint16.Write(shortWriter{}, 1), io.ErrShortWrite)
}

func TestWriteContextStopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got [][]byte
	sink := WriterFunc(func(_ context.Context, p []byte) error {
		got = append(got, append([]byte(nil), p...))
		cancel()
		return nil
	})

	err := Slice(Uint8).WriteContext(ctx, sink, []uint8{1, 2, 3})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, [][]byte{{0x03}}, got)
}

func TestWriteContextMatchesBlocking(t *testing.T) {
	in := sample{A: 4, B: 0x0506}
	var blocking, cooperative bytes.Buffer
	require.NoError(t, sampleCodec.Write(&blocking, in))
	require.NoError(t, sampleCodec.WriteContext(context.Background(), Blocking(&cooperative), in))
	require.Equal(t, blocking.Bytes(), cooperative.Bytes())

	var n Counter
	require.NoError(t, sampleCodec.WriteContext(context.Background(), &n, in))
	require.Equal(t, sampleCodec.Size(in), n.N)
}

func TestOctetsAliasInput(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	v, rest, err := Octets(3).Decode(src)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, v)
	require.Equal(t, []byte{4}, rest)
	require.Equal(t, 3, cap(v), "head is capped at its length")

	err = Octets(3).Write(io.Discard, []byte{1})
	require.ErrorIs(t, err, ErrInvalidSize)
}
