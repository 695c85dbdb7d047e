// Package param owns the parameter codec contract for fixed-layout packets.
//
// Every wire type is described by a Codec value built from a small set of
// combinators:
// - fixed-width little-endian integers and opaque octet arrays
// - Struct/Pair groups encoded by plain concatenation in declared order
// - Enum types encoded as a single discriminant byte
// - Flags8/Bitfield packed boolean flags, LSB first
// - Slice sequences prefixed by a one-byte element count
//
// Decoding works on a borrowed byte span and returns the unconsumed
// remainder. Codecs hold no mutable state and may be shared freely.
package param
