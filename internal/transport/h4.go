package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/hcicodec/internal/param"
)

// PacketKind is the H4 packet indicator that precedes every packet on a
// UART-style link.
type PacketKind uint8

const (
	KindCommand PacketKind = 0x01
	KindACL     PacketKind = 0x02
	KindSCO     PacketKind = 0x03
	KindEvent   PacketKind = 0x04
)

func (k PacketKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindACL:
		return "acl"
	case KindSCO:
		return "sco"
	case KindEvent:
		return "event"
	default:
		return fmt.Sprintf("kind_0x%02x", uint8(k))
	}
}

var (
	ErrUnexpectedIndicator = errors.New("transport: unexpected packet indicator")
	ErrPacketTooLarge      = errors.New("transport: packet too large")
	ErrShortPacket         = errors.New("transport: short packet")
)

// Limits constrains how much a single read may allocate.
type Limits struct {
	MaxPacketBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPacketBytes: 4 + 0xffff}
}

// header describes the kind-specific header that carries the payload length.
type header struct {
	size   int
	length func(head []byte) (int, error)
}

var headers = map[PacketKind]header{
	KindCommand: {size: 3, length: lengthAt(2, param.Uint8)},
	KindACL:     {size: 4, length: lengthAt(2, param.Uint16)},
	KindSCO:     {size: 3, length: lengthAt(2, param.Uint8)},
	KindEvent:   {size: 2, length: lengthAt(1, param.Uint8)},
}

func lengthAt[T uint8 | uint16](offset int, c param.Codec[T]) func([]byte) (int, error) {
	return func(head []byte) (int, error) {
		if len(head) < offset {
			return 0, param.ErrInvalidSize
		}
		v, _, err := c.Decode(head[offset:])
		if err != nil {
			return 0, err
		}
		return int(v), nil
	}
}

// WritePacket emits the indicator and packet in a single write.
func WritePacket(w io.Writer, kind PacketKind, pkt []byte) error {
	frame := framePacket(kind, pkt)
	n, err := w.Write(frame)
	if err != nil {
		return err
	}
	if n < len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

func framePacket(kind PacketKind, pkt []byte) []byte {
	frame := make([]byte, 0, 1+len(pkt))
	frame = append(frame, byte(kind))
	return append(frame, pkt...)
}

// ReadPacket reads one indicator-prefixed packet. The returned packet
// excludes the indicator and includes the kind-specific header.
func ReadPacket(r io.Reader, limits Limits) (PacketKind, []byte, error) {
	var indicator [1]byte
	if _, err := io.ReadFull(r, indicator[:]); err != nil {
		return 0, nil, err
	}
	kind := PacketKind(indicator[0])
	h, ok := headers[kind]
	if !ok {
		return kind, nil, fmt.Errorf("%w: 0x%02x", ErrUnexpectedIndicator, indicator[0])
	}

	head := make([]byte, h.size)
	if _, err := io.ReadFull(r, head); err != nil {
		return kind, nil, shortPacket(err)
	}
	n, err := h.length(head)
	if err != nil {
		return kind, nil, err
	}
	if limits.MaxPacketBytes > 0 && h.size+n > limits.MaxPacketBytes {
		return kind, nil, fmt.Errorf("%w: %s %d bytes", ErrPacketTooLarge, kind, h.size+n)
	}

	pkt := make([]byte, h.size+n)
	copy(pkt, head)
	if _, err := io.ReadFull(r, pkt[h.size:]); err != nil {
		return kind, nil, shortPacket(err)
	}
	return kind, pkt, nil
}

func shortPacket(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrShortPacket
	}
	return err
}
