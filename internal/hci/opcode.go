package hci

import (
	"fmt"

	"github.com/danmuck/hcicodec/internal/param"
)

// Command groups (OGF).
const (
	OGFLinkControl        uint8 = 0x01
	OGFControllerBaseband uint8 = 0x03
	OGFInfoParams         uint8 = 0x04
	OGFLE                 uint8 = 0x08
)

// Opcode identifies a command: OGF in the top 6 bits, OCF in the low 10.
type Opcode uint16

func NewOpcode(ogf uint8, ocf uint16) Opcode {
	return Opcode(uint16(ogf&0x3f)<<10 | ocf&0x03ff)
}

func (o Opcode) OGF() uint8 {
	return uint8(o >> 10)
}

func (o Opcode) OCF() uint16 {
	return uint16(o) & 0x03ff
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint16(o))
}

var OpcodeCodec = param.Map(param.Uint16,
	func(v uint16) Opcode { return Opcode(v) },
	func(o Opcode) uint16 { return uint16(o) })

var opcodeNames = map[Opcode]string{}
