package hci

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/hcicodec/internal/param"
)

var (
	ErrParamsTooLong  = errors.New("hci: parameters longer than 255 bytes")
	ErrOpcodeMismatch = errors.New("hci: opcode mismatch")
)

const (
	commandHeaderLen = 3
	MaxParamLen      = 255
)

// Command describes one HCI command: its opcode, parameter layout and the
// layout of the return parameters carried by its Command Complete event.
type Command[P, R any] struct {
	Name   string
	Opcode Opcode
	Params param.Codec[P]
	Return param.Codec[R]
}

func command[P, R any](name string, ogf uint8, ocf uint16, params param.Codec[P], ret param.Codec[R]) Command[P, R] {
	op := NewOpcode(ogf, ocf)
	opcodeNames[op] = name
	return Command[P, R]{Name: name, Opcode: op, Params: params, Return: ret}
}

type commandHeader struct {
	Opcode   Opcode
	ParamLen uint8
}

var commandHeaderCodec = param.Struct(
	param.FieldOf("opcode", OpcodeCodec, func(h *commandHeader) *Opcode { return &h.Opcode }),
	param.FieldOf("param_len", param.Uint8, func(h *commandHeader) *uint8 { return &h.ParamLen }),
)

// Packet encodes the full command packet: opcode, parameter length, params.
// The length byte comes from Params.Size and is cross-checked against the
// bytes actually produced.
func (c Command[P, R]) Packet(p P) ([]byte, error) {
	n := c.Params.Size(p)
	if n > MaxParamLen {
		return nil, fmt.Errorf("%w: %s needs %d", ErrParamsTooLong, c.Name, n)
	}
	buf, err := commandHeaderCodec.Append(make([]byte, 0, commandHeaderLen+n), commandHeader{
		Opcode:   c.Opcode,
		ParamLen: uint8(n),
	})
	if err != nil {
		return nil, err
	}
	buf, err = c.Params.Append(buf, p)
	if err != nil {
		return nil, fmt.Errorf("hci: encode %s: %w", c.Name, err)
	}
	if len(buf) != commandHeaderLen+n {
		return nil, fmt.Errorf("%w: %s declared %d wrote %d", param.ErrSizeMismatch, c.Name, n, len(buf)-commandHeaderLen)
	}
	return buf, nil
}

// WritePacket encodes the packet locally and hands it to w in one write so
// a failed encode never leaves a partial frame on the link.
func (c Command[P, R]) WritePacket(w io.Writer, p P) error {
	pkt, err := c.Packet(p)
	if err != nil {
		return err
	}
	n, err := w.Write(pkt)
	if err != nil {
		return err
	}
	if n < len(pkt) {
		return io.ErrShortWrite
	}
	return nil
}

// ParseReturn decodes the return parameters of a Command Complete event
// generated by this command.
func (c Command[P, R]) ParseReturn(cc CommandComplete) (R, error) {
	var zero R
	if cc.Opcode != c.Opcode {
		return zero, fmt.Errorf("%w: got %s want %s", ErrOpcodeMismatch, cc.Opcode, c.Opcode)
	}
	v, err := c.Return.Unmarshal(cc.Return)
	if err != nil {
		return zero, fmt.Errorf("hci: %s return: %w", c.Name, err)
	}
	return v, nil
}

type DisconnectParams struct {
	Handle ConnHandle
	Reason DisconnectReason
}

var disconnectParamsCodec = param.Struct(
	param.FieldOf("handle", ConnHandleCodec, func(p *DisconnectParams) *ConnHandle { return &p.Handle }),
	param.FieldOf("reason", DisconnectReasonCodec, func(p *DisconnectParams) *DisconnectReason { return &p.Reason }),
)

// LeSetAdvParams intervals are in units of 0.625 ms.
type LeSetAdvParams struct {
	IntervalMin  uint16
	IntervalMax  uint16
	Kind         AdvKind
	OwnAddrKind  AddrKind
	PeerAddrKind AddrKind
	PeerAddr     BdAddr
	ChannelMap   AdvChannelMap
	FilterPolicy AdvFilterPolicy
}

var leSetAdvParamsCodec = param.Struct(
	param.FieldOf("interval_min", param.Uint16, func(p *LeSetAdvParams) *uint16 { return &p.IntervalMin }),
	param.FieldOf("interval_max", param.Uint16, func(p *LeSetAdvParams) *uint16 { return &p.IntervalMax }),
	param.FieldOf("kind", AdvKindCodec, func(p *LeSetAdvParams) *AdvKind { return &p.Kind }),
	param.FieldOf("own_addr_kind", AddrKindCodec, func(p *LeSetAdvParams) *AddrKind { return &p.OwnAddrKind }),
	param.FieldOf("peer_addr_kind", AddrKindCodec, func(p *LeSetAdvParams) *AddrKind { return &p.PeerAddrKind }),
	param.FieldOf("peer_addr", BdAddrCodec, func(p *LeSetAdvParams) *BdAddr { return &p.PeerAddr }),
	param.FieldOf("channel_map", AdvChannelMapCodec, func(p *LeSetAdvParams) *AdvChannelMap { return &p.ChannelMap }),
	param.FieldOf("filter_policy", AdvFilterPolicyCodec, func(p *LeSetAdvParams) *AdvFilterPolicy { return &p.FilterPolicy }),
)

type ReadBdAddrReturn struct {
	Status Status
	Addr   BdAddr
}

var readBdAddrReturnCodec = param.Struct(
	param.FieldOf("status", StatusCodec, func(r *ReadBdAddrReturn) *Status { return &r.Status }),
	param.FieldOf("bd_addr", BdAddrCodec, func(r *ReadBdAddrReturn) *BdAddr { return &r.Addr }),
)

type LeReadBufferSizeReturn struct {
	Status        Status
	AclPacketLen  uint16
	AclNumPackets uint8
}

var leReadBufferSizeReturnCodec = param.Struct(
	param.FieldOf("status", StatusCodec, func(r *LeReadBufferSizeReturn) *Status { return &r.Status }),
	param.FieldOf("acl_packet_len", param.Uint16, func(r *LeReadBufferSizeReturn) *uint16 { return &r.AclPacketLen }),
	param.FieldOf("acl_num_packets", param.Uint8, func(r *LeReadBufferSizeReturn) *uint8 { return &r.AclNumPackets }),
)

// Commands with no Command Complete event use param.Unit as their return
// layout; Status-only returns use StatusCodec.
var (
	Disconnect = command("HCI_Disconnect", OGFLinkControl, 0x0006,
		disconnectParamsCodec, param.Unit)

	SetEventMask = command("HCI_Set_Event_Mask", OGFControllerBaseband, 0x0001,
		EventMaskCodec, StatusCodec)
	Reset = command("HCI_Reset", OGFControllerBaseband, 0x0003,
		param.Unit, StatusCodec)
	HostNumberOfCompletedPackets = command("HCI_Host_Number_Of_Completed_Packets", OGFControllerBaseband, 0x0035,
		param.Slice(CompletedPacketsCodec), param.Unit)

	ReadBdAddr = command("HCI_Read_BD_ADDR", OGFInfoParams, 0x0009,
		param.Unit, readBdAddrReturnCodec)

	LeSetEventMask = command("HCI_LE_Set_Event_Mask", OGFLE, 0x0001,
		LeEventMaskCodec, StatusCodec)
	LeReadBufferSize = command("HCI_LE_Read_Buffer_Size", OGFLE, 0x0002,
		param.Unit, leReadBufferSizeReturnCodec)
	LeSetRandomAddr = command("HCI_LE_Set_Random_Address", OGFLE, 0x0005,
		BdAddrCodec, StatusCodec)
	LeSetAdvParamsCmd = command("HCI_LE_Set_Advertising_Parameters", OGFLE, 0x0006,
		leSetAdvParamsCodec, StatusCodec)
	LeSetAdvEnable = command("HCI_LE_Set_Advertising_Enable", OGFLE, 0x000A,
		AdvEnableCodec, StatusCodec)
)
