package hci

import (
	"errors"
	"fmt"

	"github.com/danmuck/hcicodec/internal/param"
)

var ErrUnexpectedEvent = errors.New("hci: unexpected event code")

const EventHeaderLen = 2

// EventCode identifies an event packet.
type EventCode uint8

const (
	EventDisconnectionComplete    EventCode = 0x05
	EventEncryptionChange         EventCode = 0x08
	EventCommandComplete          EventCode = 0x0E
	EventCommandStatus            EventCode = 0x0F
	EventHardwareError            EventCode = 0x10
	EventNumberOfCompletedPackets EventCode = 0x13
	EventLeMeta                   EventCode = 0x3E
)

var eventNames = map[EventCode]string{
	EventDisconnectionComplete:    "HCI_Disconnection_Complete",
	EventEncryptionChange:         "HCI_Encryption_Change",
	EventCommandComplete:          "HCI_Command_Complete",
	EventCommandStatus:            "HCI_Command_Status",
	EventHardwareError:            "HCI_Hardware_Error",
	EventNumberOfCompletedPackets: "HCI_Number_Of_Completed_Packets",
	EventLeMeta:                   "HCI_LE_Meta",
}

func (c EventCode) String() string {
	if name, ok := eventNames[c]; ok {
		return name
	}
	return fmt.Sprintf("event 0x%02x", uint8(c))
}

var EventCodeCodec = param.Map(param.Uint8,
	func(v uint8) EventCode { return EventCode(v) },
	func(c EventCode) uint8 { return uint8(c) })

// Event is one event packet. Params aliases the decoded span.
type Event struct {
	Code   EventCode
	Params []byte
}

type eventHeader struct {
	Code     EventCode
	ParamLen uint8
}

var eventHeaderCodec = param.Struct(
	param.FieldOf("code", EventCodeCodec, func(h *eventHeader) *EventCode { return &h.Code }),
	param.FieldOf("param_len", param.Uint8, func(h *eventHeader) *uint8 { return &h.ParamLen }),
)

// DecodeEvent reads one event packet from the front of data.
func DecodeEvent(data []byte) (Event, []byte, error) {
	head, rest, err := eventHeaderCodec.Decode(data)
	if err != nil {
		return Event{}, nil, err
	}
	n := int(head.ParamLen)
	if len(rest) < n {
		return Event{}, nil, fmt.Errorf("%w: %s wants %d param bytes, have %d", param.ErrInvalidSize, head.Code, n, len(rest))
	}
	return Event{Code: head.Code, Params: rest[:n:n]}, rest[n:], nil
}

// Packet encodes e as code, parameter length, params.
func (e Event) Packet() ([]byte, error) {
	if len(e.Params) > MaxParamLen {
		return nil, fmt.Errorf("%w: %s has %d", ErrParamsTooLong, e.Code, len(e.Params))
	}
	buf, err := eventHeaderCodec.Append(make([]byte, 0, EventHeaderLen+len(e.Params)), eventHeader{
		Code:     e.Code,
		ParamLen: uint8(len(e.Params)),
	})
	if err != nil {
		return nil, err
	}
	return append(buf, e.Params...), nil
}

func (e Event) expect(code EventCode) error {
	if e.Code != code {
		return fmt.Errorf("%w: got %s want %s", ErrUnexpectedEvent, e.Code, code)
	}
	return nil
}

// CommandComplete carries the return parameters of a finished command.
// Return aliases the event params; decode it with Command.ParseReturn.
type CommandComplete struct {
	NumPackets uint8
	Opcode     Opcode
	Return     []byte
}

var commandCompleteHead = param.Pair(param.Uint8, OpcodeCodec)

// Status reports the leading status octet that every HCI return parameter
// block starts with. ok is false when the event carries no return bytes.
func (cc CommandComplete) Status() (Status, bool) {
	if len(cc.Return) == 0 {
		return StatusSuccess, false
	}
	return Status(cc.Return[0]), true
}

func ParseCommandComplete(e Event) (CommandComplete, error) {
	if err := e.expect(EventCommandComplete); err != nil {
		return CommandComplete{}, err
	}
	head, rest, err := commandCompleteHead.Decode(e.Params)
	if err != nil {
		return CommandComplete{}, fmt.Errorf("hci: command complete: %w", err)
	}
	return CommandComplete{NumPackets: head.First, Opcode: head.Second, Return: rest}, nil
}

type CommandStatus struct {
	Status     Status
	NumPackets uint8
	Opcode     Opcode
}

var commandStatusCodec = param.Struct(
	param.FieldOf("status", StatusCodec, func(s *CommandStatus) *Status { return &s.Status }),
	param.FieldOf("num_packets", param.Uint8, func(s *CommandStatus) *uint8 { return &s.NumPackets }),
	param.FieldOf("opcode", OpcodeCodec, func(s *CommandStatus) *Opcode { return &s.Opcode }),
)

func ParseCommandStatus(e Event) (CommandStatus, error) {
	if err := e.expect(EventCommandStatus); err != nil {
		return CommandStatus{}, err
	}
	s, err := commandStatusCodec.Unmarshal(e.Params)
	if err != nil {
		return CommandStatus{}, fmt.Errorf("hci: command status: %w", err)
	}
	return s, nil
}

// DisconnectionComplete reports the end of a connection. Reason may be any
// error code, not just the host-sendable DisconnectReason set.
type DisconnectionComplete struct {
	Status Status
	Handle ConnHandle
	Reason Status
}

var disconnectionCompleteCodec = param.Struct(
	param.FieldOf("status", StatusCodec, func(d *DisconnectionComplete) *Status { return &d.Status }),
	param.FieldOf("handle", ConnHandleCodec, func(d *DisconnectionComplete) *ConnHandle { return &d.Handle }),
	param.FieldOf("reason", StatusCodec, func(d *DisconnectionComplete) *Status { return &d.Reason }),
)

func ParseDisconnectionComplete(e Event) (DisconnectionComplete, error) {
	if err := e.expect(EventDisconnectionComplete); err != nil {
		return DisconnectionComplete{}, err
	}
	d, err := disconnectionCompleteCodec.Unmarshal(e.Params)
	if err != nil {
		return DisconnectionComplete{}, fmt.Errorf("hci: disconnection complete: %w", err)
	}
	return d, nil
}

var completedPacketsListCodec = param.Slice(CompletedPacketsCodec)

func ParseNumberOfCompletedPackets(e Event) ([]CompletedPackets, error) {
	if err := e.expect(EventNumberOfCompletedPackets); err != nil {
		return nil, err
	}
	list, err := completedPacketsListCodec.Unmarshal(e.Params)
	if err != nil {
		return nil, fmt.Errorf("hci: number of completed packets: %w", err)
	}
	return list, nil
}
