package hci

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/hcicodec/internal/param"
)

// BdAddr is a device address in wire order (least significant octet first).
type BdAddr [6]byte

// ParseBdAddr parses the usual "AA:BB:CC:DD:EE:FF" display form.
func ParseBdAddr(s string) (BdAddr, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 6 {
		return BdAddr{}, fmt.Errorf("hci: invalid bd_addr %q", s)
	}
	var a BdAddr
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil || len(part) != 2 {
			return BdAddr{}, fmt.Errorf("hci: invalid bd_addr %q", s)
		}
		a[5-i] = byte(v)
	}
	return a, nil
}

func (a BdAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

var BdAddrCodec = param.Map(
	param.Octets(6),
	func(b []byte) BdAddr {
		var a BdAddr
		copy(a[:], b)
		return a
	},
	func(a BdAddr) []byte { return a[:] },
)

// ConnHandle identifies a connection. Valid handles are 0x0000-0x0EFF.
type ConnHandle uint16

const MaxConnHandle ConnHandle = 0x0EFF

var ConnHandleCodec = param.Map(param.Uint16,
	func(v uint16) ConnHandle { return ConnHandle(v) },
	func(h ConnHandle) uint16 { return uint16(h) })

// Status is an HCI error code. Zero is success.
type Status uint8

const (
	StatusSuccess                  Status = 0x00
	StatusUnknownCommand           Status = 0x01
	StatusUnknownConnection        Status = 0x02
	StatusHardwareFailure          Status = 0x03
	StatusAuthenticationFailure    Status = 0x05
	StatusMemoryCapacityExceeded   Status = 0x07
	StatusCommandDisallowed        Status = 0x0C
	StatusInvalidParameters        Status = 0x12
	StatusRemoteUserTerminated     Status = 0x13
	StatusLocalHostTerminated      Status = 0x16
	StatusUnsupportedRemoteFeature Status = 0x1A
	StatusUnacceptableConnParams   Status = 0x3B
)

var statusNames = map[Status]string{
	StatusSuccess:                  "success",
	StatusUnknownCommand:           "unknown hci command",
	StatusUnknownConnection:        "unknown connection identifier",
	StatusHardwareFailure:          "hardware failure",
	StatusAuthenticationFailure:    "authentication failure",
	StatusMemoryCapacityExceeded:   "memory capacity exceeded",
	StatusCommandDisallowed:        "command disallowed",
	StatusInvalidParameters:        "invalid hci command parameters",
	StatusRemoteUserTerminated:     "remote user terminated connection",
	StatusLocalHostTerminated:      "connection terminated by local host",
	StatusUnsupportedRemoteFeature: "unsupported remote feature",
	StatusUnacceptableConnParams:   "unacceptable connection parameters",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

// Err returns nil for success and a StatusError otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return StatusError{Status: s}
}

// StatusError is a non-success status reported by the controller.
type StatusError struct {
	Status Status
}

func (e StatusError) Error() string {
	return fmt.Sprintf("hci: controller status 0x%02x: %s", uint8(e.Status), e.Status)
}

var StatusCodec = param.Map(param.Uint8,
	func(v uint8) Status { return Status(v) },
	func(s Status) uint8 { return uint8(s) })

// AddrKind selects which address a device uses.
type AddrKind uint8

const (
	AddrPublic AddrKind = iota
	AddrRandom
	AddrResolvableOrPublic
	AddrResolvableOrRandom
)

var AddrKindCodec = param.Enum(AddrPublic, AddrRandom, AddrResolvableOrPublic, AddrResolvableOrRandom)

// AdvKind is the legacy advertising PDU type.
type AdvKind uint8

const (
	AdvConnUndirected AdvKind = iota
	AdvConnDirectedHighDuty
	AdvScanUndirected
	AdvNonconnUndirected
	AdvConnDirectedLowDuty
)

var AdvKindCodec = param.Enum(
	AdvConnUndirected,
	AdvConnDirectedHighDuty,
	AdvScanUndirected,
	AdvNonconnUndirected,
	AdvConnDirectedLowDuty,
)

// AdvFilterPolicy controls which scan and connect requests are honored.
type AdvFilterPolicy uint8

const (
	AdvFilterNone AdvFilterPolicy = iota
	AdvFilterScan
	AdvFilterConn
	AdvFilterConnAndScan
)

var AdvFilterPolicyCodec = param.Enum(AdvFilterNone, AdvFilterScan, AdvFilterConn, AdvFilterConnAndScan)

type AdvEnable uint8

const (
	AdvDisabled AdvEnable = 0
	AdvEnabled  AdvEnable = 1
)

var AdvEnableCodec = param.Enum(AdvDisabled, AdvEnabled)

// DisconnectReason is the subset of error codes a host may send in
// HCI_Disconnect.
type DisconnectReason uint8

const (
	ReasonAuthenticationFailure    DisconnectReason = 0x05
	ReasonRemoteUserTerminated     DisconnectReason = 0x13
	ReasonRemoteLowResources       DisconnectReason = 0x14
	ReasonRemotePowerOff           DisconnectReason = 0x15
	ReasonUnsupportedRemoteFeature DisconnectReason = 0x1A
	ReasonPairingUnitKeyRejected   DisconnectReason = 0x29
	ReasonUnacceptableConnParams   DisconnectReason = 0x3B
)

var DisconnectReasonCodec = param.Enum(
	ReasonAuthenticationFailure,
	ReasonRemoteUserTerminated,
	ReasonRemoteLowResources,
	ReasonRemotePowerOff,
	ReasonUnsupportedRemoteFeature,
	ReasonPairingUnitKeyRejected,
	ReasonUnacceptableConnParams,
)

// CompletedPackets reports how many packets finished on one connection.
type CompletedPackets struct {
	Handle ConnHandle
	Count  uint16
}

var CompletedPacketsCodec = param.Struct(
	param.FieldOf("handle", ConnHandleCodec, func(c *CompletedPackets) *ConnHandle { return &c.Handle }),
	param.FieldOf("count", param.Uint16, func(c *CompletedPackets) *uint16 { return &c.Count }),
)
