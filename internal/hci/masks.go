package hci

import "github.com/danmuck/hcicodec/internal/param"

// AdvChannelMap selects the primary advertising channels.
type AdvChannelMap param.Flags8

const (
	advChannel37 = 0
	advChannel38 = 1
	advChannel39 = 2

	AllAdvChannels AdvChannelMap = 0x07
)

func (m AdvChannelMap) Channel37() bool { return param.Flags8(m).Get(advChannel37) }
func (m AdvChannelMap) Channel38() bool { return param.Flags8(m).Get(advChannel38) }
func (m AdvChannelMap) Channel39() bool { return param.Flags8(m).Get(advChannel39) }

func (m AdvChannelMap) SetChannel37(v bool) AdvChannelMap {
	return AdvChannelMap(param.Flags8(m).Set(advChannel37, v))
}

func (m AdvChannelMap) SetChannel38(v bool) AdvChannelMap {
	return AdvChannelMap(param.Flags8(m).Set(advChannel38, v))
}

func (m AdvChannelMap) SetChannel39(v bool) AdvChannelMap {
	return AdvChannelMap(param.Flags8(m).Set(advChannel39, v))
}

var AdvChannelMapCodec = param.Map(param.Flags8Codec,
	func(f param.Flags8) AdvChannelMap { return AdvChannelMap(f) },
	func(m AdvChannelMap) param.Flags8 { return param.Flags8(m) })

// Mask is an 8-octet event mask addressed by bits of kind B.
type Mask[B ~uint] struct {
	bits param.Bitfield
}

func (m Mask[B]) Get(bit B) bool {
	return m.bits.Get(uint(bit))
}

// Set returns a copy of m with bit changed.
func (m Mask[B]) Set(bit B, v bool) Mask[B] {
	return Mask[B]{bits: m.bits.Set(uint(bit), v)}
}

// With returns a copy of m with every listed bit set.
func (m Mask[B]) With(bits ...B) Mask[B] {
	for _, b := range bits {
		m = m.Set(b, true)
	}
	return m
}

func (m Mask[B]) Equal(o Mask[B]) bool {
	return m.bits.Equal(o.bits)
}

func (m Mask[B]) String() string {
	return m.bits.String()
}

const maskOctets = 8

func maskCodec[B ~uint]() param.Codec[Mask[B]] {
	return param.Map(param.BitfieldCodec(maskOctets),
		func(b param.Bitfield) Mask[B] { return Mask[B]{bits: b} },
		func(m Mask[B]) param.Bitfield { return m.bits })
}

// EventBit names a bit of the HCI_Set_Event_Mask mask.
type EventBit uint

const (
	EventBitInquiryComplete              EventBit = 0
	EventBitInquiryResult                EventBit = 1
	EventBitConnectionComplete           EventBit = 2
	EventBitConnectionRequest            EventBit = 3
	EventBitDisconnectionComplete        EventBit = 4
	EventBitAuthenticationComplete       EventBit = 5
	EventBitRemoteNameRequestComplete    EventBit = 6
	EventBitEncryptionChange             EventBit = 7
	EventBitChangeLinkKeyComplete        EventBit = 8
	EventBitLinkKeyTypeChanged           EventBit = 9
	EventBitReadRemoteFeaturesComplete   EventBit = 10
	EventBitReadRemoteVersionComplete    EventBit = 11
	EventBitQosSetupComplete             EventBit = 12
	EventBitHardwareError                EventBit = 15
	EventBitFlushOccurred                EventBit = 16
	EventBitRoleChange                   EventBit = 17
	EventBitModeChange                   EventBit = 19
	EventBitReturnLinkKeys               EventBit = 20
	EventBitPinCodeRequest               EventBit = 21
	EventBitLinkKeyRequest               EventBit = 22
	EventBitLinkKeyNotification          EventBit = 23
	EventBitLoopbackCommand              EventBit = 24
	EventBitDataBufferOverflow           EventBit = 25
	EventBitMaxSlotsChange               EventBit = 26
	EventBitReadClockOffsetComplete      EventBit = 27
	EventBitConnectionPacketTypeChanged  EventBit = 28
	EventBitQosViolation                 EventBit = 29
	EventBitEncryptionKeyRefreshComplete EventBit = 47
	EventBitLeMeta                       EventBit = 61
)

type EventMask = Mask[EventBit]

var EventMaskCodec = maskCodec[EventBit]()

// DefaultEventMask is the controller's reset value 0x00001FFFFFFFFFFF.
func DefaultEventMask() EventMask {
	var m EventMask
	for b := EventBit(0); b < 45; b++ {
		m = m.Set(b, true)
	}
	return m
}

// LeEventBit names a bit of the HCI_LE_Set_Event_Mask mask.
type LeEventBit uint

const (
	LeEventBitConnectionComplete         LeEventBit = 0
	LeEventBitAdvertisingReport          LeEventBit = 1
	LeEventBitConnectionUpdateComplete   LeEventBit = 2
	LeEventBitReadRemoteFeaturesComplete LeEventBit = 3
	LeEventBitLongTermKeyRequest         LeEventBit = 4
	LeEventBitRemoteConnParamRequest     LeEventBit = 5
	LeEventBitDataLengthChange           LeEventBit = 6
	LeEventBitReadLocalP256KeyComplete   LeEventBit = 7
	LeEventBitGenerateDhKeyComplete      LeEventBit = 8
	LeEventBitEnhancedConnectionComplete LeEventBit = 9
	LeEventBitDirectedAdvertisingReport  LeEventBit = 10
	LeEventBitPhyUpdateComplete          LeEventBit = 11
	LeEventBitExtendedAdvertisingReport  LeEventBit = 12
)

type LeEventMask = Mask[LeEventBit]

var LeEventMaskCodec = maskCodec[LeEventBit]()

// DefaultLeEventMask is the controller's reset value 0x1F.
func DefaultLeEventMask() LeEventMask {
	return LeEventMask{}.With(
		LeEventBitConnectionComplete,
		LeEventBitAdvertisingReport,
		LeEventBitConnectionUpdateComplete,
		LeEventBitReadRemoteFeaturesComplete,
		LeEventBitLongTermKeyRequest,
	)
}
