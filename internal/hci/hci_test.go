package hci

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/hcicodec/internal/param"
	"github.com/danmuck/hcicodec/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestOpcodeSplit(t *testing.T) {
	require.Equal(t, Opcode(0x0c03), Reset.Opcode)
	require.Equal(t, OGFControllerBaseband, Reset.Opcode.OGF())
	require.Equal(t, uint16(0x0003), Reset.Opcode.OCF())
	require.Equal(t, Opcode(0x2006), LeSetAdvParamsCmd.Opcode)
	require.Equal(t, "HCI_Reset", Reset.Opcode.String())
	require.Equal(t, "0xfc01", Opcode(0xfc01).String())
}

func TestResetPacket(t *testing.T) {
	testlog.Start(t)
	pkt, err := Reset.Packet(struct{}{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 0x0c, 0x00}, pkt)
}

func TestDisconnectPacket(t *testing.T) {
	testlog.Start(t)
	pkt, err := Disconnect.Packet(DisconnectParams{Handle: 0x0040, Reason: ReasonRemoteUserTerminated})
	require.NoError(t, err)
	require.Equal(t, []byte{0x06, 0x04, 0x03, 0x40, 0x00, 0x13}, pkt)
}

func TestDisconnectRejectsUnknownReason(t *testing.T) {
	_, err := Disconnect.Packet(DisconnectParams{Handle: 1, Reason: DisconnectReason(0x01)})
	require.ErrorIs(t, err, param.ErrInvalidValue)
}

func TestLeSetAdvParamsPacketLayout(t *testing.T) {
	testlog.Start(t)
	peer, err := ParseBdAddr("11:22:33:44:55:66")
	require.NoError(t, err)

	p := LeSetAdvParams{
		IntervalMin:  0x0800,
		IntervalMax:  0x0900,
		Kind:         AdvNonconnUndirected,
		OwnAddrKind:  AddrRandom,
		PeerAddrKind: AddrPublic,
		PeerAddr:     peer,
		ChannelMap:   AdvChannelMap(0).SetChannel37(true).SetChannel39(true),
		FilterPolicy: AdvFilterScan,
	}
	pkt, err := LeSetAdvParamsCmd.Packet(p)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x06, 0x20, 15,
		0x00, 0x08, 0x00, 0x09,
		0x03, 0x01, 0x00,
		0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
		0x05, 0x01,
	}, pkt)

	got, err := leSetAdvParamsCodec.Unmarshal(pkt[commandHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, p, got)
	require.True(t, got.ChannelMap.Channel37())
	require.False(t, got.ChannelMap.Channel38())
}

func TestSetEventMaskPacket(t *testing.T) {
	testlog.Start(t)
	pkt, err := SetEventMask.Packet(DefaultEventMask())
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x0c, 0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0x1f, 0x00, 0x00}, pkt)

	m := EventMask{}.With(EventBitDisconnectionComplete, EventBitLeMeta)
	pkt, err = SetEventMask.Packet(m)
	require.NoError(t, err)
	require.Equal(t, []byte{0x10, 0, 0, 0, 0, 0, 0, 0x20}, pkt[commandHeaderLen:])

	decoded, err := EventMaskCodec.Unmarshal(pkt[commandHeaderLen:])
	require.NoError(t, err)
	require.True(t, m.Equal(decoded))
	require.True(t, decoded.Get(EventBitLeMeta))
	require.False(t, decoded.Get(EventBitHardwareError))
}

func TestLeEventMaskDefault(t *testing.T) {
	pkt, err := LeSetEventMask.Packet(DefaultLeEventMask())
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x20, 0x08, 0x1f, 0, 0, 0, 0, 0, 0, 0}, pkt)
}

func TestHostNumberOfCompletedPacketsInterleaves(t *testing.T) {
	testlog.Start(t)
	pkt, err := HostNumberOfCompletedPackets.Packet([]CompletedPackets{
		{Handle: 0x0001, Count: 2},
		{Handle: 0x0002, Count: 0x0100},
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x35, 0x0c, 0x09, 0x02, 0x01, 0x00, 0x02, 0x00, 0x02, 0x00, 0x00, 0x01}, pkt)
}

func TestPacketRejectsOversizedParams(t *testing.T) {
	list := make([]CompletedPackets, 64)
	_, err := HostNumberOfCompletedPackets.Packet(list)
	require.ErrorIs(t, err, ErrParamsTooLong)
}

func TestPacketDetectsSizeMismatch(t *testing.T) {
	lying := Command[uint8, struct{}]{
		Name:   "lying",
		Opcode: 0xfc00,
		Params: param.New(
			func(uint8) int { return 2 },
			func(e param.Emitter, v uint8) error { return e([]byte{v}) },
			param.Uint8.Decode,
		),
		Return: param.Unit,
	}
	_, err := lying.Packet(1)
	require.ErrorIs(t, err, param.ErrSizeMismatch)
}

type recordingWriter struct {
	writes [][]byte
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, append([]byte(nil), p...))
	return len(p), nil
}

func TestWritePacketIsSingleWrite(t *testing.T) {
	var w recordingWriter
	err := LeSetRandomAddr.WritePacket(&w, BdAddr{1, 2, 3, 4, 5, 0xc6})
	require.NoError(t, err)
	require.Len(t, w.writes, 1)
	require.Equal(t, []byte{0x05, 0x20, 0x06, 1, 2, 3, 4, 5, 0xc6}, w.writes[0])
}

func TestDecodeEventAndCommandComplete(t *testing.T) {
	testlog.Start(t)
	raw := []byte{0x0e, 0x0a, 0x01, 0x09, 0x10, 0x00, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0xff}

	ev, rest, err := DecodeEvent(raw)
	require.NoError(t, err)
	require.Equal(t, EventCommandComplete, ev.Code)
	require.Equal(t, []byte{0xff}, rest)

	cc, err := ParseCommandComplete(ev)
	require.NoError(t, err)
	require.Equal(t, uint8(1), cc.NumPackets)
	require.Equal(t, ReadBdAddr.Opcode, cc.Opcode)

	ret, err := ReadBdAddr.ParseReturn(cc)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, ret.Status)
	require.Equal(t, "11:22:33:44:55:66", ret.Addr.String())

	_, err = Reset.ParseReturn(cc)
	require.ErrorIs(t, err, ErrOpcodeMismatch)

	status, ok := cc.Status()
	require.True(t, ok)
	require.Equal(t, StatusSuccess, status)

	_, ok = CommandComplete{Opcode: Reset.Opcode}.Status()
	require.False(t, ok)
}

func TestLeReadBufferSizeReturn(t *testing.T) {
	ev := Event{Code: EventCommandComplete, Params: []byte{0x01, 0x02, 0x20, 0x00, 0xfb, 0x00, 0x0f}}
	cc, err := ParseCommandComplete(ev)
	require.NoError(t, err)

	ret, err := LeReadBufferSize.ParseReturn(cc)
	require.NoError(t, err)
	require.Equal(t, LeReadBufferSizeReturn{Status: StatusSuccess, AclPacketLen: 251, AclNumPackets: 15}, ret)
}

func TestDecodeEventTruncated(t *testing.T) {
	_, _, err := DecodeEvent([]byte{0x0e})
	require.ErrorIs(t, err, param.ErrInvalidSize)

	_, _, err = DecodeEvent([]byte{0x0e, 0x04, 0x01, 0x03})
	require.ErrorIs(t, err, param.ErrInvalidSize)
}

func TestEventPacketRoundTrip(t *testing.T) {
	in := Event{Code: EventHardwareError, Params: []byte{0x07}}
	pkt, err := in.Packet()
	require.NoError(t, err)
	require.Equal(t, []byte{0x10, 0x01, 0x07}, pkt)

	out, rest, err := DecodeEvent(pkt)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, in, out)
}

func TestCommandStatusAndStatusErr(t *testing.T) {
	ev := Event{Code: EventCommandStatus, Params: []byte{0x0c, 0x01, 0x06, 0x04}}
	cs, err := ParseCommandStatus(ev)
	require.NoError(t, err)
	require.Equal(t, Disconnect.Opcode, cs.Opcode)
	require.Equal(t, StatusCommandDisallowed, cs.Status)

	var se StatusError
	require.True(t, errors.As(cs.Status.Err(), &se))
	require.Equal(t, StatusCommandDisallowed, se.Status)
	require.NoError(t, StatusSuccess.Err())

	_, err = ParseCommandComplete(ev)
	require.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestDisconnectionComplete(t *testing.T) {
	ev := Event{Code: EventDisconnectionComplete, Params: []byte{0x00, 0x40, 0x00, 0x16}}
	d, err := ParseDisconnectionComplete(ev)
	require.NoError(t, err)
	require.Equal(t, DisconnectionComplete{Status: StatusSuccess, Handle: 0x40, Reason: StatusLocalHostTerminated}, d)

	ev.Params = ev.Params[:3]
	_, err = ParseDisconnectionComplete(ev)
	require.ErrorIs(t, err, param.ErrInvalidSize)
	var fe *param.FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "reason", fe.Field)
}

func TestNumberOfCompletedPackets(t *testing.T) {
	ev := Event{Code: EventNumberOfCompletedPackets, Params: []byte{0x01, 0x40, 0x00, 0x03, 0x00}}
	list, err := ParseNumberOfCompletedPackets(ev)
	require.NoError(t, err)
	require.Equal(t, []CompletedPackets{{Handle: 0x40, Count: 3}}, list)

	ev.Params = append(bytes.Clone(ev.Params), 0x00)
	_, err = ParseNumberOfCompletedPackets(ev)
	require.ErrorIs(t, err, param.ErrTrailingData)
}

func TestParseBdAddr(t *testing.T) {
	a, err := ParseBdAddr("C0:FF:EE:00:00:01")
	require.NoError(t, err)
	require.Equal(t, BdAddr{0x01, 0x00, 0x00, 0xee, 0xff, 0xc0}, a)
	require.Equal(t, "C0:FF:EE:00:00:01", a.String())

	for _, bad := range []string{"", "C0:FF:EE:00:00", "G0:FF:EE:00:00:01", "C:FF:EE:00:00:01"} {
		_, err := ParseBdAddr(bad)
		require.Error(t, err, bad)
	}
}

func TestCodecsVerify(t *testing.T) {
	require.NoError(t, leSetAdvParamsCodec.Verify(LeSetAdvParams{Kind: AdvConnUndirected}))
	require.NoError(t, EventMaskCodec.Verify(DefaultEventMask()))
	require.NoError(t, HostNumberOfCompletedPackets.Params.Verify([]CompletedPackets{{Handle: 1, Count: 1}}))
}
