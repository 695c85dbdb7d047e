package main

import (
	"fmt"
	"sort"

	"github.com/danmuck/hcicodec/internal/hci"
	"github.com/spf13/pflag"
)

// cliCommand binds one catalog command to its flags.
type cliCommand struct {
	name   string
	about  string
	opcode hci.Opcode
	bind   func(fs *pflag.FlagSet) func() ([]byte, error)
	ret    func(cc hci.CommandComplete) (any, error)
}

func entry[P, R any](name, about string, cmd hci.Command[P, R], params func(fs *pflag.FlagSet) func() (P, error)) cliCommand {
	return cliCommand{
		name:   name,
		about:  about,
		opcode: cmd.Opcode,
		bind: func(fs *pflag.FlagSet) func() ([]byte, error) {
			build := params(fs)
			return func() ([]byte, error) {
				p, err := build()
				if err != nil {
					return nil, err
				}
				return cmd.Packet(p)
			}
		},
		ret: func(cc hci.CommandComplete) (any, error) { return cmd.ParseReturn(cc) },
	}
}

func noParams(*pflag.FlagSet) func() (struct{}, error) {
	return func() (struct{}, error) { return struct{}{}, nil }
}

var catalog = []cliCommand{
	entry("reset", "HCI_Reset", hci.Reset, noParams),
	entry("read-bd-addr", "HCI_Read_BD_ADDR", hci.ReadBdAddr, noParams),
	entry("le-read-buffer-size", "HCI_LE_Read_Buffer_Size", hci.LeReadBufferSize, noParams),
	entry("disconnect", "HCI_Disconnect (--handle, --reason)", hci.Disconnect, disconnectFlags),
	entry("set-event-mask", "HCI_Set_Event_Mask (--bits)", hci.SetEventMask, eventMaskFlags),
	entry("le-set-event-mask", "HCI_LE_Set_Event_Mask (--bits)", hci.LeSetEventMask, leEventMaskFlags),
	entry("le-set-random-addr", "HCI_LE_Set_Random_Address (--addr)", hci.LeSetRandomAddr, randomAddrFlags),
	entry("le-set-adv-enable", "HCI_LE_Set_Advertising_Enable (--enable)", hci.LeSetAdvEnable, advEnableFlags),
	entry("le-set-adv-params", "HCI_LE_Set_Advertising_Parameters", hci.LeSetAdvParamsCmd, advParamsFlags),
}

func lookup(name string) (cliCommand, bool) {
	for _, c := range catalog {
		if c.name == name {
			return c, true
		}
	}
	return cliCommand{}, false
}

func lookupOpcode(op hci.Opcode) (cliCommand, bool) {
	for _, c := range catalog {
		if c.opcode == op {
			return c, true
		}
	}
	return cliCommand{}, false
}

func commandNames() []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

func disconnectFlags(fs *pflag.FlagSet) func() (hci.DisconnectParams, error) {
	handle := fs.Uint16("handle", 0, "connection handle")
	reason := fs.Uint8("reason", uint8(hci.ReasonRemoteUserTerminated), "disconnect reason code")
	return func() (hci.DisconnectParams, error) {
		if hci.ConnHandle(*handle) > hci.MaxConnHandle {
			return hci.DisconnectParams{}, fmt.Errorf("handle 0x%04x out of range", *handle)
		}
		return hci.DisconnectParams{Handle: hci.ConnHandle(*handle), Reason: hci.DisconnectReason(*reason)}, nil
	}
}

func eventMaskFlags(fs *pflag.FlagSet) func() (hci.EventMask, error) {
	bits := fs.UintSlice("bits", nil, "event mask bits to set (default: the controller default mask)")
	return func() (hci.EventMask, error) {
		if len(*bits) == 0 {
			return hci.DefaultEventMask(), nil
		}
		m := hci.EventMask{}
		for _, b := range *bits {
			if b >= 64 {
				return hci.EventMask{}, fmt.Errorf("event mask bit %d out of range", b)
			}
			m = m.Set(hci.EventBit(b), true)
		}
		return m, nil
	}
}

func leEventMaskFlags(fs *pflag.FlagSet) func() (hci.LeEventMask, error) {
	bits := fs.UintSlice("bits", nil, "LE event mask bits to set (default: the controller default mask)")
	return func() (hci.LeEventMask, error) {
		if len(*bits) == 0 {
			return hci.DefaultLeEventMask(), nil
		}
		m := hci.LeEventMask{}
		for _, b := range *bits {
			if b >= 64 {
				return hci.LeEventMask{}, fmt.Errorf("LE event mask bit %d out of range", b)
			}
			m = m.Set(hci.LeEventBit(b), true)
		}
		return m, nil
	}
}

func randomAddrFlags(fs *pflag.FlagSet) func() (hci.BdAddr, error) {
	addr := fs.String("addr", "", "random address, AA:BB:CC:DD:EE:FF")
	return func() (hci.BdAddr, error) { return hci.ParseBdAddr(*addr) }
}

func advEnableFlags(fs *pflag.FlagSet) func() (hci.AdvEnable, error) {
	enable := fs.Bool("enable", true, "enable advertising")
	return func() (hci.AdvEnable, error) {
		if *enable {
			return hci.AdvEnabled, nil
		}
		return hci.AdvDisabled, nil
	}
}

func advParamsFlags(fs *pflag.FlagSet) func() (hci.LeSetAdvParams, error) {
	intervalMin := fs.Uint16("interval-min", 0x0800, "minimum advertising interval (0.625 ms units)")
	intervalMax := fs.Uint16("interval-max", 0x0800, "maximum advertising interval (0.625 ms units)")
	kind := fs.Uint8("kind", uint8(hci.AdvConnUndirected), "advertising type")
	ownKind := fs.Uint8("own-addr-kind", uint8(hci.AddrPublic), "own address type")
	peerKind := fs.Uint8("peer-addr-kind", uint8(hci.AddrPublic), "peer address type")
	peer := fs.String("peer-addr", "00:00:00:00:00:00", "peer address for directed advertising")
	channels := fs.UintSlice("channels", []uint{37, 38, 39}, "advertising channels")
	filter := fs.Uint8("filter", uint8(hci.AdvFilterNone), "advertising filter policy")
	return func() (hci.LeSetAdvParams, error) {
		addr, err := hci.ParseBdAddr(*peer)
		if err != nil {
			return hci.LeSetAdvParams{}, err
		}
		var chmap hci.AdvChannelMap
		for _, ch := range *channels {
			switch ch {
			case 37:
				chmap = chmap.SetChannel37(true)
			case 38:
				chmap = chmap.SetChannel38(true)
			case 39:
				chmap = chmap.SetChannel39(true)
			default:
				return hci.LeSetAdvParams{}, fmt.Errorf("advertising channel %d not in 37..39", ch)
			}
		}
		return hci.LeSetAdvParams{
			IntervalMin:  *intervalMin,
			IntervalMax:  *intervalMax,
			Kind:         hci.AdvKind(*kind),
			OwnAddrKind:  hci.AddrKind(*ownKind),
			PeerAddrKind: hci.AddrKind(*peerKind),
			PeerAddr:     addr,
			ChannelMap:   chmap,
			FilterPolicy: hci.AdvFilterPolicy(*filter),
		}, nil
	}
}
