package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/danmuck/hcicodec/internal/config"
	"github.com/danmuck/hcicodec/internal/hci"
	"github.com/danmuck/hcicodec/internal/logging"
	"github.com/danmuck/hcicodec/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "hcictl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("subcommand required")
	}
	switch args[0] {
	case "encode":
		return runEncode(args[1:], stdout, stderr)
	case "decode":
		return runDecode(args[1:], stdout, stderr)
	case "send":
		return runSend(ctx, args[1:], stdout, stderr)
	case "list":
		for _, name := range commandNames() {
			c, _ := lookup(name)
			fmt.Fprintf(stdout, "%-22s %s\n", c.name, c.about)
		}
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `hcictl encodes, decodes and exchanges HCI packets.

Usage:
  hcictl encode [--h4] <command> [command flags]
  hcictl decode [--h4] <hex>
  hcictl send [--config path] [--addr host:port] <command> [command flags]
  hcictl list
`)
}

// commandArgs splits args into the catalog command and its flag set.
func commandArgs(sub string, args []string, stderr io.Writer) (cliCommand, func() ([]byte, error), error) {
	if len(args) == 0 {
		return cliCommand{}, nil, fmt.Errorf("%s: command required (%s)", sub, strings.Join(commandNames(), ", "))
	}
	c, ok := lookup(args[0])
	if !ok {
		return cliCommand{}, nil, fmt.Errorf("%s: unknown command %q", sub, args[0])
	}
	fs := pflag.NewFlagSet("hcictl "+sub+" "+c.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	build := c.bind(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return cliCommand{}, nil, err
	}
	if fs.NArg() > 0 {
		return cliCommand{}, nil, fmt.Errorf("%s %s: unexpected arguments %v", sub, c.name, fs.Args())
	}
	return c, build, nil
}

func runEncode(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("hcictl encode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	h4 := fs.Bool("h4", false, "prefix the H4 command indicator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, build, err := commandArgs("encode", fs.Args(), stderr)
	if err != nil {
		return err
	}
	pkt, err := build()
	if err != nil {
		return err
	}
	if *h4 {
		var buf bytes.Buffer
		if err := transport.WritePacket(&buf, transport.KindCommand, pkt); err != nil {
			return err
		}
		pkt = buf.Bytes()
	}
	fmt.Fprintln(stdout, formatHex(pkt))
	return nil
}

func runDecode(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("hcictl decode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	h4 := fs.Bool("h4", false, "input starts with an H4 event indicator")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("decode: hex packet required")
	}

	data, err := parseHex(strings.Join(fs.Args(), ""))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if *h4 {
		kind, pkt, err := transport.ReadPacket(bytes.NewReader(data), transport.DefaultLimits())
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if kind != transport.KindEvent {
			return fmt.Errorf("decode: %w: %s", transport.ErrUnexpectedIndicator, kind)
		}
		data = pkt
	}

	ev, rest, err := hci.DecodeEvent(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("decode: %d bytes after event", len(rest))
	}
	return describeEvent(stdout, ev)
}

func runSend(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("hcictl send", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.String("config", "", "TOML config file")
	addr := fs.String("addr", "", "controller address, overrides the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Link.Addr = *addr
	}
	logging.SetLevel(cfg.LogLevel)

	c, build, err := commandArgs("send", fs.Args(), stderr)
	if err != nil {
		return err
	}
	pkt, err := build()
	if err != nil {
		return err
	}

	link, err := transport.Dial(ctx, cfg.Link)
	if err != nil {
		return err
	}
	defer link.Close()

	if err := link.SendCommand(ctx, pkt); err != nil {
		return fmt.Errorf("send %s: %w", c.name, err)
	}
	log.Info().Str("command", c.name).Str("addr", cfg.Link.Addr).Msg("sent")

	for {
		ev, err := link.ReadEvent(ctx)
		var stray *transport.UnexpectedPacketError
		if errors.As(err, &stray) {
			log.Debug().Stringer("kind", stray.Kind).Msg("skip packet")
			continue
		}
		if err != nil {
			return fmt.Errorf("send %s: await event: %w", c.name, err)
		}
		return describeEvent(stdout, ev)
	}
}

func describeEvent(w io.Writer, ev hci.Event) error {
	fmt.Fprintf(w, "event %s params=%s\n", ev.Code, formatHex(ev.Params))
	switch ev.Code {
	case hci.EventCommandComplete:
		cc, err := hci.ParseCommandComplete(ev)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  opcode=%s num_packets=%d\n", cc.Opcode, cc.NumPackets)
		if c, ok := lookupOpcode(cc.Opcode); ok {
			ret, err := c.ret(cc)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  return=%+v\n", ret)
		}
	case hci.EventCommandStatus:
		cs, err := hci.ParseCommandStatus(ev)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  opcode=%s status=%s num_packets=%d\n", cs.Opcode, cs.Status, cs.NumPackets)
	case hci.EventDisconnectionComplete:
		d, err := hci.ParseDisconnectionComplete(ev)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  handle=0x%04x status=%s reason=%s\n", uint16(d.Handle), d.Status, d.Reason)
	case hci.EventNumberOfCompletedPackets:
		list, err := hci.ParseNumberOfCompletedPackets(ev)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Fprintf(w, "  handle=0x%04x completed=%d\n", uint16(p.Handle), p.Count)
		}
	}
	return nil
}
