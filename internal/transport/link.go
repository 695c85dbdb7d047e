package transport

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danmuck/hcicodec/internal/hci"
	"github.com/danmuck/hcicodec/internal/logging"
	"github.com/danmuck/hcicodec/internal/observability"
	"github.com/danmuck/hcicodec/internal/param"
	"github.com/rs/zerolog"
)

// Link carries H4 framed packets over a byte stream. Writes and reads are
// serialized independently, so one sender and one reader may run at once.
type Link struct {
	rw           io.ReadWriter
	w            param.ContextWriter
	limits       Limits
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          zerolog.Logger

	wmu sync.Mutex
	rmu sync.Mutex
}

type Option func(*Link)

func WithLimits(limits Limits) Option {
	return func(l *Link) { l.limits = limits }
}

// WithTimeouts bounds each read and write. Zero disables the bound.
func WithTimeouts(read, write time.Duration) Option {
	return func(l *Link) {
		l.readTimeout = read
		l.writeTimeout = write
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Link) { l.log = log }
}

func NewLink(rw io.ReadWriter, opts ...Option) *Link {
	l := &Link{
		rw:     rw,
		limits: DefaultLimits(),
		log:    logging.Component("transport"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if conn, ok := rw.(net.Conn); ok {
		l.w = ConnWriter{Conn: conn, Timeout: l.writeTimeout}
	} else {
		l.w = param.Blocking(rw)
	}
	return l
}

func (l *Link) Close() error {
	if c, ok := l.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SendCommand writes the indicator and an encoded command packet in a
// single write. Transport errors are returned unchanged.
func (l *Link) SendCommand(ctx context.Context, pkt []byte) error {
	return l.send(ctx, KindCommand, pkt)
}

func (l *Link) send(ctx context.Context, kind PacketKind, pkt []byte) error {
	frame := framePacket(kind, pkt)

	l.wmu.Lock()
	defer l.wmu.Unlock()
	if err := l.w.WriteContext(ctx, frame); err != nil {
		return err
	}
	observability.RecordPacket(observability.DirectionTx, kind.String(), len(frame))
	l.log.Debug().Stringer("kind", kind).Str("hex", hex.EncodeToString(frame)).Msg("tx")
	return nil
}

// UnexpectedPacketError reports a well-formed packet of a kind other than
// event. The packet has been consumed, so the stream is still aligned.
type UnexpectedPacketError struct {
	Kind PacketKind
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("%s: %s while waiting for event", ErrUnexpectedIndicator, e.Kind)
}

func (e *UnexpectedPacketError) Unwrap() error { return ErrUnexpectedIndicator }

// ReadEvent reads the next packet and decodes it as an event. Any other
// packet kind is consumed and reported as *UnexpectedPacketError. A read
// cut short by ctx may leave the stream mid-packet; close the link after.
func (l *Link) ReadEvent(ctx context.Context) (hci.Event, error) {
	l.rmu.Lock()
	defer l.rmu.Unlock()

	if err := ctx.Err(); err != nil {
		return hci.Event{}, err
	}
	done, err := watchRead(ctx, l.rw, l.readTimeout)
	if err != nil {
		return hci.Event{}, err
	}
	kind, pkt, err := ReadPacket(l.rw, l.limits)
	done()
	if err != nil {
		return hci.Event{}, contextError(ctx, err)
	}

	observability.RecordPacket(observability.DirectionRx, kind.String(), 1+len(pkt))
	l.log.Debug().Stringer("kind", kind).Str("hex", hex.EncodeToString(pkt)).Msg("rx")
	if kind != KindEvent {
		return hci.Event{}, &UnexpectedPacketError{Kind: kind}
	}

	ev, rest, err := hci.DecodeEvent(pkt)
	if err == nil && len(rest) != 0 {
		err = fmt.Errorf("%w: %d bytes", param.ErrTrailingData, len(rest))
	}
	if err != nil {
		observability.RecordDecodeError(err)
		return hci.Event{}, err
	}
	return ev, nil
}

// Exchange sends cmd and waits for its completion, skipping data packets and
// events that belong to other commands. A failed status becomes a
// hci.StatusError whichever event carries it. For Command Complete the
// decoded return is still returned alongside the error when it parses. A
// successful Command Status returns the zero return value.
func Exchange[P, R any](ctx context.Context, l *Link, cmd hci.Command[P, R], p P) (R, error) {
	var zero R
	pkt, err := cmd.Packet(p)
	if err != nil {
		return zero, err
	}
	if err := l.SendCommand(ctx, pkt); err != nil {
		return zero, err
	}

	for {
		ev, err := l.ReadEvent(ctx)
		var stray *UnexpectedPacketError
		if errors.As(err, &stray) {
			l.log.Debug().Stringer("kind", stray.Kind).Str("waiting", cmd.Name).Msg("skip packet")
			continue
		}
		if err != nil {
			return zero, err
		}
		switch ev.Code {
		case hci.EventCommandComplete:
			cc, err := hci.ParseCommandComplete(ev)
			if err != nil {
				observability.RecordDecodeError(err)
				return zero, err
			}
			if cc.Opcode != cmd.Opcode {
				break
			}
			ret, err := cmd.ParseReturn(cc)
			if status, ok := cc.Status(); ok && status != hci.StatusSuccess {
				// Controllers may cut the return short after a failed status.
				if err != nil {
					return zero, status.Err()
				}
				return ret, status.Err()
			}
			if err != nil {
				observability.RecordDecodeError(err)
			}
			return ret, err
		case hci.EventCommandStatus:
			cs, err := hci.ParseCommandStatus(ev)
			if err != nil {
				observability.RecordDecodeError(err)
				return zero, err
			}
			if cs.Opcode != cmd.Opcode {
				break
			}
			return zero, cs.Status.Err()
		}
		l.log.Debug().Stringer("event", ev.Code).Str("waiting", cmd.Name).Msg("skip event")
	}
}
