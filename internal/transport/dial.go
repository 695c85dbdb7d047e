package transport

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/danmuck/hcicodec/internal/logging"
)

// Config controls how Dial reaches a controller exposed over TCP, such as an
// emulator or a serial bridge.
type Config struct {
	Network            string
	Addr               string
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	MaxConnectAttempts int
	Backoff            BackoffConfig
	Limits             Limits
}

func DefaultConfig() Config {
	return Config{
		Network:            "tcp",
		Addr:               "127.0.0.1:45550",
		ConnectTimeout:     3 * time.Second,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxConnectAttempts: 3,
		Backoff: BackoffConfig{
			InitialDelay: 200 * time.Millisecond,
			Multiplier:   2,
			MaxDelay:     2 * time.Second,
			Jitter:       true,
		},
		Limits: DefaultLimits(),
	}
}

// Dial connects to cfg.Addr, retrying with backoff until MaxConnectAttempts
// is exhausted or ctx is done.
func Dial(ctx context.Context, cfg Config) (*Link, error) {
	network := cfg.Network
	if network == "" {
		network = "tcp"
	}
	attempts := cfg.MaxConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	log := logging.Component("transport")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dialer.DialContext(ctx, network, cfg.Addr)
		if err == nil {
			log.Debug().Str("addr", cfg.Addr).Int("attempt", attempt).Msg("connected")
			return NewLink(conn,
				WithLimits(cfg.Limits),
				WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout),
				WithLogger(log),
			), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			break
		}

		delay := NextBackoffDelay(cfg.Backoff, attempt, rng)
		log.Warn().Err(err).Str("addr", cfg.Addr).Int("attempt", attempt).Dur("retry_in", delay).Msg("dial failed")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("transport: dial %s after %d attempts: %w", cfg.Addr, attempts, lastErr)
}
