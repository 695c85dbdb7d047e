package observability

import (
	"errors"
	"sync"

	"github.com/danmuck/hcicodec/internal/param"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionTx = "tx"
	DirectionRx = "rx"
)

var (
	registerOnce sync.Once

	linkPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcicodec",
			Subsystem: "link",
			Name:      "packets_total",
			Help:      "Packets moved across an HCI link.",
		},
		[]string{"direction", "kind"},
	)
	linkBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcicodec",
			Subsystem: "link",
			Name:      "bytes_total",
			Help:      "Bytes moved across an HCI link, indicator included.",
		},
		[]string{"direction"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcicodec",
			Subsystem: "link",
			Name:      "decode_errors_total",
			Help:      "Inbound packets that failed to decode.",
		},
		[]string{"reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(linkPackets, linkBytes, decodeErrors)
	})
}

func RecordPacket(direction, kind string, n int) {
	RegisterMetrics()
	linkPackets.WithLabelValues(direction, kind).Inc()
	linkBytes.WithLabelValues(direction).Add(float64(n))
}

func RecordDecodeError(err error) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(DecodeReason(err)).Inc()
}

// DecodeReason maps a decode failure onto a low-cardinality label.
func DecodeReason(err error) string {
	switch {
	case errors.Is(err, param.ErrInvalidSize):
		return "invalid_size"
	case errors.Is(err, param.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, param.ErrTrailingData):
		return "trailing_data"
	case errors.Is(err, param.ErrSizeMismatch):
		return "size_mismatch"
	default:
		return "other"
	}
}
