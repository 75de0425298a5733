package websocket

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel        = "error_type"
	publicEndpointLabel = "public_endpoint"
)

var (
	wsConnectedViewers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_viewers",
		Help: "The number of connected viewers.",
	}, []string{
		publicEndpointLabel,
	})

	wsSentFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_frames",
		Help: "The number of frames sent to viewers.",
	}, []string{
		publicEndpointLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to viewers.",
	}, []string{
		publicEndpointLabel,
	})

	wsDroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_dropped_frames",
		Help: "The number of frames skipped because a viewer was too slow.",
	}, []string{
		publicEndpointLabel,
	})

	wsSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occured while sending a frame.",
	}, []string{
		publicEndpointLabel,
		errTypeLabel,
	})

	wsSendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ws_send_latency",
		Help: "The time to write a frame to a viewer connection.",
	}, []string{
		publicEndpointLabel,
	})
)

func instrumentViewerConnected(publicEndpoint string) {
	wsConnectedViewers.
		With(prometheus.Labels{publicEndpointLabel: publicEndpoint}).
		Inc()
}

func instrumentViewerDisconnected(publicEndpoint string) {
	wsConnectedViewers.
		With(prometheus.Labels{publicEndpointLabel: publicEndpoint}).
		Dec()
}

func instrumentSentFrame(publicEndpoint string, n int, start time.Time) {
	labels := prometheus.Labels{publicEndpointLabel: publicEndpoint}

	wsSentFrames.With(labels).Inc()
	wsSentBytes.With(labels).Add(float64(n))
	wsSendLatency.With(labels).Observe(time.Since(start).Seconds())
}

func instrumentDroppedFrame(publicEndpoint string) {
	wsDroppedFrames.
		With(prometheus.Labels{publicEndpointLabel: publicEndpoint}).
		Inc()
}

func instrumentSendError(publicEndpoint string, err error) {
	wsSendError.
		With(prometheus.Labels{
			publicEndpointLabel: publicEndpoint,
			errTypeLabel:        errors.Type(err),
		}).
		Inc()
}
