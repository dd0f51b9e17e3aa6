package server

import (
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics is the metric set of one server. Each server owns a set so
// several servers can live in one process.
type serverMetrics struct {
	set            *metrics.Set
	framesReceived *metrics.Counter
	framesRejected *metrics.Counter
	notFound       *metrics.Counter
	authFailures   *metrics.Counter
	frameSize      *metrics.Histogram
}

func newServerMetrics(sessions func() int) *serverMetrics {
	set := metrics.NewSet()
	set.NewGauge("memorized_server_sessions", func() float64 {
		return float64(sessions())
	})
	return &serverMetrics{
		set:            set,
		framesReceived: set.NewCounter("memorized_server_frames_received_total"),
		framesRejected: set.NewCounter("memorized_server_frames_rejected_total"),
		notFound:       set.NewCounter("memorized_server_not_found_total"),
		authFailures:   set.NewCounter("memorized_server_auth_failures_total"),
		frameSize:      set.NewHistogram("memorized_server_frame_size_bytes"),
	}
}
