package client

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// clientMetrics is the go-metrics registry of one client
type clientMetrics struct {
	registry   gometrics.Registry
	roundTrip  gometrics.Timer
	connects   gometrics.Counter
	reconnects gometrics.Counter
	lost       gometrics.Counter
}

func newClientMetrics(queueDepth func() int) *clientMetrics {
	r := gometrics.NewRegistry()
	gometrics.NewRegisteredFunctionalGauge("memorized.client.queue_depth", r, func() int64 {
		return int64(queueDepth())
	})
	return &clientMetrics{
		registry:   r,
		roundTrip:  gometrics.NewRegisteredTimer("memorized.client.round_trip", r),
		connects:   gometrics.NewRegisteredCounter("memorized.client.connects", r),
		reconnects: gometrics.NewRegisteredCounter("memorized.client.reconnects", r),
		lost:       gometrics.NewRegisteredCounter("memorized.client.lost_requests", r),
	}
}
