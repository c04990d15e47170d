// Package wiremetrics instruments the runtime with Prometheus counters and
// histograms: far-pointer follows, segment allocations, traversal-limit hits and
// packed byte throughput are the things worth watching in a long-running process that
// handles a steady stream of messages.
package wiremetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter and histogram the runtime updates. The zero value is
// not usable; construct one with NewMetrics.
type Metrics struct {
	segmentsAllocated   prometheus.Counter
	farPointerFollows    *prometheus.CounterVec
	validationErrors     *prometheus.CounterVec
	structUpgrades       prometheus.Counter
	listUpgrades         prometheus.Counter
	messageReadDuration  prometheus.Histogram
	messageWriteDuration prometheus.Histogram
	packedBytesIn        prometheus.Counter
	packedBytesOut       prometheus.Counter
}

// NewMetrics registers and returns a fresh set of metrics. Construct one per process,
// not per message.
func NewMetrics() *Metrics {
	return &Metrics{
		segmentsAllocated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "segmentwire_segments_allocated_total",
			Help: "Total number of segments allocated by builder arenas.",
		}),
		farPointerFollows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "segmentwire_far_pointer_follows_total",
			Help: "Total number of far pointers chased while reading, by kind (single, double).",
		}, []string{"kind"}),
		validationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "segmentwire_validation_errors_total",
			Help: "Total number of validation errors recorded while reading, by cause.",
		}, []string{"cause"}),
		structUpgrades: promauto.NewCounter(prometheus.CounterOpts{
			Name: "segmentwire_struct_upgrades_total",
			Help: "Total number of in-place struct widenings performed by getWritable* calls.",
		}),
		listUpgrades: promauto.NewCounter(prometheus.CounterOpts{
			Name: "segmentwire_list_upgrades_total",
			Help: "Total number of in-place list widenings performed by getWritable* calls.",
		}),
		messageReadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "segmentwire_message_read_duration_seconds",
			Help:    "Time spent parsing a message's segment table and segments.",
			Buckets: prometheus.DefBuckets,
		}),
		messageWriteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "segmentwire_message_write_duration_seconds",
			Help:    "Time spent framing a message's segments onto the wire.",
			Buckets: prometheus.DefBuckets,
		}),
		packedBytesIn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "segmentwire_packed_bytes_in_total",
			Help: "Total packed (compressed) bytes read by the packed codec.",
		}),
		packedBytesOut: promauto.NewCounter(prometheus.CounterOpts{
			Name: "segmentwire_packed_bytes_out_total",
			Help: "Total unpacked bytes produced by the packed codec.",
		}),
	}
}

// RecordSegmentAllocated increments the segment allocation counter.
func (m *Metrics) RecordSegmentAllocated() { m.segmentsAllocated.Inc() }

// RecordFarPointerFollow records a far pointer chase, kind being "single" or "double".
func (m *Metrics) RecordFarPointerFollow(kind string) { m.farPointerFollows.WithLabelValues(kind).Inc() }

// RecordValidationError records a validation failure by its cause string.
func (m *Metrics) RecordValidationError(cause string) { m.validationErrors.WithLabelValues(cause).Inc() }

// RecordStructUpgrade records an in-place struct widening.
func (m *Metrics) RecordStructUpgrade() { m.structUpgrades.Inc() }

// RecordListUpgrade records an in-place list widening.
func (m *Metrics) RecordListUpgrade() { m.listUpgrades.Inc() }

// ObserveMessageRead records how long parsing a message's framing took.
func (m *Metrics) ObserveMessageRead(d time.Duration) { m.messageReadDuration.Observe(d.Seconds()) }

// ObserveMessageWrite records how long framing a message onto the wire took.
func (m *Metrics) ObserveMessageWrite(d time.Duration) { m.messageWriteDuration.Observe(d.Seconds()) }

// RecordPackedBytes records the packed and unpacked byte counts for one codec pass.
func (m *Metrics) RecordPackedBytes(packedBytes, unpackedBytes int) {
	m.packedBytesIn.Add(float64(packedBytes))
	m.packedBytesOut.Add(float64(unpackedBytes))
}
