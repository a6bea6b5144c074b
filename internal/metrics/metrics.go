package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smsbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Listener metrics
	BroadcastsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbridge_broadcasts_total",
			Help: "Total broadcasts delivered to the listener",
		},
		[]string{"action"}, // "sms_received" or "ignored"
	)

	PDUsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbridge_pdus_total",
			Help: "Total PDUs processed by result",
		},
		[]string{"result"}, // "malformed", "ignored", "matched"
	)

	MessagesMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbridge_messages_matched_total",
			Help: "Total messages classified as bank SMS",
		},
		[]string{"group"},
	)

	RecordsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smsbridge_records_stored_total",
			Help: "Total records appended to the metadata store",
		},
	)

	StoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smsbridge_store_failures_total",
			Help: "Total failed appends to the metadata store",
		},
	)

	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbridge_events_emitted_total",
			Help: "Total events handed to an emitter",
		},
		[]string{"sink"},
	)

	// Store metrics
	StoredRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smsbridge_stored_records",
			Help: "Number of record indices currently allocated in the metadata store",
		},
	)

	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smsbridge_event_subscribers",
			Help: "Number of connected websocket event subscribers",
		},
	)
)
