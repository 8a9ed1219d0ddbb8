package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcilerMetrics holds every reconciler collector. A nil *ReconcilerMetrics is
// valid and records nothing.
type ReconcilerMetrics struct {
	// Gateway events
	EventsReceivedTotal     prometheus.CounterVec
	EventsProcessedTotal    prometheus.CounterVec
	EventProcessingDuration prometheus.HistogramVec

	// Destinations
	DestinationWritesTotal   prometheus.CounterVec
	SecondaryFailuresTotal   prometheus.CounterVec
	DonationTransitionsTotal prometheus.CounterVec

	// Metadata
	MetadataBackfillsTotal prometheus.CounterVec

	// Sync
	SyncRunsTotal prometheus.CounterVec

	// Worker pool
	QueueRejectedTotal prometheus.CounterVec
	QueueDepth         prometheus.GaugeVec
}

func NewReconcilerMetrics(reg prometheus.Registerer) *ReconcilerMetrics {
	factory := promauto.With(reg)
	return &ReconcilerMetrics{
		EventsReceivedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_events_received_total",
				Help: "Gateway notifications accepted for processing",
			},
			[]string{"gateway", "event_type"},
		),

		EventsProcessedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_events_processed_total",
				Help: "Normalized payment events processed by outcome",
			},
			[]string{"event_type", "outcome"},
		),

		EventProcessingDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconciler_event_processing_duration_seconds",
				Help:    "Time spent reconciling one payment event",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"event_type"},
		),

		DestinationWritesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_destination_writes_total",
				Help: "Destination operations by crm and result",
			},
			[]string{"destination", "operation", "result"},
		),

		SecondaryFailuresTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_secondary_failures_total",
				Help: "Secondary crm writes that failed after the primary succeeded",
			},
			[]string{"destination", "operation"},
		),

		DonationTransitionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_donation_transitions_total",
				Help: "Donation state decisions taken per crm",
			},
			[]string{"destination", "action"},
		),

		MetadataBackfillsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_metadata_backfills_total",
				Help: "Payment intent fetches made to backfill charge metadata",
			},
			[]string{"result"},
		),

		SyncRunsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_sync_runs_total",
				Help: "Primary to secondary sync runs by entity kind and action",
			},
			[]string{"kind", "action"},
		),

		QueueRejectedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_queue_rejected_total",
				Help: "Submissions rejected because the worker shard was full",
			},
			[]string{"shard"},
		),

		QueueDepth: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_queue_depth",
				Help: "Tasks waiting per worker shard",
			},
			[]string{"shard"},
		),
	}
}

func (m *ReconcilerMetrics) RecordEventReceived(gateway, eventType string) {
	if m == nil {
		return
	}
	m.EventsReceivedTotal.WithLabelValues(gateway, eventType).Inc()
}

// RecordEventProcessed records the outcome (ok, skipped, config_gap, failed) and duration
func (m *ReconcilerMetrics) RecordEventProcessed(eventType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EventsProcessedTotal.WithLabelValues(eventType, outcome).Inc()
	m.EventProcessingDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

func (m *ReconcilerMetrics) RecordDestinationWrite(destination, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DestinationWritesTotal.WithLabelValues(destination, operation, result).Inc()
}

func (m *ReconcilerMetrics) RecordSecondaryFailure(destination, operation string) {
	if m == nil {
		return
	}
	m.SecondaryFailuresTotal.WithLabelValues(destination, operation).Inc()
}

func (m *ReconcilerMetrics) RecordDonationTransition(destination, action string) {
	if m == nil {
		return
	}
	m.DonationTransitionsTotal.WithLabelValues(destination, action).Inc()
}

func (m *ReconcilerMetrics) RecordMetadataBackfill(found bool) {
	if m == nil {
		return
	}
	result := "not_found"
	if found {
		result = "found"
	}
	m.MetadataBackfillsTotal.WithLabelValues(result).Inc()
}

func (m *ReconcilerMetrics) RecordSync(kind, action string) {
	if m == nil {
		return
	}
	m.SyncRunsTotal.WithLabelValues(kind, action).Inc()
}

func (m *ReconcilerMetrics) RecordQueueRejected(shard string) {
	if m == nil {
		return
	}
	m.QueueRejectedTotal.WithLabelValues(shard).Inc()
}

func (m *ReconcilerMetrics) SetQueueDepth(shard string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(shard).Set(float64(depth))
}
