// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calgrab",
		Name:      "scans_total",
		Help:      "Scan passes by outcome",
	}, []string{"status"})

	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "calgrab",
		Name:      "records_extracted_total",
		Help:      "Event records produced across all scan passes",
	})

	VideosCorrelated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "calgrab",
		Name:      "videos_correlated_total",
		Help:      "Video resources assigned to records",
	})

	ExportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "calgrab",
		Name:      "export_failures_total",
		Help:      "Per-item export save failures",
	})

	VideoPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "calgrab",
		Name:      "video_pool_size",
		Help:      "Distinct video resources captured this session",
	})
)
