package classfinder

import "github.com/prometheus/client_golang/prometheus"

var (
	BufferEnqueueCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "write_buffer",
		Name:      "enqueued",
	})
	BufferFlushCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "write_buffer",
		Name:      "flushes",
	}, []string{"result"})
	BufferPendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "classfinder",
		Subsystem: "write_buffer",
		Name:      "pending",
	})

	WarmupTaskCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "warmer",
		Name:      "tasks",
	}, []string{"priority", "mode"})
	WarmupTaskResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "warmer",
		Name:      "task_results",
	}, []string{"result"})
	WarmupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classfinder",
		Subsystem: "warmer",
		Name:      "task_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"mode"})

	IndexScanCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "indexer",
		Name:      "scans",
	})
	IndexChangedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classfinder",
		Subsystem: "indexer",
		Name:      "changed_artifacts",
	})
)

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		BufferEnqueueCount,
		BufferFlushCount,
		BufferPendingGauge,
		WarmupTaskCount,
		WarmupTaskResults,
		WarmupDuration,
		IndexScanCount,
		IndexChangedCount,
	}
}
