package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summarizer",
			Name:      "runs_total",
			Help:      "Summarize runs by result (ok, no_file, transfer, processing_failed, generation, error)",
		},
		[]string{"result"},
	)

	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "summarizer",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each run stage",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	pollCycles = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "summarizer",
			Name:      "poll_cycles",
			Help:      "State queries issued per activation wait",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)
)

// Init registers collectors on the default registry. Call once.
func Init() {
	prometheus.MustRegister(runsTotal, stageLatency, pollCycles)
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func IncRun(result string) { runsTotal.WithLabelValues(result).Inc() }

func ObserveStage(stage string, dur time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(dur.Seconds())
}

func ObservePollCycles(n int) { pollCycles.Observe(float64(n)) }
