package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "cendeu_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	lookupsTotal    *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	recordsDropped  *prometheus.CounterVec
	clientsInBureau *prometheus.CounterVec
)

// Init registers the collectors on the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		lookupsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "lookups_total",
				Help: "Total feature lookups by result",
			},
			[]string{"result"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_latency_seconds",
				Help:    "Debt record fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		recordsDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_dropped_total",
				Help: "Debt records dropped during normalization by field",
			},
			[]string{"field"},
		)
		clientsInBureau = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "clients_total",
				Help: "Aggregated clients by presence in the bureau",
			},
			[]string{"in_cendeu"},
		)
		prometheus.MustRegister(lookupsTotal, fetchLatency, recordsDropped, clientsInBureau)
	})
}

func ObserveLookup(result string) {
	if lookupsTotal == nil {
		return
	}
	lookupsTotal.WithLabelValues(result).Inc()
}

func ObserveFetch(result string, d time.Duration) {
	if fetchLatency == nil {
		return
	}
	fetchLatency.WithLabelValues(result).Observe(d.Seconds())
}

func ObserveDropped(field string) {
	if recordsDropped == nil {
		return
	}
	recordsDropped.WithLabelValues(field).Inc()
}

func ObserveClient(inCendeu bool) {
	if clientsInBureau == nil {
		return
	}
	label := "false"
	if inCendeu {
		label = "true"
	}
	clientsInBureau.WithLabelValues(label).Inc()
}
