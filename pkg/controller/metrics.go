package controller

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
)

// Metrics implements the mister's Recorder interface on top of Prometheus
// collectors.
type Metrics struct {
	cycles      *prometheus.CounterVec
	cycleErrors *prometheus.CounterVec
	humidity    prometheus.Gauge
	lastMisted  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "humidity_manager_cycles_total",
			Help: "Management cycles by outcome.",
		}, []string{"outcome"}),
		cycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "humidity_manager_cycle_errors_total",
			Help: "Cycles aborted by an error, by error class.",
		}, []string{"class"}),
		humidity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "humidity_manager_humidity_percent",
			Help: "Last observed enclosure humidity.",
		}),
		lastMisted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "humidity_manager_last_misted_timestamp_seconds",
			Help: "Unix time of the last completed misting.",
		}),
	}
}

func (m *Metrics) ObserveCycle(result mister.CycleResult) {
	m.cycles.WithLabelValues(string(result.Outcome)).Inc()
	m.humidity.Set(result.Humidity)

	if result.Outcome == mister.OutcomeMisted {
		m.lastMisted.Set(float64(result.At.Unix()))
	}
}

func (m *Metrics) ObserveCycleError(err error) {
	class := "provider_unavailable"

	var actuation *mister.ActuationIncompleteError
	switch {
	case errors.As(err, &actuation):
		class = "actuation_incomplete"
	case mister.IsConfigurationError(err):
		class = "configuration"
	}

	m.cycleErrors.WithLabelValues(class).Inc()
}
