// Package metrics exposes Prometheus counters for imports and associations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	ImportFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soil",
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Soil hardness CSV files processed, by result.",
	}, []string{"result"})

	ImportRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soil",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Soil hardness measurements inserted.",
	})

	AssociationWindows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soil",
		Subsystem: "association",
		Name:      "windows_total",
		Help:      "Association windows processed, by mode and result.",
	}, []string{"mode", "result"})

	AssociationRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soil",
		Subsystem: "association",
		Name:      "records_total",
		Help:      "Measurements stamped with a land block, by mode.",
	}, []string{"mode"})
)

func init() {
	Registry.MustRegister(
		ImportFiles,
		ImportRows,
		AssociationWindows,
		AssociationRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
