// Package metrics counts remote retries and drafting results with
// Prometheus collectors.
//
// Each [Metrics] owns its registry, so a CLI run can write its counters to
// a node-exporter textfile with [Metrics.WriteTextfile].
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the draftkit collectors.
type Metrics struct {
	registry *prometheus.Registry

	RemoteRetries   *prometheus.CounterVec
	RemoteExhausted *prometheus.CounterVec
	CellsWritten    prometheus.Counter
	CellsBlanked    prometheus.Counter
	RowsDropped     prometheus.Counter
	Plots           *prometheus.CounterVec
	Items           *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RemoteRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draftkit_remote_retries_total",
				Help: "Transient remote call failures that were retried",
			},
			[]string{"op"},
		),
		RemoteExhausted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draftkit_remote_exhausted_total",
				Help: "Remote calls that failed on every attempt",
			},
			[]string{"op"},
		),
		CellsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "draftkit_cells_written_total",
			Help: "Catalog cells filled from a row",
		}),
		CellsBlanked: f.NewCounter(prometheus.CounterOpts{
			Name: "draftkit_cells_blanked_total",
			Help: "Catalog cells cleared because no row was left",
		}),
		RowsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "draftkit_rows_dropped_total",
			Help: "Catalog rows that did not fit in the available cells",
		}),
		Plots: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draftkit_plots_total",
				Help: "Layouts plotted, by result",
			},
			[]string{"result"},
		),
		Items: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draftkit_items_total",
				Help: "Drafting work items processed, by command and result",
			},
			[]string{"command", "result"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Retrying implements automation.Observer.
func (m *Metrics) Retrying(member string, _ int, _ error) {
	m.RemoteRetries.WithLabelValues(member).Inc()
}

// Exhausted implements automation.Observer.
func (m *Metrics) Exhausted(member string, _ error) {
	m.RemoteExhausted.WithLabelValues(member).Inc()
}

// Placed records the outcome of filling one catalog sheet.
func (m *Metrics) Placed(written, blanked, dropped int) {
	m.CellsWritten.Add(float64(written))
	m.CellsBlanked.Add(float64(blanked))
	m.RowsDropped.Add(float64(dropped))
}

// Plotted records one plot attempt.
func (m *Metrics) Plotted(err error) {
	m.Plots.WithLabelValues(result(err)).Inc()
}

// ItemDone records one finished work item.
func (m *Metrics) ItemDone(command string, err error) {
	m.Items.WithLabelValues(command, result(err)).Inc()
}

// WriteTextfile writes every collector to path in the text exposition
// format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
