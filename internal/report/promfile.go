package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "grantledger"
	metricsSubsystem = "report"
)

// NewRegistry returns a registry holding one gauge per metric.
func NewRegistry(m Metrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, g := range []struct {
		name  string
		help  string
		value int
	}{
		{"tasks_total", "Number of tasks in the repository.", m.TotalTasks},
		{"wip_tasks", "Number of tasks labeled WIP.", m.WIPTasks},
		{"tasks_looking_for_reviewer", "Number of tasks without an assignee.", m.LookingForReviewer},
		{"available_tasks", "Number of non-WIP tasks without proposals.", m.AvailableTasks},
		{"proposals_total", "Number of proposals linked to tasks.", m.Proposals},
	} {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      g.name,
			Help:      g.help,
		})
		gauge.Set(float64(g.value))
		if err := reg.Register(gauge); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", g.name, err)
		}
	}
	return reg, nil
}

// WriteTextfile writes the metrics in the Prometheus text format, suitable
// for the node exporter textfile collector.
func WriteTextfile(path string, m Metrics) error {
	reg, err := NewRegistry(m)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to '%s': %w", path, err)
	}
	return nil
}
