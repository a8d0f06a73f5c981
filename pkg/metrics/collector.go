package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

// Collector records controller activity. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	phase       *prometheus.GaugeVec
	flag        *prometheus.GaugeVec
	flagUpdates *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	rollbacks   prometheus.Counter
}

var _ rollout.Observer = (*Collector)(nil)

// NewCollector creates a collector registered on a fresh registry.
func NewCollector(cfg Config) *Collector {
	if cfg.Subsystem == "" {
		cfg.Subsystem = "rollout"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "phase",
			Help:      "Active migration phase (1 for the active phase, 0 otherwise).",
		}, []string{"phase"}),
		flag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "flag",
			Help:      "Current value of a rollout flag changed at runtime.",
		}, []string{"flag"}),
		flagUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "flag_updates_total",
			Help:      "Total number of committed flag changes.",
		}, []string{"flag", "value"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "decisions_total",
			Help:      "Total number of rollout decisions by kind and result.",
		}, []string{"kind", "result"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "emergency_rollbacks_total",
			Help:      "Total number of emergency rollbacks.",
		}),
	}

	c.registry.MustRegister(c.phase, c.flag, c.flagUpdates, c.decisions, c.rollbacks)
	if cfg.GoCollectors {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Pre-create every phase series.
	for _, p := range rollout.Phases() {
		c.phase.WithLabelValues(p.String()).Set(0)
	}

	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// PhaseChanged marks phase as the only active phase.
func (c *Collector) PhaseChanged(phase rollout.Phase) {
	for _, p := range rollout.Phases() {
		v := 0.0
		if p == phase {
			v = 1
		}
		c.phase.WithLabelValues(p.String()).Set(v)
	}
}

// FlagChanged counts a committed flag change and tracks its value.
func (c *Collector) FlagChanged(flag rollout.Flag, value bool) {
	c.flagUpdates.WithLabelValues(flag.String(), strconv.FormatBool(value)).Inc()
	c.flag.WithLabelValues(flag.String()).Set(boolToFloat(value))
}

// Decision counts a rollout decision.
func (c *Collector) Decision(kind string, result bool) {
	c.decisions.WithLabelValues(kind, strconv.FormatBool(result)).Inc()
}

// RollbackTriggered counts an emergency rollback.
func (c *Collector) RollbackTriggered() {
	c.rollbacks.Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
