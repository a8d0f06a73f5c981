// Package metrics exposes rollout controller activity as Prometheus metrics.
//
// A Collector implements rollout.Observer and owns its own registry, so it can
// be mounted next to other handlers without touching the global default registry.
//
//	collector := metrics.NewCollector(metrics.Config{Namespace: "trackflag"})
//	ctrl := rollout.New(ctx, cfg, overrides, sessions, sink, rollout.WithObserver(collector))
//	mux.Handle("/metrics", collector.Handler())
//
// Exported series:
//
//	<ns>_rollout_phase{phase}                  1 for the active phase, 0 otherwise
//	<ns>_rollout_flag{flag}                    current flag value as 0/1
//	<ns>_rollout_flag_updates_total{flag,value}
//	<ns>_rollout_decisions_total{kind,result}
//	<ns>_rollout_emergency_rollbacks_total
package metrics
