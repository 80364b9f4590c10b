package health

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netdata/health-engine/types"
)

// Metrics holds the engine's Prometheus instrumentation. Grounded on
// alertmanager/dispatch.DispatcherMetrics: a small struct of
// pre-registered collectors, constructed once via NewMetrics and
// updated from the hot path without further registry lookups.
type Metrics struct {
	alarmsByStatus  *prometheus.GaugeVec
	logSize         *prometheus.GaugeVec
	notifications   *prometheus.CounterVec
	notifyFailures  prometheus.Counter
	notifySuppresed prometheus.Counter
	trims           prometheus.Counter
}

// NewMetrics registers the engine's collectors with reg and returns
// the populated Metrics. Panics on duplicate registration, matching
// alertmanager's NewDispatcherMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		alarmsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "health",
			Name:      "alarms",
			Help:      "Number of alarm rules currently in each status, by host.",
		}, []string{"host", "status"}),
		logSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "health",
			Name:      "event_log_size",
			Help:      "Number of events currently retained in a host's event log.",
		}, []string{"host"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "health",
			Name:      "notifications_total",
			Help:      "Total notifications dispatched, by exit outcome.",
		}, []string{"outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "health",
			Name:      "notifier_spawn_failures_total",
			Help:      "Total notifier processes that failed to start.",
		}),
		notifySuppresed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "health",
			Name:      "notifications_suppressed_total",
			Help:      "Total transitions that matched a notification rule but were suppressed (dedup, silence, first-clear).",
		}),
		trims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "health",
			Name:      "event_log_trims_total",
			Help:      "Total times a host's event log was trimmed for exceeding its retention bound.",
		}),
	}

	reg.MustRegister(m.alarmsByStatus, m.logSize, m.notifications, m.notifyFailures, m.notifySuppresed, m.trims)
	return m
}

// ObserveHost refreshes the per-host gauges after an evaluation pass.
func (m *Metrics) ObserveHost(hs *HostState) {
	counts := make(map[types.Status]int)
	for _, rule := range hs.Registry.Snapshot() {
		counts[rule.Status]++
	}
	for status, n := range counts {
		m.alarmsByStatus.WithLabelValues(hs.Host.Hostname, status.String()).Set(float64(n))
	}
	m.logSize.WithLabelValues(hs.Host.Hostname).Set(float64(hs.Log.Count()))
}

func (m *Metrics) recordNotification(exitCode int, failed bool) {
	if failed {
		m.notifyFailures.Inc()
		return
	}
	outcome := "ok"
	if exitCode != 0 {
		outcome = "nonzero_exit"
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
