package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsFiredTotal) }

var jobsFiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduled_jobs_fired_total",
		Help: "Total number of scheduler jobs fired, labeled by kind and outcome.",
	},
	[]string{"kind", "status"}, // kind: 'notify'|'revoke'; status: 'completed'|'failed'
)

func IncJobFired(kind, status string) {
	jobsFiredTotal.WithLabelValues(kind, status).Inc()
}
