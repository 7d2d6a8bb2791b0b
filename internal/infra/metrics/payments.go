package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal, membersRevokedTotal)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Total number of payment transitions, labeled by resulting status.",
		},
		[]string{"status"}, // 'pending', 'accepted', 'rejected', 'active', 'inactive'
	)

	membersRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "members_revoked_total",
			Help: "Total number of channel members removed on expiry or unapproved join.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}

func IncMembersRevoked() {
	membersRevokedTotal.Inc()
}
