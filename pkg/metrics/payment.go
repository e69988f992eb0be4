package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentVerifyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verify_requests_total",
		Help: "Payment verification attempts partitioned by entry point, result and failure reason.",
	}, []string{"source", "result", "reason"})

	MembershipActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_activations_total",
		Help: "Memberships activated, partitioned by the entry point that applied the payment.",
	}, []string{"source"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Gateway webhook deliveries partitioned by event type and outcome.",
	}, []string{"event", "outcome"})

	OrderCreate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_create_total",
		Help: "Membership order creation attempts partitioned by result.",
	}, []string{"result"})

	businessProcess = NewMetric(MetricsBusinessProcess, "").(*prometheus.HistogramVec)
)

func init() {
	prometheus.MustRegister(businessProcess)
}

// ObserveProcess records how long a step of the payment pipeline took.
func ObserveProcess(typ, subtype string, start time.Time) {
	businessProcess.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

// ResultLabel turns an error reason into the result label used by the counters.
func ResultLabel(reason string) string {
	if reason == "" {
		return "success"
	}
	return "failure"
}
