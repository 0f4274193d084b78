// Package metrics exposes Prometheus instrumentation for the FIX
// sessions: message throughput, session lifecycle transitions and resend
// activity, labeled by session role so a quote and a trade session
// sharing one process report separately, plus subscription state
// (labeled by book) and order outcomes (labeled by operation/result).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_messages_sent_total",
		Help: "Total number of FIX messages sent, by session role and message type",
	}, []string{"role", "msg_type"})

	messagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_messages_received_total",
		Help: "Total number of FIX messages received, by session role and message type",
	}, []string{"role", "msg_type"})

	logonsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_logons_total",
		Help: "Total number of successful logons, by session role",
	}, []string{"role"})

	disconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_disconnects_total",
		Help: "Total number of session disconnects, by session role",
	}, []string{"role"})

	sessionConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fixvenue_session_connected",
		Help: "Whether the session is currently logged on (1) or not (0), by role",
	}, []string{"role"})

	resendReplaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_resend_replays_total",
		Help: "Total number of buffered messages re-emitted in response to a ResendRequest, by session role",
	}, []string{"role"})

	subscriptionsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fixvenue_subscriptions_active",
		Help: "Current number of accepted market-data subscriptions, by book (spot/depth)",
	}, []string{"book"})

	subscriptionRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_subscription_rejects_total",
		Help: "Total number of rejected market-data subscription requests, by book",
	}, []string{"book"})

	orderOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fixvenue_order_outcomes_total",
		Help: "Total number of order-entry outcomes, by operation and result",
	}, []string{"operation", "result"})
)

func init() {
	prometheus.MustRegister(
		messagesSent,
		messagesReceived,
		logonsTotal,
		disconnectsTotal,
		sessionConnected,
		resendReplaysTotal,
		subscriptionsActive,
		subscriptionRejectsTotal,
		orderOutcomesTotal,
	)
}

// RecordMessageSent increments the sent counter for role/msgType.
func RecordMessageSent(role, msgType string) { messagesSent.WithLabelValues(role, msgType).Inc() }

// RecordMessageReceived increments the received counter for role/msgType.
func RecordMessageReceived(role, msgType string) {
	messagesReceived.WithLabelValues(role, msgType).Inc()
}

// RecordLogon increments the logon counter and marks the session
// connected for role.
func RecordLogon(role string) {
	logonsTotal.WithLabelValues(role).Inc()
	sessionConnected.WithLabelValues(role).Set(1)
}

// RecordDisconnect increments the disconnect counter and marks the
// session disconnected for role.
func RecordDisconnect(role string) {
	disconnectsTotal.WithLabelValues(role).Inc()
	sessionConnected.WithLabelValues(role).Set(0)
}

// RecordResendReplays adds n to the resend-replay counter for role.
func RecordResendReplays(role string, n int) {
	if n <= 0 {
		return
	}
	resendReplaysTotal.WithLabelValues(role).Add(float64(n))
}

// SetSubscriptionsActive sets the active-subscription gauge for book
// ("spot" or "depth").
func SetSubscriptionsActive(book string, n int) {
	subscriptionsActive.WithLabelValues(book).Set(float64(n))
}

// IncSubscriptionsActive increments the active-subscription gauge for
// book, called once a subscribe request is accepted.
func IncSubscriptionsActive(book string) { subscriptionsActive.WithLabelValues(book).Inc() }

// DecSubscriptionsActive decrements the active-subscription gauge for
// book, called when a subscription is removed.
func DecSubscriptionsActive(book string) { subscriptionsActive.WithLabelValues(book).Dec() }

// RecordSubscriptionReject increments the subscription-reject counter
// for book.
func RecordSubscriptionReject(book string) { subscriptionRejectsTotal.WithLabelValues(book).Inc() }

// RecordOrderOutcome increments the order-outcome counter for
// operation/result (e.g. "new_order"/"accepted", "cancel_replace"/"cancel_rejected").
func RecordOrderOutcome(operation, result string) {
	orderOutcomesTotal.WithLabelValues(operation, result).Inc()
}

// Handler returns the http.Handler that serves the registered metrics,
// meant to be mounted at /metrics by a sample binary.
func Handler() http.Handler { return promhttp.Handler() }
