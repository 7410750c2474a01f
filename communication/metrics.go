package communication

import "github.com/prometheus/client_golang/prometheus"

const (
	kindMove = "move"
	kindAck  = "ack"

	reasonInvalid = "invalid"
	reasonStale   = "stale"
	reasonFuture  = "future"
)

// Metrics counts the traffic handled by a Messenger.
type Metrics struct {
	sent            *prometheus.CounterVec
	received        *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	retransmissions prometheus.Counter
	sendFailures    prometheus.Counter
}

// NewMetrics creates the protocol counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rps",
			Subsystem: "radio",
			Name:      "messages_sent_total",
			Help:      "Messages handed to the radio, by kind.",
		}, []string{"kind"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rps",
			Subsystem: "radio",
			Name:      "messages_received_total",
			Help:      "Valid messages received, by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rps",
			Subsystem: "radio",
			Name:      "messages_dropped_total",
			Help:      "Received messages not handed to the game, by reason.",
		}, []string{"reason"}),
		retransmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rps",
			Subsystem: "radio",
			Name:      "retransmissions_total",
			Help:      "Moves sent again after the retry interval elapsed.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rps",
			Subsystem: "radio",
			Name:      "send_failures_total",
			Help:      "Sends the radio rejected with a transient error.",
		}),
	}
	reg.MustRegister(m.sent, m.received, m.dropped, m.retransmissions, m.sendFailures)
	return m
}
