package communication

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luca-patrignani/radio-rps/config"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/network"
)

// Messenger sends moves until they are acknowledged and filters what the
// radio receives by round. It is not safe for concurrent use.
type Messenger struct {
	radio   network.Radio
	clock   clock.Clock
	retry   time.Duration
	logger  *slog.Logger
	metrics *Metrics

	lastSend     time.Time
	pending      *MovePayload
	acknowledged bool
}

type Option func(*Messenger)

func WithClock(c clock.Clock) Option {
	return func(m *Messenger) {
		m.clock = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Messenger) {
		m.logger = l
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Messenger) {
		m.metrics = metrics
	}
}

// NewMessenger creates a Messenger on a configured radio.
func NewMessenger(cfg config.GameConfig, radio network.Radio, opts ...Option) *Messenger {
	m := &Messenger{
		radio:  radio,
		clock:  clock.New(),
		retry:  cfg.RetryInterval,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(prometheus.NewRegistry())
	}
	m.logger = m.logger.With("device", cfg.DeviceID)
	return m
}

// SendMove transmits the move of round and makes it the outstanding move.
// It returns the time of the transmission.
func (m *Messenger) SendMove(move rps.Move, round uint32) (time.Time, error) {
	payload, err := EncodeMove(move, round)
	if err != nil {
		return time.Time{}, err
	}
	if m.pending == nil || m.pending.Round != round || m.pending.Move != move {
		m.pending = &MovePayload{Move: move, Round: round}
		m.acknowledged = false
	}
	if err := m.transmit(payload, kindMove); err != nil {
		return time.Time{}, err
	}
	m.lastSend = m.clock.Now()
	return m.lastSend, nil
}

// SendAck acknowledges the move of round. Acknowledgements are sent once
// and never retried.
func (m *Messenger) SendAck(round uint32) error {
	payload, err := EncodeAck(round)
	if err != nil {
		return err
	}
	return m.transmit(payload, kindAck)
}

// PollIncoming receives at most one payload without blocking. It returns the
// message when it belongs to current, nil otherwise. Moves of current are
// acknowledged before being returned; moves of an earlier round are
// acknowledged for their own round and dropped.
func (m *Messenger) PollIncoming(current uint32) (Message, error) {
	payload, ok := m.radio.TryReceive()
	if !ok {
		return nil, nil
	}
	msg, err := Decode(payload)
	if err != nil {
		m.metrics.dropped.WithLabelValues(reasonInvalid).Inc()
		m.logger.Debug("dropping malformed payload", "payload", payload, "error", err)
		return nil, nil
	}
	m.metrics.received.WithLabelValues(msg.kind()).Inc()
	round := msg.round()
	switch {
	case round == current:
		switch v := msg.(type) {
		case AckPayload:
			if m.pending != nil && m.pending.Round == round {
				m.acknowledged = true
			}
			return v, nil
		case MovePayload:
			if err := m.SendAck(current); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, nil
	case round < current:
		m.metrics.dropped.WithLabelValues(reasonStale).Inc()
		// acknowledgements are never acknowledged, or two devices would
		// bounce the same stale ack forever
		if _, isMove := msg.(MovePayload); !isMove {
			m.logger.Debug("dropping stale acknowledgement", "round", round, "current", current)
			return nil, nil
		}
		m.logger.Debug("acknowledging stale move", "round", round, "current", current)
		return nil, m.SendAck(round)
	default:
		m.metrics.dropped.WithLabelValues(reasonFuture).Inc()
		m.logger.Debug("dropping message from a later round", "round", round, "current", current)
		return nil, nil
	}
}

// RetryIfDue sends the outstanding move again when it is still
// unacknowledged one retry interval after its last transmission. It reports
// whether a retransmission happened.
func (m *Messenger) RetryIfDue() (bool, error) {
	if m.pending == nil || m.acknowledged {
		return false, nil
	}
	if m.clock.Since(m.lastSend) < m.retry {
		return false, nil
	}
	m.metrics.retransmissions.Inc()
	m.logger.Debug("retransmitting move", "round", m.pending.Round)
	if _, err := m.SendMove(m.pending.Move, m.pending.Round); err != nil {
		return false, err
	}
	return true, nil
}

// Acknowledged reports whether the outstanding move has been acknowledged.
func (m *Messenger) Acknowledged() bool {
	return m.pending != nil && m.acknowledged
}

// LastSend is the time of the last transmission of the outstanding move.
func (m *Messenger) LastSend() time.Time {
	return m.lastSend
}

// transmit hands payload to the radio. Transient radio errors count as a
// lost transmission and are left to the retry timer.
func (m *Messenger) transmit(payload []byte, kind string) error {
	err := m.radio.Send(payload)
	switch {
	case err == nil:
		m.metrics.sent.WithLabelValues(kind).Inc()
		return nil
	case errors.Is(err, network.ErrRadioClosed), errors.Is(err, network.ErrRadioOff):
		return err
	default:
		m.metrics.sendFailures.Inc()
		m.logger.Warn("radio send failed", "kind", kind, "error", err)
		return nil
	}
}
