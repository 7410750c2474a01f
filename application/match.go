package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/luca-patrignani/radio-rps/communication"
	"github.com/luca-patrignani/radio-rps/config"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/ledger"
	"github.com/luca-patrignani/radio-rps/network"
)

// Match plays a single game on a radio.
type Match struct {
	cfg     config.GameConfig
	radio   network.Radio
	input   InputSource
	display DisplaySink
	board   *StatusBoard
	logger  *slog.Logger
	clock   clock.Clock
	metrics *communication.Metrics
}

type MatchOption func(*Match)

// WithStatusBoard publishes the progress of the match on b.
func WithStatusBoard(b *StatusBoard) MatchOption {
	return func(m *Match) {
		m.board = b
	}
}

func WithLogger(l *slog.Logger) MatchOption {
	return func(m *Match) {
		m.logger = l
	}
}

func WithClock(clk clock.Clock) MatchOption {
	return func(m *Match) {
		m.clock = clk
	}
}

// WithMetrics makes the messenger count its traffic on metrics.
func WithMetrics(metrics *communication.Metrics) MatchOption {
	return func(m *Match) {
		m.metrics = metrics
	}
}

func NewMatch(cfg config.GameConfig, radio network.Radio, input InputSource, display DisplaySink, opts ...MatchOption) *Match {
	m := &Match{
		cfg:     cfg,
		radio:   radio,
		input:   input,
		display: display,
		logger:  slog.Default(),
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.board == nil {
		m.board = NewStatusBoard(cfg.DeviceID)
	}
	return m
}

// Board returns the board the match publishes on.
func (m *Match) Board() *StatusBoard {
	return m.board
}

// Play runs the whole match: it picks the opponent, tunes the radio to the
// shared channel, plays until the match is decided and then lingers so the
// opponent can complete its last round. When ctx ends during the linger the
// decided result is returned together with the context error.
func (m *Match) Play(ctx context.Context) (rps.Result, error) {
	opponent, err := m.input.ChooseOpponent(ctx)
	if err != nil {
		return rps.Pending, fmt.Errorf("choose opponent: %w", err)
	}
	channel := network.Negotiate(m.cfg.DeviceID, opponent)
	if err := m.radio.Configure(channel.Key, m.cfg.Power); err != nil {
		return rps.Pending, fmt.Errorf("configure radio on %s: %w", channel, err)
	}
	logger := m.logger.With("device", m.cfg.DeviceID, "opponent", opponent)
	logger.Info("match started", "channel", channel.Address, "power", m.cfg.Power)

	l := ledger.NewLedger(m.cfg.DeviceID, opponent, channel.Address)
	m.board.start(opponent, channel, l)

	messengerOpts := []communication.Option{
		communication.WithClock(m.clock),
		communication.WithLogger(m.logger),
	}
	if m.metrics != nil {
		messengerOpts = append(messengerOpts, communication.WithMetrics(m.metrics))
	}
	messenger := communication.NewMessenger(m.cfg, m.radio, messengerOpts...)
	coordinator := NewCoordinator(m.cfg, messenger, m.input, m.display,
		WithRecorder(l),
		WithObserver(m.board.update),
		WithCoordinatorLogger(logger),
		WithCoordinatorClock(m.clock),
	)
	result, err := coordinator.Run(ctx)
	if err != nil {
		return rps.Pending, err
	}
	m.board.update(coordinator.Snapshot(), EventMatchOver)
	if err := l.Verify(); err != nil {
		logger.Warn("ledger verification failed", "error", err)
	}
	return result, m.linger(ctx, messenger, coordinator.Round()+1)
}

// linger keeps answering the opponent for cfg.Linger with the round counter
// past the last round, so a retransmitted final move still gets its
// acknowledgement. It returns ctx.Err() when ctx ends first.
func (m *Match) linger(ctx context.Context, messenger *communication.Messenger, round uint32) error {
	deadline := m.clock.Now().Add(m.cfg.Linger)
	for m.clock.Now().Before(deadline) {
		msg, err := messenger.PollIncoming(round)
		if err != nil {
			return fmt.Errorf("linger: %w", err)
		}
		if msg != nil {
			continue
		}
		if err := sleep(ctx, m.clock, m.cfg.PollInterval); err != nil {
			return fmt.Errorf("linger: %w", err)
		}
	}
	return nil
}
