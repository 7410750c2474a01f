package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/luca-patrignani/radio-rps/communication"
	"github.com/luca-patrignani/radio-rps/config"
	"github.com/luca-patrignani/radio-rps/domain/rps"
)

// State is a phase of the round state machine.
type State int

const (
	ChooseMove State = iota
	Sent
	AwaitBoth
	Resolved
	RoundDone
	MatchOver
)

func (s State) String() string {
	switch s {
	case ChooseMove:
		return "ChooseMove"
	case Sent:
		return "Sent"
	case AwaitBoth:
		return "AwaitBoth"
	case Resolved:
		return "Resolved"
	case RoundDone:
		return "RoundDone"
	case MatchOver:
		return "MatchOver"
	default:
		return "INVALID"
	}
}

// Event tells what a call to Step did.
type Event int

const (
	EventNone Event = iota
	EventMoveChosen
	EventMoveSent
	EventOpponentMove
	EventAcknowledged
	EventRetransmitted
	EventRoundResolved
	EventNextRound
	EventMatchOver
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventMoveChosen:
		return "move chosen"
	case EventMoveSent:
		return "move sent"
	case EventOpponentMove:
		return "opponent move"
	case EventAcknowledged:
		return "acknowledged"
	case EventRetransmitted:
		return "retransmitted"
	case EventRoundResolved:
		return "round resolved"
	case EventNextRound:
		return "next round"
	case EventMatchOver:
		return "match over"
	default:
		return "INVALID"
	}
}

var ErrInvalidMove = errors.New("input returned an invalid move")

// Snapshot is a copy of the coordinator state taken after a step.
type Snapshot struct {
	State  State
	Round  rps.RoundState
	Score  rps.Score
	Result rps.Result
}

// Coordinator plays one match. It is not safe for concurrent use; observers
// get copies through WithObserver.
type Coordinator struct {
	messenger Messenger
	input     InputSource
	display   DisplaySink
	recorder  Recorder
	observer  func(Snapshot, Event)
	logger    *slog.Logger
	clock     clock.Clock
	poll      time.Duration

	state   State
	round   rps.RoundState
	outcome rps.RoundOutcome
	score   rps.Score
	result  rps.Result
}

type CoordinatorOption func(*Coordinator)

// WithRecorder stores every resolved round in r.
func WithRecorder(r Recorder) CoordinatorOption {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithObserver calls f after every step that changed something.
func WithObserver(f func(Snapshot, Event)) CoordinatorOption {
	return func(c *Coordinator) {
		c.observer = f
	}
}

func WithCoordinatorLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithCoordinatorClock sets the clock Run waits on between idle polls.
func WithCoordinatorClock(clk clock.Clock) CoordinatorOption {
	return func(c *Coordinator) {
		c.clock = clk
	}
}

// NewCoordinator prepares the first round of a match.
func NewCoordinator(cfg config.GameConfig, messenger Messenger, input InputSource, display DisplaySink, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		messenger: messenger,
		input:     input,
		display:   display,
		logger:    slog.Default(),
		clock:     clock.New(),
		poll:      cfg.PollInterval,
		state:     ChooseMove,
		round:     rps.NewRoundState(rps.FirstRound),
		result:    rps.Pending,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step performs a single transition of the state machine. In AwaitBoth it
// polls the radio once and returns EventNone when nothing arrived and no
// retransmission was due.
func (c *Coordinator) Step(ctx context.Context) (Event, error) {
	switch c.state {
	case ChooseMove:
		move, err := c.input.ChooseMove(ctx, c.round.Round)
		if err != nil {
			return EventNone, fmt.Errorf("choose move for round %d: %w", c.round.Round, err)
		}
		if !move.Valid() {
			return EventNone, fmt.Errorf("%w: %d", ErrInvalidMove, move)
		}
		c.round.Own = move
		c.state = Sent
		return EventMoveChosen, nil

	case Sent:
		if _, err := c.messenger.SendMove(c.round.Own, c.round.Round); err != nil {
			return EventNone, fmt.Errorf("send move for round %d: %w", c.round.Round, err)
		}
		c.display.ShowWaiting(c.round.Round)
		c.state = AwaitBoth
		return EventMoveSent, nil

	case AwaitBoth:
		return c.await()

	case Resolved:
		c.display.ShowRoundOutcome(c.outcome)
		c.display.ShowScore(c.round.Round, c.score)
		if c.recorder != nil {
			if _, err := c.recorder.Append(c.outcome); err != nil {
				return EventNone, fmt.Errorf("record round %d: %w", c.round.Round, err)
			}
		}
		c.logger.Info("round resolved",
			"round", c.round.Round,
			"own", c.outcome.Own,
			"opponent", c.outcome.Opponent,
			"score", fmt.Sprintf("%d-%d", c.score.Own, c.score.Opponent))
		c.state = RoundDone
		return EventRoundResolved, nil

	case RoundDone:
		if result, over := rps.Evaluate(c.round.Round, c.score); over {
			c.result = result
			c.state = MatchOver
			c.display.ShowMatchResult(result, c.score)
			c.logger.Info("match over", "result", result, "rounds", c.round.Round)
			return EventMatchOver, nil
		}
		c.round = rps.NewRoundState(c.round.Round + 1)
		c.state = ChooseMove
		return EventNextRound, nil

	default:
		return EventMatchOver, nil
	}
}

func (c *Coordinator) await() (Event, error) {
	msg, err := c.messenger.PollIncoming(c.round.Round)
	if err != nil {
		return EventNone, err
	}
	event := EventNone
	switch m := msg.(type) {
	case communication.MovePayload:
		if !c.round.Resolved {
			c.resolve(m.Move)
			event = EventOpponentMove
		}
	case communication.AckPayload:
		if !c.round.Acknowledged {
			c.round.Acknowledged = true
			event = EventAcknowledged
		}
	}
	if c.round.Complete() {
		c.state = Resolved
		return event, nil
	}
	retried, err := c.messenger.RetryIfDue()
	if err != nil {
		return EventNone, err
	}
	if retried && event == EventNone {
		event = EventRetransmitted
	}
	return event, nil
}

func (c *Coordinator) resolve(opponent rps.Move) {
	own, theirs := rps.Resolve(c.round.Own, opponent)
	c.score.Add(own, theirs)
	c.round.Opponent = opponent
	c.round.HasOpponent = true
	c.round.Resolved = true
	c.outcome = rps.RoundOutcome{
		Round:         c.round.Round,
		Own:           c.round.Own,
		Opponent:      opponent,
		OwnPoint:      own,
		OpponentPoint: theirs,
	}
}

// Run steps until the match is over and returns its result. Idle polls are
// spaced by the configured poll interval. Cancelling ctx aborts the match.
func (c *Coordinator) Run(ctx context.Context) (rps.Result, error) {
	for c.state != MatchOver {
		if err := ctx.Err(); err != nil {
			return rps.Pending, err
		}
		event, err := c.Step(ctx)
		if err != nil {
			return rps.Pending, err
		}
		if event == EventNone {
			if err := sleep(ctx, c.clock, c.poll); err != nil {
				return rps.Pending, err
			}
			continue
		}
		c.logger.Debug("step", "round", c.round.Round, "state", c.state, "event", event)
		if c.observer != nil {
			c.observer(c.Snapshot(), event)
		}
	}
	return c.result, nil
}

// Snapshot copies the current state.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		State:  c.state,
		Round:  c.round,
		Score:  c.score,
		Result: c.result,
	}
}

func (c *Coordinator) State() State {
	return c.state
}

// Round is the number of the round being played, or the last one once the
// match is over.
func (c *Coordinator) Round() uint32 {
	return c.round.Round
}

func (c *Coordinator) Score() rps.Score {
	return c.score
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
