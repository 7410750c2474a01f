package application

import (
	"context"
	"time"

	"github.com/luca-patrignani/radio-rps/communication"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/ledger"
)

// InputSource supplies the choices of the local player.
type InputSource interface {
	// ChooseOpponent returns the ID of the device to play against.
	ChooseOpponent(ctx context.Context) (rps.DeviceID, error)

	// ChooseMove returns the move for round. It may block until the player
	// decides.
	ChooseMove(ctx context.Context, round uint32) (rps.Move, error)
}

// DisplaySink shows the progress of the match. Calls must not block.
type DisplaySink interface {
	ShowWaiting(round uint32)
	ShowRoundOutcome(outcome rps.RoundOutcome)
	ShowScore(round uint32, score rps.Score)
	ShowMatchResult(result rps.Result, score rps.Score)
}

// Messenger is the reliable messaging layer the coordinator drives.
type Messenger interface {
	SendMove(move rps.Move, round uint32) (time.Time, error)
	PollIncoming(current uint32) (communication.Message, error)
	RetryIfDue() (bool, error)
}

// Recorder keeps the resolved rounds. *ledger.Ledger implements it.
type Recorder interface {
	Append(outcome rps.RoundOutcome) (ledger.Block, error)
}
