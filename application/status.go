package application

import (
	"sync"
	"time"

	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/ledger"
	"github.com/luca-patrignani/radio-rps/network"
)

const stateIdle = "Idle"

// Status is what the StatusBoard tells observers about a device.
type Status struct {
	Device    rps.DeviceID `json:"device"`
	Opponent  rps.DeviceID `json:"opponent,omitempty"`
	Channel   string       `json:"channel,omitempty"`
	MatchID   string       `json:"match_id,omitempty"`
	State     string       `json:"state"`
	Round     uint32       `json:"round"`
	Own       string       `json:"own_move,omitempty"`
	Score     rps.Score    `json:"score"`
	Result    string       `json:"result"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// StatusBoard holds the latest state published by a Match. Readers may run
// on other goroutines.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
	ledger *ledger.Ledger
}

func NewStatusBoard(device rps.DeviceID) *StatusBoard {
	return &StatusBoard{
		status: Status{
			Device:    device,
			State:     stateIdle,
			Result:    rps.Pending.String(),
			UpdatedAt: time.Now(),
		},
	}
}

// Status returns a copy of the latest status.
func (b *StatusBoard) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Ledger returns the ledger of the current match, nil before a match starts.
func (b *StatusBoard) Ledger() *ledger.Ledger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger
}

func (b *StatusBoard) start(opponent rps.DeviceID, channel network.Channel, l *ledger.Ledger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger = l
	b.status = Status{
		Device:    b.status.Device,
		Opponent:  opponent,
		Channel:   channel.Address,
		MatchID:   l.MatchID(),
		State:     ChooseMove.String(),
		Round:     rps.FirstRound,
		Result:    rps.Pending.String(),
		UpdatedAt: time.Now(),
	}
}

func (b *StatusBoard) update(s Snapshot, _ Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.State = s.State.String()
	b.status.Round = s.Round.Round
	b.status.Own = ""
	if s.State != ChooseMove {
		b.status.Own = s.Round.Own.String()
	}
	b.status.Score = s.Score
	b.status.Result = s.Result.String()
	b.status.UpdatedAt = time.Now()
}
