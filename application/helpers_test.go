package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

// scriptedInput plays a fixed list of moves, one per round.
type scriptedInput struct {
	opponent rps.DeviceID
	moves    []rps.Move
	err      error
}

func (s *scriptedInput) ChooseOpponent(ctx context.Context) (rps.DeviceID, error) {
	return s.opponent, s.err
}

func (s *scriptedInput) ChooseMove(ctx context.Context, round uint32) (rps.Move, error) {
	if s.err != nil {
		return 0, s.err
	}
	if round == 0 || int(round) > len(s.moves) {
		return 0, fmt.Errorf("no move scripted for round %d", round)
	}
	return s.moves[round-1], nil
}

// recordingDisplay keeps every call for later inspection.
type recordingDisplay struct {
	mu       sync.Mutex
	waiting  []uint32
	outcomes []rps.RoundOutcome
	scores   []rps.Score
	result   rps.Result
	final    rps.Score
	finished int
}

func (d *recordingDisplay) ShowWaiting(round uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waiting = append(d.waiting, round)
}

func (d *recordingDisplay) ShowRoundOutcome(outcome rps.RoundOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, outcome)
}

func (d *recordingDisplay) ShowScore(round uint32, score rps.Score) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scores = append(d.scores, score)
}

func (d *recordingDisplay) ShowMatchResult(result rps.Result, score rps.Score) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = result
	d.final = score
	d.finished++
}
