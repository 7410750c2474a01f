package rps

// Rounds is the fixed number of rounds of a match.
const Rounds = 3

// earlyFinishRound is the round after which a 2–0 score ends the match.
const earlyFinishRound = 2

// Result is the outcome of a match, or of a single round, seen by the
// local device.
type Result int

const (
	Pending Result = iota
	Win
	Loss
	Draw
)

func (r Result) String() string {
	switch r {
	case Pending:
		return "PENDING"
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	case Draw:
		return "DRAW"
	default:
		return "INVALID"
	}
}

// Score holds the points of both sides. It only grows during a match.
type Score struct {
	Own      int `json:"own"`
	Opponent int `json:"opponent"`
}

// Add accumulates the output of Resolve.
func (s *Score) Add(myPoint, theirPoint int) {
	s.Own += myPoint
	s.Opponent += theirPoint
}

func (s Score) leader() Result {
	switch {
	case s.Own > s.Opponent:
		return Win
	case s.Opponent > s.Own:
		return Loss
	default:
		return Draw
	}
}

// Evaluate decides, once round has been completed with the given score,
// whether the match is over and how it ended. After round 2 a side with two
// wins against none takes the match; after round 3 the higher score wins and
// a tie is a draw. Any other state returns Pending, false.
func Evaluate(round uint32, s Score) (Result, bool) {
	switch {
	case round == earlyFinishRound:
		if s.Own == 2 && s.Opponent == 0 {
			return Win, true
		}
		if s.Opponent == 2 && s.Own == 0 {
			return Loss, true
		}
		return Pending, false
	case round >= Rounds:
		return s.leader(), true
	default:
		return Pending, false
	}
}
