package rps

// FirstRound is the number of the opening round of a match.
const FirstRound uint32 = 1

// RoundState is the local view of the round being played.
type RoundState struct {
	Round        uint32
	Own          Move
	Opponent     Move
	HasOpponent  bool
	Acknowledged bool
	Resolved     bool
}

// NewRoundState starts round n with no move known yet.
func NewRoundState(n uint32) RoundState {
	return RoundState{Round: n}
}

// Complete reports whether the peer has acknowledged our move and the round
// has been resolved against the peer's move.
func (r RoundState) Complete() bool {
	return r.Acknowledged && r.Resolved
}

// RoundOutcome describes a resolved round.
type RoundOutcome struct {
	Round         uint32 `json:"round"`
	Own           Move   `json:"own"`
	Opponent      Move   `json:"opponent"`
	OwnPoint      int    `json:"own_point"`
	OpponentPoint int    `json:"opponent_point"`
}

// Result tells who took the round.
func (o RoundOutcome) Result() Result {
	return Score{Own: o.OwnPoint, Opponent: o.OpponentPoint}.leader()
}
