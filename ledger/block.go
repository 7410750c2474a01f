package ledger

import "github.com/luca-patrignani/radio-rps/domain/rps"

// Block is one entry of the ledger. The genesis block has index 0 and a zero
// Outcome.
type Block struct {
	Index     int              `json:"index"`
	Timestamp int64            `json:"timestamp"`
	PrevHash  string           `json:"prev_hash"`
	Hash      string           `json:"hash"`
	Outcome   rps.RoundOutcome `json:"outcome"`
	Score     rps.Score        `json:"score"`
	Metadata  Metadata         `json:"metadata"`
}

// Metadata identifies the match a block belongs to.
type Metadata struct {
	MatchID  string       `json:"match_id"`
	Device   rps.DeviceID `json:"device"`
	Opponent rps.DeviceID `json:"opponent"`
	Channel  string       `json:"channel"`
}

// Genesis reports whether b opens the ledger.
func (b Block) Genesis() bool {
	return b.Index == 0
}
