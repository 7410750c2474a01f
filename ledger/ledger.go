package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

const genesisPrevHash = "0"

var (
	ErrInvalidBlock     = errors.New("invalid block")
	ErrRoundOutOfOrder  = errors.New("round out of order")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInconsistentPlay = errors.New("score does not match the round outcome")
)

// Ledger is the hash-chained record of one match. It is safe for concurrent
// use: the game loop appends while the status API reads.
type Ledger struct {
	mu     sync.RWMutex
	blocks []Block
}

// NewLedger opens the ledger of a new match between device and opponent on
// the given channel address. The match gets a fresh random ID.
func NewLedger(device, opponent rps.DeviceID, channel string) *Ledger {
	l := &Ledger{}
	genesis := Block{
		Index:     0,
		Timestamp: time.Now().Unix(),
		PrevHash:  genesisPrevHash,
		Metadata: Metadata{
			MatchID:  uuid.NewString(),
			Device:   device,
			Opponent: opponent,
			Channel:  channel,
		},
	}
	genesis.Hash = calculateHash(genesis)
	l.blocks = append(l.blocks, genesis)
	return l
}

// MatchID returns the ID stored in the genesis block.
func (l *Ledger) MatchID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[0].Metadata.MatchID
}

// Append records a resolved round. Rounds must be appended in order starting
// from rps.FirstRound.
func (l *Ledger) Append(outcome rps.RoundOutcome) (Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	latest := l.blocks[len(l.blocks)-1]
	if outcome.Round != latest.Outcome.Round+1 {
		return Block{}, fmt.Errorf("%w: expected round %d, got %d", ErrRoundOutOfOrder, latest.Outcome.Round+1, outcome.Round)
	}
	score := latest.Score
	score.Add(outcome.OwnPoint, outcome.OpponentPoint)

	block := Block{
		Index:     latest.Index + 1,
		Timestamp: time.Now().Unix(),
		PrevHash:  latest.Hash,
		Outcome:   outcome,
		Score:     score,
		Metadata:  latest.Metadata,
	}
	block.Hash = calculateHash(block)
	if err := validateBlock(block, latest); err != nil {
		return Block{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	l.blocks = append(l.blocks, block)
	return block, nil
}

// Latest returns the most recent block.
func (l *Ledger) Latest() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[len(l.blocks)-1]
}

// ByIndex returns the block at index.
func (l *Ledger) ByIndex(index int) (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.blocks) {
		return Block{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return l.blocks[index], nil
}

// Blocks returns a copy of the chain, genesis first.
func (l *Ledger) Blocks() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Block(nil), l.blocks...)
}

// Len is the number of blocks, genesis included.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// Verify checks the integrity of the whole chain.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	genesis := l.blocks[0]
	if genesis.Index != 0 || genesis.PrevHash != genesisPrevHash || genesis.Hash != calculateHash(genesis) {
		return fmt.Errorf("%w: genesis", ErrInvalidBlock)
	}
	if genesis.Score != (rps.Score{}) || genesis.Outcome != (rps.RoundOutcome{}) {
		return fmt.Errorf("%w: genesis records a round", ErrInvalidBlock)
	}
	for i := 1; i < len(l.blocks); i++ {
		if err := validateBlock(l.blocks[i], l.blocks[i-1]); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvalidBlock, i, err)
		}
	}
	return nil
}

// validateBlock checks current against the block it follows.
func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	if expected := calculateHash(current); current.Hash != expected {
		return fmt.Errorf("invalid hash: expected %s, got %s", expected, current.Hash)
	}
	if current.Outcome.Round != previous.Outcome.Round+1 {
		return fmt.Errorf("%w: round %d after round %d", ErrRoundOutOfOrder, current.Outcome.Round, previous.Outcome.Round)
	}
	if current.Metadata != previous.Metadata {
		return fmt.Errorf("match metadata changed")
	}
	own, opponent := rps.Resolve(current.Outcome.Own, current.Outcome.Opponent)
	if own != current.Outcome.OwnPoint || opponent != current.Outcome.OpponentPoint {
		return fmt.Errorf("%w: round %d", ErrInconsistentPlay, current.Outcome.Round)
	}
	expected := previous.Score
	expected.Add(own, opponent)
	if current.Score != expected {
		return fmt.Errorf("%w: expected %+v, got %+v", ErrInconsistentPlay, expected, current.Score)
	}
	return nil
}

// calculateHash computes the SHA256 hash of a block from every field but the
// hash itself.
func calculateHash(block Block) string {
	outcomeBytes, _ := json.Marshal(block.Outcome)
	metadataBytes, _ := json.Marshal(block.Metadata)

	data := fmt.Sprintf("%d%d%s%s%d:%d%s",
		block.Index,
		block.Timestamp,
		block.PrevHash,
		string(outcomeBytes),
		block.Score.Own,
		block.Score.Opponent,
		string(metadataBytes),
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
