package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

func outcome(round uint32, own, opponent rps.Move) rps.RoundOutcome {
	o := rps.RoundOutcome{Round: round, Own: own, Opponent: opponent}
	o.OwnPoint, o.OpponentPoint = rps.Resolve(own, opponent)
	return o
}

func newTestLedger(t *testing.T, outcomes ...rps.RoundOutcome) *Ledger {
	t.Helper()
	l := NewLedger("0a", "1b", "0a1b")
	for _, o := range outcomes {
		if _, err := l.Append(o); err != nil {
			t.Fatalf("failed to append round %d: %v", o.Round, err)
		}
	}
	return l
}

// TestNewLedger verifies the genesis block identifies the match and records
// no round.
func TestNewLedger(t *testing.T) {
	l := newTestLedger(t)
	if l.Len() != 1 {
		t.Fatalf("expected 1 block (genesis), got %d", l.Len())
	}
	genesis := l.Latest()
	if !genesis.Genesis() {
		t.Fatalf("genesis index should be 0, got %d", genesis.Index)
	}
	if genesis.PrevHash != "0" {
		t.Fatalf("genesis PrevHash should be '0', got %s", genesis.PrevHash)
	}
	if genesis.Hash == "" {
		t.Fatal("genesis block should have a hash")
	}
	if _, err := uuid.Parse(l.MatchID()); err != nil {
		t.Fatalf("match id %q is not a uuid: %v", l.MatchID(), err)
	}
	want := Metadata{MatchID: l.MatchID(), Device: "0a", Opponent: "1b", Channel: "0a1b"}
	if genesis.Metadata != want {
		t.Fatalf("expected metadata %+v, got %+v", want, genesis.Metadata)
	}
	if err := l.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestMatchIDsAreUnique(t *testing.T) {
	a, b := newTestLedger(t), newTestLedger(t)
	if a.MatchID() == b.MatchID() {
		t.Fatalf("two matches share the id %s", a.MatchID())
	}
	if a.Latest().Hash == b.Latest().Hash {
		t.Fatal("two matches share the genesis hash")
	}
}

func TestAppend(t *testing.T) {
	l := newTestLedger(t,
		outcome(1, rps.Rock, rps.Scissors),
		outcome(2, rps.Rock, rps.Rock),
		outcome(3, rps.Paper, rps.Scissors),
	)
	if l.Len() != 4 {
		t.Fatalf("expected 4 blocks, got %d", l.Len())
	}
	blocks := l.Blocks()
	for i := 1; i < len(blocks); i++ {
		if blocks[i].PrevHash != blocks[i-1].Hash {
			t.Fatalf("block %d is not linked to block %d", i, i-1)
		}
		if blocks[i].Outcome.Round != uint32(i) {
			t.Fatalf("block %d records round %d", i, blocks[i].Outcome.Round)
		}
	}
	if got := l.Latest().Score; got != (rps.Score{Own: 1, Opponent: 1}) {
		t.Fatalf("expected a 1-1 score, got %+v", got)
	}
	if err := l.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestAppendOutOfOrder(t *testing.T) {
	l := newTestLedger(t, outcome(1, rps.Rock, rps.Paper))
	for _, round := range []uint32{1, 3, 0} {
		if _, err := l.Append(outcome(round, rps.Rock, rps.Paper)); !errors.Is(err, ErrRoundOutOfOrder) {
			t.Fatalf("round %d: expected %v, got %v", round, ErrRoundOutOfOrder, err)
		}
	}
	if l.Len() != 2 {
		t.Fatalf("rejected rounds were appended: %d blocks", l.Len())
	}
}

func TestAppendInconsistentPoints(t *testing.T) {
	l := newTestLedger(t)
	forged := rps.RoundOutcome{Round: 1, Own: rps.Rock, Opponent: rps.Paper, OwnPoint: 1}
	if _, err := l.Append(forged); !errors.Is(err, ErrInconsistentPlay) {
		t.Fatalf("expected %v, got %v", ErrInconsistentPlay, err)
	}
}

func TestByIndex(t *testing.T) {
	l := newTestLedger(t, outcome(1, rps.Scissors, rps.Paper))
	b, err := l.ByIndex(1)
	if err != nil {
		t.Fatal(err)
	}
	if b.Outcome.Own != rps.Scissors {
		t.Fatalf("expected scissors, got %v", b.Outcome.Own)
	}
	for _, i := range []int{-1, 2} {
		if _, err := l.ByIndex(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected %v, got %v", i, ErrIndexOutOfRange, err)
		}
	}
}

// TestVerifyDetectsTampering modifies recorded blocks in place and checks
// that the chain no longer verifies.
func TestVerifyDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(blocks []Block)
	}{
		{"changed move", func(b []Block) { b[1].Outcome.Opponent = rps.Rock }},
		{"changed score", func(b []Block) { b[2].Score.Own = 2 }},
		{"changed timestamp", func(b []Block) { b[1].Timestamp++ }},
		{"broken link", func(b []Block) { b[2].PrevHash = b[0].Hash }},
		{"changed match", func(b []Block) { b[0].Metadata.Opponent = "zz" }},
		{"rehashed forgery", func(b []Block) {
			b[2].Outcome = outcome(2, rps.Paper, rps.Rock)
			b[2].Hash = calculateHash(b[2])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t,
				outcome(1, rps.Rock, rps.Scissors),
				outcome(2, rps.Paper, rps.Paper),
			)
			tt.tamper(l.blocks)
			if err := l.Verify(); !errors.Is(err, ErrInvalidBlock) {
				t.Fatalf("expected %v, got %v", ErrInvalidBlock, err)
			}
		})
	}
}

func TestConcurrentReads(t *testing.T) {
	l := newTestLedger(t)
	errChan := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			for range 50 {
				if err := l.Verify(); err != nil {
					errChan <- err
					return
				}
				_ = l.Blocks()
			}
			errChan <- nil
		}()
	}
	for _, o := range []rps.RoundOutcome{
		outcome(1, rps.Rock, rps.Scissors),
		outcome(2, rps.Scissors, rps.Paper),
	} {
		if _, err := l.Append(o); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := <-errChan; err != nil {
			t.Fatal(err)
		}
	}
}
