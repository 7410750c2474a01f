package rps

import (
	"crypto/cipher"
	"math/big"

	"go.dedis.ch/kyber/v4/util/random"
)

// random.Int draws from [1, mod), so the bound is one past the move count.
var moveBound = big.NewInt(int64(len(Moves)) + 1)

// RandomMove draws a move uniformly from stream. A nil stream falls back to
// the system randomness source.
func RandomMove(stream cipher.Stream) Move {
	if stream == nil {
		stream = random.New()
	}
	return Moves[random.Int(moveBound, stream).Int64()-1]
}
