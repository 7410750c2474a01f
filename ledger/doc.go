// Package ledger records a match as an append-only, hash-chained log.
//
// # Core Components
//
// Ledger: the chain of blocks of one match. The genesis block identifies the
// match (a random UUID, both devices and the channel address); every later
// block records one resolved round and the score after it.
//
// Block: a single entry, linked to its predecessor by the predecessor's
// SHA-256 hash.
//
// # Properties
//
// Rounds are appended strictly in order and the running score must match
// the points of every recorded round. Verify walks the whole chain and
// reports the first block whose index, link, hash or score is inconsistent,
// so any modification of a recorded round is detected.
//
// The ledger lives in memory for the duration of the match.
package ledger
