// Package communication implements the round-synchronized messaging
// protocol spoken by two devices over a radio.
//
// # Wire Format
//
// Every message is at most 8 bytes: a one-byte tag followed by the round
// number in ASCII decimal digits. Tags R, P and S carry a move, tag X
// acknowledges the move of the given round.
//
// # Reliability
//
// The radio gives no delivery guarantee. The Messenger keeps sending the
// outstanding move every retry interval until an acknowledgement for its
// round shows up, acknowledges every move it accepts, and filters incoming
// traffic by round number:
//   - messages of the current round are handed to the caller
//   - moves of an older round are acknowledged again and dropped, so a peer
//     that missed our acknowledgement can move on
//   - messages of a later round are dropped
package communication
