// Package rps implements the domain rules of a best-of-3 rock-paper-scissors
// match between two devices.
//
// # Core Types
//
// DeviceID: the two-character identifier of a device.
//
// Move: one of Rock, Paper and Scissors, placed on a fixed cycle
// (Rock → Paper → Scissors → Rock) so that a round is resolved by the
// distance between the two moves on the cycle.
//
// RoundState: what a device knows about the round in progress.
//
// Score: the points accumulated by both sides during one match.
//
// # Match Flow
//
// Every round both devices pick a move; Resolve turns the pair into points,
// Score accumulates them and Evaluate decides whether the match is over.
// A match ends after round 2 on a 2–0 score, otherwise after round 3.
package rps
