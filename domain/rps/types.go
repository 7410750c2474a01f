package rps

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDeviceID = errors.New("invalid device id")
	ErrUnknownMove     = errors.New("unknown move")
)

// DeviceIDLength is the number of characters of a DeviceID.
const DeviceIDLength = 2

// DeviceID identifies a device. Two IDs compare lexically.
type DeviceID string

// ParseDeviceID validates s as a DeviceID: exactly two printable,
// non-space ASCII characters.
func ParseDeviceID(s string) (DeviceID, error) {
	if len(s) != DeviceIDLength {
		return "", fmt.Errorf("%w: %q must be %d characters long", ErrInvalidDeviceID, s, DeviceIDLength)
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return "", fmt.Errorf("%w: %q contains a non printable character", ErrInvalidDeviceID, s)
		}
	}
	return DeviceID(s), nil
}

func (id DeviceID) String() string {
	return string(id)
}

// Move is a hand shape. The numeric values are the positions on the cycle
// used by Resolve and must not be reordered.
type Move uint8

const (
	Rock Move = iota
	Paper
	Scissors
)

// Moves lists the moves in cycle order.
var Moves = [3]Move{Rock, Paper, Scissors}

var moveTags = [3]byte{'R', 'P', 'S'}

func (m Move) String() string {
	switch m {
	case Rock:
		return "Rock"
	case Paper:
		return "Paper"
	case Scissors:
		return "Scissors"
	default:
		return "INVALID"
	}
}

// Valid reports whether m is one of the three moves.
func (m Move) Valid() bool {
	return m <= Scissors
}

// Tag returns the single-character wire tag of m.
func (m Move) Tag() byte {
	return moveTags[m]
}

// MoveFromTag maps a wire tag back to its move.
func MoveFromTag(tag byte) (Move, error) {
	for i, t := range moveTags {
		if t == tag {
			return Move(i), nil
		}
	}
	return 0, fmt.Errorf("%w: tag %q", ErrUnknownMove, tag)
}

// ParseMove accepts a move name ("rock"), its tag ("R") in any case.
func ParseMove(s string) (Move, error) {
	switch s {
	case "R", "r", "Rock", "rock", "ROCK":
		return Rock, nil
	case "P", "p", "Paper", "paper", "PAPER":
		return Paper, nil
	case "S", "s", "Scissors", "scissors", "SCISSORS":
		return Scissors, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMove, s)
}
