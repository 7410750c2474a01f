package communication

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

const (
	// AckTag marks an acknowledgement. It is never a move tag.
	AckTag byte = 'X'
	// MaxMessageLength is the largest valid encoded message.
	MaxMessageLength = 8
	// MaxRound is the largest round number that fits in a message.
	MaxRound uint32 = 9999999
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyPayload   = fmt.Errorf("%w: empty payload", ErrInvalidMessage)
	ErrPayloadTooLong = fmt.Errorf("%w: payload longer than %d bytes", ErrInvalidMessage, MaxMessageLength)
	ErrMalformedRound = fmt.Errorf("%w: malformed round number", ErrInvalidMessage)
	ErrUnknownTag     = fmt.Errorf("%w: unknown tag", ErrInvalidMessage)
	ErrRoundTooLarge  = errors.New("round number too large")
)

// Message is either a MovePayload or an AckPayload.
type Message interface {
	round() uint32
	kind() string
}

// MovePayload carries the move a device played in a round.
type MovePayload struct {
	Move  rps.Move
	Round uint32
}

// AckPayload confirms that the move of a round was received.
type AckPayload struct {
	Round uint32
}

func (m MovePayload) round() uint32 { return m.Round }
func (m MovePayload) kind() string  { return kindMove }
func (a AckPayload) round() uint32  { return a.Round }
func (a AckPayload) kind() string   { return kindAck }

func (m MovePayload) String() string {
	return fmt.Sprintf("%s@%d", m.Move, m.Round)
}

func (a AckPayload) String() string {
	return fmt.Sprintf("ack@%d", a.Round)
}

// EncodeMove encodes the move played in round.
func EncodeMove(move rps.Move, round uint32) ([]byte, error) {
	if !move.Valid() {
		return nil, fmt.Errorf("%w: %d", rps.ErrUnknownMove, move)
	}
	return encode(move.Tag(), round)
}

// EncodeAck encodes the acknowledgement of round.
func EncodeAck(round uint32) ([]byte, error) {
	return encode(AckTag, round)
}

// Encode encodes m.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case MovePayload:
		return EncodeMove(v.Move, v.Round)
	case AckPayload:
		return EncodeAck(v.Round)
	default:
		return nil, fmt.Errorf("unsupported message %T", m)
	}
}

func encode(tag byte, round uint32) ([]byte, error) {
	if round > MaxRound {
		return nil, fmt.Errorf("%w: %d", ErrRoundTooLarge, round)
	}
	return strconv.AppendUint([]byte{tag}, uint64(round), 10), nil
}

// Decode parses a payload received from the radio. Every error it returns
// wraps ErrInvalidMessage.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxMessageLength {
		return nil, ErrPayloadTooLong
	}
	digits := payload[1:]
	if len(digits) == 0 {
		return nil, ErrMalformedRound
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRound, digits)
		}
	}
	// at most 7 digits, always fits
	round, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRound, err)
	}
	tag := payload[0]
	if tag == AckTag {
		return AckPayload{Round: uint32(round)}, nil
	}
	move, err := rps.MoveFromTag(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return MovePayload{Move: move, Round: uint32(round)}, nil
}
