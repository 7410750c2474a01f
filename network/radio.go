package network

import "errors"

const (
	// MaxPayload is the largest payload a radio accepts.
	MaxPayload = 32
	// MaxPower is the highest transmission power level.
	MaxPower uint8 = 7
	// DefaultQueueLength is how many payloads a radio buffers before it
	// starts dropping incoming ones.
	DefaultQueueLength = 3
)

var (
	ErrRadioOff        = errors.New("radio is not configured")
	ErrRadioClosed     = errors.New("radio is closed")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidPower    = errors.New("invalid transmission power")
)

// Radio is a broadcast transceiver.
type Radio interface {
	// Configure tunes the radio to the channel key and sets the
	// transmission power. It must be called before Send or TryReceive.
	Configure(key uint32, power uint8) error

	// Send broadcasts payload on the configured channel. Delivery is not
	// guaranteed.
	Send(payload []byte) error

	// TryReceive returns the oldest buffered payload, or false when none is
	// available. It never blocks.
	TryReceive() ([]byte, bool)

	Close() error
}

func checkPower(power uint8) error {
	if power > MaxPower {
		return ErrInvalidPower
	}
	return nil
}
