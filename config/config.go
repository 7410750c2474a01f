// Package config holds the immutable settings of a device taking part in a
// match. A GameConfig is built once at startup with New and handed by value
// to the components that need it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/network"
)

const (
	DefaultPower         uint8 = 6
	DefaultRetryInterval       = 1000 * time.Millisecond
	DefaultPollInterval        = 5 * time.Millisecond
	DefaultLinger              = 3 * time.Second
)

var (
	ErrInvalidPower         = network.ErrInvalidPower
	ErrInvalidRetryInterval = errors.New("invalid retry interval")
	ErrInvalidPollInterval  = errors.New("invalid poll interval")
	ErrInvalidLinger        = errors.New("invalid linger duration")
)

// GameConfig is the configuration of one device.
type GameConfig struct {
	// DeviceID is the identifier of this device.
	DeviceID rps.DeviceID
	// Power is the radio transmission power, 0 to network.MaxPower.
	Power uint8
	// RetryInterval is how long an unacknowledged move waits before being
	// sent again.
	RetryInterval time.Duration
	// PollInterval is the pause between two idle polls of the radio.
	PollInterval time.Duration
	// Linger is how long a device keeps answering stale retransmissions
	// once its match is over.
	Linger time.Duration
}

type Option func(GameConfig) GameConfig

// New builds the configuration of the device named id.
func New(id string, opts ...Option) (GameConfig, error) {
	deviceID, err := rps.ParseDeviceID(id)
	if err != nil {
		return GameConfig{}, err
	}
	c := GameConfig{
		DeviceID:      deviceID,
		Power:         DefaultPower,
		RetryInterval: DefaultRetryInterval,
		PollInterval:  DefaultPollInterval,
		Linger:        DefaultLinger,
	}
	for _, opt := range opts {
		c = opt(c)
	}
	if err := c.Validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

// Validate checks every field of c.
func (c GameConfig) Validate() error {
	var errs []error
	if _, err := rps.ParseDeviceID(string(c.DeviceID)); err != nil {
		errs = append(errs, err)
	}
	if c.Power > network.MaxPower {
		errs = append(errs, fmt.Errorf("%w: %d is above %d", ErrInvalidPower, c.Power, network.MaxPower))
	}
	if c.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidRetryInterval, c.RetryInterval))
	}
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidPollInterval, c.PollInterval))
	}
	if c.Linger < 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidLinger, c.Linger))
	}
	return errors.Join(errs...)
}

func WithPower(power uint8) Option {
	return func(c GameConfig) GameConfig {
		c.Power = power
		return c
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(c GameConfig) GameConfig {
		c.RetryInterval = d
		return c
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c GameConfig) GameConfig {
		c.PollInterval = d
		return c
	}
}

func WithLinger(d time.Duration) Option {
	return func(c GameConfig) GameConfig {
		c.Linger = d
		return c
	}
}
