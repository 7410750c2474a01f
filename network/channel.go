package network

import (
	"encoding/binary"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

// Channel is the private channel shared by two devices.
type Channel struct {
	// Address is the concatenation of the two device ids, smaller first.
	Address string
	// Key is the numeric form of Address the radio is tuned with.
	Key uint32
}

// Negotiate derives the channel of own and opponent. The result does not
// depend on the order of the arguments.
func Negotiate(own, opponent rps.DeviceID) Channel {
	low, high := own, opponent
	if high < low {
		low, high = high, low
	}
	address := string(low) + string(high)
	return Channel{Address: address, Key: ChannelKey(address)}
}

// ChannelKey reads the four bytes of address as a little-endian integer.
// Shorter addresses are zero padded and longer ones truncated.
func ChannelKey(address string) uint32 {
	var b [4]byte
	copy(b[:], address)
	return binary.LittleEndian.Uint32(b[:])
}

func (c Channel) String() string {
	return c.Address
}
