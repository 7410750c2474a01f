package network

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/net/ipv4"
)

const (
	DefaultGroup = "239.0.0.2"
	DefaultPort  = 53560

	keySize     = 4
	senderSize  = 8
	frameHeader = keySize + senderSize
)

// UDPRadio is a Radio that broadcasts over UDP multicast. Group, Port,
// QueueLength and Logger may be set before the first call to Configure,
// which joins the group and starts listening.
type UDPRadio struct {
	Group       string
	Port        uint16
	QueueLength int
	Logger      *slog.Logger

	mu       sync.Mutex
	conn     *net.UDPConn
	sendConn *net.UDPConn
	sender   []byte
	key      atomic.Uint32
	closed   atomic.Bool
	inbox    chan []byte
}

func (r *UDPRadio) Configure(key uint32, power uint8) error {
	if err := checkPower(power); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return ErrRadioClosed
	}
	if r.conn == nil {
		if err := r.start(); err != nil {
			return err
		}
	}
	r.key.Store(key)
	// Power 0 keeps frames on the local link, every extra level lets them
	// cross one more router.
	pc := ipv4.NewPacketConn(r.sendConn)
	if err := pc.SetMulticastTTL(int(power) + 1); err != nil {
		return fmt.Errorf("setting multicast ttl: %w", err)
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("enabling multicast loopback: %w", err)
	}
	return nil
}

func (r *UDPRadio) start() error {
	if r.Group == "" {
		r.Group = DefaultGroup
	}
	if r.Port == 0 {
		r.Port = DefaultPort
	}
	if r.QueueLength <= 0 {
		r.QueueLength = DefaultQueueLength
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	r.sender = []byte(fmt.Sprintf("%08x", rand.Uint32()))
	r.inbox = make(chan []byte, r.QueueLength)
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", r.Group, r.Port))
	if err != nil {
		return err
	}
	r.conn, err = net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	r.sendConn, err = net.DialUDP("udp4", nil, addr)
	if err != nil {
		return errors.Join(err, r.conn.Close())
	}
	go r.listen()
	return nil
}

func (r *UDPRadio) listen() {
	buffer := make([]byte, 1024)
	for {
		n, _, err := r.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.Logger.Warn("radio receive failed", "error", err)
			continue
		}
		frame := buffer[:n]
		if n < frameHeader || n > frameHeader+MaxPayload {
			continue
		}
		if bytes.Equal(frame[keySize:frameHeader], r.sender) {
			continue
		}
		if binary.LittleEndian.Uint32(frame[:keySize]) != r.key.Load() {
			continue
		}
		select {
		case r.inbox <- slices.Clone(frame[frameHeader:]):
		default:
			r.Logger.Debug("radio queue full, frame dropped")
		}
	}
}

func (r *UDPRadio) Send(payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}
	if r.closed.Load() {
		return ErrRadioClosed
	}
	r.mu.Lock()
	conn := r.sendConn
	r.mu.Unlock()
	if conn == nil {
		return ErrRadioOff
	}
	frame := make([]byte, frameHeader, frameHeader+len(payload))
	binary.LittleEndian.PutUint32(frame, r.key.Load())
	copy(frame[keySize:], r.sender)
	frame = append(frame, payload...)
	if _, err := conn.Write(frame); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrRadioClosed
		}
		return err
	}
	return nil
}

func (r *UDPRadio) TryReceive() ([]byte, bool) {
	if r.inbox == nil {
		return nil, false
	}
	select {
	case payload := <-r.inbox:
		return payload, true
	default:
		return nil, false
	}
}

// Close leaves the multicast group. The radio cannot be configured again.
func (r *UDPRadio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Swap(true) || r.conn == nil {
		return nil
	}
	err1 := r.conn.Close()
	err2 := r.sendConn.Close()
	return errors.Join(err1, err2)
}
