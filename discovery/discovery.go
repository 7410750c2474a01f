package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"
	"time"
)

const (
	DefaultGroup    = "239.0.0.1"
	DefaultPort     = 53552
	DefaultInterval = time.Second

	keyLength   = 8
	maxDatagram = 1024
)

var (
	ErrAlreadyStarted = errors.New("discovery already started")
	ErrInfoTooLarge   = errors.New("announcement too large")
)

// Discover announces Info every Interval and collects the announcements of
// its peers. Configure the exported fields, then call Start.
type Discover struct {
	Info     []byte
	Group    string
	Port     uint16
	Interval time.Duration
	Logger   *slog.Logger

	entries  chan Entry
	conn     *net.UDPConn
	sendConn *net.UDPConn
	key      []byte
	done     chan struct{}
	wg       sync.WaitGroup
}

// Entry is an announcement received from a peer.
type Entry struct {
	Info []byte
	Time time.Time
}

// Start joins the multicast group and starts announcing and listening.
func (d *Discover) Start() error {
	if d.done != nil {
		return ErrAlreadyStarted
	}
	if len(d.Info)+keyLength > maxDatagram {
		return fmt.Errorf("%w: %d bytes", ErrInfoTooLarge, len(d.Info))
	}
	if d.Group == "" {
		d.Group = DefaultGroup
	}
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if d.Interval <= 0 {
		d.Interval = DefaultInterval
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	d.key = []byte(fmt.Sprintf("%08x", rand.Uint32()))

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.Group, fmt.Sprint(d.Port)))
	if err != nil {
		return err
	}
	d.conn, err = net.ListenMulticastUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	d.sendConn, err = net.DialUDP("udp", nil, addr)
	if err != nil {
		return errors.Join(err, d.conn.Close())
	}
	d.entries = make(chan Entry, 10)
	d.done = make(chan struct{})
	d.wg.Add(2)
	go d.listen()
	go d.announce()
	return nil
}

// Entries delivers the announcements of other instances. It is closed by
// Close.
func (d *Discover) Entries() <-chan Entry {
	return d.entries
}

// Close stops announcing and listening.
func (d *Discover) Close() error {
	if d.done == nil {
		return nil
	}
	select {
	case <-d.done:
		return nil
	default:
	}
	close(d.done)
	err := errors.Join(d.conn.Close(), d.sendConn.Close())
	d.wg.Wait()
	close(d.entries)
	return err
}

func (d *Discover) listen() {
	defer d.wg.Done()
	buffer := make([]byte, maxDatagram)
	for {
		n, _, err := d.conn.ReadFromUDP(buffer)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.Logger.Warn("discovery listener stopped", "error", err)
			}
			return
		}
		if n < keyLength || bytes.Equal(buffer[:keyLength], d.key) {
			continue
		}
		entry := Entry{
			Info: bytes.Clone(buffer[keyLength:n]),
			Time: time.Now(),
		}
		select {
		case d.entries <- entry:
		case <-d.done:
			return
		}
	}
}

func (d *Discover) announce() {
	defer d.wg.Done()
	datagram := append(bytes.Clone(d.key), d.Info...)
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		if _, err := d.sendConn.Write(datagram); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.Logger.Warn("discovery announcer stopped", "error", err)
			}
			return
		}
		select {
		case <-ticker.C:
		case <-d.done:
			return
		}
	}
}
