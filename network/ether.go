package network

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Ether is an in-memory broadcast medium shared by its radios.
type Ether struct {
	mu          sync.Mutex
	rng         *rand.Rand
	loss        float64
	duplication float64
	reordering  bool
	queueLength int
	radios      []*EtherRadio
}

type EtherOption func(*Ether)

// NewEther creates a lossless medium unless options say otherwise.
func NewEther(opts ...EtherOption) *Ether {
	e := &Ether{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		queueLength: DefaultQueueLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLoss drops each delivery with probability p.
func WithLoss(p float64) EtherOption {
	return func(e *Ether) {
		e.loss = p
	}
}

// WithDuplication delivers each payload a second time with probability p.
func WithDuplication(p float64) EtherOption {
	return func(e *Ether) {
		e.duplication = p
	}
}

// WithReordering inserts deliveries at a random position of the receiving
// queue instead of at its tail.
func WithReordering() EtherOption {
	return func(e *Ether) {
		e.reordering = true
	}
}

// WithQueueLength bounds the number of payloads a radio buffers.
func WithQueueLength(n int) EtherOption {
	return func(e *Ether) {
		e.queueLength = n
	}
}

// WithSeed makes the injected faults reproducible.
func WithSeed(seed uint64) EtherOption {
	return func(e *Ether) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewRadio attaches a new, unconfigured radio to the medium.
func (e *Ether) NewRadio() *EtherRadio {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &EtherRadio{ether: e}
	e.radios = append(e.radios, r)
	return r
}

func (e *Ether) broadcast(from *EtherRadio, payload []byte) {
	for _, r := range e.radios {
		if r == from || !r.on || r.closed || r.key != from.key {
			continue
		}
		if e.rng.Float64() < e.loss {
			continue
		}
		e.deliver(r, payload)
		if e.rng.Float64() < e.duplication {
			e.deliver(r, payload)
		}
	}
}

func (e *Ether) deliver(r *EtherRadio, payload []byte) {
	if len(r.inbox) >= e.queueLength {
		return
	}
	b := slices.Clone(payload)
	if e.reordering && len(r.inbox) > 0 {
		r.inbox = slices.Insert(r.inbox, e.rng.IntN(len(r.inbox)+1), b)
		return
	}
	r.inbox = append(r.inbox, b)
}

// EtherRadio is a Radio attached to an Ether.
type EtherRadio struct {
	ether  *Ether
	key    uint32
	power  uint8
	on     bool
	closed bool
	inbox  [][]byte
}

func (r *EtherRadio) Configure(key uint32, power uint8) error {
	if err := checkPower(power); err != nil {
		return err
	}
	r.ether.mu.Lock()
	defer r.ether.mu.Unlock()
	if r.closed {
		return ErrRadioClosed
	}
	if r.key != key {
		r.inbox = nil
	}
	r.key = key
	r.power = power
	r.on = true
	return nil
}

func (r *EtherRadio) Send(payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}
	r.ether.mu.Lock()
	defer r.ether.mu.Unlock()
	if r.closed {
		return ErrRadioClosed
	}
	if !r.on {
		return ErrRadioOff
	}
	r.ether.broadcast(r, payload)
	return nil
}

func (r *EtherRadio) TryReceive() ([]byte, bool) {
	r.ether.mu.Lock()
	defer r.ether.mu.Unlock()
	if len(r.inbox) == 0 {
		return nil, false
	}
	payload := r.inbox[0]
	r.inbox = r.inbox[1:]
	return payload, true
}

func (r *EtherRadio) Close() error {
	r.ether.mu.Lock()
	defer r.ether.mu.Unlock()
	r.closed = true
	r.inbox = nil
	return nil
}
