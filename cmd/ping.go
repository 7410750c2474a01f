package main

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/luca-patrignani/radio-rps/discovery"
	"github.com/luca-patrignani/radio-rps/domain/rps"
)

// Pinger announces this device and remembers the devices it heard from.
type Pinger struct {
	discover *discovery.Discover
	logger   *slog.Logger

	mu      sync.Mutex
	players map[rps.DeviceID]time.Time
}

type Info struct {
	ID rps.DeviceID `json:"id"`
}

func NewPinger(info Info, port uint16, intervalBetweenPings time.Duration, logger *slog.Logger) (*Pinger, error) {
	infoJson, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	discover := discovery.Discover{
		Info:     infoJson,
		Port:     port,
		Interval: intervalBetweenPings,
		Logger:   logger,
	}
	p := Pinger{
		discover: &discover,
		logger:   logger,
		players:  make(map[rps.DeviceID]time.Time),
	}
	return &p, nil
}

func (p *Pinger) Start() error {
	return p.discover.Start()
}

// Players drains the pending announcements and returns the IDs heard so
// far, sorted.
func (p *Pinger) Players() []rps.DeviceID {
	p.mu.Lock()
	defer p.mu.Unlock()
	for drained := false; !drained; {
		select {
		case entry, ok := <-p.discover.Entries():
			if !ok {
				drained = true
				break
			}
			info := Info{}
			if err := json.Unmarshal(entry.Info, &info); err != nil {
				p.logger.Debug("ignoring announcement", "error", err)
				continue
			}
			if _, err := rps.ParseDeviceID(string(info.ID)); err != nil {
				p.logger.Debug("ignoring announcement", "error", err)
				continue
			}
			p.players[info.ID] = entry.Time
		default:
			drained = true
		}
	}
	ids := make([]rps.DeviceID, 0, len(p.players))
	for id := range p.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (p *Pinger) Close() error {
	return p.discover.Close()
}
