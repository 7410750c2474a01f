package communication

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luca-patrignani/radio-rps/config"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/network"
)

type fixture struct {
	messenger *Messenger
	metrics   *Metrics
	clock     *clock.Mock
	radio     *network.EtherRadio
	peer      *network.EtherRadio
}

// newFixture returns a messenger under test and the raw radio of its peer.
func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg, err := config.New("ab")
	if err != nil {
		t.Fatal(err)
	}
	ether := network.NewEther(network.WithQueueLength(16))
	radio, peer := ether.NewRadio(), ether.NewRadio()
	key := network.ChannelKey("abcd")
	for _, r := range []*network.EtherRadio{radio, peer} {
		if err := r.Configure(key, cfg.Power); err != nil {
			t.Fatal(err)
		}
	}
	mock := clock.NewMock()
	metrics := NewMetrics(prometheus.NewRegistry())
	m := NewMessenger(cfg, radio, WithClock(mock), WithMetrics(metrics))
	return fixture{messenger: m, metrics: metrics, clock: mock, radio: radio, peer: peer}
}

func (f fixture) peerSends(t *testing.T, payload string) {
	t.Helper()
	if err := f.peer.Send([]byte(payload)); err != nil {
		t.Fatal(err)
	}
}

func (f fixture) expectAtPeer(t *testing.T, want string) {
	t.Helper()
	got, ok := f.peer.TryReceive()
	if !ok {
		t.Fatalf("expected %q at the peer, got nothing", want)
	}
	if string(got) != want {
		t.Fatalf("expected %q at the peer, got %q", want, got)
	}
}

func (f fixture) expectSilence(t *testing.T) {
	t.Helper()
	if got, ok := f.peer.TryReceive(); ok {
		t.Fatalf("expected nothing at the peer, got %q", got)
	}
}

func TestRetryAfterInterval(t *testing.T) {
	f := newFixture(t)
	sent, err := f.messenger.SendMove(rps.Paper, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !sent.Equal(f.clock.Now()) {
		t.Fatalf("expected send time %v, got %v", f.clock.Now(), sent)
	}
	f.expectAtPeer(t, "P1")

	f.clock.Add(999 * time.Millisecond)
	if retried, err := f.messenger.RetryIfDue(); err != nil || retried {
		t.Fatalf("retried too early: %v %v", retried, err)
	}
	f.expectSilence(t)

	f.clock.Add(time.Millisecond)
	if retried, err := f.messenger.RetryIfDue(); err != nil || !retried {
		t.Fatalf("expected a retransmission: %v %v", retried, err)
	}
	f.expectAtPeer(t, "P1")
	if !f.messenger.LastSend().Equal(f.clock.Now()) {
		t.Fatal("retransmission did not reset the retry timer")
	}

	f.clock.Add(500 * time.Millisecond)
	if retried, _ := f.messenger.RetryIfDue(); retried {
		t.Fatal("retried before a full interval since the last retransmission")
	}
	if got := testutil.ToFloat64(f.metrics.retransmissions); got != 1 {
		t.Fatalf("expected 1 retransmission, got %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.sent.WithLabelValues(kindMove)); got != 2 {
		t.Fatalf("expected 2 moves sent, got %v", got)
	}
}

func TestAcknowledgementStopsRetries(t *testing.T) {
	f := newFixture(t)
	if _, err := f.messenger.SendMove(rps.Rock, 2); err != nil {
		t.Fatal(err)
	}
	f.expectAtPeer(t, "R2")
	f.peerSends(t, "X2")
	f.peerSends(t, "X2")

	for range 2 {
		msg, err := f.messenger.PollIncoming(2)
		if err != nil {
			t.Fatal(err)
		}
		if msg != (AckPayload{Round: 2}) {
			t.Fatalf("expected ack@2, got %v", msg)
		}
		if !f.messenger.Acknowledged() {
			t.Fatal("move not acknowledged")
		}
	}

	f.clock.Add(5 * time.Second)
	if retried, _ := f.messenger.RetryIfDue(); retried {
		t.Fatal("retried an acknowledged move")
	}
	f.expectSilence(t)
}

func TestNewMoveResetsAcknowledgement(t *testing.T) {
	f := newFixture(t)
	f.messenger.SendMove(rps.Rock, 1)
	f.peerSends(t, "X1")
	f.messenger.PollIncoming(1)
	if !f.messenger.Acknowledged() {
		t.Fatal("move not acknowledged")
	}
	f.messenger.SendMove(rps.Scissors, 2)
	if f.messenger.Acknowledged() {
		t.Fatal("acknowledgement carried over to the next round")
	}
}

func TestPollIncomingAcknowledgesCurrentMove(t *testing.T) {
	f := newFixture(t)
	f.peerSends(t, "S2")
	msg, err := f.messenger.PollIncoming(2)
	if err != nil {
		t.Fatal(err)
	}
	if msg != (MovePayload{Move: rps.Scissors, Round: 2}) {
		t.Fatalf("expected scissors@2, got %v", msg)
	}
	f.expectAtPeer(t, "X2")
	f.expectSilence(t)
}

func TestPollIncomingStaleMove(t *testing.T) {
	f := newFixture(t)
	f.peerSends(t, "R1")
	msg, err := f.messenger.PollIncoming(2)
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Fatalf("expected the stale move to be dropped, got %v", msg)
	}
	f.expectAtPeer(t, "X1")
	f.expectSilence(t)
	if got := testutil.ToFloat64(f.metrics.dropped.WithLabelValues(reasonStale)); got != 1 {
		t.Fatalf("expected 1 stale drop, got %v", got)
	}
}

func TestPollIncomingDropsWithoutReply(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		reason  string
	}{
		{"stale ack", "X1", reasonStale},
		{"future move", "P3", reasonFuture},
		{"future ack", "X3", reasonFuture},
		{"unknown tag", "Q2", reasonInvalid},
		{"missing round", "R", reasonInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.messenger.SendMove(rps.Rock, 2)
			f.expectAtPeer(t, "R2")
			f.peerSends(t, tt.payload)
			msg, err := f.messenger.PollIncoming(2)
			if err != nil {
				t.Fatal(err)
			}
			if msg != nil {
				t.Fatalf("expected %q to be dropped, got %v", tt.payload, msg)
			}
			if f.messenger.Acknowledged() {
				t.Fatalf("%q acknowledged the move of round 2", tt.payload)
			}
			f.expectSilence(t)
			if got := testutil.ToFloat64(f.metrics.dropped.WithLabelValues(tt.reason)); got != 1 {
				t.Fatalf("expected 1 drop for %s, got %v", tt.reason, got)
			}
		})
	}
}

func TestPollIncomingEmpty(t *testing.T) {
	f := newFixture(t)
	msg, err := f.messenger.PollIncoming(1)
	if msg != nil || err != nil {
		t.Fatalf("expected nothing, got %v %v", msg, err)
	}
}

func TestClosedRadio(t *testing.T) {
	f := newFixture(t)
	f.radio.Close()
	if _, err := f.messenger.SendMove(rps.Rock, 1); !errors.Is(err, network.ErrRadioClosed) {
		t.Fatalf("expected %v, got %v", network.ErrRadioClosed, err)
	}
	if err := f.messenger.SendAck(1); !errors.Is(err, network.ErrRadioClosed) {
		t.Fatalf("expected %v, got %v", network.ErrRadioClosed, err)
	}
}
