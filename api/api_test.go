package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luca-patrignani/radio-rps/application"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/ledger"
)

type fakeSource struct {
	status application.Status
	ledger *ledger.Ledger
}

func (f fakeSource) Status() application.Status { return f.status }
func (f fakeSource) Ledger() *ledger.Ledger     { return f.ledger }

func playedLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.NewLedger("0a", "1b", "0a1b")
	if _, err := l.Append(rps.RoundOutcome{Round: 1, Own: rps.Paper, Opponent: rps.Rock, OwnPoint: 1}); err != nil {
		t.Fatal(err)
	}
	return l
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected a JSON response, got %q", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(":0", fakeSource{status: application.Status{Device: "0a"}}, nil, nil)
	rec := get(t, s.Handler(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "ok" || resp.Device != "0a" {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func TestMatch(t *testing.T) {
	status := application.Status{
		Device:   "0a",
		Opponent: "1b",
		Channel:  "0a1b",
		State:    application.AwaitBoth.String(),
		Round:    2,
		Score:    rps.Score{Own: 1},
		Result:   rps.Pending.String(),
	}
	s := NewServer(":0", fakeSource{status: status}, nil, nil)
	rec := get(t, s.Handler(), "/api/match")
	var got application.Status
	decode(t, rec, &got)
	got.UpdatedAt = status.UpdatedAt
	if got != status {
		t.Fatalf("expected %+v, got %+v", status, got)
	}
}

func TestLedger(t *testing.T) {
	l := playedLedger(t)
	s := NewServer(":0", fakeSource{ledger: l}, nil, nil)
	rec := get(t, s.Handler(), "/api/ledger")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp LedgerResponse
	decode(t, rec, &resp)
	if !resp.Valid || resp.MatchID != l.MatchID() || len(resp.Blocks) != 2 {
		t.Fatalf("unexpected ledger %+v", resp)
	}
	if resp.Blocks[1].Outcome.Own != rps.Paper || resp.Blocks[1].Score.Own != 1 {
		t.Fatalf("unexpected block %+v", resp.Blocks[1])
	}
}

func TestBlock(t *testing.T) {
	s := NewServer(":0", fakeSource{ledger: playedLedger(t)}, nil, nil)
	tests := []struct {
		path   string
		status int
	}{
		{"/api/ledger/0", http.StatusOK},
		{"/api/ledger/1", http.StatusOK},
		{"/api/ledger/2", http.StatusNotFound},
		{"/api/ledger/abc", http.StatusNotFound},
		{"/api/ledger/99999999999999999999", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := get(t, s.Handler(), tt.path); rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}
		})
	}
}

func TestNoMatch(t *testing.T) {
	s := NewServer(":0", fakeSource{}, nil, nil)
	for _, path := range []string{"/api/ledger", "/api/ledger/0"} {
		rec := get(t, s.Handler(), path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
		var resp map[string]string
		decode(t, rec, &resp)
		if resp["error"] != ErrNoMatch.Error() {
			t.Fatalf("%s: unexpected error %q", path, resp["error"])
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "rps_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	s := NewServer(":0", fakeSource{}, reg, nil)
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rps_test_total 3") {
		t.Fatalf("counter missing from %s", rec.Body)
	}

	s = NewServer(":0", fakeSource{}, nil, nil)
	if rec := get(t, s.Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected no metrics endpoint, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s := NewServer(":0", fakeSource{}, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/match", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allowed origin %q", got)
	}
}

func TestStartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", fakeSource{status: application.Status{Device: "0a"}}, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"0a"`) {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}
