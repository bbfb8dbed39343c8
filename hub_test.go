package main

import (
	"testing"
	"time"
)

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func matchStatus(m *Match) MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Status
}

func TestReconnectKeepsPlayerInMatch(t *testing.T) {
	registry := NewMatchRegistry()
	hub := NewHub(registry, NewWeaponForge(nil, nil), NewPhysicsRules())
	go hub.Run()

	now := time.Now()
	m := registry.FindOrCreateMatch("p1", now)
	registry.FindOrCreateMatch("p2", now)
	if !registry.StartMatch(m.ID, now) {
		t.Fatal("match should start")
	}

	old := NewClient(hub, nil, "p1", "10.0.0.1")
	hub.register <- old
	waitFor(t, "old connection registered", func() bool { return hub.Client("p1") == old })

	// reconnect: a fresh connection for the same player supersedes the old one
	repl := NewClient(hub, nil, "p1", "10.0.0.1")
	hub.register <- repl
	waitFor(t, "replacement registered", func() bool { return hub.Client("p1") == repl })

	// the superseded connection's pumps report themselves gone
	hub.unregister <- old

	// the player must stay connected and in their match through the window
	// where a stale unregister could fire
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		if hub.Client("p1") != repl {
			t.Fatal("replacement connection evicted by stale unregister")
		}
		if registry.MatchForPlayer("p1") != m {
			t.Fatal("player removed from their match by stale unregister")
		}
		if s := matchStatus(m); s != MatchActive {
			t.Fatalf("active match ended by stale unregister, status %s", s)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a real departure of the live connection still cleans up fully
	hub.unregister <- repl
	waitFor(t, "live connection unregistered", func() bool { return hub.Client("p1") == nil })
	waitFor(t, "player detached from match", func() bool { return registry.MatchForPlayer("p1") == nil })
	waitFor(t, "match force-ended", func() bool { return matchStatus(m) == MatchFinished })

	m.mu.Lock()
	winner := m.WinnerID
	m.mu.Unlock()
	if winner != "p2" {
		t.Errorf("remaining player should win, got %q", winner)
	}
}
