package main

import (
	"log"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	DefaultTickRate      = 60
	DefaultBroadcastRate = 20

	autoPromptDelay = 35 * time.Second
)

// GameClock drives every match from a single loop: simulation at the
// tick rate, state broadcast at the (lower) broadcast rate, and slow
// housekeeping once per second.
type GameClock struct {
	hub      *Hub
	registry *MatchRegistry
	rules    *PhysicsRules

	tickRate      int
	broadcastRate int

	stop chan struct{}
	done chan struct{}
}

// NewGameClock creates a clock; rates below 1 fall back to defaults
func NewGameClock(hub *Hub, registry *MatchRegistry, rules *PhysicsRules, tickRate, broadcastRate int) *GameClock {
	if tickRate < 1 {
		tickRate = DefaultTickRate
	}
	if broadcastRate < 1 || broadcastRate > tickRate {
		broadcastRate = DefaultBroadcastRate
	}
	return &GameClock{
		hub:           hub,
		registry:      registry,
		rules:         rules,
		tickRate:      tickRate,
		broadcastRate: broadcastRate,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run blocks until Stop is called
func (g *GameClock) Run() {
	defer close(g.done)

	interval := time.Second / time.Duration(g.tickRate)
	broadcastEvery := g.tickRate / g.broadcastRate
	dt := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slow := time.NewTicker(time.Second)
	defer slow.Stop()

	tick := 0
	for {
		select {
		case <-g.stop:
			return
		case <-slow.C:
			g.housekeep(time.Now())
		case <-ticker.C:
			tick++
			start := time.Now()
			g.step(start, dt, tick%broadcastEvery == 0)
			if elapsed := time.Since(start); elapsed > interval {
				log.Printf("clock: tick overran by %v", elapsed-interval)
			}
		}
	}
}

// Stop shuts the loop down and waits for it to exit
func (g *GameClock) Stop() {
	close(g.stop)
	<-g.done
}

func (g *GameClock) step(now time.Time, dt float64, broadcast bool) {
	for _, m := range g.registry.ActiveMatches() {
		g.tickMatch(m, now, dt, broadcast)
	}
}

// tickMatch advances one match. A panic in one match must not take the
// loop down with it, so the match is force-ended instead.
func (g *GameClock) tickMatch(m *Match, now time.Time, dt float64, broadcast bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("clock: panic in match %s, ending it: %v", m.ID, r)
			m.mu.Lock()
			m.endLocked(now)
			m.mu.Unlock()
			g.hub.announceMatchEnd(m)
		}
	}()

	if m.Tick(now, dt) {
		g.hub.announceMatchEnd(m)
		return
	}

	if broadcast {
		frame, err := msgpack.Marshal(m.Snapshot(now))
		if err != nil {
			log.Printf("clock: snapshot encode failed for %s: %v", m.ID, err)
			return
		}
		g.hub.SendBinaryToMatch(m, frame)
	}
}

// housekeep runs the 1Hz slow path: stale-match sweep, idle connection
// reaping and the automatic physics scheduler.
func (g *GameClock) housekeep(now time.Time) {
	if removed := g.registry.Sweep(now); len(removed) > 0 {
		log.Printf("clock: swept %d stale matches", len(removed))
	}
	g.hub.ReapIdle(now)

	for _, m := range g.registry.ActiveMatches() {
		if m.SinceLastMod(now) < autoPromptDelay {
			continue
		}
		prompt := AutoPrompts[randIndex(len(AutoPrompts))]
		mod := g.rules.Parse(prompt, m.ID, now)
		m.AddModification(mod, now)
		g.hub.SendToMatch(m, Envelope{Type: MsgPhysicsChanged, Data: PhysicsChangedMsg{
			Modification: mod,
			Physics:      m.CurrentPhysics(now),
			Auto:         true,
		}})
	}
}
