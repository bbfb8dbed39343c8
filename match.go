package main

import (
	"sync"
	"time"
)

// Arena dimensions shared with clients at match start
const (
	ArenaWidth  = 1200.0
	ArenaHeight = 600.0
)

const (
	MatchMaxPlayers = 2
	MatchTimeLimit  = 90 * time.Second
	WaitingGrace    = 120 * time.Second // unfilled matches reclaimed after this
	FinishedGrace   = 300 * time.Second // finished matches reclaimed after this
)

// MatchStatus is the lifecycle state of a match
type MatchStatus int

const (
	MatchWaiting MatchStatus = iota
	MatchActive
	MatchFinished
	MatchCancelled
)

func (s MatchStatus) String() string {
	switch s {
	case MatchWaiting:
		return "waiting"
	case MatchActive:
		return "active"
	case MatchFinished:
		return "finished"
	case MatchCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Match is one bounded two-player combat session. All mutation goes
// through its mutex; the registry owns the only reference.
type Match struct {
	mu sync.Mutex

	ID          string
	Status      MatchStatus
	Players     []*Player // slot order, ≤2
	Projectiles []*Projectile
	Mods        []*PhysicsModification

	CreatedAt time.Time
	StartTime time.Time
	EndTime   time.Time
	WinnerID  string
	LastModAt time.Time // last physics modification, player or auto
}

// NewMatch creates an empty WAITING match
func NewMatch(id string, now time.Time) *Match {
	return &Match{
		ID:        id,
		Status:    MatchWaiting,
		CreatedAt: now,
	}
}

// Duration returns elapsed combat time
func (m *Match) Duration(now time.Time) time.Duration {
	if m.StartTime.IsZero() {
		return 0
	}
	end := m.EndTime
	if end.IsZero() {
		end = now
	}
	return end.Sub(m.StartTime)
}

// PlayerByID returns the player with the given id, or nil
func (m *Match) PlayerByID(id string) *Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// alivePlayers returns all players still alive
func (m *Match) alivePlayers() []*Player {
	alive := make([]*Player, 0, len(m.Players))
	for _, p := range m.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// finished reports whether the end condition holds. Caller holds the lock.
func (m *Match) finished(now time.Time) bool {
	if m.Status != MatchActive {
		return false
	}
	return len(m.alivePlayers()) <= 1 || m.Duration(now) > MatchTimeLimit
}

// pickWinner applies the tie-break policy: sole survivor; zero survivors ->
// most kills (lowest id breaks remaining ties); time limit with both alive ->
// highest health. Caller holds the lock.
func (m *Match) pickWinner(now time.Time) *Player {
	alive := m.alivePlayers()
	switch {
	case len(alive) == 1:
		return alive[0]
	case len(alive) == 0:
		return bestBy(m.Players, func(a, b *Player) bool {
			if a.Kills != b.Kills {
				return a.Kills > b.Kills
			}
			return a.ID < b.ID
		})
	case m.Duration(now) > MatchTimeLimit:
		return bestBy(m.Players, func(a, b *Player) bool {
			if a.Health != b.Health {
				return a.Health > b.Health
			}
			return a.ID < b.ID
		})
	}
	return nil
}

// bestBy returns the element ranked first by the given ordering
func bestBy(players []*Player, before func(a, b *Player) bool) *Player {
	if len(players) == 0 {
		return nil
	}
	best := players[0]
	for _, p := range players[1:] {
		if before(p, best) {
			best = p
		}
	}
	return best
}

// AddModification records a physics modification on the match
func (m *Match) AddModification(mod *PhysicsModification, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mods = append(m.Mods, mod)
	m.LastModAt = now
}

// SinceLastMod reports how long ago the last physics modification landed
func (m *Match) SinceLastMod(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return now.Sub(m.LastModAt)
}

// CurrentPhysics folds the base constants with all active modifications,
// dropping expired ones as a side effect (lazy expiry).
func (m *Match) CurrentPhysics(now time.Time) PhysicsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPhysicsLocked(now)
}

func (m *Match) currentPhysicsLocked(now time.Time) PhysicsState {
	active := m.Mods[:0]
	for _, mod := range m.Mods {
		if mod.ActiveAt(now) {
			active = append(active, mod)
		}
	}
	m.Mods = active
	return FoldPhysics(m.Mods, now)
}

// Snapshot builds the broadcastable public state of the match
func (m *Match) Snapshot(now time.Time) StateUpdateMsg {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]PlayerPublic, 0, len(m.Players))
	for _, p := range m.Players {
		players = append(players, p.ToPublic())
	}
	projectiles := make([]ProjectilePublic, 0, len(m.Projectiles))
	for _, pr := range m.Projectiles {
		projectiles = append(projectiles, pr.ToPublic())
	}
	return StateUpdateMsg{
		MatchID:     m.ID,
		Players:     players,
		Projectiles: projectiles,
		Physics:     m.currentPhysicsLocked(now),
		Duration:    m.Duration(now).Seconds(),
	}
}

// Info returns the matchmaking-time view of the match
func (m *Match) Info() MatchFoundMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]MatchPlayerInfo, 0, len(m.Players))
	for _, p := range m.Players {
		players = append(players, MatchPlayerInfo{ID: p.ID, Name: p.Name})
	}
	return MatchFoundMsg{MatchID: m.ID, Players: players, Status: m.Status.String()}
}

// PlayerIDs returns the ids of all players in the match
func (m *Match) PlayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
