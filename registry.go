package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxMatches = 200

// MatchRegistry owns every live match and the player-to-match mapping.
// Matches are mutated under their own locks; the registry lock only
// guards the maps, so independent matches proceed concurrently.
type MatchRegistry struct {
	mu          sync.RWMutex
	matches     map[string]*Match
	playerMatch map[string]string
}

// NewMatchRegistry creates an empty registry
func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{
		matches:     make(map[string]*Match),
		playerMatch: make(map[string]string),
	}
}

// FindOrCreateMatch returns the player's current match, joins an open
// WAITING match, or creates a fresh one. Idempotent per player.
func (r *MatchRegistry) FindOrCreateMatch(playerID string, now time.Time) *Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mid, ok := r.playerMatch[playerID]; ok {
		if m, ok := r.matches[mid]; ok {
			return m
		}
		delete(r.playerMatch, playerID) // stale mapping
	}

	for _, m := range r.matches {
		m.mu.Lock()
		if m.Status == MatchWaiting && len(m.Players) < MatchMaxPlayers {
			slot := len(m.Players)
			m.Players = append(m.Players, NewPlayer(playerID, slot))
			m.mu.Unlock()
			r.playerMatch[playerID] = m.ID
			log.Printf("match %s: player %s joined (slot %d)", m.ID, playerID, slot)
			return m
		}
		m.mu.Unlock()
	}

	if len(r.matches) >= maxMatches {
		return nil
	}

	m := NewMatch("match_"+uuid.NewString(), now)
	m.Players = append(m.Players, NewPlayer(playerID, 0))
	r.matches[m.ID] = m
	r.playerMatch[playerID] = m.ID
	log.Printf("match %s: created for player %s", m.ID, playerID)
	return m
}

// StartMatch promotes a full WAITING match to ACTIVE, resetting both
// players to their spawn slots. Returns false if preconditions fail.
func (r *MatchRegistry) StartMatch(matchID string, now time.Time) bool {
	m := r.MatchByID(matchID)
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != MatchWaiting || len(m.Players) != MatchMaxPlayers {
		return false
	}
	for slot, p := range m.Players {
		p.ResetForStart(slot)
	}
	m.Status = MatchActive
	m.StartTime = now
	m.LastModAt = now
	log.Printf("match %s: started", m.ID)
	return true
}

// endLocked finishes the match and fixes the result. Caller holds m.mu.
func (m *Match) endLocked(now time.Time) {
	if m.Status == MatchFinished {
		return
	}
	m.Status = MatchFinished
	m.EndTime = now
	if w := m.pickWinner(now); w != nil {
		m.WinnerID = w.ID
	}
	m.Projectiles = nil
	m.Mods = nil
	log.Printf("match %s: finished, winner=%q", m.ID, m.WinnerID)
}

// RemovePlayer detaches a player from their match. An ACTIVE match that
// drops below two players is force-ended; the ended match is returned so
// the caller can announce the result.
func (r *MatchRegistry) RemovePlayer(playerID string, now time.Time) (m *Match, ended bool) {
	r.mu.Lock()
	mid, ok := r.playerMatch[playerID]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.playerMatch, playerID)
	m = r.matches[mid]
	r.mu.Unlock()
	if m == nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.Players {
		if p.ID == playerID {
			m.Players = append(m.Players[:i], m.Players[i+1:]...)
			break
		}
	}
	switch {
	case m.Status == MatchActive && len(m.Players) < MatchMaxPlayers:
		m.endLocked(now)
		return m, true
	case m.Status == MatchWaiting && len(m.Players) == 0:
		m.Status = MatchCancelled
	}
	return m, false
}

// MatchByID returns the match with the given id, or nil
func (r *MatchRegistry) MatchByID(id string) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matches[id]
}

// MatchForPlayer returns the match a player belongs to, or nil
func (r *MatchRegistry) MatchForPlayer(playerID string) *Match {
	r.mu.RLock()
	mid, ok := r.playerMatch[playerID]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	m := r.matches[mid]
	r.mu.RUnlock()
	return m
}

// ActiveMatches returns every match currently in the ACTIVE state
func (r *MatchRegistry) ActiveMatches() []*Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		m.mu.Lock()
		active := m.Status == MatchActive
		m.mu.Unlock()
		if active {
			out = append(out, m)
		}
	}
	return out
}

// ActiveMatchCount returns the number of ACTIVE matches
func (r *MatchRegistry) ActiveMatchCount() int {
	return len(r.ActiveMatches())
}

// Sweep reclaims WAITING matches idle past the grace period and FINISHED
// or CANCELLED matches past theirs. Returns the reclaimed matches.
func (r *MatchRegistry) Sweep(now time.Time) []*Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*Match
	for id, m := range r.matches {
		m.mu.Lock()
		stale := false
		switch m.Status {
		case MatchWaiting:
			stale = now.Sub(m.CreatedAt) > WaitingGrace
			if stale {
				m.Status = MatchCancelled
			}
		case MatchCancelled:
			stale = true
		case MatchFinished:
			stale = !m.EndTime.IsZero() && now.Sub(m.EndTime) > FinishedGrace
		}
		players := m.PlayerIDsLocked()
		m.mu.Unlock()

		if stale {
			for _, pid := range players {
				if r.playerMatch[pid] == id {
					delete(r.playerMatch, pid)
				}
			}
			delete(r.matches, id)
			removed = append(removed, m)
			log.Printf("match %s: reclaimed (%s)", id, m.Status)
		}
	}
	return removed
}

// PlayerIDsLocked returns player ids; caller holds m.mu.
func (m *Match) PlayerIDsLocked() []string {
	ids := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
