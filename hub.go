package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
	idleTimeout   = 300 * time.Second
)

// Hub owns the player-to-connection mapping and delivers messages to one
// player, one match, or everyone. Delivery is best-effort: a dead
// connection tears itself down through its pumps.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // playerID -> connection
	register   chan *Client
	unregister chan *Client

	// Connection limiting (accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	registry *MatchRegistry
	forge    *WeaponForge
	rules    *PhysicsRules
}

// NewHub creates a hub wired to the match registry, forge and rule engine
func NewHub(registry *MatchRegistry, forge *WeaponForge, rules *PhysicsRules) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		ipConns:    make(map[string]int),
		registry:   registry,
		forge:      forge,
		rules:      rules,
	}
}

// CanAccept applies the per-IP and total connection limits
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.playerID]; ok && old != client {
				close(old.send) // replaced by a fresh connection
			}
			h.clients[client.playerID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[client.playerID]
			owned := ok && cur == client
			if owned {
				delete(h.clients, client.playerID)
				close(client.send)
			}
			h.mu.Unlock()
			// a superseded connection's unregister must not touch match
			// membership; the replacement is still playing
			if owned {
				h.handleDeparture(client.playerID)
			}
		}
	}
}

// handleDeparture removes a vanished player from matchmaking. A
// disconnect cancels only that player; the match continues or ends per
// the win condition.
func (h *Hub) handleDeparture(playerID string) {
	m, ended := h.registry.RemovePlayer(playerID, time.Now())
	if m == nil {
		return
	}
	log.Printf("player %s left match %s", playerID, m.ID)
	if ended {
		h.announceMatchEnd(m)
	}
}

// announceMatchEnd broadcasts the final result to remaining members
func (h *Hub) announceMatchEnd(m *Match) {
	m.mu.Lock()
	msg := MatchEndMsg{MatchID: m.ID, WinnerID: m.WinnerID, Duration: m.Duration(m.EndTime).Seconds()}
	m.mu.Unlock()
	h.SendToMatch(m, Envelope{Type: MsgMatchEnd, Data: msg})
}

// Client returns the connection for a player, or nil
func (h *Hub) Client(playerID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[playerID]
}

// ClientCount returns the number of attached players
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToPlayer delivers one message to one player, best-effort
func (h *Hub) SendToPlayer(playerID string, msg Envelope) bool {
	c := h.Client(playerID)
	if c == nil {
		return false
	}
	return c.SendJSON(msg)
}

// SendToMatch delivers a message to every player in the match and
// returns the delivered count
func (h *Hub) SendToMatch(m *Match, msg Envelope) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return 0
	}
	sent := 0
	for _, pid := range m.PlayerIDs() {
		if c := h.Client(pid); c != nil && c.SendRaw(data) {
			sent++
		}
	}
	return sent
}

// SendBinaryToMatch delivers a pre-encoded binary frame to every player
// in the match and returns the delivered count
func (h *Hub) SendBinaryToMatch(m *Match, frame []byte) int {
	sent := 0
	for _, pid := range m.PlayerIDs() {
		if c := h.Client(pid); c != nil && c.SendBinary(frame) {
			sent++
		}
	}
	return sent
}

// BroadcastAll delivers a message to every connected player and returns
// the delivered count
func (h *Hub) BroadcastAll(msg Envelope) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return 0
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.SendRaw(data) {
			sent++
		}
	}
	return sent
}

// ReapIdle closes connections with no activity inside the idle window
func (h *Hub) ReapIdle(now time.Time) {
	h.mu.RLock()
	var stale []*Client
	for _, c := range h.clients {
		if now.Sub(c.LastActivity()) > idleTimeout {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		log.Printf("reaping idle connection for player %s", c.playerID)
		c.conn.Close() // pumps run the normal disconnect path
	}
}
