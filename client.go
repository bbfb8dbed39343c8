package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // input arrives at up to the tick rate
)

// Client represents one player's WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	remoteAddr string

	msgCount   int
	msgResetAt time.Time

	// per-connection counters; lastActivity is read by the idle reaper
	sent         atomic.Int64
	received     atomic.Int64
	lastActivity atomic.Int64 // unix nanos
}

// NewClient creates a new Client for an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, playerID, remoteAddr string) *Client {
	c := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		playerID:   playerID,
		remoteAddr: remoteAddr,
	}
	c.touch()
	return c
}

func (c *Client) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the last send or receive
func (c *Client) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.received.Add(1)
		c.touch()
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks binary frames from SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return false
	}
	return c.SendRaw(data)
}

// SendRaw queues pre-marshaled bytes as a text message. Returns false
// when the client is gone or too slow.
func (c *Client) SendRaw(data []byte) (ok bool) {
	defer func() { recover() }()
	select {
	case c.send <- data:
		c.sent.Add(1)
		c.touch()
		return true
	default:
		return false // client too slow, drop message
	}
}

// SendBinary queues bytes as a binary WebSocket message, prefixing the
// 0xFF marker so WritePump can distinguish it from text
func (c *Client) SendBinary(data []byte) (ok bool) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
		c.sent.Add(1)
		c.touch()
		return true
	default:
		return false
	}
}

func (c *Client) sendError(code, msg string) {
	c.SendJSON(Envelope{Type: MsgError, Data: ErrorMsg{Code: code, Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError(CodeInvalidInput, "malformed message")
		return
	}

	switch env.Type {
	case MsgFindMatch:
		c.handleFindMatch()
	case MsgPlayerInput:
		c.handlePlayerInput(env.Data)
	case MsgWeaponGenerate:
		c.handleWeaponGenerate(env.Data)
	case MsgWeaponUse:
		c.handleWeaponUse(env.Data)
	case MsgMasterPrompt:
		c.handleMasterPrompt(env.Data)
	default:
		c.sendError(CodeInvalidInput, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

// handleFindMatch joins or creates a match and starts it when full
func (c *Client) handleFindMatch() {
	now := time.Now()
	m := c.hub.registry.FindOrCreateMatch(c.playerID, now)
	if m == nil {
		c.sendError(CodeInvalidInput, "server full")
		return
	}

	c.hub.SendToMatch(m, Envelope{Type: MsgMatchFound, Data: m.Info()})

	if c.hub.registry.StartMatch(m.ID, now) {
		start := MatchStartMsg{
			MatchID: m.ID,
			Arena:   ArenaConfig{Width: ArenaWidth, Height: ArenaHeight, Gravity: BaseGravity},
		}
		c.hub.SendToMatch(m, Envelope{Type: MsgMatchStart, Data: start})
	}
}

func (c *Client) handlePlayerInput(data json.RawMessage) {
	var in PlayerInputMsg
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError(CodeInvalidInput, "bad input payload")
		return
	}
	m := c.hub.registry.MatchForPlayer(c.playerID)
	if m == nil {
		return
	}
	m.HandleInput(c.playerID, in)
}

// handleWeaponGenerate runs the forge pipeline. The generation call can
// block up to the backend timeout, so it happens outside any match lock.
func (c *Client) handleWeaponGenerate(data json.RawMessage) {
	var req WeaponGenerateMsg
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError(CodeInvalidInput, "bad weapon_generate payload")
		return
	}

	m := c.hub.registry.MatchForPlayer(c.playerID)
	if m == nil {
		c.sendError(CodeNotFound, "not in a match")
		return
	}

	now := time.Now()
	remaining, err := m.WeaponGate(c.playerID, now)
	switch {
	case errors.Is(err, ErrOnCooldown):
		c.SendJSON(Envelope{Type: MsgWeaponGenerated, Data: WeaponGeneratedMsg{
			Success: false,
			Error:   fmt.Sprintf("weapon cooldown: %.1fs remaining", remaining.Seconds()),
		}})
		return
	case errors.Is(err, ErrWeaponLimit):
		c.SendJSON(Envelope{Type: MsgWeaponGenerated, Data: WeaponGeneratedMsg{
			Success: false, Error: "weapon limit reached",
		}})
		return
	case err != nil:
		c.sendError(CodeNotFound, "player not found")
		return
	}

	started := time.Now()
	weapon, err := c.hub.forge.Generate(context.Background(), req.Prompt, c.playerID)
	switch {
	case errors.Is(err, ErrInvalidPrompt):
		c.SendJSON(Envelope{Type: MsgWeaponGenerated, Data: WeaponGeneratedMsg{
			Success: false,
			Error:   fmt.Sprintf("prompt must be 1-%d characters", MaxPromptLen),
		}})
		return
	case err != nil:
		// generation must never block gameplay
		log.Printf("forge: unexpected failure, issuing emergency weapon: %v", err)
		weapon = EmergencyWeapon(req.Prompt, c.playerID)
	}

	if err := m.GrantWeapon(c.playerID, weapon, time.Now()); err != nil {
		c.SendJSON(Envelope{Type: MsgWeaponGenerated, Data: WeaponGeneratedMsg{
			Success: false, Error: "weapon limit reached",
		}})
		return
	}

	c.SendJSON(Envelope{Type: MsgWeaponGenerated, Data: WeaponGeneratedMsg{
		Success:        true,
		Weapon:         weapon,
		GenerationTime: time.Since(started).Seconds(),
	}})
}

func (c *Client) handleWeaponUse(data json.RawMessage) {
	var req WeaponUseMsg
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError(CodeInvalidInput, "bad weapon_use payload")
		return
	}
	m := c.hub.registry.MatchForPlayer(c.playerID)
	if m == nil {
		c.sendError(CodeNotFound, "not in a match")
		return
	}
	switch remaining, err := m.UseWeapon(c.playerID, req.WeaponID, req.Target, time.Now()); {
	case errors.Is(err, ErrOnCooldown):
		c.sendError(CodeRateLimited, fmt.Sprintf("weapon on cooldown: %.1fs remaining", remaining.Seconds()))
	case errors.Is(err, ErrNotFound):
		c.sendError(CodeNotFound, "weapon not found")
	}
}

func (c *Client) handleMasterPrompt(data json.RawMessage) {
	var req MasterPromptMsg
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError(CodeInvalidInput, "bad master_prompt payload")
		return
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		c.sendError(CodeInvalidInput, "bad prompt")
		return
	}
	m := c.hub.registry.MatchForPlayer(c.playerID)
	if m == nil {
		c.sendError(CodeNotFound, "not in a match")
		return
	}

	now := time.Now()
	mod := c.hub.rules.Parse(req.Prompt, m.ID, now)
	m.AddModification(mod, now)
	c.hub.SendToMatch(m, Envelope{Type: MsgPhysicsChanged, Data: PhysicsChangedMsg{
		Modification: mod,
		Physics:      m.CurrentPhysics(now),
	}})
}
