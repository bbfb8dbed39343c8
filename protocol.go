package main

import "encoding/json"

// Client -> Server message types
const (
	MsgFindMatch      = "find_match"
	MsgPlayerInput    = "player_input"
	MsgWeaponGenerate = "weapon_generate"
	MsgWeaponUse      = "weapon_use"
	MsgMasterPrompt   = "master_prompt"
)

// Server -> Client message types
const (
	MsgConnected       = "connected"
	MsgMatchFound      = "match_found"
	MsgMatchStart      = "match_start"
	MsgMatchEnd        = "match_end"
	MsgWeaponGenerated = "weapon_generated"
	MsgPhysicsChanged  = "physics_changed"
	MsgStateUpdate     = "game_state_update"
	MsgError           = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage defers payload decoding
type InEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PlayerInputMsg carries held movement keys
type PlayerInputMsg struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Jump  bool `json:"jump"`
}

// WeaponGenerateMsg requests a forged weapon from a prompt
type WeaponGenerateMsg struct {
	Prompt string `json:"prompt"`
}

// WeaponUseMsg fires a weapon at a target point
type WeaponUseMsg struct {
	WeaponID string `json:"weapon_id"`
	Target   Vec2   `json:"target_position"`
}

// MasterPromptMsg applies a physics modification prompt to the match
type MasterPromptMsg struct {
	Prompt string `json:"prompt"`
}

// ConnectedMsg greets a freshly attached connection
type ConnectedMsg struct {
	PlayerID   string  `json:"player_id"`
	ServerTime float64 `json:"server_time"`
}

// MatchPlayerInfo is the public slice of a player shown at matchmaking time
type MatchPlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchFoundMsg announces matchmaking progress to everyone in the match
type MatchFoundMsg struct {
	MatchID string            `json:"match_id"`
	Players []MatchPlayerInfo `json:"players"`
	Status  string            `json:"status"`
}

// ArenaConfig is sent once at match start
type ArenaConfig struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Gravity float64 `json:"gravity"`
}

// MatchStartMsg announces the transition to active combat
type MatchStartMsg struct {
	MatchID string      `json:"match_id"`
	Arena   ArenaConfig `json:"arena_config"`
}

// MatchEndMsg announces the final result
type MatchEndMsg struct {
	MatchID  string  `json:"match_id"`
	WinnerID string  `json:"winner_id"`
	Duration float64 `json:"duration"`
}

// WeaponGeneratedMsg is the response to a weapon_generate request
type WeaponGeneratedMsg struct {
	Success        bool    `json:"success"`
	Weapon         *Weapon `json:"weapon,omitempty"`
	Error          string  `json:"error,omitempty"`
	GenerationTime float64 `json:"generation_time"`
}

// PhysicsChangedMsg announces a new physics modification
type PhysicsChangedMsg struct {
	Modification *PhysicsModification `json:"modification"`
	Physics      PhysicsState         `json:"physics_state"`
	Auto         bool                 `json:"auto_generated,omitempty"`
}

// PlayerPublic is the per-player slice of a state broadcast
type PlayerPublic struct {
	ID        string  `json:"id" msgpack:"id"`
	Name      string  `json:"name" msgpack:"n"`
	Health    int     `json:"health" msgpack:"hp"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	VX        float64 `json:"vx" msgpack:"vx"`
	VY        float64 `json:"vy" msgpack:"vy"`
	Alive     bool    `json:"is_alive" msgpack:"a"`
	Kills     int     `json:"kills" msgpack:"k"`
	Deaths    int     `json:"deaths" msgpack:"d"`
	WeaponIDs []string `json:"weapon_ids" msgpack:"w"`
}

// ProjectilePublic is the per-projectile slice of a state broadcast
type ProjectilePublic struct {
	ID      string  `json:"id" msgpack:"id"`
	OwnerID string  `json:"player_id" msgpack:"o"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	VX      float64 `json:"vx" msgpack:"vx"`
	VY      float64 `json:"vy" msgpack:"vy"`
	Damage  int     `json:"damage" msgpack:"dm"`
}

// StateUpdateMsg is the full match snapshot broadcast at the configured rate.
// The hot path encodes it with msgpack as a binary frame; JSON tags exist for
// the envelope fallback and for tests.
type StateUpdateMsg struct {
	MatchID     string             `json:"match_id" msgpack:"m"`
	Players     []PlayerPublic     `json:"players" msgpack:"p"`
	Projectiles []ProjectilePublic `json:"projectiles" msgpack:"pr"`
	Physics     PhysicsState       `json:"physics" msgpack:"ph"`
	Duration    float64            `json:"duration" msgpack:"t"`
}

// ErrorMsg sends an error to the originating connection
type ErrorMsg struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Error codes for ErrorMsg
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeRateLimited  = "rate_limited"
)
