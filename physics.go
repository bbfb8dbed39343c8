package main

import (
	"strings"
	"sync"
	"time"
)

// Physics modification types
const (
	ModGravity        = "gravity"
	ModFriction       = "friction"
	ModBounce         = "bounce"
	ModTimeScale      = "time_scale"
	ModWeaponBehavior = "weapon_behavior"
)

// Base physical constants for every match
const (
	BaseGravity     = 800.0
	BaseFriction    = 0.8
	BaseRestitution = 0.3
)

const modHistoryLimit = 100

// PhysicsModification is a timed perturbation of a match's physics
type PhysicsModification struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Description string             `json:"description"`
	Parameters  map[string]float64 `json:"parameters"`
	Duration    float64            `json:"duration"` // seconds
	StartTime   time.Time          `json:"start_time"`
	MatchID     string             `json:"match_id"`
}

// ActiveAt reports whether the modification is still in effect
func (m *PhysicsModification) ActiveAt(now time.Time) bool {
	return now.Before(m.StartTime.Add(time.Duration(m.Duration * float64(time.Second))))
}

// PhysicsState is the derived set of physical constants for one match
type PhysicsState struct {
	Gravity       float64 `json:"gravity" msgpack:"g"`
	Friction      float64 `json:"friction" msgpack:"f"`
	Restitution   float64 `json:"restitution" msgpack:"r"`
	TimeScale     float64 `json:"time_scale" msgpack:"ts"`
	DamageMult    float64 `json:"damage_multiplier" msgpack:"dm"`
	CooldownMult  float64 `json:"cooldown_multiplier" msgpack:"cm"`
	SizeMult      float64 `json:"size_multiplier" msgpack:"sm"`
	DirectionMult float64 `json:"direction_multiplier" msgpack:"xm"`
}

// BasePhysics returns the unmodified physical constants
func BasePhysics() PhysicsState {
	return PhysicsState{
		Gravity:       BaseGravity,
		Friction:      BaseFriction,
		Restitution:   BaseRestitution,
		TimeScale:     1.0,
		DamageMult:    1.0,
		CooldownMult:  1.0,
		SizeMult:      1.0,
		DirectionMult: 1.0,
	}
}

// physicsRule maps prompt keywords to a modification template
type physicsRule struct {
	Type        string
	Description string
	Keywords    []string
	Parameters  map[string]float64
	Duration    float64
}

// PhysicsLibrary is the fixed ordered rule table; the first rule whose
// keyword appears in the prompt wins.
var PhysicsLibrary = []physicsRule{
	{ModGravity, "Low Gravity", []string{"low gravity", "moon gravity", "float", "weightless"}, map[string]float64{"multiplier": 0.3}, 15},
	{ModGravity, "High Gravity", []string{"high gravity", "heavy gravity", "weight", "pull down"}, map[string]float64{"multiplier": 2.0}, 15},
	{ModGravity, "Zero Gravity", []string{"zero gravity", "no gravity", "space", "float free"}, map[string]float64{"multiplier": 0.0}, 10},
	{ModGravity, "Reverse Gravity", []string{"reverse gravity", "upside down", "gravity flip"}, map[string]float64{"multiplier": -1.0}, 12},

	{ModFriction, "Ice Floor", []string{"ice", "slippery", "slide", "slick", "smooth"}, map[string]float64{"multiplier": 0.1}, 20},
	{ModFriction, "Sticky Ground", []string{"sticky", "mud", "tar", "glue", "slow movement"}, map[string]float64{"multiplier": 3.0}, 15},
	{ModFriction, "Super Slippery", []string{"super slippery", "oil", "banana peel", "slide everywhere"}, map[string]float64{"multiplier": 0.05}, 18},

	{ModBounce, "Bouncy World", []string{"bouncy", "rubber", "trampoline", "bounce", "elastic"}, map[string]float64{"multiplier": 2.5}, 18},
	{ModBounce, "Super Bouncy", []string{"super bouncy", "mega bounce", "spring", "boing"}, map[string]float64{"multiplier": 4.0}, 15},
	{ModBounce, "No Bounce", []string{"no bounce", "dead bounce", "flat", "absorb"}, map[string]float64{"multiplier": 0.0}, 15},

	{ModTimeScale, "Slow Motion", []string{"slow motion", "bullet time", "matrix", "slow down"}, map[string]float64{"scale": 0.5}, 8},
	{ModTimeScale, "Super Speed", []string{"super speed", "fast forward", "speed up", "quick"}, map[string]float64{"scale": 1.5}, 12},
	{ModTimeScale, "Hyper Speed", []string{"hyper speed", "lightning fast", "blur", "sonic"}, map[string]float64{"scale": 2.0}, 6},

	{ModWeaponBehavior, "Double Damage", []string{"double damage", "power up", "stronger", "boost"}, map[string]float64{"damage_multiplier": 2.0}, 12},
	{ModWeaponBehavior, "Rapid Fire", []string{"rapid fire", "machine gun", "spray", "burst"}, map[string]float64{"cooldown_multiplier": 0.3}, 10},
	{ModWeaponBehavior, "Giant Weapons", []string{"giant weapons", "big weapons", "huge", "massive"}, map[string]float64{"size_multiplier": 2.0, "damage_multiplier": 1.5}, 15},
	{ModWeaponBehavior, "Explosive Weapons", []string{"explosive", "boom", "explode", "blast"}, map[string]float64{"add_explosion": 1, "explosion_radius": 50}, 15},
	{ModWeaponBehavior, "Backwards Weapons", []string{"backwards", "reverse", "opposite", "wrong way"}, map[string]float64{"direction_multiplier": -1.0}, 10},
}

// AutoPrompts feed the automatic modification scheduler
var AutoPrompts = []string{
	"low gravity",
	"bouncy world",
	"ice floor",
	"slow motion",
	"high gravity",
	"super speed",
	"sticky ground",
}

// PhysicsRules parses prompts into modifications and keeps a bounded
// global history. Safe for concurrent use.
type PhysicsRules struct {
	mu      sync.Mutex
	history []*PhysicsModification
}

// NewPhysicsRules creates the rule engine
func NewPhysicsRules() *PhysicsRules {
	return &PhysicsRules{}
}

// Parse turns a prompt into a modification. Unknown prompts produce a
// random modification so every prompt has a visible effect.
func (r *PhysicsRules) Parse(prompt, matchID string, now time.Time) *PhysicsModification {
	prompt = strings.ToLower(strings.TrimSpace(prompt))

	var mod *PhysicsModification
	for i := range PhysicsLibrary {
		rule := &PhysicsLibrary[i]
		for _, kw := range rule.Keywords {
			if strings.Contains(prompt, kw) {
				params := make(map[string]float64, len(rule.Parameters))
				for k, v := range rule.Parameters {
					params[k] = v
				}
				mod = &PhysicsModification{
					ID:          "mod_" + GenerateID(4),
					Type:        rule.Type,
					Description: rule.Description,
					Parameters:  params,
					Duration:    rule.Duration,
					StartTime:   now,
					MatchID:     matchID,
				}
				break
			}
		}
		if mod != nil {
			break
		}
	}
	if mod == nil {
		mod = randomModification(matchID, now)
	}
	r.record(mod)
	return mod
}

func (r *PhysicsRules) record(mod *PhysicsModification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, mod)
	if len(r.history) > modHistoryLimit {
		r.history = r.history[len(r.history)-modHistoryLimit:]
	}
}

// History returns up to limit recent modifications, newest last
func (r *PhysicsRules) History(limit int) []*PhysicsModification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.history) {
		limit = len(r.history)
	}
	out := make([]*PhysicsModification, limit)
	copy(out, r.history[len(r.history)-limit:])
	return out
}

// HistorySize returns the current history length
func (r *PhysicsRules) HistorySize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// randomModification draws a bounded random effect of a random type
func randomModification(matchID string, now time.Time) *PhysicsModification {
	type randomSpec struct {
		typ, desc, param string
		lo, hi           float64
		durLo, durHi     float64
	}
	specs := []randomSpec{
		{ModGravity, "Random Gravity", "multiplier", 0.2, 2.5, 10, 20},
		{ModBounce, "Random Bounce", "multiplier", 0.5, 3.0, 12, 18},
		{ModFriction, "Random Friction", "multiplier", 0.1, 2.0, 15, 25},
		{ModTimeScale, "Random Time", "scale", 0.3, 1.8, 8, 15},
	}
	s := specs[randIndex(len(specs))]
	return &PhysicsModification{
		ID:          "random_" + GenerateID(4),
		Type:        s.typ,
		Description: s.desc,
		Parameters:  map[string]float64{s.param: randRange(s.lo, s.hi)},
		Duration:    randRange(s.durLo, s.durHi),
		StartTime:   now,
		MatchID:     matchID,
	}
}

// FoldPhysics derives the physical constants from the base values and the
// given modifications, skipping expired ones. Pure: folding the same set
// twice yields identical output.
func FoldPhysics(mods []*PhysicsModification, now time.Time) PhysicsState {
	phys := BasePhysics()
	for _, mod := range mods {
		if !mod.ActiveAt(now) {
			continue
		}
		switch mod.Type {
		case ModGravity:
			phys.Gravity *= param(mod, "multiplier", 1.0)
		case ModFriction:
			phys.Friction *= param(mod, "multiplier", 1.0)
		case ModBounce:
			phys.Restitution *= param(mod, "multiplier", 1.0)
		case ModTimeScale:
			// last-applied wins, unlike the multiplicative types
			phys.TimeScale = param(mod, "scale", 1.0)
		case ModWeaponBehavior:
			if v, ok := mod.Parameters["damage_multiplier"]; ok {
				phys.DamageMult *= v
			}
			if v, ok := mod.Parameters["cooldown_multiplier"]; ok {
				phys.CooldownMult *= v
			}
			if v, ok := mod.Parameters["size_multiplier"]; ok {
				phys.SizeMult *= v
			}
			if v, ok := mod.Parameters["direction_multiplier"]; ok {
				phys.DirectionMult *= v
			}
		}
	}
	return phys
}

func param(mod *PhysicsModification, key string, def float64) float64 {
	if v, ok := mod.Parameters[key]; ok {
		return v
	}
	return def
}
