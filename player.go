package main

import "time"

const (
	PlayerMaxHealth = 100
	PlayerHalfSize  = 16.0 // collision box is ±16px around center
	MaxWeapons      = 5

	MoveSpeed    = 200.0 // pixels/s at time_scale 1
	JumpVelocity = -400.0
	GroundedBand = 10.0 // |vy| below this counts as grounded
	GroundY      = 500.0
)

// Vec2 is a 2D point or vector
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// PlayerInput is the last held movement state for a player
type PlayerInput struct {
	Left  bool
	Right bool
	Jump  bool
}

// Player represents one combatant inside a match
type Player struct {
	ID     string
	Name   string
	Health int
	X, Y   float64
	VX, VY float64
	Alive  bool
	Kills  int
	Deaths int

	Weapons      []*Weapon
	NextWeaponAt time.Time // weapon generation cooldown gate
	NextFireAt   time.Time // weapon use cooldown gate

	Input PlayerInput
}

// NewPlayer creates a player at the given spawn slot
func NewPlayer(id string, slot int) *Player {
	p := &Player{
		ID:     id,
		Name:   "Player_" + shortID(id),
		Health: PlayerMaxHealth,
		Alive:  true,
	}
	p.X, p.Y = SpawnSlot(slot)
	return p
}

// SpawnSlot returns the fixed spawn position for a slot (0 or 1)
func SpawnSlot(slot int) (float64, float64) {
	if slot == 0 {
		return 200, GroundY
	}
	return 1000, GroundY
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

// ResetForStart restores the player to match-start condition at their slot
func (p *Player) ResetForStart(slot int) {
	p.Health = PlayerMaxHealth
	p.Alive = true
	p.VX, p.VY = 0, 0
	p.Weapons = nil
	p.NextWeaponAt = time.Time{}
	p.NextFireAt = time.Time{}
	p.Input = PlayerInput{}
	p.X, p.Y = SpawnSlot(slot)
}

// TakeDamage reduces health, clamping at zero, and returns true on death
func (p *Player) TakeDamage(dmg int) bool {
	if !p.Alive || dmg <= 0 {
		return false
	}
	p.Health -= dmg
	if p.Health <= 0 {
		p.Health = 0
		p.Alive = false
		p.Deaths++
		return true
	}
	return false
}

// WeaponByID returns the player's weapon with the given id, or nil
func (p *Player) WeaponByID(id string) *Weapon {
	for _, w := range p.Weapons {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// Grounded reports whether the player can jump
func (p *Player) Grounded() bool {
	return p.VY > -GroundedBand && p.VY < GroundedBand
}

// ToPublic converts to the broadcast representation
func (p *Player) ToPublic() PlayerPublic {
	ids := make([]string, 0, len(p.Weapons))
	for _, w := range p.Weapons {
		ids = append(ids, w.ID)
	}
	return PlayerPublic{
		ID:        p.ID,
		Name:      p.Name,
		Health:    p.Health,
		X:         p.X,
		Y:         p.Y,
		VX:        p.VX,
		VY:        p.VY,
		Alive:     p.Alive,
		Kills:     p.Kills,
		Deaths:    p.Deaths,
		WeaponIDs: ids,
	}
}
