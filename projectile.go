package main

import (
	"math"
	"time"
)

const (
	ProjectileHalfSize = 4.0 // collision box is ±4px around center
	ProjectileScale    = 5.0 // weapon speed stat -> pixels/s
)

// Projectile is a live shot inside a match
type Projectile struct {
	ID        string
	WeaponID  string
	OwnerID   string
	X, Y      float64
	VX, VY    float64
	Damage    int // weapon damage at fire time, damage multiplier applied
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewProjectile creates a shot from the shooter toward the target point.
// Speed and damage come pre-scaled by the physics snapshot taken at fire time.
func NewProjectile(shooter *Player, w *Weapon, target Vec2, phys PhysicsState, now time.Time) *Projectile {
	dx := target.X - shooter.X
	dy := target.Y - shooter.Y
	dist := Distance(shooter.X, shooter.Y, target.X, target.Y)
	if dist == 0 {
		dx, dy, dist = 1, 0, 1
	}
	dx /= dist
	dy /= dist

	speed := float64(w.Stats.Speed) * ProjectileScale
	lifetime := time.Duration(float64(w.Stats.Range) / speed * float64(time.Second))

	return &Projectile{
		ID:        "proj_" + GenerateID(4),
		WeaponID:  w.ID,
		OwnerID:   shooter.ID,
		X:         shooter.X,
		Y:         shooter.Y,
		VX:        dx * speed * phys.DirectionMult,
		VY:        dy * speed * phys.DirectionMult,
		Damage:    int(math.Round(float64(w.Stats.Damage) * phys.DamageMult)),
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	}
}

// Expired reports whether the shot's lifetime has elapsed
func (p *Projectile) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// InBounds reports whether the shot is still inside the arena
func (p *Projectile) InBounds() bool {
	return p.X >= 0 && p.X <= ArenaWidth && p.Y >= 0 && p.Y <= ArenaHeight
}

// ToPublic converts to the broadcast representation
func (p *Projectile) ToPublic() ProjectilePublic {
	return ProjectilePublic{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		X:       p.X,
		Y:       p.Y,
		VX:      p.VX,
		VY:      p.VY,
		Damage:  p.Damage,
	}
}
