package main

import (
	"math"
	"time"
)

// HandleInput stores the held movement keys for a player. The keys are
// resolved against the physics snapshot on the next tick, so input and
// tick mutation stay serialized under the match lock.
func (m *Match) HandleInput(playerID string, in PlayerInputMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Status != MatchActive {
		return
	}
	p := m.PlayerByID(playerID)
	if p == nil || !p.Alive {
		return
	}
	p.Input = PlayerInput{Left: in.Left, Right: in.Right, Jump: in.Jump}
}

// UseWeapon fires one of the player's weapons at the target point.
// Projectile and magic weapons spawn a projectile; area-effect weapons
// damage everyone near the target immediately. Returns the remaining
// cooldown alongside ErrOnCooldown.
func (m *Match) UseWeapon(playerID, weaponID string, target Vec2, now time.Time) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != MatchActive {
		return 0, ErrNotFound
	}
	p := m.PlayerByID(playerID)
	if p == nil || !p.Alive {
		return 0, ErrNotFound
	}
	w := p.WeaponByID(weaponID)
	if w == nil {
		return 0, ErrNotFound
	}
	if now.Before(p.NextFireAt) {
		return p.NextFireAt.Sub(now), ErrOnCooldown
	}

	phys := m.currentPhysicsLocked(now)

	switch w.Category {
	case CategoryProjectile, CategoryMagic:
		m.Projectiles = append(m.Projectiles, NewProjectile(p, w, target, phys, now))
	case CategoryAreaEffect:
		m.applyAreaEffect(p, w, target, phys, now)
	default:
		// melee and utility resolve as a short-range area hit
		m.applyAreaEffect(p, w, target, phys, now)
	}

	cd := time.Duration(float64(w.Stats.Cooldown) * phys.CooldownMult * float64(time.Millisecond))
	p.NextFireAt = now.Add(cd)
	return 0, nil
}

// applyAreaEffect damages every other live player within the weapon's
// range of the target point. Caller holds the lock.
func (m *Match) applyAreaEffect(shooter *Player, w *Weapon, target Vec2, phys PhysicsState, now time.Time) {
	dmg := int(math.Round(float64(w.Stats.Damage) * phys.DamageMult))
	for _, p := range m.Players {
		if p.ID == shooter.ID || !p.Alive {
			continue
		}
		if Distance(p.X, p.Y, target.X, target.Y) <= float64(w.Stats.Range)*phys.SizeMult {
			if p.TakeDamage(dmg) {
				shooter.Kills++
			}
		}
	}
}

// Tick advances the match by one fixed step. Returns true when this tick
// finished the match.
func (m *Match) Tick(now time.Time, dt float64) (ended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != MatchActive {
		return false
	}

	phys := m.currentPhysicsLocked(now)

	m.stepProjectiles(phys, now, dt)
	m.resolveCollisions(phys)
	m.stepPlayers(phys, dt)

	if m.finished(now) {
		m.endLocked(now)
		return true
	}
	return false
}

// stepProjectiles integrates motion and drops expired or escaped shots
func (m *Match) stepProjectiles(phys PhysicsState, now time.Time, dt float64) {
	live := m.Projectiles[:0]
	for _, pr := range m.Projectiles {
		pr.VY += phys.Gravity * dt
		pr.X += pr.VX * dt * phys.TimeScale
		pr.Y += pr.VY * dt * phys.TimeScale
		if pr.Expired(now) || !pr.InBounds() {
			continue
		}
		live = append(live, pr)
	}
	m.Projectiles = live
}

// resolveCollisions applies projectile damage; one hit per projectile,
// first matching player wins
func (m *Match) resolveCollisions(phys PhysicsState) {
	live := m.Projectiles[:0]
	for _, pr := range m.Projectiles {
		hit := false
		for _, p := range m.Players {
			if p.ID == pr.OwnerID || !p.Alive {
				continue
			}
			if ProjectileHitsPlayer(pr, p) {
				// pr.Damage already carries the fire-time multiplier
				if p.TakeDamage(pr.Damage) {
					if shooter := m.PlayerByID(pr.OwnerID); shooter != nil {
						shooter.Kills++
					}
				}
				hit = true
				break
			}
		}
		if !hit {
			live = append(live, pr)
		}
	}
	m.Projectiles = live
}

// stepPlayers resolves held input and integrates player motion
func (m *Match) stepPlayers(phys PhysicsState, dt float64) {
	for _, p := range m.Players {
		if !p.Alive {
			continue
		}

		switch {
		case p.Input.Left:
			p.VX = -MoveSpeed * phys.TimeScale
		case p.Input.Right:
			p.VX = MoveSpeed * phys.TimeScale
		default:
			p.VX *= phys.Friction
		}

		if p.Input.Jump && p.Grounded() {
			p.VY = JumpVelocity * phys.TimeScale
		}

		p.VY += phys.Gravity * dt
		p.X += p.VX * dt
		p.Y += p.VY * dt

		if p.Y >= GroundY {
			p.Y = GroundY
			p.VY = 0
		}
		p.X = Clamp(p.X, PlayerHalfSize, ArenaWidth-PlayerHalfSize)
	}
}
