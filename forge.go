package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"hash/fnv"
	"log"
	"strings"
	"sync"
	"time"
)

// Error taxonomy surfaced to clients
var (
	ErrInvalidPrompt = errors.New("invalid prompt")
	ErrOnCooldown    = errors.New("on cooldown")
	ErrNotFound      = errors.New("not found")
	ErrWeaponLimit   = errors.New("weapon limit reached")
)

const (
	MaxPromptLen     = 100             // single authoritative prompt limit
	GenerateCooldown = 12 * time.Second
	BackendTimeout   = 2500 * time.Millisecond // keeps total latency under 3s
)

// GenerationContext is passed to the AI collaborator along with the prompt
type GenerationContext struct {
	WeaponType string `json:"weaponType"`
	Element    string `json:"element"`
}

// GenerationBackend produces weapon stats from a prompt. Implementations
// must honor the context deadline; the forge always has a deterministic
// fallback when they fail.
type GenerationBackend interface {
	Generate(ctx context.Context, prompt string, gc GenerationContext) (WeaponStats, string, error)
}

// forgeTemplate is the player-agnostic cached result of a generation
type forgeTemplate struct {
	Name     string
	Category string
	Stats    WeaponStats
}

// ForgeStats counts generation outcomes for the health endpoint
type ForgeStats struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	AIGenerations int64   `json:"ai_generations"`
	Fallbacks     int64   `json:"fallback_generations"`
	AvgMillis     float64 `json:"avg_generation_ms"`
}

// WeaponForge turns prompts into balanced weapons. The cache is global
// across matches and safe for concurrent use.
type WeaponForge struct {
	mu      sync.Mutex
	cache   map[string]forgeTemplate // normalized-prompt hash -> template
	backend GenerationBackend        // nil means fallback-only
	db      *DB                      // nil means no persistence
	stats   ForgeStats
}

// NewWeaponForge creates a forge, warm-starting the cache from the
// database when one is provided.
func NewWeaponForge(backend GenerationBackend, db *DB) *WeaponForge {
	f := &WeaponForge{
		cache:   make(map[string]forgeTemplate),
		backend: backend,
		db:      db,
	}
	if db != nil {
		tmpls, err := db.LoadTemplates()
		if err != nil {
			log.Printf("forge: template warm-start failed: %v", err)
		} else {
			f.cache = tmpls
			log.Printf("forge: warm-started %d cached templates", len(tmpls))
		}
	}
	return f
}

// promptKey normalizes a prompt and hashes it for cache lookup
func promptKey(prompt string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
	sum := md5.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// ValidatePrompt applies the single authoritative prompt policy
func ValidatePrompt(prompt string) error {
	p := strings.TrimSpace(prompt)
	if p == "" || len(p) > MaxPromptLen {
		return ErrInvalidPrompt
	}
	return nil
}

// Generate produces a weapon for the given player. Cache hits return a
// stat-identical weapon re-keyed to the player; misses go through the AI
// backend under a hard timeout and fall back to the archetype catalog.
// Never call this while holding a match lock — the backend may block for
// up to BackendTimeout.
func (f *WeaponForge) Generate(ctx context.Context, prompt, playerID string) (*Weapon, error) {
	started := time.Now()
	if err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	key := promptKey(prompt)

	f.mu.Lock()
	f.stats.TotalRequests++
	tmpl, hit := f.cache[key]
	if hit {
		f.stats.CacheHits++
	}
	f.mu.Unlock()

	if !hit {
		tmpl = f.generateTemplate(ctx, prompt)
		f.mu.Lock()
		f.cache[key] = tmpl
		f.mu.Unlock()
		if f.db != nil {
			if err := f.db.SaveTemplate(key, tmpl); err != nil {
				log.Printf("forge: cache persist failed: %v", err)
			}
		}
	}

	f.observeLatency(time.Since(started))

	return &Weapon{
		ID:           NewWeaponID(),
		Name:         tmpl.Name,
		Category:     tmpl.Category,
		Stats:        tmpl.Stats,
		BalanceScore: BalanceScore(tmpl.Stats),
		PlayerID:     playerID,
		GeneratedAt:  time.Now(),
	}, nil
}

// generateTemplate runs the backend-then-fallback pipeline and balances
// the result
func (f *WeaponForge) generateTemplate(ctx context.Context, prompt string) forgeTemplate {
	arch := MatchArchetype(prompt)
	elem := MatchElement(prompt)

	var tmpl forgeTemplate
	generated := false

	if f.backend != nil {
		gctx := GenerationContext{WeaponType: strings.ToLower(arch.Name)}
		if elem != nil {
			gctx.Element = elem.Name
		}
		cctx, cancel := context.WithTimeout(ctx, BackendTimeout)
		stats, category, err := f.backend.Generate(cctx, prompt, gctx)
		cancel()
		if err != nil {
			log.Printf("forge: backend failed for %q, using catalog: %v", prompt, err)
		} else {
			tmpl = forgeTemplate{Name: WeaponName(prompt), Category: normalizeCategory(category), Stats: stats}
			generated = true
			f.mu.Lock()
			f.stats.AIGenerations++
			f.mu.Unlock()
		}
	}

	if !generated {
		tmpl = templateFromCatalog(prompt, arch, elem)
		f.mu.Lock()
		f.stats.Fallbacks++
		f.mu.Unlock()
	}

	tmpl.Stats = balance(tmpl.Stats)
	return tmpl
}

// templateFromCatalog builds a deterministic weapon from the archetype
// and element tables
func templateFromCatalog(prompt string, arch *weaponArchetype, elem *elementModifier) forgeTemplate {
	stats := arch.Stats
	name := arch.Name
	if elem != nil {
		stats.Damage = int(float64(stats.Damage) * elem.Multiplier)
		stats.SpecialEffect = elem.Effect
		name = capitalize(elem.Name) + " " + arch.Name
	}

	// deterministic per-prompt variation so identical prompts stay
	// cache-consistent while different prompts feel distinct
	v := promptVariation(prompt)
	stats.Damage += v
	stats.Speed += v

	return forgeTemplate{Name: name, Category: arch.Category, Stats: stats}
}

// promptVariation maps a prompt to a stable offset in [-10, 10]
func promptVariation(prompt string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(prompt)))
	return int(h.Sum32()%21) - 10
}

// balance clamps the stats and applies the nerf pass when overpowered
func balance(s WeaponStats) WeaponStats {
	s = ClampStats(s)
	if BalanceScore(s) > 80 {
		s = ApplyBalanceNerf(s)
	}
	return s
}

// normalizeCategory maps arbitrary backend output onto the closed
// category set
func normalizeCategory(c string) string {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case CategoryMelee:
		return CategoryMelee
	case CategoryAreaEffect:
		return CategoryAreaEffect
	case CategoryUtility:
		return CategoryUtility
	case CategoryMagic:
		return CategoryMagic
	default:
		return CategoryProjectile
	}
}

// EmergencyWeapon is the last-resort weapon so gameplay is never blocked
func EmergencyWeapon(prompt, playerID string) *Weapon {
	name := "Basic Weapon"
	if words := strings.Fields(prompt); len(words) > 0 {
		name = "Basic " + capitalize(words[0])
	}
	stats := WeaponStats{Damage: 50, Speed: 60, Range: 100, Ammo: 10, Cooldown: 2000, SpecialEffect: "none"}
	return &Weapon{
		ID:           NewWeaponID(),
		Name:         name,
		Category:     CategoryProjectile,
		Stats:        stats,
		BalanceScore: BalanceScore(stats),
		PlayerID:     playerID,
		GeneratedAt:  time.Now(),
	}
}

// Stats returns a copy of the forge counters
func (f *WeaponForge) Stats() ForgeStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// CacheSize returns the number of cached templates
func (f *WeaponForge) CacheSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

func (f *WeaponForge) observeLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := float64(f.stats.TotalRequests)
	if n <= 0 {
		n = 1
	}
	ms := float64(d.Milliseconds())
	f.stats.AvgMillis = (f.stats.AvgMillis*(n-1) + ms) / n
}

// WeaponGate checks whether a player may forge a weapon right now.
// Returns the remaining cooldown alongside ErrOnCooldown.
func (m *Match) WeaponGate(playerID string, now time.Time) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.PlayerByID(playerID)
	if p == nil {
		return 0, ErrNotFound
	}
	if now.Before(p.NextWeaponAt) {
		return p.NextWeaponAt.Sub(now), ErrOnCooldown
	}
	if len(p.Weapons) >= MaxWeapons {
		return 0, ErrWeaponLimit
	}
	return 0, nil
}

// GrantWeapon appends a forged weapon to the player and starts their
// generation cooldown. Re-checks the gate: generation ran unlocked.
func (m *Match) GrantWeapon(playerID string, w *Weapon, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.PlayerByID(playerID)
	if p == nil {
		return ErrNotFound
	}
	if len(p.Weapons) >= MaxWeapons {
		return ErrWeaponLimit
	}
	p.Weapons = append(p.Weapons, w)
	p.NextWeaponAt = now.Add(GenerateCooldown)
	return nil
}
