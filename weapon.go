package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weapon categories
const (
	CategoryProjectile = "projectile"
	CategoryMelee      = "melee"
	CategoryAreaEffect = "area_effect"
	CategoryUtility    = "utility"
	CategoryMagic      = "magic"
)

// Stat clamps enforced on every generated weapon
const (
	MinDamage, MaxDamage     = 15, 85
	MinSpeed, MaxSpeed       = 20, 95
	MinRange, MaxRange       = 30, 180
	MinAmmo, MaxAmmo         = 3, 25
	MinCooldown, MaxCooldown = 1500, 4000 // milliseconds
)

// WeaponStats is the balance-relevant stat block
type WeaponStats struct {
	Damage        int    `json:"damage" msgpack:"dm"`
	Speed         int    `json:"speed" msgpack:"sp"`
	Range         int    `json:"range" msgpack:"rg"`
	Ammo          int    `json:"ammo" msgpack:"am"`
	Cooldown      int    `json:"cooldown" msgpack:"cd"` // ms
	SpecialEffect string `json:"special_effect" msgpack:"fx"`
}

// Weapon is a forged weapon owned by exactly one player
type Weapon struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Stats        WeaponStats `json:"properties"`
	BalanceScore float64     `json:"balance_score"`
	PlayerID     string      `json:"player_id"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// weaponArchetype is a named base stat template matched against prompts
type weaponArchetype struct {
	Name          string
	Category      string
	Keywords      []string
	CategoryHints []string
	Stats         WeaponStats
}

// elementModifier adjusts archetype damage and names the special effect
type elementModifier struct {
	Name       string
	Multiplier float64
	Effect     string
}

// WeaponArchetypes are the fallback templates when AI generation is
// unavailable. The first entry is the default match.
var WeaponArchetypes = []weaponArchetype{
	{
		Name:          "Sword",
		Category:      CategoryMelee,
		Keywords:      []string{"sword", "blade", "katana", "saber"},
		CategoryHints: []string{"melee", "slash"},
		Stats:         WeaponStats{Damage: 70, Speed: 60, Range: 30, Ammo: 3, Cooldown: 2000, SpecialEffect: "slash"},
	},
	{
		Name:          "Bow",
		Category:      CategoryProjectile,
		Keywords:      []string{"bow", "arrow", "crossbow", "archer"},
		CategoryHints: []string{"projectile", "pierce"},
		Stats:         WeaponStats{Damage: 60, Speed: 80, Range: 150, Ammo: 20, Cooldown: 1500, SpecialEffect: "pierce"},
	},
	{
		Name:          "Staff",
		Category:      CategoryMagic,
		Keywords:      []string{"staff", "wand", "scepter", "wizard"},
		CategoryHints: []string{"magic", "spell"},
		Stats:         WeaponStats{Damage: 50, Speed: 40, Range: 120, Ammo: 10, Cooldown: 3000, SpecialEffect: "magic"},
	},
	{
		Name:          "Cannon",
		Category:      CategoryProjectile,
		Keywords:      []string{"cannon", "gun", "rifle", "launcher"},
		CategoryHints: []string{"projectile", "explosive"},
		Stats:         WeaponStats{Damage: 85, Speed: 30, Range: 180, Ammo: 5, Cooldown: 4000, SpecialEffect: "explosive"},
	},
	{
		Name:          "Dagger",
		Category:      CategoryMelee,
		Keywords:      []string{"dagger", "knife", "shiv"},
		CategoryHints: []string{"melee", "poison"},
		Stats:         WeaponStats{Damage: 45, Speed: 90, Range: 30, Ammo: 3, Cooldown: 1500, SpecialEffect: "poison"},
	},
	{
		Name:          "Axe",
		Category:      CategoryMelee,
		Keywords:      []string{"axe", "hatchet", "cleaver"},
		CategoryHints: []string{"melee", "cleave"},
		Stats:         WeaponStats{Damage: 85, Speed: 50, Range: 35, Ammo: 3, Cooldown: 2500, SpecialEffect: "cleave"},
	},
	{
		Name:          "Orb",
		Category:      CategoryAreaEffect,
		Keywords:      []string{"orb", "bomb", "grenade", "sphere"},
		CategoryHints: []string{"area", "blast", "energy"},
		Stats:         WeaponStats{Damage: 65, Speed: 70, Range: 100, Ammo: 15, Cooldown: 1800, SpecialEffect: "energy"},
	},
}

// ElementModifiers map elemental keywords to a damage multiplier
var ElementModifiers = []elementModifier{
	{Name: "fire", Multiplier: 1.1, Effect: "burning"},
	{Name: "ice", Multiplier: 0.9, Effect: "freezing"},
	{Name: "lightning", Multiplier: 1.2, Effect: "shocking"},
	{Name: "poison", Multiplier: 0.95, Effect: "venomous"},
	{Name: "shadow", Multiplier: 1.0, Effect: "cursed"},
	{Name: "light", Multiplier: 1.05, Effect: "holy"},
	{Name: "earth", Multiplier: 1.0, Effect: "crushing"},
	{Name: "wind", Multiplier: 0.85, Effect: "swift"},
}

// effectFactors weight the balance score by special effect strength
var effectFactors = map[string]float64{
	"burning":   1.2,
	"freezing":  1.15,
	"shocking":  1.25,
	"venomous":  1.25,
	"explosive": 1.3,
	"cleave":    1.1,
	"pierce":    1.05,
	"magic":     1.1,
	"energy":    1.15,
	"shield":    0.8,
	"none":      1.0,
}

// MatchArchetype scores every archetype against the prompt and returns the
// best one. Name word hits score 3, keywords 2, category hints 1; zero
// score falls back to the first archetype.
func MatchArchetype(prompt string) *weaponArchetype {
	prompt = strings.ToLower(prompt)
	words := strings.Fields(prompt)

	best := &WeaponArchetypes[0]
	bestScore := 0
	for i := range WeaponArchetypes {
		a := &WeaponArchetypes[i]
		score := 0
		name := strings.ToLower(a.Name)
		for _, w := range words {
			if strings.Contains(name, w) {
				score += 3
			}
		}
		for _, kw := range a.Keywords {
			if strings.Contains(prompt, kw) {
				score += 2
			}
		}
		for _, w := range words {
			for _, hint := range a.CategoryHints {
				if w == hint {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = a
		}
	}
	return best
}

// MatchElement returns the first element whose keyword appears in the prompt,
// or nil for a plain weapon.
func MatchElement(prompt string) *elementModifier {
	prompt = strings.ToLower(prompt)
	for i := range ElementModifiers {
		if strings.Contains(prompt, ElementModifiers[i].Name) {
			return &ElementModifiers[i]
		}
	}
	return nil
}

// ClampStats forces every stat into its legal range
func ClampStats(s WeaponStats) WeaponStats {
	s.Damage = ClampInt(s.Damage, MinDamage, MaxDamage)
	s.Speed = ClampInt(s.Speed, MinSpeed, MaxSpeed)
	s.Range = ClampInt(s.Range, MinRange, MaxRange)
	s.Ammo = ClampInt(s.Ammo, MinAmmo, MaxAmmo)
	s.Cooldown = ClampInt(s.Cooldown, MinCooldown, MaxCooldown)
	if s.SpecialEffect == "" {
		s.SpecialEffect = "none"
	}
	return s
}

// BalanceScore rates a stat block 0-100; >80 is considered overpowered
func BalanceScore(s WeaponStats) float64 {
	power := float64(s.Damage)/100.0*0.4 +
		float64(s.Speed)/100.0*0.3 +
		float64(s.Range)/200.0*0.2 +
		float64(5000-s.Cooldown)/5000.0*0.1

	factor, ok := effectFactors[s.SpecialEffect]
	if !ok {
		factor = 1.0
	}
	return Clamp(power*factor*100, 0, 100)
}

// ApplyBalanceNerf tones down an overpowered stat block: one deterministic
// pass of damage x0.8 and cooldown x1.2, re-clamped.
func ApplyBalanceNerf(s WeaponStats) WeaponStats {
	s.Damage = int(float64(s.Damage) * 0.8)
	s.Cooldown = int(float64(s.Cooldown) * 1.2)
	return ClampStats(s)
}

// WeaponName composes a display name from the prompt, capitalizing the
// first two words ("fire sword" -> "Fire Sword").
func WeaponName(prompt string) string {
	words := strings.Fields(strings.TrimSpace(prompt))
	if len(words) == 0 {
		return "Weapon"
	}
	if len(words) > 2 {
		words = words[:2]
	}
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	w = strings.ToLower(w)
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// NewWeaponID returns a fresh weapon identifier
func NewWeaponID() string {
	return "weapon_" + uuid.NewString()
}
