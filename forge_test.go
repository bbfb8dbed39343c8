package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeBackend scripts AI generation responses for tests
type fakeBackend struct {
	stats    WeaponStats
	category string
	err      error
	block    bool // wait for context cancellation before returning
	calls    int
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string, gc GenerationContext) (WeaponStats, string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return WeaponStats{}, "", ctx.Err()
	}
	return f.stats, f.category, f.err
}

func TestValidatePrompt(t *testing.T) {
	if err := ValidatePrompt("fire sword"); err != nil {
		t.Errorf("valid prompt rejected: %v", err)
	}
	if err := ValidatePrompt(""); err == nil {
		t.Error("empty prompt should be rejected")
	}
	if err := ValidatePrompt("   "); err == nil {
		t.Error("whitespace prompt should be rejected")
	}
	if err := ValidatePrompt(strings.Repeat("x", MaxPromptLen+1)); err == nil {
		t.Error("over-length prompt should be rejected")
	}
	if err := ValidatePrompt(strings.Repeat("x", MaxPromptLen)); err != nil {
		t.Errorf("prompt at the limit should pass: %v", err)
	}
}

func TestGenerateFromCatalog(t *testing.T) {
	forge := NewWeaponForge(nil, nil)

	w, err := forge.Generate(context.Background(), "fire sword", "p1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if w.PlayerID != "p1" {
		t.Errorf("expected owner p1, got %s", w.PlayerID)
	}
	if w.Name != "Fire Sword" {
		t.Errorf("expected name Fire Sword, got %s", w.Name)
	}
	if w.Stats.SpecialEffect != "burning" {
		t.Errorf("expected burning effect, got %s", w.Stats.SpecialEffect)
	}
	// clamps always hold
	if w.Stats.Damage < MinDamage || w.Stats.Damage > MaxDamage {
		t.Errorf("damage %d out of range", w.Stats.Damage)
	}
	if w.Stats.Cooldown < MinCooldown || w.Stats.Cooldown > MaxCooldown {
		t.Errorf("cooldown %d out of range", w.Stats.Cooldown)
	}

	stats := forge.Stats()
	if stats.Fallbacks != 1 {
		t.Errorf("expected 1 fallback generation, got %d", stats.Fallbacks)
	}
}

func TestGenerateCacheSharesStats(t *testing.T) {
	forge := NewWeaponForge(nil, nil)

	w1, err := forge.Generate(context.Background(), "Ice Staff", "p1")
	if err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	// same prompt modulo case and spacing must hit the cache
	w2, err := forge.Generate(context.Background(), "  ice   staff ", "p2")
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}

	if w1.Stats != w2.Stats {
		t.Errorf("cached weapon stats diverged: %+v vs %+v", w1.Stats, w2.Stats)
	}
	if w1.ID == w2.ID {
		t.Error("cached weapons must get fresh ids")
	}
	if w2.PlayerID != "p2" {
		t.Errorf("cached weapon should be re-keyed to p2, got %s", w2.PlayerID)
	}
	if forge.Stats().CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", forge.Stats().CacheHits)
	}
	if forge.CacheSize() != 1 {
		t.Errorf("expected 1 cached template, got %d", forge.CacheSize())
	}
}

func TestGenerateUsesBackend(t *testing.T) {
	backend := &fakeBackend{
		stats:    WeaponStats{Damage: 55, Speed: 60, Range: 90, Ammo: 8, Cooldown: 2200, SpecialEffect: "pierce"},
		category: "projectile",
	}
	forge := NewWeaponForge(backend, nil)

	w, err := forge.Generate(context.Background(), "rail lance", "p1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("expected one backend call, got %d", backend.calls)
	}
	if w.Stats.Damage != 55 {
		t.Errorf("expected backend damage 55, got %d", w.Stats.Damage)
	}
	if w.Category != CategoryProjectile {
		t.Errorf("expected projectile category, got %s", w.Category)
	}
	if forge.Stats().AIGenerations != 1 {
		t.Errorf("expected 1 AI generation, got %d", forge.Stats().AIGenerations)
	}
}

func TestGenerateBackendErrorFallsBack(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	forge := NewWeaponForge(backend, nil)

	w, err := forge.Generate(context.Background(), "fire sword", "p1")
	if err != nil {
		t.Fatalf("generate should fall back, got error: %v", err)
	}
	if w == nil {
		t.Fatal("expected fallback weapon")
	}
	if forge.Stats().Fallbacks != 1 {
		t.Errorf("expected 1 fallback, got %d", forge.Stats().Fallbacks)
	}
}

func TestGenerateBackendTimeoutFallsBack(t *testing.T) {
	backend := &fakeBackend{block: true}
	forge := NewWeaponForge(backend, nil)

	start := time.Now()
	w, err := forge.Generate(context.Background(), "slow weapon", "p1")
	if err != nil {
		t.Fatalf("generate should fall back, got error: %v", err)
	}
	if w == nil {
		t.Fatal("expected fallback weapon")
	}
	if elapsed := time.Since(start); elapsed > BackendTimeout+time.Second {
		t.Errorf("generate took %v, should be bounded near %v", elapsed, BackendTimeout)
	}
}

func TestGenerateRejectsBadPrompt(t *testing.T) {
	forge := NewWeaponForge(nil, nil)
	if _, err := forge.Generate(context.Background(), "", "p1"); !errors.Is(err, ErrInvalidPrompt) {
		t.Errorf("expected ErrInvalidPrompt, got %v", err)
	}
}

func TestEmergencyWeapon(t *testing.T) {
	w := EmergencyWeapon("fire sword", "p1")
	if w.Name != "Basic Fire" {
		t.Errorf("expected Basic Fire, got %s", w.Name)
	}
	if w.Stats.Damage != 50 || w.Stats.Cooldown != 2000 {
		t.Errorf("unexpected emergency stats: %+v", w.Stats)
	}
	if w.PlayerID != "p1" {
		t.Errorf("expected owner p1, got %s", w.PlayerID)
	}
}

func TestWeaponGateAndGrant(t *testing.T) {
	now := time.Now()
	m := NewMatch("m1", now)
	m.Players = append(m.Players, NewPlayer("p1", 0))

	if _, err := m.WeaponGate("p1", now); err != nil {
		t.Fatalf("fresh player should pass the gate: %v", err)
	}

	w := EmergencyWeapon("test", "p1")
	if err := m.GrantWeapon("p1", w, now); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	remaining, err := m.WeaponGate("p1", now.Add(time.Second))
	if !errors.Is(err, ErrOnCooldown) {
		t.Fatalf("expected ErrOnCooldown, got %v", err)
	}
	if remaining <= 0 || remaining > GenerateCooldown {
		t.Errorf("remaining cooldown %v out of range", remaining)
	}

	if _, err := m.WeaponGate("p1", now.Add(GenerateCooldown+time.Second)); err != nil {
		t.Errorf("gate should reopen after cooldown: %v", err)
	}

	if _, err := m.WeaponGate("ghost", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown player, got %v", err)
	}
}

func TestWeaponLimit(t *testing.T) {
	now := time.Now()
	m := NewMatch("m1", now)
	m.Players = append(m.Players, NewPlayer("p1", 0))

	for i := 0; i < MaxWeapons; i++ {
		if err := m.GrantWeapon("p1", EmergencyWeapon("w", "p1"), now); err != nil {
			t.Fatalf("grant %d failed: %v", i, err)
		}
	}
	if err := m.GrantWeapon("p1", EmergencyWeapon("w", "p1"), now); !errors.Is(err, ErrWeaponLimit) {
		t.Errorf("expected ErrWeaponLimit, got %v", err)
	}
	// the gate reports the limit once the cooldown has passed
	if _, err := m.WeaponGate("p1", now.Add(GenerateCooldown+time.Second)); !errors.Is(err, ErrWeaponLimit) {
		t.Errorf("expected ErrWeaponLimit from gate, got %v", err)
	}
}
