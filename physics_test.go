package main

import (
	"sync"
	"testing"
	"time"
)

func TestParseIceFloor(t *testing.T) {
	rules := NewPhysicsRules()
	now := time.Now()

	mod := rules.Parse("make the floor ice", "m1", now)
	if mod.Type != ModFriction {
		t.Errorf("expected friction mod, got %s", mod.Type)
	}
	if mod.Parameters["multiplier"] != 0.1 {
		t.Errorf("expected multiplier 0.1, got %v", mod.Parameters["multiplier"])
	}
	if mod.Duration != 20 {
		t.Errorf("expected duration 20s, got %v", mod.Duration)
	}
	if mod.MatchID != "m1" {
		t.Errorf("expected match id m1, got %s", mod.MatchID)
	}
}

func TestParseFirstKeywordWins(t *testing.T) {
	rules := NewPhysicsRules()
	// "float" belongs to Low Gravity, which precedes the bounce rules
	mod := rules.Parse("bouncy float", "m1", time.Now())
	if mod.Description != "Low Gravity" {
		t.Errorf("expected Low Gravity, got %s", mod.Description)
	}
}

func TestParseUnknownPromptFallsBackToRandom(t *testing.T) {
	rules := NewPhysicsRules()
	now := time.Now()

	for i := 0; i < 50; i++ {
		mod := rules.Parse("completely unrelated gibberish xyzzy", "m1", now)
		switch mod.Type {
		case ModGravity:
			if v := mod.Parameters["multiplier"]; v < 0.2 || v > 2.5 {
				t.Errorf("gravity multiplier %v out of [0.2, 2.5]", v)
			}
		case ModBounce:
			if v := mod.Parameters["multiplier"]; v < 0.5 || v > 3.0 {
				t.Errorf("bounce multiplier %v out of [0.5, 3.0]", v)
			}
		case ModFriction:
			if v := mod.Parameters["multiplier"]; v < 0.1 || v > 2.0 {
				t.Errorf("friction multiplier %v out of [0.1, 2.0]", v)
			}
		case ModTimeScale:
			if v := mod.Parameters["scale"]; v < 0.3 || v > 1.8 {
				t.Errorf("time scale %v out of [0.3, 1.8]", v)
			}
		default:
			t.Errorf("unexpected random mod type %s", mod.Type)
		}
		if mod.Duration <= 0 {
			t.Errorf("random mod should have positive duration, got %v", mod.Duration)
		}
	}
}

func TestFoldPhysicsMultiplicative(t *testing.T) {
	now := time.Now()
	mods := []*PhysicsModification{
		{Type: ModGravity, Parameters: map[string]float64{"multiplier": 0.5}, Duration: 10, StartTime: now},
		{Type: ModGravity, Parameters: map[string]float64{"multiplier": 0.5}, Duration: 10, StartTime: now},
	}
	phys := FoldPhysics(mods, now)
	if phys.Gravity != BaseGravity*0.25 {
		t.Errorf("expected gravity %v, got %v", BaseGravity*0.25, phys.Gravity)
	}
}

func TestFoldPhysicsTimeScaleOverwrites(t *testing.T) {
	now := time.Now()
	mods := []*PhysicsModification{
		{Type: ModTimeScale, Parameters: map[string]float64{"scale": 0.5}, Duration: 10, StartTime: now},
		{Type: ModTimeScale, Parameters: map[string]float64{"scale": 2.0}, Duration: 10, StartTime: now},
	}
	phys := FoldPhysics(mods, now)
	if phys.TimeScale != 2.0 {
		t.Errorf("expected last time scale to win, got %v", phys.TimeScale)
	}
}

func TestFoldPhysicsSkipsExpired(t *testing.T) {
	now := time.Now()
	mods := []*PhysicsModification{
		{Type: ModFriction, Parameters: map[string]float64{"multiplier": 0.1}, Duration: 20, StartTime: now.Add(-30 * time.Second)},
	}
	phys := FoldPhysics(mods, now)
	if phys.Friction != BaseFriction {
		t.Errorf("expired mod should not apply, friction = %v", phys.Friction)
	}
}

func TestFoldPhysicsPure(t *testing.T) {
	now := time.Now()
	mods := []*PhysicsModification{
		{Type: ModGravity, Parameters: map[string]float64{"multiplier": 0.3}, Duration: 15, StartTime: now},
		{Type: ModWeaponBehavior, Parameters: map[string]float64{"damage_multiplier": 2.0}, Duration: 12, StartTime: now},
	}
	a := FoldPhysics(mods, now)
	b := FoldPhysics(mods, now)
	if a != b {
		t.Errorf("folding twice diverged: %+v vs %+v", a, b)
	}
	if a.DamageMult != 2.0 {
		t.Errorf("expected damage multiplier 2.0, got %v", a.DamageMult)
	}
}

func TestMatchPhysicsExpiryRestoresBaseline(t *testing.T) {
	now := time.Now()
	m := NewMatch("m1", now)
	m.Status = MatchActive

	mod := &PhysicsModification{
		Type:       ModFriction,
		Parameters: map[string]float64{"multiplier": 0.1},
		Duration:   20,
		StartTime:  now,
	}
	m.AddModification(mod, now)

	phys := m.CurrentPhysics(now.Add(5 * time.Second))
	if phys.Friction != BaseFriction*0.1 {
		t.Errorf("expected friction %v, got %v", BaseFriction*0.1, phys.Friction)
	}

	phys = m.CurrentPhysics(now.Add(25 * time.Second))
	if phys.Friction != BaseFriction {
		t.Errorf("expected baseline friction %v after expiry, got %v", BaseFriction, phys.Friction)
	}
	if n := len(m.Mods); n != 0 {
		t.Errorf("expired mods should be dropped, %d remain", n)
	}
}

func TestHistoryBounded(t *testing.T) {
	rules := NewPhysicsRules()
	now := time.Now()
	for i := 0; i < modHistoryLimit+20; i++ {
		rules.Parse("ice", "m1", now)
	}
	if n := rules.HistorySize(); n != modHistoryLimit {
		t.Errorf("expected history capped at %d, got %d", modHistoryLimit, n)
	}
	if got := len(rules.History(5)); got != 5 {
		t.Errorf("expected 5 history entries, got %d", got)
	}
}

// The random-fallback path runs from both client handlers and the clock
// goroutine, so Parse must be safe to call concurrently.
func TestParseConcurrentFallback(t *testing.T) {
	rules := NewPhysicsRules()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mod := rules.Parse("xyzzy gibberish nothing matches", "m1", now)
				if mod == nil {
					t.Error("fallback modification missing")
				}
			}
		}()
	}
	wg.Wait()

	if n := rules.HistorySize(); n != modHistoryLimit {
		t.Errorf("expected history capped at %d, got %d", modHistoryLimit, n)
	}
}
