package main

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTemplateRoundtrip(t *testing.T) {
	db := openTestDB(t)

	tmpl := forgeTemplate{
		Name:     "Fire Sword",
		Category: CategoryMelee,
		Stats:    WeaponStats{Damage: 70, Speed: 60, Range: 30, Ammo: 3, Cooldown: 2000, SpecialEffect: "burning"},
	}
	if err := db.SaveTemplate("key1", tmpl); err != nil {
		t.Fatalf("save: %v", err)
	}
	// upsert overwrites
	tmpl.Stats.Damage = 60
	if err := db.SaveTemplate("key1", tmpl); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := db.LoadTemplates()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 template, got %d", len(loaded))
	}
	got := loaded["key1"]
	if got.Name != "Fire Sword" || got.Category != CategoryMelee {
		t.Errorf("unexpected template: %+v", got)
	}
	if got.Stats != tmpl.Stats {
		t.Errorf("stats roundtrip diverged: %+v vs %+v", got.Stats, tmpl.Stats)
	}
}

func TestForgeWarmStart(t *testing.T) {
	db := openTestDB(t)

	forge := NewWeaponForge(nil, db)
	w, err := forge.Generate(context.Background(), "fire sword", "p1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// a second forge backed by the same database starts with the cache warm
	forge2 := NewWeaponForge(nil, db)
	if forge2.CacheSize() != 1 {
		t.Fatalf("expected warm cache of 1, got %d", forge2.CacheSize())
	}
	w2, err := forge2.Generate(context.Background(), "fire sword", "p2")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if w.Stats != w2.Stats {
		t.Errorf("warm-started stats diverged: %+v vs %+v", w.Stats, w2.Stats)
	}
	if forge2.Stats().CacheHits != 1 {
		t.Errorf("expected a cache hit, got %d", forge2.Stats().CacheHits)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	if got := db.GetSetting("missing"); got != "" {
		t.Errorf("missing setting should be empty, got %q", got)
	}
	if err := db.SetSetting("motd", "hello"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetSetting("motd", "updated"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := db.GetSetting("motd"); got != "updated" {
		t.Errorf("expected updated, got %q", got)
	}
}
