package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "forge.db", "Path to SQLite weapon template database")
	aiURL := flag.String("ai-url", "", "AI generation backend URL (empty: catalog fallback only)")
	publicURL := flag.String("public-url", "http://localhost:8080", "Public base URL for QR join links")
	tickRate := flag.Int("tick-rate", DefaultTickRate, "Simulation ticks per second")
	broadcastRate := flag.Int("broadcast-rate", DefaultBroadcastRate, "State broadcasts per second")
	flag.Parse()

	db, err := OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var backend GenerationBackend
	if *aiURL != "" {
		backend = NewHTTPBackend(*aiURL)
	}

	forge := NewWeaponForge(backend, db)
	rules := NewPhysicsRules()
	registry := NewMatchRegistry()

	hub := NewHub(registry, forge, rules)
	go hub.Run()

	clock := NewGameClock(hub, registry, rules, *tickRate, *broadcastRate)
	go clock.Run()

	mux := SetupRoutes(hub, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Template cache warm-started with %d entries", forge.CacheSize())
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	clock.Stop()
	server.Close()
}
