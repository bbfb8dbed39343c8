package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket endpoint; the player id comes from the path, a fresh one
	// is minted when the client doesn't supply its own
	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		playerID := strings.TrimPrefix(r.URL.Path, "/ws/")
		if playerID == "" || strings.ContainsRune(playerID, '/') || len(playerID) > 64 {
			playerID = "player_" + GenerateID(8)
		}

		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, playerID, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		client.SendJSON(Envelope{Type: MsgConnected, Data: ConnectedMsg{
			PlayerID:   playerID,
			ServerTime: float64(time.Now().UnixMilli()) / 1000,
		}})
	})

	// Health and status
	statusHandler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"active_matches": hub.registry.ActiveMatchCount(),
			"players_online": hub.ClientCount(),
			"forge":          hub.forge.Stats(),
			"forge_cache":    hub.forge.CacheSize(),
			"physics_mods":   hub.rules.HistorySize(),
		})
	}
	mux.HandleFunc("/health", statusHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		statusHandler(w, r)
	})

	// QR code for joining a match from a second device
	mux.HandleFunc("/qr/", func(w http.ResponseWriter, r *http.Request) {
		matchID := strings.TrimPrefix(r.URL.Path, "/qr/")
		if matchID == "" || hub.registry.MatchByID(matchID) == nil {
			http.NotFound(w, r)
			return
		}
		joinURL := fmt.Sprintf("%s/?match=%s", strings.TrimRight(publicURL, "/"), matchID)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	return mux
}
