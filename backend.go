package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPBackend calls an external AI generation service. The service
// contract: POST {prompt, context:{weaponType, element}} and receive a
// stat block plus category. Every call carries a deadline; errors and
// timeouts are recovered by the forge's catalog fallback.
type HTTPBackend struct {
	URL    string
	Client *http.Client
}

// NewHTTPBackend creates a backend for the given generation endpoint
func NewHTTPBackend(url string) *HTTPBackend {
	return &HTTPBackend{
		URL:    url,
		Client: &http.Client{Timeout: BackendTimeout + 500*time.Millisecond},
	}
}

type backendRequest struct {
	Prompt  string            `json:"prompt"`
	Context GenerationContext `json:"context"`
}

type backendResponse struct {
	Damage        int    `json:"damage"`
	Speed         int    `json:"speed"`
	Range         int    `json:"range"`
	Ammo          int    `json:"ammo"`
	Cooldown      int    `json:"cooldown"`
	SpecialEffect string `json:"special_effect"`
	Category      string `json:"category"`
}

// Generate implements GenerationBackend
func (b *HTTPBackend) Generate(ctx context.Context, prompt string, gc GenerationContext) (WeaponStats, string, error) {
	body, err := json.Marshal(backendRequest{Prompt: prompt, Context: gc})
	if err != nil {
		return WeaponStats{}, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return WeaponStats{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return WeaponStats{}, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WeaponStats{}, "", fmt.Errorf("backend status %d", resp.StatusCode)
	}

	var out backendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return WeaponStats{}, "", err
	}

	stats := WeaponStats{
		Damage:        out.Damage,
		Speed:         out.Speed,
		Range:         out.Range,
		Ammo:          out.Ammo,
		Cooldown:      out.Cooldown,
		SpecialEffect: out.SpecialEffect,
	}
	return stats, out.Category, nil
}
