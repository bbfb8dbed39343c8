package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	mrand "math/rand"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampInt restricts v to [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// randRange returns a random float64 in [lo, hi). The top-level
// math/rand functions are goroutine-safe; game randomness only.
func randRange(lo, hi float64) float64 {
	return lo + mrand.Float64()*(hi-lo)
}

// randIndex returns a random index in [0, n)
func randIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return mrand.Intn(n)
}
