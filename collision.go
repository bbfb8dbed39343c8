package main

// AABBOverlap tests two axis-aligned boxes given by center and half-extent
func AABBOverlap(x1, y1, half1, x2, y2, half2 float64) bool {
	return x1+half1 > x2-half2 &&
		x1-half1 < x2+half2 &&
		y1+half1 > y2-half2 &&
		y1-half1 < y2+half2
}

// ProjectileHitsPlayer tests a projectile box against a player box
func ProjectileHitsPlayer(pr *Projectile, p *Player) bool {
	return AABBOverlap(pr.X, pr.Y, ProjectileHalfSize, p.X, p.Y, PlayerHalfSize)
}
