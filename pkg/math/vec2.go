package math

// Vec2 is a 2D vector. Ease curves store their control points as Vec2.
type Vec2 struct {
	X, Y float32
}

// Clamp01 returns v with both components clamped to [0, 1].
func (v Vec2) Clamp01() Vec2 {
	return Vec2{Clamp(v.X, 0, 1), Clamp(v.Y, 0, 1)}
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
