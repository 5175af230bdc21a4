package animator

import gomath "math"

// Playback maps elapsed seconds to a motion frame time.
type Playback struct {
	FPS    float32
	Loop   bool
	Length float32 // last keyed frame; 0 for a static pose
}

// Frame returns the frame time after elapsed seconds. Looping playback
// wraps into [0, Length); otherwise it holds on the last frame.
func (p Playback) Frame(elapsed float32) float32 {
	if p.Length <= 0 || elapsed <= 0 {
		return 0
	}
	f := elapsed * p.FPS
	if p.Loop {
		return float32(gomath.Mod(float64(f), float64(p.Length)))
	}
	return min(f, p.Length)
}
