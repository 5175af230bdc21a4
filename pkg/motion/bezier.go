package motion

import "github.com/Faultbox/posekit/pkg/math"

// bezierIterations bounds the parametric search error to 1/2^15.
const bezierIterations = 15

// Bezier is a cubic easing curve from (0,0) to (1,1) with two free
// control points.
type Bezier struct {
	P1, P2 math.Vec2
}

// LinearBezier has both control points on the diagonal and evaluates to
// the identity.
var LinearBezier = Bezier{P1: math.Vec2{X: 0.25, Y: 0.25}, P2: math.Vec2{X: 0.75, Y: 0.75}}

// LinearEase is LinearBezier in keyframe coefficient form.
var LinearEase = LinearBezier.Vec4()

// NewBezier builds a curve from its control point coordinates. Coordinates
// are clamped to [0, 1].
func NewBezier(x1, y1, x2, y2 float32) Bezier {
	return Bezier{
		P1: math.Vec2{X: x1, Y: y1}.Clamp01(),
		P2: math.Vec2{X: x2, Y: y2}.Clamp01(),
	}
}

// BezierFromVec4 reads (x1, y1, x2, y2) coefficients.
func BezierFromVec4(v math.Vec4) Bezier {
	return NewBezier(v[0], v[1], v[2], v[3])
}

// Vec4 returns the (x1, y1, x2, y2) coefficients.
func (b Bezier) Vec4() math.Vec4 {
	return math.Vec4{b.P1.X, b.P1.Y, b.P2.X, b.P2.Y}
}

// Evaluate maps the elapsed fraction p to the eased fraction. The curve is
// not inverted in closed form; t is found by bisection on x(t) and y(t) is
// returned.
func (b Bezier) Evaluate(p float32) float32 {
	p = math.Clamp(p, 0, 1)

	lo, hi := float32(0), float32(1)
	for i := 0; i < bezierIterations; i++ {
		mid := (lo + hi) / 2
		if cubic(b.P1.X, b.P2.X, mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return cubic(b.P1.Y, b.P2.Y, (lo+hi)/2)
}

// cubic evaluates one coordinate of the curve with endpoints fixed at 0 and 1.
func cubic(c1, c2, t float32) float32 {
	s := 1 - t
	return 3*s*s*t*c1 + 3*s*t*t*c2 + t*t*t
}
