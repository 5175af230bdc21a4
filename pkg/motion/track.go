// Package motion holds keyframed motion data: ease curves, typed keyframe
// tracks for bones, morph weights and cameras, and the Motion container a
// loader hands to a rig instance.
package motion

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/Faultbox/posekit/pkg/math"
)

// MaxComponents is the number of independently eased components a
// keyframe can carry.
const MaxComponents = 4

// Keyframe is one key of a track. Ease holds one (x1, y1, x2, y2) curve per
// interpolated component; the curves on a key govern the segment that ends
// at that key.
type Keyframe[T any] struct {
	Frame int
	Value T
	Ease  [MaxComponents]math.Vec4
}

// BlendFunc combines two key values given the eased fraction of each
// component.
type BlendFunc[T any] func(a, b T, eased [MaxComponents]float32) T

// Track is a frame-ordered sequence of keyframes with a value-specific
// blend. Insert keys, call FinalizeOrder once, then Interpolate.
type Track[T any] struct {
	keys       []Keyframe[T]
	components int
	blend      BlendFunc[T]
	sorted     bool
}

// NewTrack creates an empty track whose values have the given number of
// eased components.
func NewTrack[T any](components int, blend BlendFunc[T]) *Track[T] {
	if components < 1 || components > MaxComponents {
		panic(fmt.Sprintf("motion: component count %d out of range", components))
	}
	return &Track[T]{components: components, blend: blend, sorted: true}
}

// Insert appends a keyframe. The track must be finalized again before use.
func (t *Track[T]) Insert(k Keyframe[T]) {
	t.keys = append(t.keys, k)
	t.sorted = false
}

// FinalizeOrder stable-sorts the keys by frame. Keys sharing a frame keep
// their insertion order and are reported as ErrMalformedTrack; the track is
// still usable afterwards and resolves such frames to the first key.
func (t *Track[T]) FinalizeOrder() error {
	slices.SortStableFunc(t.keys, func(a, b Keyframe[T]) int {
		return cmp.Compare(a.Frame, b.Frame)
	})
	t.sorted = true

	for i := 1; i < len(t.keys); i++ {
		if t.keys[i].Frame == t.keys[i-1].Frame {
			return fmt.Errorf("%w (frame %d)", ErrMalformedTrack, t.keys[i].Frame)
		}
	}
	return nil
}

// Sorted reports whether FinalizeOrder has run since the last Insert.
func (t *Track[T]) Sorted() bool {
	return t.sorted
}

// Len returns the number of keys.
func (t *Track[T]) Len() int {
	return len(t.keys)
}

// Keys returns the keys in their current order. The slice must not be modified.
func (t *Track[T]) Keys() []Keyframe[T] {
	return t.keys
}

// FirstFrame returns the frame of the first key, or 0 for an empty track.
func (t *Track[T]) FirstFrame() int {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[0].Frame
}

// LastFrame returns the frame of the last key, or 0 for an empty track.
func (t *Track[T]) LastFrame() int {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[len(t.keys)-1].Frame
}

// Interpolate returns the track value at frame time f. Times outside the
// keyed range clamp to the first or last value. It panics if the track has
// not been finalized.
func (t *Track[T]) Interpolate(f float32) T {
	if !t.sorted {
		panic(ErrUnsortedTrack)
	}

	var zero T
	n := len(t.keys)
	if n == 0 {
		return zero
	}
	if f <= float32(t.keys[0].Frame) {
		return t.keys[0].Value
	}
	if f >= float32(t.keys[n-1].Frame) {
		return t.keys[n-1].Value
	}

	// First key at or after f. An exact hit returns that key untouched,
	// which also makes zero-width brackets unreachable.
	i := sort.Search(n, func(i int) bool { return float32(t.keys[i].Frame) >= f })
	b := &t.keys[i]
	if float32(b.Frame) == f {
		return b.Value
	}
	a := &t.keys[i-1]

	frac := (f - float32(a.Frame)) / float32(b.Frame-a.Frame)

	var eased [MaxComponents]float32
	for c := 0; c < t.components; c++ {
		eased[c] = BezierFromVec4(b.Ease[c]).Evaluate(frac)
	}
	return t.blend(a.Value, b.Value, eased)
}
