// Package morph blends weighted morph target offsets into a working vertex
// position buffer.
package morph

import (
	"fmt"

	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/motion"
	"github.com/Faultbox/posekit/pkg/rig"
)

// DefaultThreshold is the smallest weight change that triggers a reblend.
const DefaultThreshold = 1e-3

// Option configures a Blender.
type Option func(*Blender)

// WithThreshold sets the weight change below which a frame is skipped.
func WithThreshold(th float32) Option {
	return func(b *Blender) {
		b.threshold = th
	}
}

type state struct {
	track    *motion.ScalarTrack
	current  float32
	previous float32
}

// Blender owns the per-instance morph weights and the vertex buffer they
// produce. Morph 0 of the rig is the base and is never weighted.
type Blender struct {
	targets   []rig.MorphTarget
	states    []state
	threshold float32

	scratch   []math.Vec3
	positions []math.Vec3

	dirty      bool
	blendCount int
}

// NewBlender creates a blender for r's morphs. The working buffer starts
// at the base morph positions.
func NewBlender(r *rig.Rig, opts ...Option) *Blender {
	b := &Blender{
		targets:   r.Morphs(),
		states:    make([]state, len(r.Morphs())),
		threshold: DefaultThreshold,
		scratch:   make([]math.Vec3, r.VertexCount()),
		positions: make([]math.Vec3, r.VertexCount()),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.targets) > 0 {
		base := b.targets[0]
		for k, v := range base.Vertices {
			b.positions[v] = base.Deltas[k]
		}
	}
	return b
}

// Bind attaches weight tracks from m by morph name and returns the names
// of tracks that match no morph. A nil motion unbinds every track.
// On error the previous bindings are left untouched.
func (b *Blender) Bind(m *motion.Motion) ([]string, error) {
	if m != nil {
		for name, tr := range m.Morphs {
			if !tr.Sorted() {
				return nil, fmt.Errorf("morph %q: %w", name, motion.ErrUnsortedTrack)
			}
		}
	}
	for i := range b.states {
		b.states[i].track = nil
	}
	if m == nil {
		return nil, nil
	}

	byName := make(map[string]int, len(b.targets))
	for i := 1; i < len(b.targets); i++ {
		byName[b.targets[i].Name] = i
	}

	var unmatched []string
	for name, tr := range m.Morphs {
		i, ok := byName[name]
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		b.states[i].track = tr
	}
	return unmatched, nil
}

// SetWeight sets the weight of morph i directly. Morphs bound to a track
// are overwritten on the next Update.
func (b *Blender) SetWeight(i int, w float32) {
	if i == 0 {
		return
	}
	b.states[i].current = w
}

// Weight returns the current weight of morph i.
func (b *Blender) Weight(i int) float32 {
	return b.states[i].current
}

// Update samples the weight tracks at frame and reblends the working
// buffer if any weight moved by at least the threshold.
func (b *Blender) Update(frame float32) {
	changed := false
	for i := 1; i < len(b.states); i++ {
		s := &b.states[i]
		if s.track != nil {
			s.current = s.track.Interpolate(frame)
		}
		d := s.current - s.previous
		if d >= b.threshold || -d >= b.threshold {
			changed = true
		}
	}
	if !changed {
		return
	}
	b.blend()
}

func (b *Blender) blend() {
	clear(b.scratch)

	for i := 1; i < len(b.targets); i++ {
		w := b.states[i].current
		if w == 0 {
			continue
		}
		t := &b.targets[i]
		for k, v := range t.Vertices {
			b.scratch[v] = b.scratch[v].Add(t.Deltas[k].Scale(w))
		}
	}

	if len(b.targets) > 0 {
		base := &b.targets[0]
		for k, v := range base.Vertices {
			b.positions[v] = base.Deltas[k].Add(b.scratch[v])
		}
	}

	for i := range b.states {
		b.states[i].previous = b.states[i].current
	}
	b.dirty = true
	b.blendCount++
}

// Positions returns the working vertex buffer. It is owned by the blender
// and rewritten by Update.
func (b *Blender) Positions() []math.Vec3 {
	return b.positions
}

// Dirty reports whether the buffer changed since the last ClearDirty.
func (b *Blender) Dirty() bool {
	return b.dirty
}

// ClearDirty marks the buffer as consumed, typically after an upload.
func (b *Blender) ClearDirty() {
	b.dirty = false
}

// BlendCount returns how many times the buffer has been recomputed.
func (b *Blender) BlendCount() int {
	return b.blendCount
}

// MorphIndex looks a morph up by name.
func (b *Blender) MorphIndex(name string) (int, bool) {
	for i, t := range b.targets {
		if t.Name == name {
			return i, true
		}
	}
	return 0, false
}
