// Package pose evaluates a rig's pose for a frame: it samples bound bone
// tracks, resolves inherited transforms, propagates world transforms down
// the hierarchy, runs CCD IK and produces skinning transforms.
//
// An Instance is not safe for concurrent use. Instances sharing a Rig are
// independent and may be updated in parallel.
package pose

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/morph"
	"github.com/Faultbox/posekit/pkg/motion"
	"github.com/Faultbox/posekit/pkg/rig"
)

// BoneState is the per-instance state of one bone.
type BoneState struct {
	Local    math.Transform
	World    math.Transform
	Skinning math.Transform

	// Contributions received from inherit sources this frame.
	InheritedRotation    math.Quat
	InheritedTranslation math.Vec3
}

// Stats counts solver events since the instance was created.
type Stats struct {
	Updates        int
	IKIterations   int
	IKSkippedLinks int
}

// Instance is the mutable pose of one character built on a shared Rig.
type Instance struct {
	rig    *rig.Rig
	bones  []BoneState
	motion *motion.Motion
	tracks []*motion.BoneTrack

	// sampled holds the keyed transform of every bone for the current frame.
	sampled []math.Transform
	fade    *crossFade

	morphs  *morph.Blender
	physics PhysicsHandoff
	log     *zap.Logger

	ikPolicy    IKPolicy
	ikTolerance float32

	sampleLimit    int
	sampleMinBones int

	stats Stats
}

// New creates an instance of r in its rest pose.
func New(r *rig.Rig, opts ...Option) *Instance {
	n := r.BoneCount()
	p := &Instance{
		rig:     r,
		bones:   make([]BoneState, n),
		tracks:  make([]*motion.BoneTrack, n),
		sampled: make([]math.Transform, n),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ResetPose()
	return p
}

// Rig returns the shared rig.
func (p *Instance) Rig() *rig.Rig {
	return p.rig
}

// Motion returns the bound motion, or nil.
func (p *Instance) Motion() *motion.Motion {
	return p.motion
}

// Morphs returns the attached morph blender, or nil.
func (p *Instance) Morphs() *morph.Blender {
	return p.morphs
}

// Stats returns a snapshot of the solver counters.
func (p *Instance) Stats() Stats {
	return p.stats
}

// SetMotion binds m's tracks to bones and morphs by name. Track names
// matching nothing in the rig are logged and ignored. A nil motion unbinds
// everything. Every track must have been finalized; otherwise an error is
// returned and the current bindings are kept.
func (p *Instance) SetMotion(m *motion.Motion) error {
	if m != nil {
		for name, tr := range m.Bones {
			if !tr.Sorted() {
				return fmt.Errorf("bone %q: %w", name, motion.ErrUnsortedTrack)
			}
		}
		for name, tr := range m.Morphs {
			if !tr.Sorted() {
				return fmt.Errorf("morph %q: %w", name, motion.ErrUnsortedTrack)
			}
		}
	}

	if p.morphs != nil {
		unmatched, err := p.morphs.Bind(m)
		if err != nil {
			return err
		}
		for _, name := range unmatched {
			p.log.Warn("morph track has no matching morph",
				zap.String("motion", m.Name), zap.String("morph", name))
		}
	}

	clear(p.tracks)
	p.motion = m
	if m == nil {
		return nil
	}

	for name, tr := range m.Bones {
		i, ok := p.rig.BoneIndex(name)
		if !ok {
			p.log.Warn("bone track has no matching bone",
				zap.String("motion", m.Name), zap.String("bone", name))
			continue
		}
		p.tracks[i] = tr
	}
	return nil
}

// UpdatePose evaluates the pose at frame time f.
func (p *Instance) UpdatePose(f float32) {
	p.sample(f)
	p.resolveInherit()
	p.propagate()
	p.solveIK()
	if p.physics != nil {
		p.physics.Handoff(p)
	}
	p.computeSkinning()
	p.stats.Updates++
}

// UpdateMorphs evaluates morph weights at frame time f and reblends the
// vertex buffer if needed. It does nothing without a morph blender.
func (p *Instance) UpdateMorphs(f float32) {
	if p.morphs != nil {
		p.morphs.Update(f)
	}
}

// ResetPose puts every bone back in its rest pose.
func (p *Instance) ResetPose() {
	for i := range p.bones {
		p.sampled[i] = math.TransformIdentity()
		p.bones[i] = BoneState{
			Local:             math.TranslationTransform(p.rig.Bone(i).RestOffset),
			InheritedRotation: math.QuatIdentity(),
		}
	}
	p.propagate()
	p.computeSkinning()
}

// LocalPose returns bone i's transform relative to its parent.
func (p *Instance) LocalPose(i int) math.Transform {
	return p.bones[i].Local
}

// WorldPose returns bone i's model-space transform.
func (p *Instance) WorldPose(i int) math.Transform {
	return p.bones[i].World
}

// SetWorldPose overwrites bone i's model-space transform and its skinning
// transform. Descendants are not updated.
func (p *Instance) SetWorldPose(i int, w math.Transform) {
	p.bones[i].World = w
	p.bones[i].Skinning = w.Mul(p.rig.InverseRestWorld(i))
}

// SkinningTransform returns the transform that maps bone i's rest-pose
// vertices to their posed positions.
func (p *Instance) SkinningTransform(i int) math.Transform {
	return p.bones[i].Skinning
}

// BoneState returns a copy of bone i's full state.
func (p *Instance) BoneState(i int) BoneState {
	return p.bones[i]
}

// SkinningMatrices appends the column-major skinning matrix of every bone
// to dst[:0] and returns it.
func (p *Instance) SkinningMatrices(dst []math.Mat4) []math.Mat4 {
	dst = dst[:0]
	for i := range p.bones {
		dst = append(dst, p.bones[i].Skinning.ToMat4())
	}
	return dst
}
