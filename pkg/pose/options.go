package pose

import (
	"go.uber.org/zap"

	"github.com/Faultbox/posekit/pkg/morph"
)

// IKPolicy selects when a chain stops iterating.
type IKPolicy int

const (
	// IKFixedIterations always runs the chain's configured iteration count.
	IKFixedIterations IKPolicy = iota
	// IKTolerance stops early once the effector is within the tolerance
	// of the goal. The iteration count remains an upper bound.
	IKTolerance
)

// String returns the policy name used in configuration files.
func (p IKPolicy) String() string {
	switch p {
	case IKFixedIterations:
		return "fixed"
	case IKTolerance:
		return "tolerance"
	default:
		return "unknown"
	}
}

// ParseIKPolicy parses a policy name. Unknown names fall back to
// IKFixedIterations.
func ParseIKPolicy(s string) IKPolicy {
	if s == "tolerance" {
		return IKTolerance
	}
	return IKFixedIterations
}

// PhysicsHandoff is called once per UpdatePose after IK and before the
// skinning transforms are computed. Implementations typically read
// WorldPose for driven bones and write back with SetWorldPose.
type PhysicsHandoff interface {
	Handoff(inst *Instance)
}

// PhysicsFunc adapts a function to PhysicsHandoff.
type PhysicsFunc func(inst *Instance)

// Handoff calls f(inst).
func (f PhysicsFunc) Handoff(inst *Instance) { f(inst) }

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the logger for binding warnings and crossfade events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Instance) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPhysics installs a physics step run between IK and skinning.
func WithPhysics(h PhysicsHandoff) Option {
	return func(p *Instance) {
		p.physics = h
	}
}

// WithIKPolicy sets the IK termination policy. tol is the effector to
// goal distance used by IKTolerance.
func WithIKPolicy(policy IKPolicy, tol float32) Option {
	return func(p *Instance) {
		p.ikPolicy = policy
		p.ikTolerance = tol
	}
}

// WithParallelSampling samples bone tracks on up to limit goroutines when
// the rig has at least minBones bones. A limit below 2 samples serially.
func WithParallelSampling(limit, minBones int) Option {
	return func(p *Instance) {
		p.sampleLimit = limit
		p.sampleMinBones = minBones
	}
}

// WithMorphBlender attaches a morph blender. The instance binds it on
// SetMotion and drives it from UpdateMorphs.
func WithMorphBlender(b *morph.Blender) Option {
	return func(p *Instance) {
		p.morphs = b
	}
}
