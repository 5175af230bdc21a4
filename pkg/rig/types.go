// Package rig holds the static, shareable description of a character:
// bone hierarchy and rest pose, inherited-transform links, IK chains and
// morph targets. A Rig is validated once by New and is read-only after,
// so any number of pose instances may share it.
package rig

import "github.com/Faultbox/posekit/pkg/math"

// NoBone marks an absent bone reference. Any negative index means none.
const NoBone = -1

// NoAngleLimit leaves an IK link's per-iteration rotation unbounded.
const NoAngleLimit float32 = -1

// BoneDefinition is one bone of a rig.
type BoneDefinition struct {
	Index  int
	Name   string
	Parent int // NoBone for roots

	// RestOffset is the translation from the parent in the rest pose.
	RestOffset math.Vec3

	// Appendage links: the bone copies part of another bone's keyed
	// rotation and/or translation, scaled by InheritCoefficient.
	InheritRotationFrom    int
	InheritTranslationFrom int
	InheritCoefficient     float32
}

// HasParent reports whether the bone has a parent.
func (b BoneDefinition) HasParent() bool { return b.Parent >= 0 }

// InheritsRotation reports whether the bone copies another bone's rotation.
func (b BoneDefinition) InheritsRotation() bool { return b.InheritRotationFrom >= 0 }

// InheritsTranslation reports whether the bone copies another bone's translation.
func (b BoneDefinition) InheritsTranslation() bool { return b.InheritTranslationFrom >= 0 }

// IKLink is one joint of an IK chain.
type IKLink struct {
	Bone int
	// AngleLimit caps the rotation applied to this link in one iteration,
	// in radians. NoAngleLimit means unlimited; zero locks the link.
	AngleLimit float32
}

// IKChain drives EffectorBone onto the world position of TargetBone by
// rotating Links.
type IKChain struct {
	Name         string
	TargetBone   int      // fixed goal
	EffectorBone int      // chain tip, moved by the solver
	Links        []IKLink // root to tip
	Iterations   int
}

// MorphTarget is a set of per-vertex offsets blended by a weight. The
// first morph of a rig is the base: its Deltas hold absolute rest
// positions for every vertex any other morph touches.
type MorphTarget struct {
	Name     string
	Vertices []int
	Deltas   []math.Vec3
}

// Definition is the raw input to New, as produced by a rig loader.
type Definition struct {
	Name        string
	Bones       []BoneDefinition
	IKChains    []IKChain
	Morphs      []MorphTarget
	VertexCount int
}
