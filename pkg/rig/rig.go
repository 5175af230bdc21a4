package rig

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/Faultbox/posekit/pkg/encoding"
	"github.com/Faultbox/posekit/pkg/math"
)

// Rig is a validated, immutable rig definition.
type Rig struct {
	name        string
	bones       []BoneDefinition
	ikChains    []IKChain
	morphs      []MorphTarget
	vertexCount int

	byName           map[string]int
	order            []int
	children         [][]int
	subtrees         [][]int
	restWorld        []math.Transform
	inverseRestWorld []math.Transform
}

// New validates def and builds a Rig. Bone and morph names are normalized
// the same way motion track names are. Every structural problem is
// reported; the returned error wraps ErrDanglingBoneReference and/or
// ErrMalformedRig.
func New(def Definition) (*Rig, error) {
	r := &Rig{
		name:        def.Name,
		bones:       slices.Clone(def.Bones),
		ikChains:    cloneChains(def.IKChains),
		morphs:      cloneMorphs(def.Morphs),
		vertexCount: def.VertexCount,
	}
	for i := range r.bones {
		r.bones[i].Name = encoding.NormalizeName(r.bones[i].Name)
	}
	for i := range r.morphs {
		r.morphs[i].Name = encoding.NormalizeName(r.morphs[i].Name)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := r.buildOrder(); err != nil {
		return nil, err
	}
	r.buildSubtrees()
	r.buildRestPose()
	return r, nil
}

// MustNew is New for statically known rigs. It panics on error.
func MustNew(def Definition) *Rig {
	r, err := New(def)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rig) validate() error {
	var err error
	n := len(r.bones)
	inRange := func(i int) bool { return i < n }

	r.byName = make(map[string]int, n)
	for i, b := range r.bones {
		if b.Index != i {
			err = multierr.Append(err, fmt.Errorf("%w: bone %d declares index %d", ErrDanglingBoneReference, i, b.Index))
		}
		if b.HasParent() && !inRange(b.Parent) {
			err = multierr.Append(err, fmt.Errorf("%w: bone %d parent %d", ErrDanglingBoneReference, i, b.Parent))
		}
		if b.InheritsRotation() && !inRange(b.InheritRotationFrom) {
			err = multierr.Append(err, fmt.Errorf("%w: bone %d inherits rotation from %d", ErrDanglingBoneReference, i, b.InheritRotationFrom))
		}
		if b.InheritsTranslation() && !inRange(b.InheritTranslationFrom) {
			err = multierr.Append(err, fmt.Errorf("%w: bone %d inherits translation from %d", ErrDanglingBoneReference, i, b.InheritTranslationFrom))
		}
		if b.Name == "" {
			continue
		}
		if prev, dup := r.byName[b.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("%w: bones %d and %d are both named %q", ErrMalformedRig, prev, i, b.Name))
			continue
		}
		r.byName[b.Name] = i
	}

	for ci, c := range r.ikChains {
		if c.TargetBone < 0 || !inRange(c.TargetBone) {
			err = multierr.Append(err, fmt.Errorf("%w: ik chain %d target %d", ErrDanglingBoneReference, ci, c.TargetBone))
		}
		if c.EffectorBone < 0 || !inRange(c.EffectorBone) {
			err = multierr.Append(err, fmt.Errorf("%w: ik chain %d effector %d", ErrDanglingBoneReference, ci, c.EffectorBone))
		}
		if len(c.Links) == 0 {
			err = multierr.Append(err, fmt.Errorf("%w: ik chain %d has no links", ErrMalformedRig, ci))
		}
		if c.Iterations < 1 {
			err = multierr.Append(err, fmt.Errorf("%w: ik chain %d iteration count %d", ErrMalformedRig, ci, c.Iterations))
		}
		for li, l := range c.Links {
			if l.Bone < 0 || !inRange(l.Bone) {
				err = multierr.Append(err, fmt.Errorf("%w: ik chain %d link %d bone %d", ErrDanglingBoneReference, ci, li, l.Bone))
			}
			if l.AngleLimit < 0 && l.AngleLimit != NoAngleLimit {
				err = multierr.Append(err, fmt.Errorf("%w: ik chain %d link %d negative angle limit", ErrMalformedRig, ci, li))
			}
		}
	}

	return multierr.Append(err, r.validateMorphs())
}

func (r *Rig) validateMorphs() error {
	var err error
	var base map[int]bool
	for mi, m := range r.morphs {
		if len(m.Vertices) != len(m.Deltas) {
			err = multierr.Append(err, fmt.Errorf("%w: morph %d has %d vertices and %d deltas", ErrMalformedRig, mi, len(m.Vertices), len(m.Deltas)))
			continue
		}
		for _, v := range m.Vertices {
			if v < 0 || v >= r.vertexCount {
				err = multierr.Append(err, fmt.Errorf("%w: morph %d vertex %d outside [0,%d)", ErrMalformedRig, mi, v, r.vertexCount))
				break
			}
		}
		if mi == 0 {
			base = make(map[int]bool, len(m.Vertices))
			for _, v := range m.Vertices {
				base[v] = true
			}
			continue
		}
		for _, v := range m.Vertices {
			if !base[v] {
				err = multierr.Append(err, fmt.Errorf("%w: morph %d vertex %d missing from base morph", ErrMalformedRig, mi, v))
				break
			}
		}
	}
	return err
}

// buildOrder computes a traversal order in which every bone follows its
// parent and the bones it inherits from. Ties go to the lowest index, so
// input that is already parent-before-child keeps array order.
func (r *Rig) buildOrder() error {
	n := len(r.bones)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	r.children = make([][]int, n)

	addEdge := func(from, to int) {
		dependents[from] = append(dependents[from], to)
		indegree[to]++
	}
	for i, b := range r.bones {
		if b.HasParent() {
			addEdge(b.Parent, i)
			r.children[b.Parent] = append(r.children[b.Parent], i)
		}
		if b.InheritsRotation() {
			addEdge(b.InheritRotationFrom, i)
		}
		if b.InheritsTranslation() && b.InheritTranslationFrom != b.InheritRotationFrom {
			addEdge(b.InheritTranslationFrom, i)
		}
	}

	ready := &indexHeap{}
	for i := range n {
		if indegree[i] == 0 {
			ready.push(i)
		}
	}
	r.order = make([]int, 0, n)
	for ready.len() > 0 {
		i := ready.pop()
		r.order = append(r.order, i)
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				ready.push(d)
			}
		}
	}

	if len(r.order) == n {
		return nil
	}
	var cyclic []int
	for i := range n {
		if indegree[i] > 0 {
			cyclic = append(cyclic, i)
		}
	}
	return fmt.Errorf("%w: dependency cycle through bones %v", ErrMalformedRig, cyclic)
}

func (r *Rig) buildSubtrees() {
	n := len(r.bones)
	pos := make([]int, n)
	for p, i := range r.order {
		pos[i] = p
	}

	r.subtrees = make([][]int, n)
	var stack []int
	for i := range n {
		sub := []int{i}
		stack = append(stack[:0], r.children[i]...)
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sub = append(sub, c)
			stack = append(stack, r.children[c]...)
		}
		slices.SortFunc(sub, func(a, b int) int { return pos[a] - pos[b] })
		r.subtrees[i] = sub
	}
}

func (r *Rig) buildRestPose() {
	n := len(r.bones)
	r.restWorld = make([]math.Transform, n)
	r.inverseRestWorld = make([]math.Transform, n)
	for _, i := range r.order {
		b := r.bones[i]
		local := math.TranslationTransform(b.RestOffset)
		if b.HasParent() {
			r.restWorld[i] = r.restWorld[b.Parent].Mul(local)
		} else {
			r.restWorld[i] = local
		}
		r.inverseRestWorld[i] = r.restWorld[i].Inverse()
	}
}

// Name returns the rig name.
func (r *Rig) Name() string { return r.name }

// BoneCount returns the number of bones.
func (r *Rig) BoneCount() int { return len(r.bones) }

// Bone returns the definition of bone i.
func (r *Rig) Bone(i int) BoneDefinition { return r.bones[i] }

// Bones returns a copy of all bone definitions.
func (r *Rig) Bones() []BoneDefinition { return slices.Clone(r.bones) }

// BoneIndex looks a bone up by name.
func (r *Rig) BoneIndex(name string) (int, bool) {
	i, ok := r.byName[encoding.NormalizeName(name)]
	return i, ok
}

// IKChains returns the IK chains in evaluation order. The slice must not be modified.
func (r *Rig) IKChains() []IKChain { return r.ikChains }

// Morphs returns the morph targets, base first. The slice must not be modified.
func (r *Rig) Morphs() []MorphTarget { return r.morphs }

// VertexCount returns the number of mesh vertices morphs may address.
func (r *Rig) VertexCount() int { return r.vertexCount }

// Order returns the bone traversal order. The slice must not be modified.
func (r *Rig) Order() []int { return r.order }

// Children returns the direct children of bone i. The slice must not be modified.
func (r *Rig) Children(i int) []int { return r.children[i] }

// Subtree returns bone i followed by all its descendants in traversal
// order. The slice must not be modified.
func (r *Rig) Subtree(i int) []int { return r.subtrees[i] }

// RestWorld returns the rest-pose world transform of bone i.
func (r *Rig) RestWorld(i int) math.Transform { return r.restWorld[i] }

// InverseRestWorld returns the inverse of RestWorld(i).
func (r *Rig) InverseRestWorld(i int) math.Transform { return r.inverseRestWorld[i] }

func cloneChains(chains []IKChain) []IKChain {
	out := slices.Clone(chains)
	for i := range out {
		out[i].Links = slices.Clone(out[i].Links)
	}
	return out
}

func cloneMorphs(morphs []MorphTarget) []MorphTarget {
	out := slices.Clone(morphs)
	for i := range out {
		out[i].Vertices = slices.Clone(out[i].Vertices)
		out[i].Deltas = slices.Clone(out[i].Deltas)
	}
	return out
}
