package pose

import (
	"github.com/Faultbox/posekit/pkg/math"
)

// unitCoefficientEps is how close to 1 a coefficient must be for the
// source rotation to be copied without a slerp.
const unitCoefficientEps = 1e-6

// resolveInherit applies appendage links in traversal order, so every
// source is resolved before the bones that read from it.
func (p *Instance) resolveInherit() {
	for _, i := range p.rig.Order() {
		def := p.rig.Bone(i)
		b := &p.bones[i]

		if def.InheritsRotation() {
			src := def.InheritRotationFrom
			q := p.sampled[src].Rotation
			if p.rig.Bone(src).InheritsRotation() {
				q = p.bones[src].InheritedRotation
			}
			if d := def.InheritCoefficient - 1; d > unitCoefficientEps || d < -unitCoefficientEps {
				q = math.QuatIdentity().Slerp(q, def.InheritCoefficient)
			}
			b.InheritedRotation = q
			b.Local.Rotation = b.Local.Rotation.Mul(q).Normalize()
		}

		if def.InheritsTranslation() {
			src := def.InheritTranslationFrom
			v := p.sampled[src].Translation
			if p.rig.Bone(src).InheritsTranslation() {
				v = p.bones[src].InheritedTranslation
			}
			v = v.Scale(def.InheritCoefficient)
			b.InheritedTranslation = v
			b.Local.Translation = b.Local.Translation.Add(v)
		}
	}
}
