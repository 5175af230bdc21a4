package pose

import (
	gomath "math"

	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/rig"
)

const (
	// minIKSine skips links whose effector and goal directions are
	// already aligned.
	minIKSine = 1e-3
	// minIKLength treats shorter link-space vectors as zero.
	minIKLength = 1e-6
)

func (p *Instance) solveIK() {
	for _, c := range p.rig.IKChains() {
		p.solveChain(c)
	}
}

func (p *Instance) solveChain(c rig.IKChain) {
	goal := p.bones[c.TargetBone].World.Translation

	for it := 0; it < c.Iterations; it++ {
		if p.ikPolicy == IKTolerance {
			if p.bones[c.EffectorBone].World.Translation.Distance(goal) <= p.ikTolerance {
				return
			}
		}
		p.stats.IKIterations++
		for _, link := range c.Links {
			p.rotateLink(link, c.EffectorBone, goal)
		}
	}
}

// rotateLink turns one link so the effector swings toward goal, then
// refreshes the link's subtree.
func (p *Instance) rotateLink(link rig.IKLink, effector int, goal math.Vec3) {
	b := &p.bones[link.Bone]
	inv := b.World.Inverse()
	e := inv.TransformPoint(p.bones[effector].World.Translation)
	t := inv.TransformPoint(goal)

	el, tl := e.Length(), t.Length()
	if el < minIKLength || tl < minIKLength {
		p.stats.IKSkippedLinks++
		return
	}

	axis := e.Cross(t)
	sin := axis.Length() / (el * tl)
	if sin < minIKSine {
		return
	}

	theta := float32(gomath.Asin(float64(min(sin, 1))))
	if e.Dot(t) < 0 {
		theta = gomath.Pi - theta
	}
	if link.AngleLimit != rig.NoAngleLimit && theta > link.AngleLimit {
		theta = link.AngleLimit
	}

	b.Local.Rotation = b.Local.Rotation.Mul(math.QuatFromAxisAngle(axis.Normalize(), theta)).Normalize()
	p.propagateSubtree(link.Bone)
}
