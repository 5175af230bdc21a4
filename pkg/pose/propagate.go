package pose

// propagate recomputes every world transform from the local transforms.
func (p *Instance) propagate() {
	for _, i := range p.rig.Order() {
		p.propagateBone(i)
	}
}

// propagateSubtree recomputes the world transforms of bone i and its
// descendants. Ancestors must already be up to date.
func (p *Instance) propagateSubtree(i int) {
	for _, j := range p.rig.Subtree(i) {
		p.propagateBone(j)
	}
}

func (p *Instance) propagateBone(i int) {
	b := &p.bones[i]
	if parent := p.rig.Bone(i).Parent; parent >= 0 {
		b.World = p.bones[parent].World.Mul(b.Local)
		return
	}
	b.World = b.Local
}

func (p *Instance) computeSkinning() {
	for i := range p.bones {
		p.bones[i].Skinning = p.bones[i].World.Mul(p.rig.InverseRestWorld(i))
	}
}
