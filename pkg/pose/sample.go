package pose

import (
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/posekit/pkg/math"
)

// sample fills p.sampled with the keyed transform of every bone at frame f
// and resets each bone's local transform to rest offset plus keyed pose.
func (p *Instance) sample(f float32) {
	n := len(p.bones)
	if p.sampleLimit < 2 || n < p.sampleMinBones {
		p.sampleRange(f, 0, n)
		return
	}

	chunk := (n + p.sampleLimit - 1) / p.sampleLimit
	var g errgroup.Group
	g.SetLimit(p.sampleLimit)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			p.sampleRange(f, lo, hi)
			return nil
		})
	}
	// Sampling cannot fail; the group is only a bounded barrier.
	_ = g.Wait()
}

func (p *Instance) sampleRange(f float32, lo, hi int) {
	for i := lo; i < hi; i++ {
		keyed := math.TransformIdentity()
		if tr := p.tracks[i]; tr != nil && tr.Len() > 0 {
			keyed = tr.Interpolate(f)
		}
		if p.fade != nil {
			keyed = blendTransform(p.fade.from[i], keyed, p.fade.weight)
		}
		p.sampled[i] = keyed

		b := &p.bones[i]
		b.Local = math.Transform{
			Rotation:    keyed.Rotation,
			Translation: p.rig.Bone(i).RestOffset.Add(keyed.Translation),
		}
		b.InheritedRotation = math.QuatIdentity()
		b.InheritedTranslation = math.Vec3{}
	}
}

func blendTransform(a, b math.Transform, t float32) math.Transform {
	return math.Transform{
		Rotation:    a.Rotation.Slerp(b.Rotation, t).Normalize(),
		Translation: a.Translation.Lerp(b.Translation, t),
	}
}
