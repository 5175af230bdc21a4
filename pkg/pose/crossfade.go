package pose

import (
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/motion"
)

type crossFade struct {
	from   []math.Transform
	tween  *gween.Tween
	weight float32
}

// CrossFade binds m and blends from the pose sampled by the last
// UpdatePose to m over duration seconds of Advance time, shaped by fn
// (linear when nil). A non-positive duration switches immediately.
func (p *Instance) CrossFade(m *motion.Motion, duration float32, fn ease.TweenFunc) error {
	from := slices.Clone(p.sampled)
	if err := p.SetMotion(m); err != nil {
		return err
	}
	if duration <= 0 {
		p.fade = nil
		return nil
	}
	if fn == nil {
		fn = ease.Linear
	}
	p.fade = &crossFade{
		from:  from,
		tween: gween.New(0, 1, duration, fn),
	}
	p.log.Debug("crossfade started", zap.String("motion", motionName(m)), zap.Float32("duration", duration))
	return nil
}

// Fading reports whether a crossfade is in progress.
func (p *Instance) Fading() bool {
	return p.fade != nil
}

// Advance moves the crossfade forward by dt seconds.
func (p *Instance) Advance(dt float32) {
	if p.fade == nil {
		return
	}
	w, done := p.fade.tween.Update(dt)
	p.fade.weight = w
	if done {
		p.fade = nil
		p.log.Debug("crossfade finished", zap.String("motion", motionName(p.motion)))
	}
}

func motionName(m *motion.Motion) string {
	if m == nil {
		return ""
	}
	return m.Name
}
