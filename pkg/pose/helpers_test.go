package pose

import (
	"fmt"
	gomath "math"
	"testing"

	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/motion"
	"github.com/Faultbox/posekit/pkg/rig"
)

const eps = 1e-4

var (
	axisX = math.Vec3{X: 1}
	axisZ = math.Vec3{Z: 1}
)

func bone(i, parent int, offset math.Vec3) rig.BoneDefinition {
	return rig.BoneDefinition{
		Index:                  i,
		Name:                   fmt.Sprintf("b%d", i),
		Parent:                 parent,
		RestOffset:             offset,
		InheritRotationFrom:    rig.NoBone,
		InheritTranslationFrom: rig.NoBone,
	}
}

func chain(n int, step math.Vec3) []rig.BoneDefinition {
	bones := make([]rig.BoneDefinition, n)
	for i := range bones {
		parent := i - 1
		if i == 0 {
			parent = rig.NoBone
		}
		bones[i] = bone(i, parent, step)
	}
	return bones
}

func newRig(t *testing.T, def rig.Definition) *rig.Rig {
	t.Helper()
	r, err := rig.New(def)
	if err != nil {
		t.Fatalf("rig.New: %v", err)
	}
	return r
}

func rotZ(deg float64) math.Quat {
	return math.QuatFromAxisAngle(axisZ, float32(deg*gomath.Pi/180))
}

func rotX(deg float64) math.Quat {
	return math.QuatFromAxisAngle(axisX, float32(deg*gomath.Pi/180))
}

// poseKey is a single bone key at frame.
type poseKey struct {
	bone  string
	frame int
	value math.Transform
}

func newMotion(t *testing.T, keys ...poseKey) *motion.Motion {
	t.Helper()
	m := motion.NewMotion("test")
	for _, k := range keys {
		m.BoneTrack(k.bone).Insert(motion.BoneKeyframe{
			Frame: k.frame,
			Value: k.value,
			Ease:  motion.LinearEases(),
		})
	}
	if err := m.FinalizeOrder(); err != nil {
		t.Fatalf("FinalizeOrder: %v", err)
	}
	return m
}

func rotKey(bone string, q math.Quat) poseKey {
	return poseKey{bone: bone, value: math.Transform{Rotation: q}}
}

func moveKey(bone string, frame int, v math.Vec3) poseKey {
	return poseKey{bone: bone, frame: frame, value: math.TranslationTransform(v)}
}

func bind(t *testing.T, p *Instance, m *motion.Motion) {
	t.Helper()
	if err := p.SetMotion(m); err != nil {
		t.Fatalf("SetMotion: %v", err)
	}
}
