package motion

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/posekit/pkg/math"
)

func scalarKey(frame int, v float32) ScalarKeyframe {
	return ScalarKeyframe{Frame: frame, Value: v, Ease: LinearEases()}
}

func newScalar(t *testing.T, keys ...ScalarKeyframe) *ScalarTrack {
	t.Helper()
	tr := NewScalarTrack()
	for _, k := range keys {
		tr.Insert(k)
	}
	if err := tr.FinalizeOrder(); err != nil {
		t.Fatalf("FinalizeOrder: %v", err)
	}
	return tr
}

func TestTrackBoundaryExactness(t *testing.T) {
	tr := newScalar(t, scalarKey(0, 1.5), scalarKey(10, -2.25), scalarKey(25, 7))

	for _, k := range tr.Keys() {
		if got := tr.Interpolate(float32(k.Frame)); got != k.Value {
			t.Errorf("Interpolate(%d) = %v, want exactly %v", k.Frame, got, k.Value)
		}
	}
}

func TestTrackClamp(t *testing.T) {
	tr := newScalar(t, scalarKey(5, 3), scalarKey(15, 9))

	tests := []struct {
		frame float32
		want  float32
	}{
		{-100, 3},
		{0, 3},
		{5, 3},
		{15, 9},
		{16, 9},
		{1e6, 9},
	}
	for _, tt := range tests {
		if got := tr.Interpolate(tt.frame); got != tt.want {
			t.Errorf("Interpolate(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestTrackLinearMidpoints(t *testing.T) {
	tr := newScalar(t, scalarKey(0, 0), scalarKey(10, 100))

	for f := float32(1); f < 10; f++ {
		got := tr.Interpolate(f)
		if gomath.Abs(float64(got-f*10)) > 0.02 {
			t.Errorf("Interpolate(%v) = %v, want ~%v", f, got, f*10)
		}
	}
}

func TestTrackSortsOnFinalize(t *testing.T) {
	tr := newScalar(t, scalarKey(20, 2), scalarKey(0, 0), scalarKey(10, 1))

	frames := []int{}
	for _, k := range tr.Keys() {
		frames = append(frames, k.Frame)
	}
	want := []int{0, 10, 20}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("frames = %v, want %v", frames, want)
		}
	}
	if got := tr.Interpolate(15); gomath.Abs(float64(got-1.5)) > 0.01 {
		t.Errorf("Interpolate(15) = %v, want ~1.5", got)
	}
}

func TestTrackDuplicateFrames(t *testing.T) {
	tr := NewScalarTrack()
	tr.Insert(scalarKey(0, 0))
	tr.Insert(scalarKey(10, 1))
	tr.Insert(scalarKey(10, 2))
	tr.Insert(scalarKey(20, 3))

	err := tr.FinalizeOrder()
	if !errors.Is(err, ErrMalformedTrack) {
		t.Fatalf("FinalizeOrder error = %v, want ErrMalformedTrack", err)
	}

	// Both keys remain and the first inserted one wins at its frame.
	if tr.Len() != 4 {
		t.Fatalf("Len = %d, want 4", tr.Len())
	}
	if got := tr.Interpolate(10); got != 1 {
		t.Errorf("Interpolate(10) = %v, want 1 (first inserted)", got)
	}
	if k := tr.Keys()[2]; k.Value != 2 {
		t.Errorf("stable sort lost insertion order: %+v", tr.Keys())
	}
}

func TestTrackInterpolateBeforeFinalizePanics(t *testing.T) {
	tr := NewScalarTrack()
	tr.Insert(scalarKey(0, 0))

	defer func() {
		r := recover()
		if err, ok := r.(error); !ok || !errors.Is(err, ErrUnsortedTrack) {
			t.Errorf("recover() = %v, want ErrUnsortedTrack", r)
		}
	}()
	tr.Interpolate(0)
}

func TestTrackEmpty(t *testing.T) {
	tr := NewScalarTrack()
	if got := tr.Interpolate(3); got != 0 {
		t.Errorf("empty track Interpolate = %v, want 0", got)
	}
}

func TestTrackUsesDestinationEase(t *testing.T) {
	easeIn := NewBezier(0.9, 0, 1, 0.1).Vec4()

	tr := NewScalarTrack()
	tr.Insert(ScalarKeyframe{Frame: 0, Value: 0, Ease: LinearEases()})
	tr.Insert(ScalarKeyframe{Frame: 10, Value: 1, Ease: [MaxComponents]math.Vec4{easeIn}})
	if err := tr.FinalizeOrder(); err != nil {
		t.Fatal(err)
	}

	if got := tr.Interpolate(5); got >= 0.5 {
		t.Errorf("Interpolate(5) = %v, want eased below 0.5", got)
	}
}

func TestBoneTrackPerComponentEase(t *testing.T) {
	hold := NewBezier(1, 0, 1, 0).Vec4() // stays near 0 until the very end
	rot := math.QuatFromAxisAngle(math.Vec3{Z: 1}, float32(gomath.Pi/2))

	tr := NewBoneTrack()
	tr.Insert(BoneKeyframe{Frame: 0, Value: math.TransformIdentity(), Ease: LinearEases()})
	tr.Insert(BoneKeyframe{
		Frame: 10,
		Value: math.Transform{Rotation: rot, Translation: math.Vec3{X: 10, Y: 10, Z: 10}},
		Ease:  [MaxComponents]math.Vec4{LinearEase, hold, LinearEase, LinearEase},
	})
	if err := tr.FinalizeOrder(); err != nil {
		t.Fatal(err)
	}

	got := tr.Interpolate(5)
	if gomath.Abs(float64(got.Translation.X-5)) > 0.01 || gomath.Abs(float64(got.Translation.Z-5)) > 0.01 {
		t.Errorf("linear axes = %v, want X,Z ~5", got.Translation)
	}
	if got.Translation.Y > 2 {
		t.Errorf("held axis Y = %v, want well below 5", got.Translation.Y)
	}
	half := math.QuatFromAxisAngle(math.Vec3{Z: 1}, float32(gomath.Pi/4))
	if !got.Rotation.ApproxEqual(half, 0.01) {
		t.Errorf("rotation = %v, want ~%v", got.Rotation, half)
	}
}

func TestCameraTrack(t *testing.T) {
	tr := NewCameraTrack()
	tr.Insert(CameraKeyframe{Frame: 0, Value: CameraPose{Distance: 10, FOV: 0.5}, Ease: LinearEases()})
	tr.Insert(CameraKeyframe{Frame: 30, Value: CameraPose{Distance: 40, FOV: 1.0, LookAt: math.Vec3{Y: 3}}, Ease: LinearEases()})
	if err := tr.FinalizeOrder(); err != nil {
		t.Fatal(err)
	}

	got := tr.Interpolate(15)
	if gomath.Abs(float64(got.Distance-25)) > 0.05 {
		t.Errorf("Distance = %v, want ~25", got.Distance)
	}
	if gomath.Abs(float64(got.FOV-0.75)) > 0.01 {
		t.Errorf("FOV = %v, want ~0.75", got.FOV)
	}
	if eye := got.Eye(); gomath.Abs(float64(eye.Distance(got.LookAt)-got.Distance)) > 0.01 {
		t.Errorf("eye %v not at distance %v from %v", eye, got.Distance, got.LookAt)
	}
	if pos := got.World().Translation(); !pos.ApproxEqual(got.Eye(), 1e-3) {
		t.Errorf("World translation = %v, want eye %v", pos, got.Eye())
	}
}
