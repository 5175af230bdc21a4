package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 20, 30}

	if got := a.Lerp(b, 0.5); !got.ApproxEqual(Vec3{5, 10, 15}, 0.001) {
		t.Errorf("Vec3.Lerp() = %v, want (5,10,15)", got)
	}
	if got := a.LerpPerAxis(b, 0, 0.5, 1); !got.ApproxEqual(Vec3{0, 10, 30}, 0.001) {
		t.Errorf("Vec3.LerpPerAxis() = %v, want (0,10,30)", got)
	}
}

func TestVec2Clamp01(t *testing.T) {
	got := Vec2{-0.5, 1.5}.Clamp01()
	want := Vec2{0, 1}
	if got != want {
		t.Errorf("Vec2.Clamp01() = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		x, want float32
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.x, 0, 1); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
