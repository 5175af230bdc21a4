package rig

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/posekit/pkg/math"
)

func bone(i, parent int, offset math.Vec3) BoneDefinition {
	return BoneDefinition{
		Index:                  i,
		Parent:                 parent,
		RestOffset:             offset,
		InheritRotationFrom:    NoBone,
		InheritTranslationFrom: NoBone,
	}
}

func chain(n int, step math.Vec3) []BoneDefinition {
	bones := make([]BoneDefinition, n)
	for i := range bones {
		parent := i - 1
		if i == 0 {
			parent = NoBone
		}
		bones[i] = bone(i, parent, step)
	}
	return bones
}

func TestNewValidRig(t *testing.T) {
	r, err := New(Definition{Name: "chain", Bones: chain(4, math.Vec3{Y: 1})})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.BoneCount() != 4 {
		t.Errorf("BoneCount = %d, want 4", r.BoneCount())
	}
	if got := r.Order(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Order = %v, want array order", got)
	}
}

func TestRestWorldAccumulatesOffsets(t *testing.T) {
	step := math.Vec3{X: 0.5, Y: 1}
	r := MustNew(Definition{Bones: chain(5, step)})

	for i := 0; i < 5; i++ {
		want := step.Scale(float32(i + 1))
		if got := r.RestWorld(i).Translation; !got.ApproxEqual(want, 1e-5) {
			t.Errorf("RestWorld(%d) = %v, want %v", i, got, want)
		}
		if got := r.RestWorld(i).Mul(r.InverseRestWorld(i)); !got.ApproxEqual(math.TransformIdentity(), 1e-5) {
			t.Errorf("RestWorld * InverseRestWorld(%d) = %+v, want identity", i, got)
		}
	}
}

func TestOrderSortsChildBeforeParent(t *testing.T) {
	// Bone 0 is the child of bone 2, and bone 1 inherits from bone 0.
	bones := []BoneDefinition{
		bone(0, 2, math.Vec3{}),
		bone(1, NoBone, math.Vec3{}),
		bone(2, NoBone, math.Vec3{}),
	}
	bones[1].InheritRotationFrom = 0

	r, err := New(Definition{Bones: bones})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := r.Order(), []int{2, 0, 1}; !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
}

func TestSubtree(t *testing.T) {
	//     0
	//    / \
	//   1   3
	//   |
	//   2
	bones := []BoneDefinition{
		bone(0, NoBone, math.Vec3{}),
		bone(1, 0, math.Vec3{}),
		bone(2, 1, math.Vec3{}),
		bone(3, 0, math.Vec3{}),
	}
	r := MustNew(Definition{Bones: bones})

	tests := []struct {
		root int
		want []int
	}{
		{0, []int{0, 1, 2, 3}},
		{1, []int{1, 2}},
		{2, []int{2}},
		{3, []int{3}},
	}
	for _, tt := range tests {
		if got := r.Subtree(tt.root); !slices.Equal(got, tt.want) {
			t.Errorf("Subtree(%d) = %v, want %v", tt.root, got, tt.want)
		}
	}
	if got := r.Children(0); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("Children(0) = %v, want [1 3]", got)
	}
}

func TestNewRejectsStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		def  func() Definition
		want error
	}{
		{
			name: "parent out of range",
			def: func() Definition {
				return Definition{Bones: []BoneDefinition{bone(0, 5, math.Vec3{})}}
			},
			want: ErrDanglingBoneReference,
		},
		{
			name: "inherit source out of range",
			def: func() Definition {
				b := chain(2, math.Vec3{})
				b[1].InheritTranslationFrom = 9
				return Definition{Bones: b}
			},
			want: ErrDanglingBoneReference,
		},
		{
			name: "index mismatch",
			def: func() Definition {
				b := chain(2, math.Vec3{})
				b[1].Index = 7
				return Definition{Bones: b}
			},
			want: ErrDanglingBoneReference,
		},
		{
			name: "self parent",
			def: func() Definition {
				return Definition{Bones: []BoneDefinition{bone(0, 0, math.Vec3{})}}
			},
			want: ErrMalformedRig,
		},
		{
			name: "inherit cycle",
			def: func() Definition {
				b := chain(3, math.Vec3{})
				b[1].InheritRotationFrom = 2
				return Definition{Bones: b}
			},
			want: ErrMalformedRig,
		},
		{
			name: "ik link out of range",
			def: func() Definition {
				return Definition{
					Bones:    chain(2, math.Vec3{}),
					IKChains: []IKChain{{TargetBone: 0, EffectorBone: 1, Iterations: 1, Links: []IKLink{{Bone: 4}}}},
				}
			},
			want: ErrDanglingBoneReference,
		},
		{
			name: "ik without iterations",
			def: func() Definition {
				return Definition{
					Bones:    chain(2, math.Vec3{}),
					IKChains: []IKChain{{TargetBone: 0, EffectorBone: 1, Links: []IKLink{{Bone: 0}}}},
				}
			},
			want: ErrMalformedRig,
		},
		{
			name: "negative angle limit",
			def: func() Definition {
				return Definition{
					Bones:    chain(2, math.Vec3{}),
					IKChains: []IKChain{{TargetBone: 0, EffectorBone: 1, Iterations: 1, Links: []IKLink{{Bone: 0, AngleLimit: -0.5}}}},
				}
			},
			want: ErrMalformedRig,
		},
		{
			name: "morph length mismatch",
			def: func() Definition {
				return Definition{
					Bones:       chain(1, math.Vec3{}),
					VertexCount: 3,
					Morphs:      []MorphTarget{{Name: "base", Vertices: []int{0, 1}, Deltas: []math.Vec3{{}}}},
				}
			},
			want: ErrMalformedRig,
		},
		{
			name: "morph vertex outside base",
			def: func() Definition {
				return Definition{
					Bones:       chain(1, math.Vec3{}),
					VertexCount: 3,
					Morphs: []MorphTarget{
						{Name: "base", Vertices: []int{0}, Deltas: []math.Vec3{{}}},
						{Name: "smile", Vertices: []int{2}, Deltas: []math.Vec3{{X: 1}}},
					},
				}
			},
			want: ErrMalformedRig,
		},
		{
			name: "duplicate names",
			def: func() Definition {
				b := chain(2, math.Vec3{})
				b[0].Name, b[1].Name = "arm", "arm"
				return Definition{Bones: b}
			},
			want: ErrMalformedRig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.def())
			if !errors.Is(err, tt.want) {
				t.Fatalf("New error = %v, want %v", err, tt.want)
			}
			if r != nil {
				t.Error("New returned a rig alongside an error")
			}
		})
	}
}

func TestNewReportsEveryProblem(t *testing.T) {
	b := chain(3, math.Vec3{})
	b[0].Parent = 10
	b[2].InheritRotationFrom = 11

	_, err := New(Definition{Bones: b})
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("got %d errors, want 2: %v", n, err)
	}
}

func TestRigIsIsolatedFromInput(t *testing.T) {
	def := Definition{Bones: chain(2, math.Vec3{X: 1})}
	r := MustNew(def)

	def.Bones[1].RestOffset = math.Vec3{X: 99}
	if got := r.Bone(1).RestOffset; got.X != 1 {
		t.Errorf("rig changed with its input: %v", got)
	}
}

func TestBoneIndex(t *testing.T) {
	b := chain(2, math.Vec3{})
	b[0].Name, b[1].Name = "センター", "上半身"
	r := MustNew(Definition{Bones: b})

	if i, ok := r.BoneIndex("上半身"); !ok || i != 1 {
		t.Errorf("BoneIndex = %d, %v; want 1, true", i, ok)
	}
	if _, ok := r.BoneIndex("missing"); ok {
		t.Error("BoneIndex found a missing bone")
	}
}

func TestNamesAreNormalized(t *testing.T) {
	b := chain(2, math.Vec3{})
	b[0].Name, b[1].Name = " センター", "上半身  "
	r := MustNew(Definition{
		Bones:       b,
		VertexCount: 1,
		Morphs:      []MorphTarget{{Name: " base ", Vertices: []int{0}, Deltas: []math.Vec3{{}}}},
	})

	if got := r.Bone(1).Name; got != "上半身" {
		t.Errorf("Bone(1).Name = %q, want %q", got, "上半身")
	}
	if got := r.Morphs()[0].Name; got != "base" {
		t.Errorf("morph name = %q, want base", got)
	}
	for _, name := range []string{"センター", " センター "} {
		if i, ok := r.BoneIndex(name); !ok || i != 0 {
			t.Errorf("BoneIndex(%q) = %d, %v; want 0, true", name, i, ok)
		}
	}

	dup := chain(2, math.Vec3{})
	dup[0].Name, dup[1].Name = "arm", "arm "
	if _, err := New(Definition{Bones: dup}); !errors.Is(err, ErrMalformedRig) {
		t.Errorf("New error = %v, want ErrMalformedRig for names equal after trimming", err)
	}
}
