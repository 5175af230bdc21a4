package math

// Transform is a rigid transform: a rotation followed by a translation.
// It carries no scale or shear, so its inverse is cheap and exact.
type Transform struct {
	Rotation    Quat
	Translation Vec3
}

// TransformIdentity returns the identity transform.
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity()}
}

// TranslationTransform returns a pure translation.
func TranslationTransform(v Vec3) Transform {
	return Transform{Rotation: QuatIdentity(), Translation: v}
}

// Mul composes two transforms: a.Mul(b) applies b first, then a.
func (a Transform) Mul(b Transform) Transform {
	return Transform{
		Rotation:    a.Rotation.Mul(b.Rotation).Normalize(),
		Translation: a.Translation.Add(a.Rotation.RotateVec3(b.Translation)),
	}
}

// Inverse returns the transform that undoes a.
func (a Transform) Inverse() Transform {
	inv := a.Rotation.Conjugate()
	return Transform{
		Rotation:    inv,
		Translation: inv.RotateVec3(a.Translation).Negate(),
	}
}

// TransformPoint maps a point through the transform.
func (a Transform) TransformPoint(p Vec3) Vec3 {
	return a.Translation.Add(a.Rotation.RotateVec3(p))
}

// TransformDirection rotates a direction; translation is ignored.
func (a Transform) TransformDirection(d Vec3) Vec3 {
	return a.Rotation.RotateVec3(d)
}

// ToMat4 returns the column-major matrix form.
func (a Transform) ToMat4() Mat4 {
	m := a.Rotation.ToMat4()
	m[12] = a.Translation.X
	m[13] = a.Translation.Y
	m[14] = a.Translation.Z
	return m
}

// ApproxEqual compares rotation and translation within eps.
func (a Transform) ApproxEqual(b Transform, eps float32) bool {
	return a.Rotation.ApproxEqual(b.Rotation, eps) && a.Translation.ApproxEqual(b.Translation, eps)
}
