package motion

import "github.com/Faultbox/posekit/pkg/math"

// Ease component indices of a bone keyframe.
const (
	EaseX = iota
	EaseY
	EaseZ
	EaseRotation
)

// Ease component indices of a camera keyframe.
const (
	EaseCameraPosition = iota
	EaseCameraAngles
	EaseCameraDistance
	EaseCameraFOV
)

// BoneTrack carries a bone's keyed offset from its rest pose: translation
// is added to the rest offset and rotation replaces the rest orientation.
type BoneTrack = Track[math.Transform]

// ScalarTrack carries a single eased value such as a morph weight.
type ScalarTrack = Track[float32]

// CameraTrack carries camera poses.
type CameraTrack = Track[CameraPose]

// BoneKeyframe is a keyframe of a BoneTrack.
type BoneKeyframe = Keyframe[math.Transform]

// ScalarKeyframe is a keyframe of a ScalarTrack.
type ScalarKeyframe = Keyframe[float32]

// CameraKeyframe is a keyframe of a CameraTrack.
type CameraKeyframe = Keyframe[CameraPose]

// NewBoneTrack creates a track eased per translation axis and for rotation.
func NewBoneTrack() *BoneTrack {
	return NewTrack[math.Transform](4, blendBone)
}

// NewScalarTrack creates a single-component track.
func NewScalarTrack() *ScalarTrack {
	return NewTrack[float32](1, blendScalar)
}

// NewCameraTrack creates a camera track.
func NewCameraTrack() *CameraTrack {
	return NewTrack[CameraPose](4, blendCamera)
}

// LinearEases returns ease coefficients that interpolate every component linearly.
func LinearEases() [MaxComponents]math.Vec4 {
	return [MaxComponents]math.Vec4{LinearEase, LinearEase, LinearEase, LinearEase}
}

func blendBone(a, b math.Transform, eased [MaxComponents]float32) math.Transform {
	return math.Transform{
		Rotation:    a.Rotation.Slerp(b.Rotation, eased[EaseRotation]).Normalize(),
		Translation: a.Translation.LerpPerAxis(b.Translation, eased[EaseX], eased[EaseY], eased[EaseZ]),
	}
}

func blendScalar(a, b float32, eased [MaxComponents]float32) float32 {
	return a + eased[0]*(b-a)
}

// CameraPose orbits a look-at point: the eye sits Distance away from LookAt
// along the direction given by Angles (pitch, yaw, roll in radians).
type CameraPose struct {
	LookAt   math.Vec3
	Angles   math.Vec3
	Distance float32
	FOV      float32 // vertical, radians
}

func blendCamera(a, b CameraPose, eased [MaxComponents]float32) CameraPose {
	return CameraPose{
		LookAt:   a.LookAt.Lerp(b.LookAt, eased[EaseCameraPosition]),
		Angles:   a.Angles.Lerp(b.Angles, eased[EaseCameraAngles]),
		Distance: a.Distance + eased[EaseCameraDistance]*(b.Distance-a.Distance),
		FOV:      a.FOV + eased[EaseCameraFOV]*(b.FOV-a.FOV),
	}
}

// Eye returns the camera position.
func (c CameraPose) Eye() math.Vec3 {
	m := math.RotateY(c.Angles.Y).Mul(math.RotateX(c.Angles.X))
	return c.LookAt.Add(m.TransformDirection(math.Vec3{Z: c.Distance}))
}

// ViewMatrix returns the view matrix looking from Eye to LookAt.
func (c CameraPose) ViewMatrix() math.Mat4 {
	up := math.RotateZ(c.Angles.Z).TransformDirection(math.Vec3{Y: 1})
	return math.LookAt(c.Eye(), c.LookAt, up)
}

// World returns the camera-to-world matrix, the inverse of ViewMatrix.
func (c CameraPose) World() math.Mat4 {
	return c.ViewMatrix().Inverse()
}

// Projection returns a perspective matrix for the pose's field of view.
func (c CameraPose) Projection(aspect, near, far float32) math.Mat4 {
	return math.Perspective(c.FOV, aspect, near, far)
}
