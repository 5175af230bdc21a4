// Package fixture loads rigs and motions from YAML documents. Bones are
// referred to by name; the loader resolves names to indices and hands the
// result to rig.New and motion.Motion.FinalizeOrder for validation.
//
// Rotations are given either as a quaternion [x, y, z, w] or as
// axis_angle [x, y, z, degrees]. Ease curves are [x1, y1, x2, y2] in
// [0, 1]; a bone key takes up to four (X, Y, Z, rotation) and a single
// curve applies to every component.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	gomath "math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/posekit/pkg/encoding"
	"github.com/Faultbox/posekit/pkg/math"
	"github.com/Faultbox/posekit/pkg/motion"
	"github.com/Faultbox/posekit/pkg/rig"
)

// ErrEmptyDocument is returned when a document has neither a rig nor a motion.
var ErrEmptyDocument = errors.New("fixture: document has no rig or motion")

// ErrBadKey is wrapped for keyframes that cannot be decoded.
var ErrBadKey = errors.New("fixture: bad keyframe")

// Document is a loaded fixture. Either field may be nil.
type Document struct {
	Rig    *rig.Rig
	Motion *motion.Motion
}

type vec3 [3]float32

func (v vec3) toVec3() math.Vec3 { return math.Vec3{X: v[0], Y: v[1], Z: v[2]} }

type rawDocument struct {
	Rig    *rawRig    `yaml:"rig"`
	Motion *rawMotion `yaml:"motion"`
}

type rawRig struct {
	Name        string     `yaml:"name"`
	VertexCount int        `yaml:"vertex_count"`
	Bones       []rawBone  `yaml:"bones"`
	IK          []rawChain `yaml:"ik"`
	Morphs      []rawMorph `yaml:"morphs"`
}

type rawBone struct {
	Name               string   `yaml:"name"`
	Parent             string   `yaml:"parent"`
	Offset             vec3     `yaml:"offset"`
	InheritRotation    string   `yaml:"inherit_rotation"`
	InheritTranslation string   `yaml:"inherit_translation"`
	InheritCoefficient *float32 `yaml:"inherit_coefficient"`
}

type rawChain struct {
	Name       string    `yaml:"name"`
	Target     string    `yaml:"target"`
	Effector   string    `yaml:"effector"`
	Iterations int       `yaml:"iterations"`
	Links      []rawLink `yaml:"links"`
}

type rawLink struct {
	Bone  string   `yaml:"bone"`
	Limit *float32 `yaml:"limit"` // radians, absent for none
}

type rawMorph struct {
	Name     string `yaml:"name"`
	Vertices []int  `yaml:"vertices"`
	Deltas   []vec3 `yaml:"deltas"`
}

type rawMotion struct {
	Name   string                   `yaml:"name"`
	Bones  map[string][]rawBoneKey  `yaml:"bones"`
	Morphs map[string][]rawMorphKey `yaml:"morphs"`
	Camera []rawCameraKey           `yaml:"camera"`
}

type rawBoneKey struct {
	Frame       int          `yaml:"frame"`
	Translation vec3         `yaml:"translation"`
	Rotation    *[4]float32  `yaml:"rotation"`
	AxisAngle   *[4]float32  `yaml:"axis_angle"`
	Ease        [][4]float32 `yaml:"ease"`
}

type rawMorphKey struct {
	Frame  int          `yaml:"frame"`
	Weight float32      `yaml:"weight"`
	Ease   [][4]float32 `yaml:"ease"`
}

type rawCameraKey struct {
	Frame    int          `yaml:"frame"`
	LookAt   vec3         `yaml:"look_at"`
	Angles   vec3         `yaml:"angles"`
	Distance float32      `yaml:"distance"`
	FOV      float32      `yaml:"fov"`
	Ease     [][4]float32 `yaml:"ease"`
}

// Load reads and parses a fixture file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a fixture. Unknown YAML keys are errors.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	if raw.Rig == nil && raw.Motion == nil {
		return nil, ErrEmptyDocument
	}

	doc := &Document{}
	if raw.Rig != nil {
		r, err := buildRig(raw.Rig)
		if err != nil {
			return nil, err
		}
		doc.Rig = r
	}
	if raw.Motion != nil {
		m, err := buildMotion(raw.Motion)
		if err != nil {
			return nil, err
		}
		doc.Motion = m
	}
	return doc, nil
}

func buildRig(raw *rawRig) (*rig.Rig, error) {
	byName := make(map[string]int, len(raw.Bones))
	for i, b := range raw.Bones {
		name := encoding.NormalizeName(b.Name)
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	var errs error
	resolve := func(ref, what string) int {
		if ref == "" {
			return rig.NoBone
		}
		i, ok := byName[encoding.NormalizeName(ref)]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s %q", rig.ErrDanglingBoneReference, what, ref))
			return rig.NoBone
		}
		return i
	}

	def := rig.Definition{
		Name:        raw.Name,
		VertexCount: raw.VertexCount,
		Bones:       make([]rig.BoneDefinition, len(raw.Bones)),
	}
	for i, b := range raw.Bones {
		coef := float32(1)
		if b.InheritCoefficient != nil {
			coef = *b.InheritCoefficient
		}
		def.Bones[i] = rig.BoneDefinition{
			Index:                  i,
			Name:                   encoding.NormalizeName(b.Name),
			Parent:                 resolve(b.Parent, "parent of "+b.Name),
			RestOffset:             b.Offset.toVec3(),
			InheritRotationFrom:    resolve(b.InheritRotation, "rotation source of "+b.Name),
			InheritTranslationFrom: resolve(b.InheritTranslation, "translation source of "+b.Name),
			InheritCoefficient:     coef,
		}
	}

	for _, c := range raw.IK {
		chain := rig.IKChain{
			Name:         c.Name,
			TargetBone:   resolve(c.Target, "target of chain "+c.Name),
			EffectorBone: resolve(c.Effector, "effector of chain "+c.Name),
			Iterations:   c.Iterations,
		}
		for _, l := range c.Links {
			limit := rig.NoAngleLimit
			if l.Limit != nil {
				limit = *l.Limit
			}
			chain.Links = append(chain.Links, rig.IKLink{
				Bone:       resolve(l.Bone, "link of chain "+c.Name),
				AngleLimit: limit,
			})
		}
		def.IKChains = append(def.IKChains, chain)
	}

	for _, m := range raw.Morphs {
		target := rig.MorphTarget{
			Name:     encoding.NormalizeName(m.Name),
			Vertices: m.Vertices,
			Deltas:   make([]math.Vec3, len(m.Deltas)),
		}
		for i, d := range m.Deltas {
			target.Deltas[i] = d.toVec3()
		}
		def.Morphs = append(def.Morphs, target)
	}

	if errs != nil {
		return nil, errs
	}
	return rig.New(def)
}

func buildMotion(raw *rawMotion) (*motion.Motion, error) {
	m := motion.NewMotion(raw.Name)

	var errs error
	for name, keys := range raw.Bones {
		tr := m.BoneTrack(name)
		for _, k := range keys {
			rot, err := k.rotation()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("bone %q frame %d: %w", name, k.Frame, err))
				continue
			}
			tr.Insert(motion.BoneKeyframe{
				Frame: k.Frame,
				Value: math.Transform{Rotation: rot, Translation: k.Translation.toVec3()},
				Ease:  eases(k.Ease),
			})
		}
	}
	for name, keys := range raw.Morphs {
		tr := m.MorphTrack(name)
		for _, k := range keys {
			tr.Insert(motion.ScalarKeyframe{Frame: k.Frame, Value: k.Weight, Ease: eases(k.Ease)})
		}
	}
	for _, k := range raw.Camera {
		m.CameraTrack().Insert(motion.CameraKeyframe{
			Frame: k.Frame,
			Value: motion.CameraPose{
				LookAt:   k.LookAt.toVec3(),
				Angles:   k.Angles.toVec3(),
				Distance: k.Distance,
				FOV:      k.FOV,
			},
			Ease: eases(k.Ease),
		})
	}

	if errs != nil {
		return nil, errs
	}
	if err := m.FinalizeOrder(); err != nil {
		return nil, err
	}
	return m, nil
}

func (k rawBoneKey) rotation() (math.Quat, error) {
	switch {
	case k.Rotation != nil && k.AxisAngle != nil:
		return math.Quat{}, fmt.Errorf("%w: both rotation and axis_angle set", ErrBadKey)
	case k.Rotation != nil:
		q := math.Quat{X: k.Rotation[0], Y: k.Rotation[1], Z: k.Rotation[2], W: k.Rotation[3]}
		if q.Dot(q) == 0 {
			return math.Quat{}, fmt.Errorf("%w: zero quaternion", ErrBadKey)
		}
		return q.Normalize(), nil
	case k.AxisAngle != nil:
		axis := math.Vec3{X: k.AxisAngle[0], Y: k.AxisAngle[1], Z: k.AxisAngle[2]}
		if axis.Length() == 0 {
			return math.Quat{}, fmt.Errorf("%w: zero rotation axis", ErrBadKey)
		}
		rad := k.AxisAngle[3] * gomath.Pi / 180
		return math.QuatFromAxisAngle(axis.Normalize(), rad), nil
	default:
		return math.QuatIdentity(), nil
	}
}

// eases expands the ease list of a key. No curves means linear; one curve
// applies to every component.
func eases(raw [][4]float32) [motion.MaxComponents]math.Vec4 {
	out := motion.LinearEases()
	switch len(raw) {
	case 0:
	case 1:
		for i := range out {
			out[i] = raw[0]
		}
	default:
		for i := 0; i < len(raw) && i < len(out); i++ {
			out[i] = raw[i]
		}
	}
	return out
}
