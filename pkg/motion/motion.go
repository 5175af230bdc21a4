package motion

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/Faultbox/posekit/pkg/encoding"
)

// Motion is a named set of tracks keyed by bone and morph name, as handed
// over by a motion loader.
type Motion struct {
	Name   string
	Bones  map[string]*BoneTrack
	Morphs map[string]*ScalarTrack
	Camera *CameraTrack
}

// NewMotion returns an empty motion.
func NewMotion(name string) *Motion {
	return &Motion{
		Name:   name,
		Bones:  make(map[string]*BoneTrack),
		Morphs: make(map[string]*ScalarTrack),
	}
}

// BoneTrack returns the track for a bone, creating it if needed.
func (m *Motion) BoneTrack(name string) *BoneTrack {
	name = encoding.NormalizeName(name)
	tr, ok := m.Bones[name]
	if !ok {
		tr = NewBoneTrack()
		m.Bones[name] = tr
	}
	return tr
}

// MorphTrack returns the weight track for a morph, creating it if needed.
func (m *Motion) MorphTrack(name string) *ScalarTrack {
	name = encoding.NormalizeName(name)
	tr, ok := m.Morphs[name]
	if !ok {
		tr = NewScalarTrack()
		m.Morphs[name] = tr
	}
	return tr
}

// CameraTrack returns the camera track, creating it if needed.
func (m *Motion) CameraTrack() *CameraTrack {
	if m.Camera == nil {
		m.Camera = NewCameraTrack()
	}
	return m.Camera
}

// AddRawBoneKey inserts a bone key whose target name is a fixed-width
// Shift-JIS field straight from a motion file.
func (m *Motion) AddRawBoneKey(rawName []byte, k BoneKeyframe) {
	m.BoneTrack(encoding.DecodeName(rawName)).Insert(k)
}

// AddRawMorphKey inserts a morph weight key named by a raw Shift-JIS field.
func (m *Motion) AddRawMorphKey(rawName []byte, k ScalarKeyframe) {
	m.MorphTrack(encoding.DecodeName(rawName)).Insert(k)
}

// FinalizeOrder finalizes every track and reports all malformed ones.
func (m *Motion) FinalizeOrder() error {
	var err error
	for _, name := range sortedKeys(m.Bones) {
		if e := m.Bones[name].FinalizeOrder(); e != nil {
			err = multierr.Append(err, fmt.Errorf("bone %q: %w", name, e))
		}
	}
	for _, name := range sortedKeys(m.Morphs) {
		if e := m.Morphs[name].FinalizeOrder(); e != nil {
			err = multierr.Append(err, fmt.Errorf("morph %q: %w", name, e))
		}
	}
	if m.Camera != nil {
		if e := m.Camera.FinalizeOrder(); e != nil {
			err = multierr.Append(err, fmt.Errorf("camera: %w", e))
		}
	}
	return err
}

// Finalized reports whether every track is sorted.
func (m *Motion) Finalized() bool {
	for _, tr := range m.Bones {
		if !tr.Sorted() {
			return false
		}
	}
	for _, tr := range m.Morphs {
		if !tr.Sorted() {
			return false
		}
	}
	return m.Camera == nil || m.Camera.Sorted()
}

// LastFrame returns the last keyed frame over all tracks.
func (m *Motion) LastFrame() int {
	last := 0
	for _, tr := range m.Bones {
		last = max(last, tr.LastFrame())
	}
	for _, tr := range m.Morphs {
		last = max(last, tr.LastFrame())
	}
	if m.Camera != nil {
		last = max(last, m.Camera.LastFrame())
	}
	return last
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
