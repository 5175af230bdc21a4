package motion

import "errors"

// Track errors.
var (
	ErrMalformedTrack = errors.New("malformed track: adjacent keyframes share a frame")
	ErrUnsortedTrack  = errors.New("track used before FinalizeOrder")
)
