package rig

import "errors"

// Rig load errors. New wraps every problem it finds in one of these.
var (
	ErrDanglingBoneReference = errors.New("dangling bone reference")
	ErrMalformedRig          = errors.New("malformed rig")
)
