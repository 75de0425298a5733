package lod

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultOrbitStep is the XYZ euler rotation, in radians, applied to the
// target on every step.
var DefaultOrbitStep = mgl64.Vec3{0.005, 0.005, 0.005}

// Orbit moves a focus target around a center point by a fixed rotation per
// step.
type Orbit struct {
	Center   mgl64.Vec3
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewOrbit returns an orbit starting at start that rotates around center by
// the XYZ euler angles of step on every call to Step.
func NewOrbit(center, start, step mgl64.Vec3) *Orbit {
	return &Orbit{
		Center:   center,
		Position: start,
		Rotation: mgl64.AnglesToQuat(step.X(), step.Y(), step.Z(), mgl64.XYZ),
	}
}

// DefaultOrbit returns the orbit used when no scene is configured: the center
// of the first root node, starting at the middle of its z=0 face.
func DefaultOrbit(height int) *Orbit {
	half := math.Ldexp(1, height-2)
	return NewOrbit(
		mgl64.Vec3{half, half, half},
		mgl64.Vec3{half, half, 0},
		DefaultOrbitStep,
	)
}

// Step advances the target and returns its new position.
func (o *Orbit) Step() mgl64.Vec3 {
	o.Position = o.Center.Add(o.Rotation.Rotate(o.Position.Sub(o.Center)))
	return o.Position
}
