package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose3 is a rigid transform in 3D: a translation plus a ZYX Euler
// orientation. It represents either "pose of frame B expressed in frame A"
// or equivalently the transform that maps B-frame coordinates into A.
type Pose3 struct {
	X     float64 // inches
	Y     float64 // inches
	Z     float64 // inches
	Yaw   float64 // radians, about +Z
	Pitch float64 // radians, about +Y
	Roll  float64 // radians, about +X
}

// Pose2 is the planar projection of a pose: position on the floor plane
// plus heading.
type Pose2 struct {
	X       float64 // inches
	Y       float64 // inches
	Heading float64 // radians, wrapped to (-pi, pi]
}

// Identity is the zero transform.
var Identity = Pose3{}

func (p Pose3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f; yaw=%.3f pitch=%.3f roll=%.3f)",
		p.X, p.Y, p.Z, p.Yaw, p.Pitch, p.Roll)
}

func (p Pose2) String() string {
	return fmt.Sprintf("(%.2f, %.2f; heading=%.3f)", p.X, p.Y, p.Heading)
}

// quaternion returns the orientation of p as a unit quaternion built from
// the intrinsic ZYX Euler angles.
func (p Pose3) quaternion() quat.Number {
	cy, sy := math.Cos(p.Yaw/2), math.Sin(p.Yaw/2)
	cp, sp := math.Cos(p.Pitch/2), math.Sin(p.Pitch/2)
	cr, sr := math.Cos(p.Roll/2), math.Sin(p.Roll/2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// eulerZYX recovers ZYX Euler angles from a unit quaternion. Pitch is
// clamped at the gimbal-lock singularity (|pitch| = pi/2).
func eulerZYX(q quat.Number) (yaw, pitch, roll float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sinp := 2 * (w*y - z*x)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	pitch = math.Asin(sinp)
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	return yaw, pitch, roll
}

// Compose interprets b as expressed in a's local frame and returns the
// equivalent transform in a's parent frame: rotate b's translation by a's
// rotation, add a's translation, and compose the rotations. Compose is
// associative within floating tolerance.
func Compose(a, b Pose3) Pose3 {
	qa := a.quaternion()
	t := r3.Rotation(qa).Rotate(r3.Vec{X: b.X, Y: b.Y, Z: b.Z})
	yaw, pitch, roll := eulerZYX(quat.Mul(qa, b.quaternion()))

	return Pose3{
		X:     a.X + t.X,
		Y:     a.Y + t.Y,
		Z:     a.Z + t.Z,
		Yaw:   yaw,
		Pitch: pitch,
		Roll:  roll,
	}
}

// Inverse returns the transform that undoes a: Compose(a, Inverse(a)) is
// the identity pose within epsilon.
func Inverse(a Pose3) Pose3 {
	qi := quat.Conj(a.quaternion())
	t := r3.Rotation(qi).Rotate(r3.Vec{X: a.X, Y: a.Y, Z: a.Z})
	yaw, pitch, roll := eulerZYX(qi)

	return Pose3{
		X:     -t.X,
		Y:     -t.Y,
		Z:     -t.Z,
		Yaw:   yaw,
		Pitch: pitch,
		Roll:  roll,
	}
}

// WrapToPi normalizes an angle into (-pi, pi]. Idempotent.
func WrapToPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Planarize projects a 3D pose onto the floor plane: x and y are kept,
// heading is the wrapped yaw, and z/pitch/roll are discarded.
func Planarize(p Pose3) Pose2 {
	return Pose2{X: p.X, Y: p.Y, Heading: WrapToPi(p.Yaw)}
}

// Lift re-embeds a planar pose in 3D with z, pitch, and roll at zero.
func (p Pose2) Lift() Pose3 {
	return Pose3{X: p.X, Y: p.Y, Yaw: p.Heading}
}

// Finite reports whether every component of p is a finite number.
func (p Pose3) Finite() bool {
	for _, v := range [6]float64{p.X, p.Y, p.Z, p.Yaw, p.Pitch, p.Roll} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// PlanarDistance returns the distance between two planar poses on the
// floor plane, ignoring heading.
func PlanarDistance(a, b Pose2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
