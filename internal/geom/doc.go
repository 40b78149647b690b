// Package geom provides the rigid-transform algebra used by the
// localization engine: 3D poses, frame composition and inversion, angle
// wrapping, and planar projection onto the floor plane.
//
// All types are immutable values and all functions are pure, so the
// package is safe for concurrent read-only use.
//
// Conventions: lengths are in inches, angles in radians. Orientation is
// intrinsic ZYX Euler (yaw about Z, then pitch about Y, then roll about X).
package geom
