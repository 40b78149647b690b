package geom

import (
	"math"
	"testing"
)

const eps = 1e-6

func posesClose(t *testing.T, got, want Pose3, tol float64, label string) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol ||
		math.Abs(got.Y-want.Y) > tol ||
		math.Abs(got.Z-want.Z) > tol {
		t.Errorf("%s: translation mismatch: got %v, want %v", label, got, want)
	}
	if math.Abs(WrapToPi(got.Yaw-want.Yaw)) > tol ||
		math.Abs(WrapToPi(got.Pitch-want.Pitch)) > tol ||
		math.Abs(WrapToPi(got.Roll-want.Roll)) > tol {
		t.Errorf("%s: rotation mismatch: got %v, want %v", label, got, want)
	}
}

// samplePoses covers axis-aligned, rotated, and fully general transforms.
var samplePoses = []Pose3{
	{},
	{X: 10},
	{X: 3, Y: -4, Z: 1},
	{Yaw: math.Pi / 2},
	{Yaw: -2.5, Pitch: 0.3, Roll: -0.7},
	{X: 12.5, Y: -48, Z: 8.25, Yaw: 1.1, Pitch: -0.2, Roll: 0.05},
	{X: -144, Y: 72, Z: 0, Yaw: 3.0, Pitch: 0.01, Roll: -0.01},
}

func TestComposeInverseIsIdentity(t *testing.T) {
	for _, p := range samplePoses {
		got := Compose(p, Inverse(p))
		posesClose(t, got, Identity, eps, p.String())
	}
}

func TestInverseInverseRoundTrips(t *testing.T) {
	for _, p := range samplePoses {
		posesClose(t, Inverse(Inverse(p)), p, eps, p.String())
	}
}

func TestComposeAssociative(t *testing.T) {
	for _, a := range samplePoses {
		for _, b := range samplePoses {
			for _, c := range samplePoses {
				left := Compose(Compose(a, b), c)
				right := Compose(a, Compose(b, c))
				posesClose(t, left, right, 1e-9, "associativity")
			}
		}
	}
}

func TestComposeIdentityIsNoOp(t *testing.T) {
	for _, p := range samplePoses {
		posesClose(t, Compose(Identity, p), p, eps, "identity on left")
		posesClose(t, Compose(p, Identity), p, eps, "identity on right")
	}
}

func TestComposeRotatesTranslation(t *testing.T) {
	// A quarter turn left, then 10 inches forward in the local frame,
	// lands 10 inches along +Y in the parent frame.
	a := Pose3{Yaw: math.Pi / 2}
	b := Pose3{X: 10}

	got := Compose(a, b)
	want := Pose3{X: 0, Y: 10, Yaw: math.Pi / 2}
	posesClose(t, got, want, eps, "quarter-turn compose")
}

func TestComposeKnownOffset(t *testing.T) {
	// Robot at (48, 24) facing 180 degrees; a point 12 inches ahead of it
	// sits at (36, 24).
	robot := Pose3{X: 48, Y: 24, Yaw: math.Pi}
	ahead := Pose3{X: 12}

	got := Compose(robot, ahead)
	if math.Abs(got.X-36) > eps || math.Abs(got.Y-24) > eps {
		t.Errorf("expected (36, 24), got (%v, %v)", got.X, got.Y)
	}
}

func TestWrapToPiRange(t *testing.T) {
	angles := []float64{
		0, math.Pi, -math.Pi, 2 * math.Pi, -2 * math.Pi,
		3.5 * math.Pi, -7.25 * math.Pi, 0.1, -0.1, 100, -100,
	}
	for _, a := range angles {
		w := WrapToPi(a)
		if w <= -math.Pi || w > math.Pi {
			t.Errorf("WrapToPi(%v) = %v, outside (-pi, pi]", a, w)
		}
		if math.Abs(WrapToPi(w)-w) > 0 {
			t.Errorf("WrapToPi not idempotent at %v: %v != %v", a, WrapToPi(w), w)
		}
	}
}

func TestWrapToPiBoundary(t *testing.T) {
	// -pi maps to +pi: the interval is open at -pi, closed at +pi.
	if got := WrapToPi(-math.Pi); got != math.Pi {
		t.Errorf("WrapToPi(-pi) = %v, want pi", got)
	}
	if got := WrapToPi(math.Pi); got != math.Pi {
		t.Errorf("WrapToPi(pi) = %v, want pi", got)
	}
}

func TestPlanarize(t *testing.T) {
	p := Pose3{X: 5, Y: -3, Z: 17, Yaw: 3*math.Pi + 0.25, Pitch: 0.4, Roll: -0.2}
	got := Planarize(p)

	if got.X != 5 || got.Y != -3 {
		t.Errorf("planarize kept wrong position: %v", got)
	}
	want := WrapToPi(3*math.Pi + 0.25)
	if math.Abs(got.Heading-want) > eps {
		t.Errorf("planarize heading = %v, want %v", got.Heading, want)
	}
}

func TestLiftRoundTrips(t *testing.T) {
	p := Pose2{X: 1.5, Y: -2.5, Heading: 0.75}
	got := Planarize(p.Lift())
	if got != p {
		t.Errorf("Planarize(Lift(p)) = %v, want %v", got, p)
	}
}

func TestFinite(t *testing.T) {
	if !(Pose3{X: 1, Yaw: 2}).Finite() {
		t.Error("finite pose reported non-finite")
	}
	bad := []Pose3{
		{X: math.NaN()},
		{Yaw: math.Inf(1)},
		{Roll: math.Inf(-1)},
	}
	for _, p := range bad {
		if p.Finite() {
			t.Errorf("pose %v reported finite", p)
		}
	}
}

func TestPlanarDistance(t *testing.T) {
	a := Pose2{X: 0, Y: 0}
	b := Pose2{X: 3, Y: 4, Heading: 2}
	if d := PlanarDistance(a, b); math.Abs(d-5) > eps {
		t.Errorf("PlanarDistance = %v, want 5", d)
	}
}
