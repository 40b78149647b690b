package localize

import (
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
)

// Estimate is one cycle's output from a pose source. When HasPose is
// false the remaining fields are conventionally zero and must not be used
// for control; "no pose" is an expected condition, never an error.
type Estimate struct {
	Pose         geom.Pose3
	HasPose      bool
	Quality      float64 // [0, 1], how much a consumer should trust the pose
	AgeSec       float64 // measurement age at emission time, >= 0
	TimestampSec float64 // unix seconds of the underlying measurement
}

// Source is the per-cycle contract implemented by the odometry adapter,
// the tag estimator, and the fusion estimator alike. Update advances
// internal state for one control cycle; Estimate returns the latest result
// and is safe to call repeatedly between updates.
type Source interface {
	Update(now time.Time)
	Estimate() Estimate
}

// PoseSetter is the optional absolute-overwrite capability a source may
// expose alongside Source. SetPose is an immediate overwrite, not a delta.
// The fusion estimator resolves this capability once at construction;
// absence is not an error.
type PoseSetter interface {
	SetPose(p geom.Pose2)
}

// Seconds converts a wall-clock time to unix seconds as a float, the time
// representation used throughout the estimate contracts.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
