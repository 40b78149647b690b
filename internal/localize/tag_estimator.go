package localize

import (
	"math"
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
)

// TagEstimatorConfig holds configuration for the tag-based absolute pose
// estimator.
type TagEstimatorConfig struct {
	// MaxAbsBearingRad rejects tags observed more than this many radians
	// off the camera axis, where the pose solve degrades. Zero disables
	// the filter.
	MaxAbsBearingRad float64
}

// TagEstimatorStats are cumulative diagnostics counters. They do not feed
// back into estimation.
type TagEstimatorStats struct {
	Cycles     uint64 // Update calls
	Produced   uint64 // cycles that yielded a pose
	NoTarget   uint64 // cycles with no tracked tag
	Unmapped   uint64 // tracked tag absent from the tag map
	OffBearing uint64 // rejected by the bearing filter
}

// TagEstimator turns a single tracked tag observation plus the static tag
// map and camera extrinsics into a candidate field pose. It is a pure
// function of its per-cycle inputs; no estimation state survives between
// cycles beyond diagnostics counters.
type TagEstimator struct {
	obs   ObservationProvider
	tags  *TagMap
	mount CameraMount
	cfg   TagEstimatorConfig

	est   Estimate
	stats TagEstimatorStats
}

// NewTagEstimator constructs a tag estimator reading observations from obs.
func NewTagEstimator(obs ObservationProvider, tags *TagMap, mount CameraMount, cfg TagEstimatorConfig) *TagEstimator {
	return &TagEstimator{obs: obs, tags: tags, mount: mount, cfg: cfg}
}

// Update consumes the cycle's observation and recomputes the candidate
// pose. A missing target, unmapped tag, or off-axis bearing yields a
// no-pose estimate, never an error.
func (e *TagEstimator) Update(now time.Time) {
	e.stats.Cycles++
	e.est = Estimate{}

	o := e.obs.Latest()
	if !o.HasTarget {
		e.stats.NoTarget++
		return
	}
	fieldToTag, ok := e.tags.Lookup(o.TagID)
	if !ok {
		e.stats.Unmapped++
		return
	}

	if e.cfg.MaxAbsBearingRad > 0 {
		// Camera-frame bearing: +X forward, +Y lateral.
		bearing := math.Atan2(o.CameraToTag.Y, o.CameraToTag.X)
		if math.Abs(bearing) > e.cfg.MaxAbsBearingRad {
			e.stats.OffBearing++
			return
		}
	}

	robotToTag := geom.Compose(e.mount.RobotToCamera, o.CameraToTag)
	fieldToRobot := geom.Compose(fieldToTag, geom.Inverse(robotToTag))

	// The robot's reference point rides on the floor plane, so the 6D
	// solve is projected down before anything downstream sees it.
	reported := geom.Planarize(fieldToRobot)

	e.stats.Produced++
	e.est = Estimate{
		Pose:         reported.Lift(),
		HasPose:      true,
		Quality:      1.0, // confidence grading is the fusion layer's job
		AgeSec:       o.AgeSec,
		TimestampSec: Seconds(now) - o.AgeSec,
	}
}

// Estimate returns the result of the most recent Update.
func (e *TagEstimator) Estimate() Estimate { return e.est }

// Stats returns the cumulative diagnostics counters.
func (e *TagEstimator) Stats() TagEstimatorStats { return e.stats }

var _ Source = (*TagEstimator)(nil)
