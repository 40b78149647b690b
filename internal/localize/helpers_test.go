package localize

import (
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/monitoring"
)

func init() {
	monitoring.Mute()
}

// stubObservations hands the tag estimator a scripted observation.
type stubObservations struct {
	obs TagObservation
}

func (s *stubObservations) Latest() TagObservation { return s.obs }

// stubSource is a scriptable pose source that records its Update calls.
type stubSource struct {
	est     Estimate
	updates int
	lastNow time.Time
}

func (s *stubSource) Update(now time.Time) {
	s.updates++
	s.lastNow = now
}

func (s *stubSource) Estimate() Estimate { return s.est }

// resettableSource additionally accepts absolute pose overwrites, like a
// drive controller that supports SETPOSE.
type resettableSource struct {
	stubSource
	setPoses []geom.Pose2
}

func (s *resettableSource) SetPose(p geom.Pose2) {
	s.setPoses = append(s.setPoses, p)
}

// freshVision builds an acceptable vision estimate at pose p as of now.
func freshVision(p geom.Pose2, quality float64, now time.Time) Estimate {
	return Estimate{
		Pose:         p.Lift(),
		HasPose:      true,
		Quality:      quality,
		AgeSec:       0,
		TimestampSec: Seconds(now),
	}
}

// odomAt builds an odometry estimate at pose p with full quality.
func odomAt(p geom.Pose2, now time.Time) Estimate {
	return Estimate{
		Pose:         p.Lift(),
		HasPose:      true,
		Quality:      1.0,
		AgeSec:       0,
		TimestampSec: Seconds(now),
	}
}

var testEpoch = time.Unix(1700000000, 0)
