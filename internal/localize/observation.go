package localize

import "github.com/banshee-data/fieldpose/internal/geom"

// TagObservation is one cycle's camera observation of the best tracked
// fiducial tag, produced upstream (detection and tag selection are the
// camera coprocessor's job) and treated as read-only here.
type TagObservation struct {
	HasTarget   bool
	TagID       int
	CameraToTag geom.Pose3 // tag pose in the camera frame
	AgeSec      float64    // capture-to-delivery latency
}

// ObservationProvider hands the tag estimator the current cycle's
// observation. Implementations return a zero-value observation (HasTarget
// false) when nothing has been seen.
type ObservationProvider interface {
	Latest() TagObservation
}
