// Package localize owns the pose-fusion localization engine: the shared
// pose-estimate and tag-observation contracts, the static tag map and
// camera extrinsics, the tag-based absolute pose estimator, and the
// odometry-vision fusion estimator.
//
// The package is the composition core: sensor adapters (internal/odom,
// internal/vision) implement its interfaces, but localize imports neither.
//
// Everything here runs on a single control-loop thread; callers invoking
// an estimator from multiple goroutines must serialize access themselves.
package localize
