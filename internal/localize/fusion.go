package localize

import (
	"math"
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/monitoring"
)

// FusionConfig holds configuration parameters for the odometry-vision
// fusion estimator. Distances are in inches, angles in radians.
type FusionConfig struct {
	MaxVisionAgeSec           float64 // reject vision older than this
	MinVisionQuality          float64 // reject vision below this quality
	VisionPositionGain        float64 // fraction of position discrepancy corrected per cycle
	VisionHeadingGain         float64 // fraction of heading discrepancy corrected per cycle
	MaxVisionPositionJumpIn   float64 // reject corrections larger than this
	MaxVisionHeadingJumpRad   float64 // reject heading corrections larger than this
	AllowVisionInitialize     bool    // permit cold-start snap to vision
	PushCorrectionsToOdometry bool    // write corrected poses back into the odometry source
	VisionConfidenceHoldSec   float64 // linear confidence-decay window after an accepted correction
}

// DefaultFusionConfig returns the shipping fusion configuration.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		MaxVisionAgeSec:           0.25,
		MinVisionQuality:          0.05,
		VisionPositionGain:        0.25,
		VisionHeadingGain:         0.35,
		MaxVisionPositionJumpIn:   24.0,
		MaxVisionHeadingJumpRad:   60 * math.Pi / 180,
		AllowVisionInitialize:     true,
		PushCorrectionsToOdometry: true,
		VisionConfidenceHoldSec:   0.75,
	}
}

// FusionStats is a snapshot of the estimator's lifecycle and gate
// counters. Accepted and Rejected together account for every cycle in
// which vision was enabled and a candidate pose was present.
type FusionStats struct {
	Initialized       bool
	VisionEnabled     bool
	Accepted          uint64
	Rejected          uint64
	HasAccepted       bool    // at least one vision correction has been accepted
	LastAcceptUnixSec float64 // valid only when HasAccepted
}

// Fusion blends a drift-prone odometry source with intermittent absolute
// vision fixes into one always-available field pose. Once initialized it
// trusts only relative motion from odometry (dead reckoning) and applies
// bounded, quality-weighted proportional corrections toward accepted
// vision candidates.
//
// Fusion owns the per-cycle Update calls to both of its sources, so a
// caller never sequences source updates manually. State is per instance;
// multiple estimators are independent.
type Fusion struct {
	cfg    FusionConfig
	odom   Source
	vision Source

	// odomReset is the odometry source's optional absolute-overwrite
	// capability, resolved once at construction. Nil means the source
	// cannot accept write-backs, which is not an error.
	odomReset PoseSetter

	fused         geom.Pose2
	odomBaseline  geom.Pose2
	initialized   bool
	visionEnabled bool

	hasAccepted   bool
	lastAcceptSec float64
	accepted      uint64
	rejected      uint64

	est Estimate
}

// NewFusion constructs a fusion estimator over an odometry source and a
// vision (tag) source. Vision blending starts enabled.
func NewFusion(cfg FusionConfig, odom, vision Source) *Fusion {
	f := &Fusion{
		cfg:           cfg,
		odom:          odom,
		vision:        vision,
		visionEnabled: true,
	}
	if rs, ok := odom.(PoseSetter); ok {
		f.odomReset = rs
	}
	return f
}

// SetVisionEnabled toggles vision blending. While disabled the estimator
// runs pure dead reckoning and vision candidates are neither applied nor
// counted.
func (f *Fusion) SetVisionEnabled(enabled bool) { f.visionEnabled = enabled }

// Update advances both sources, then runs one fusion cycle: initialize if
// needed, propagate the odometry delta, and apply a gated vision
// correction. It is synchronous, allocation-light, and must be called
// from a single control-loop thread.
func (f *Fusion) Update(now time.Time) {
	// Sources update strictly before fusion reads them.
	f.odom.Update(now)
	f.vision.Update(now)

	nowSec := Seconds(now)
	odomEst := f.odom.Estimate()
	visEst := f.vision.Estimate()

	if !f.initialized {
		if !f.initialize(odomEst, visEst, nowSec) {
			f.est = Estimate{}
			return
		}
	} else if odomEst.HasPose {
		// Dead reckoning: fold in only the incremental motion since the
		// last baseline, so absolute odometry drift never enters the
		// fused frame.
		cur := geom.Planarize(odomEst.Pose)
		delta := geom.Compose(geom.Inverse(f.odomBaseline.Lift()), cur.Lift())
		f.fused = geom.Planarize(geom.Compose(f.fused.Lift(), delta))
		f.odomBaseline = cur
	}

	if f.visionEnabled && visEst.HasPose {
		f.applyVision(visEst, nowSec)
	}

	f.est = Estimate{
		Pose:         f.fused.Lift(),
		HasPose:      true,
		Quality:      f.reportQuality(odomEst, nowSec),
		AgeSec:       0,
		TimestampSec: nowSec,
	}
}

// initialize performs the one-way UNINITIALIZED -> INITIALIZED transition.
// It reports false when neither source can seed the fused pose yet.
func (f *Fusion) initialize(odomEst, visEst Estimate, nowSec float64) bool {
	switch {
	case f.visionEnabled && f.cfg.AllowVisionInitialize && f.acceptable(visEst, nowSec):
		f.fused = geom.Planarize(visEst.Pose)
		monitoring.Logf("fusion: initialized from vision at %s", f.fused)
	case odomEst.HasPose:
		f.fused = geom.Planarize(odomEst.Pose)
		monitoring.Logf("fusion: initialized from odometry at %s", f.fused)
	default:
		return false
	}

	if odomEst.HasPose {
		f.odomBaseline = geom.Planarize(odomEst.Pose)
	} else {
		f.odomBaseline = f.fused
	}
	f.initialized = true
	f.pushToOdometry()
	return true
}

// applyVision applies the bounded, quality-weighted correction toward an
// acceptable vision candidate, or counts a rejection. Either way exactly
// one counter advances per candidate cycle.
func (f *Fusion) applyVision(visEst Estimate, nowSec float64) {
	if !f.acceptable(visEst, nowSec) {
		f.rejected++
		return
	}

	vis := geom.Planarize(visEst.Pose)
	dx := vis.X - f.fused.X
	dy := vis.Y - f.fused.Y
	dPos := math.Hypot(dx, dy)
	dHeading := geom.WrapToPi(vis.Heading - f.fused.Heading)

	// Plausible-correction gate: a discrepancy beyond the jump limits is
	// far more likely a misidentified tag than a real pose error.
	if dPos > f.cfg.MaxVisionPositionJumpIn || math.Abs(dHeading) > f.cfg.MaxVisionHeadingJumpRad {
		f.rejected++
		return
	}

	posGain := clamp01(f.cfg.VisionPositionGain * visEst.Quality)
	headingGain := clamp01(f.cfg.VisionHeadingGain * visEst.Quality)

	f.fused.X += dx * posGain
	f.fused.Y += dy * posGain
	f.fused.Heading = geom.WrapToPi(f.fused.Heading + dHeading*headingGain)

	f.hasAccepted = true
	f.lastAcceptSec = nowSec
	f.accepted++
	f.pushToOdometry()
}

// acceptable is the vision acceptability gate: present, finite, fresh,
// and above the quality floor.
func (f *Fusion) acceptable(v Estimate, nowSec float64) bool {
	if !v.HasPose || !v.Pose.Finite() {
		return false
	}
	if math.IsNaN(v.Quality) || v.Quality < f.cfg.MinVisionQuality {
		return false
	}
	if nowSec-v.TimestampSec > f.cfg.MaxVisionAgeSec {
		return false
	}
	return true
}

// reportQuality computes the emitted confidence: the odometry baseline,
// boosted toward 1 by a recently accepted vision fix and decaying
// linearly back over the hold window.
func (f *Fusion) reportQuality(odomEst Estimate, nowSec float64) float64 {
	quality := 0.0
	if odomEst.HasPose {
		quality = odomEst.Quality
	}
	if f.hasAccepted && f.cfg.VisionConfidenceHoldSec > 0 {
		age := nowSec - f.lastAcceptSec
		if age >= 0 && age < f.cfg.VisionConfidenceHoldSec {
			if boost := 1 - age/f.cfg.VisionConfidenceHoldSec; boost > quality {
				quality = boost
			}
		}
	}
	return quality
}

// pushToOdometry writes the fused pose through to the odometry source when
// the capability exists and write-back is enabled.
func (f *Fusion) pushToOdometry() {
	if f.odomReset == nil || !f.cfg.PushCorrectionsToOdometry {
		return
	}
	f.odomReset.SetPose(f.fused)
}

// SetPose hard-overwrites the fused pose (for example, placing the robot
// at a known start pose). It re-baselines dead reckoning from the current
// odometry reading, always leaves the estimator initialized, and writes
// through to the odometry source when possible.
func (f *Fusion) SetPose(p geom.Pose2) {
	f.fused = p
	if odomEst := f.odom.Estimate(); odomEst.HasPose {
		f.odomBaseline = geom.Planarize(odomEst.Pose)
	} else {
		f.odomBaseline = p
	}
	f.initialized = true
	f.pushToOdometry()

	f.est.Pose = p.Lift()
	f.est.HasPose = true
}

// Estimate returns the result of the most recent Update. Before the first
// successful initialization it reports no pose.
func (f *Fusion) Estimate() Estimate { return f.est }

// Stats returns a snapshot of the estimator's counters and lifecycle.
func (f *Fusion) Stats() FusionStats {
	return FusionStats{
		Initialized:       f.initialized,
		VisionEnabled:     f.visionEnabled,
		Accepted:          f.accepted,
		Rejected:          f.rejected,
		HasAccepted:       f.hasAccepted,
		LastAcceptUnixSec: f.lastAcceptSec,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Compile-time interface checks.
var (
	_ Source     = (*Fusion)(nil)
	_ PoseSetter = (*Fusion)(nil)
)
