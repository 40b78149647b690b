// Package config loads the JSON tuning file for the localization engine.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Tuning represents the fusion tuning parameters. Fields are pointers so a
// partial JSON file only overrides what it names; the Get* accessors
// return the shipping defaults for anything left unset. The same schema is
// accepted at startup and by the daemon's -config flag.
type Tuning struct {
	// Vision acceptance gates
	MaxVisionAgeSec  *float64 `json:"max_vision_age_sec,omitempty"`
	MinVisionQuality *float64 `json:"min_vision_quality,omitempty"`

	// Correction gains and jump gates
	VisionPositionGain      *float64 `json:"vision_position_gain,omitempty"`
	VisionHeadingGain       *float64 `json:"vision_heading_gain,omitempty"`
	MaxVisionPositionJumpIn *float64 `json:"max_vision_position_jump_in,omitempty"`
	MaxVisionHeadingJumpRad *float64 `json:"max_vision_heading_jump_rad,omitempty"`

	// Initialization and write-back behaviour
	AllowVisionInitialize     *bool `json:"allow_vision_initialize,omitempty"`
	PushCorrectionsToOdometry *bool `json:"push_corrections_to_odometry,omitempty"`

	// Confidence reporting
	VisionConfidenceHoldSec *float64 `json:"vision_confidence_hold_sec,omitempty"`

	// Tag estimator params
	MaxAbsBearingRad *float64 `json:"max_abs_bearing_rad,omitempty"`
}

// EmptyTuning returns a Tuning with every field unset, so all accessors
// report defaults.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The path must end in .json
// and the file must be under 1MB; omitted fields keep their defaults, so
// partial configs are safe.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate checks that any set values are within their operating ranges.
func (c *Tuning) Validate() error {
	if c.MaxVisionAgeSec != nil && *c.MaxVisionAgeSec < 0 {
		return fmt.Errorf("max_vision_age_sec must be non-negative, got %f", *c.MaxVisionAgeSec)
	}
	if c.MinVisionQuality != nil {
		if *c.MinVisionQuality < 0 || *c.MinVisionQuality > 1 {
			return fmt.Errorf("min_vision_quality must be between 0 and 1, got %f", *c.MinVisionQuality)
		}
	}
	if c.VisionPositionGain != nil && *c.VisionPositionGain < 0 {
		return fmt.Errorf("vision_position_gain must be non-negative, got %f", *c.VisionPositionGain)
	}
	if c.VisionHeadingGain != nil && *c.VisionHeadingGain < 0 {
		return fmt.Errorf("vision_heading_gain must be non-negative, got %f", *c.VisionHeadingGain)
	}
	if c.MaxVisionPositionJumpIn != nil && *c.MaxVisionPositionJumpIn <= 0 {
		return fmt.Errorf("max_vision_position_jump_in must be positive, got %f", *c.MaxVisionPositionJumpIn)
	}
	if c.MaxVisionHeadingJumpRad != nil && *c.MaxVisionHeadingJumpRad <= 0 {
		return fmt.Errorf("max_vision_heading_jump_rad must be positive, got %f", *c.MaxVisionHeadingJumpRad)
	}
	if c.VisionConfidenceHoldSec != nil && *c.VisionConfidenceHoldSec < 0 {
		return fmt.Errorf("vision_confidence_hold_sec must be non-negative, got %f", *c.VisionConfidenceHoldSec)
	}
	if c.MaxAbsBearingRad != nil && *c.MaxAbsBearingRad < 0 {
		return fmt.Errorf("max_abs_bearing_rad must be non-negative, got %f", *c.MaxAbsBearingRad)
	}
	return nil
}

// GetMaxVisionAgeSec returns the max_vision_age_sec value or the default.
func (c *Tuning) GetMaxVisionAgeSec() float64 {
	if c.MaxVisionAgeSec == nil {
		return 0.25
	}
	return *c.MaxVisionAgeSec
}

// GetMinVisionQuality returns the min_vision_quality value or the default.
func (c *Tuning) GetMinVisionQuality() float64 {
	if c.MinVisionQuality == nil {
		return 0.05
	}
	return *c.MinVisionQuality
}

// GetVisionPositionGain returns the vision_position_gain value or the default.
func (c *Tuning) GetVisionPositionGain() float64 {
	if c.VisionPositionGain == nil {
		return 0.25
	}
	return *c.VisionPositionGain
}

// GetVisionHeadingGain returns the vision_heading_gain value or the default.
func (c *Tuning) GetVisionHeadingGain() float64 {
	if c.VisionHeadingGain == nil {
		return 0.35
	}
	return *c.VisionHeadingGain
}

// GetMaxVisionPositionJumpIn returns the max_vision_position_jump_in value
// or the default (24 inches).
func (c *Tuning) GetMaxVisionPositionJumpIn() float64 {
	if c.MaxVisionPositionJumpIn == nil {
		return 24.0
	}
	return *c.MaxVisionPositionJumpIn
}

// GetMaxVisionHeadingJumpRad returns the max_vision_heading_jump_rad value
// or the default (60 degrees).
func (c *Tuning) GetMaxVisionHeadingJumpRad() float64 {
	if c.MaxVisionHeadingJumpRad == nil {
		return 60 * math.Pi / 180
	}
	return *c.MaxVisionHeadingJumpRad
}

// GetAllowVisionInitialize returns the allow_vision_initialize value or the default.
func (c *Tuning) GetAllowVisionInitialize() bool {
	if c.AllowVisionInitialize == nil {
		return true
	}
	return *c.AllowVisionInitialize
}

// GetPushCorrectionsToOdometry returns the push_corrections_to_odometry
// value or the default.
func (c *Tuning) GetPushCorrectionsToOdometry() bool {
	if c.PushCorrectionsToOdometry == nil {
		return true
	}
	return *c.PushCorrectionsToOdometry
}

// GetVisionConfidenceHoldSec returns the vision_confidence_hold_sec value
// or the default.
func (c *Tuning) GetVisionConfidenceHoldSec() float64 {
	if c.VisionConfidenceHoldSec == nil {
		return 0.75
	}
	return *c.VisionConfidenceHoldSec
}

// GetMaxAbsBearingRad returns the max_abs_bearing_rad value or the
// default. Zero disables the bearing filter.
func (c *Tuning) GetMaxAbsBearingRad() float64 {
	if c.MaxAbsBearingRad == nil {
		return 0
	}
	return *c.MaxAbsBearingRad
}
