package main

import (
	"math"
	"testing"

	"github.com/banshee-data/fieldpose/internal/config"
)

func TestParsePose2(t *testing.T) {
	p, err := parsePose2("60, 15, 1.5708")
	if err != nil {
		t.Fatalf("parsePose2: %v", err)
	}
	if p.X != 60 || p.Y != 15 {
		t.Errorf("pose = %v", p)
	}
	if math.Abs(p.Heading-1.5708) > 1e-9 {
		t.Errorf("heading = %v", p.Heading)
	}
}

func TestParsePose2WrapsHeading(t *testing.T) {
	p, err := parsePose2("0,0,7")
	if err != nil {
		t.Fatalf("parsePose2: %v", err)
	}
	if p.Heading <= -math.Pi || p.Heading > math.Pi {
		t.Errorf("heading %v not wrapped", p.Heading)
	}
}

func TestParsePose2Rejects(t *testing.T) {
	for _, s := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		if _, err := parsePose2(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestParseMount(t *testing.T) {
	m, err := parseMount("6,-2,10,0.1,0,0")
	if err != nil {
		t.Fatalf("parseMount: %v", err)
	}
	p := m.RobotToCamera
	if p.X != 6 || p.Y != -2 || p.Z != 10 || p.Yaw != 0.1 {
		t.Errorf("mount = %v", p)
	}

	if _, err := parseMount("1,2,3"); err == nil {
		t.Error("expected error for short extrinsics")
	}
}

func TestFusionConfigFromTuning(t *testing.T) {
	cfg := fusionConfig(config.EmptyTuning())
	if cfg.VisionPositionGain != 0.25 || cfg.VisionHeadingGain != 0.35 {
		t.Errorf("gains = (%v, %v)", cfg.VisionPositionGain, cfg.VisionHeadingGain)
	}
	if cfg.MaxVisionPositionJumpIn != 24 {
		t.Errorf("position jump = %v", cfg.MaxVisionPositionJumpIn)
	}
	if !cfg.AllowVisionInitialize || !cfg.PushCorrectionsToOdometry {
		t.Error("boolean defaults wrong")
	}
}
