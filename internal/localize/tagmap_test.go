package localize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/fieldpose/internal/geom"
)

func TestTagMapHasAndLookup(t *testing.T) {
	m := NewTagMap("test-field", map[int]geom.Pose3{
		1: {X: 100, Y: 50, Yaw: 1.0},
		7: {X: -20, Z: 12},
	})

	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if !m.Has(1) || !m.Has(7) {
		t.Error("Has returned false for mapped ids")
	}
	if m.Has(2) {
		t.Error("Has returned true for unmapped id")
	}

	p, ok := m.Lookup(7)
	if !ok || p.X != -20 || p.Z != 12 {
		t.Errorf("Lookup(7) = %v, %v", p, ok)
	}
	if _, ok := m.Lookup(99); ok {
		t.Error("Lookup returned ok for unmapped id")
	}
}

func TestTagMapRequirePanicsOnUnknownID(t *testing.T) {
	m := NewTagMap("test-field", map[int]geom.Pose3{1: {}})

	defer func() {
		if recover() == nil {
			t.Error("Require on an unmapped id should panic")
		}
	}()
	m.Require(42)
}

func TestTagMapRequireReturnsMappedPose(t *testing.T) {
	want := geom.Pose3{X: 72, Y: -36, Yaw: 2.5}
	m := NewTagMap("test-field", map[int]geom.Pose3{3: want})

	if got := m.Require(3); got != want {
		t.Errorf("Require(3) = %v, want %v", got, want)
	}
}

func TestLoadTagMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	contents := `{
		"field": "2026-main",
		"tags": [
			{"id": 1, "x": 144, "y": 72, "z": 18, "yaw": 3.14159},
			{"id": 2, "x": 0, "y": 36, "z": 18, "yaw": 0, "pitch": 0.1, "roll": -0.1}
		]
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write tag map: %v", err)
	}

	m, err := LoadTagMap(path)
	if err != nil {
		t.Fatalf("LoadTagMap: %v", err)
	}
	if m.Field() != "2026-main" {
		t.Errorf("Field = %q, want 2026-main", m.Field())
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	p := m.Require(2)
	if p.Y != 36 || p.Pitch != 0.1 || p.Roll != -0.1 {
		t.Errorf("tag 2 pose = %v", p)
	}
}

func TestLoadTagMapRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	contents := `{"field": "x", "tags": [{"id": 1}, {"id": 1}]}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write tag map: %v", err)
	}
	if _, err := LoadTagMap(path); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestLoadTagMapRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	if err := os.WriteFile(path, []byte(`{"field": "x", "tags": []}`), 0o644); err != nil {
		t.Fatalf("write tag map: %v", err)
	}
	if _, err := LoadTagMap(path); err == nil {
		t.Error("expected empty map error")
	}
}
