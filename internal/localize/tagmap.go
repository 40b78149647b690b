package localize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/fieldpose/internal/geom"
)

// TagMap is the immutable mapping from fiducial tag ID to the tag's pose
// in the field frame, built once at startup.
type TagMap struct {
	field string
	tags  map[int]geom.Pose3
}

// NewTagMap builds a TagMap from an id->pose mapping. The map is copied.
func NewTagMap(field string, tags map[int]geom.Pose3) *TagMap {
	m := &TagMap{field: field, tags: make(map[int]geom.Pose3, len(tags))}
	for id, p := range tags {
		m.tags[id] = p
	}
	return m
}

// tagMapFile is the on-disk JSON schema for a tag map.
type tagMapFile struct {
	Field string `json:"field"`
	Tags  []struct {
		ID    int     `json:"id"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Z     float64 `json:"z"`
		Yaw   float64 `json:"yaw"`
		Pitch float64 `json:"pitch"`
		Roll  float64 `json:"roll"`
	} `json:"tags"`
}

// LoadTagMap loads a tag map from a JSON file. Duplicate tag IDs are a
// configuration error.
func LoadTagMap(path string) (*TagMap, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read tag map: %w", err)
	}

	var file tagMapFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tag map JSON: %w", err)
	}
	if len(file.Tags) == 0 {
		return nil, fmt.Errorf("tag map %q contains no tags", path)
	}

	tags := make(map[int]geom.Pose3, len(file.Tags))
	for _, tag := range file.Tags {
		if _, dup := tags[tag.ID]; dup {
			return nil, fmt.Errorf("tag map %q has duplicate tag id %d", path, tag.ID)
		}
		tags[tag.ID] = geom.Pose3{
			X: tag.X, Y: tag.Y, Z: tag.Z,
			Yaw: tag.Yaw, Pitch: tag.Pitch, Roll: tag.Roll,
		}
	}
	return &TagMap{field: file.Field, tags: tags}, nil
}

// Field returns the field layout name the map was built for.
func (m *TagMap) Field() string { return m.field }

// Len returns the number of mapped tags.
func (m *TagMap) Len() int { return len(m.tags) }

// Has reports whether id is in the map. This is the safe probe; use it
// before Require unless an unknown id is a programming error.
func (m *TagMap) Has(id int) bool {
	_, ok := m.tags[id]
	return ok
}

// Lookup returns the field-to-tag pose for id and whether it exists.
func (m *TagMap) Lookup(id int) (geom.Pose3, bool) {
	p, ok := m.tags[id]
	return p, ok
}

// Require returns the field-to-tag pose for id, panicking if the id is
// unmapped. An unknown id here is a configuration bug, not a runtime
// sensing condition, so it is the one case allowed to fail hard.
func (m *TagMap) Require(id int) geom.Pose3 {
	p, ok := m.tags[id]
	if !ok {
		panic(fmt.Sprintf("tag id %d not present in tag map %q", id, m.field))
	}
	return p
}

// CameraMount is the fixed robot-to-camera extrinsic offset, configured
// once at startup.
type CameraMount struct {
	RobotToCamera geom.Pose3
}
