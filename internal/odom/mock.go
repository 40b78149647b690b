package odom

import (
	"strings"
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/localize"
	"github.com/banshee-data/fieldpose/internal/monitoring"
)

// MockOdometry replays canned ODO lines through the real parser, one line
// per Update, for tests and -dev runs without hardware. SetPose re-zeroes
// the reported frame the way the drive controller would: subsequent
// replayed poses are remapped so the pose at the overwrite instant reads
// back as the requested pose.
type MockOdometry struct {
	lines []string
	next  int

	raw     geom.Pose2 // last replayed controller-frame pose
	quality float64
	have    bool

	// offset maps controller-frame poses into the overwritten frame.
	offset geom.Pose3

	est      localize.Estimate
	SetCalls int // SetPose invocations, for assertions
}

// NewMockOdometry builds a mock from fixture data, one ODO line per row.
func NewMockOdometry(data []byte) *MockOdometry {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return &MockOdometry{lines: lines}
}

// Update consumes the next fixture line, if any, and refreshes the
// estimate. After the fixture is exhausted the last pose is held.
func (m *MockOdometry) Update(now time.Time) {
	if m.next < len(m.lines) {
		line := m.lines[m.next]
		m.next++
		s, err := parseLine(line, now)
		if err != nil {
			monitoring.Logf("odom mock: %v", err)
		} else {
			m.raw = s.pose
			m.quality = s.quality
			m.have = true
		}
	}

	if !m.have {
		m.est = localize.Estimate{}
		return
	}

	reported := geom.Planarize(geom.Compose(m.offset, m.raw.Lift()))
	m.est = localize.Estimate{
		Pose:         reported.Lift(),
		HasPose:      true,
		Quality:      m.quality,
		AgeSec:       0,
		TimestampSec: localize.Seconds(now),
	}
}

// Estimate returns the result of the most recent Update.
func (m *MockOdometry) Estimate() localize.Estimate { return m.est }

// SetPose re-zeroes the reported frame so the current pose reads back as p.
func (m *MockOdometry) SetPose(p geom.Pose2) {
	m.SetCalls++
	m.offset = geom.Compose(p.Lift(), geom.Inverse(m.raw.Lift()))
	if m.have {
		m.est.Pose = p.Lift()
	}
}

var (
	_ localize.Source     = (*MockOdometry)(nil)
	_ localize.PoseSetter = (*MockOdometry)(nil)
)
