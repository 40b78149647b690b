package odom

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/localize"
	"github.com/banshee-data/fieldpose/internal/monitoring"
)

// sample is one parsed odometry report from the drive controller.
type sample struct {
	uptimeSec float64
	pose      geom.Pose2
	quality   float64
	at        time.Time
}

// SerialOdometry reads the drive controller's odometry stream:
//
//	ODO,<uptime_sec>,<x_in>,<y_in>,<heading_rad>,<quality>
//
// one line per report. It implements localize.Source and, because the
// controller accepts SETPOSE commands, localize.PoseSetter.
//
// Monitor runs on its own goroutine; Update/Estimate stay on the control
// loop and only snapshot the latest sample.
type SerialOdometry struct {
	rw io.ReadWriteCloser

	mu     sync.Mutex
	latest sample
	have   bool

	est localize.Estimate
}

// Open opens the controller's serial port and wraps it in a SerialOdometry.
func Open(portName string, baudRate int) (*SerialOdometry, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open odometry port %s: %w", portName, err)
	}
	return New(port), nil
}

// New wraps an already-open stream. Split out from Open for tests.
func New(rw io.ReadWriteCloser) *SerialOdometry {
	return &SerialOdometry{rw: rw}
}

// Monitor reads odometry lines until ctx is done or the stream ends.
// Malformed lines are logged and skipped; the feed recovers on the next
// good line.
func (o *SerialOdometry) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(o.rw)
	for scan.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		s, err := parseLine(line, time.Now())
		if err != nil {
			monitoring.Logf("odom: %v", err)
			continue
		}

		o.mu.Lock()
		o.latest = s
		o.have = true
		o.mu.Unlock()
	}
	return scan.Err()
}

// parseLine parses one ODO report. at is the receipt time.
func parseLine(line string, at time.Time) (sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 6 || fields[0] != "ODO" {
		return sample{}, fmt.Errorf("unrecognized odometry line %q", line)
	}

	values := make([]float64, 5)
	for i, raw := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return sample{}, fmt.Errorf("bad odometry field %q in %q: %w", raw, line, err)
		}
		values[i] = v
	}

	quality := values[4]
	if quality < 0 || quality > 1 {
		return sample{}, fmt.Errorf("odometry quality %v out of [0,1] in %q", quality, line)
	}

	return sample{
		uptimeSec: values[0],
		pose: geom.Pose2{
			X:       values[1],
			Y:       values[2],
			Heading: geom.WrapToPi(values[3]),
		},
		quality: quality,
		at:      at,
	}, nil
}

// Update snapshots the latest sample into this cycle's estimate.
func (o *SerialOdometry) Update(now time.Time) {
	o.mu.Lock()
	s, have := o.latest, o.have
	o.mu.Unlock()

	if !have {
		o.est = localize.Estimate{}
		return
	}

	age := now.Sub(s.at).Seconds()
	if age < 0 {
		age = 0
	}
	o.est = localize.Estimate{
		Pose:         s.pose.Lift(),
		HasPose:      true,
		Quality:      s.quality,
		AgeSec:       age,
		TimestampSec: localize.Seconds(s.at),
	}
}

// Estimate returns the result of the most recent Update.
func (o *SerialOdometry) Estimate() localize.Estimate { return o.est }

// SetPose sends an absolute pose overwrite to the drive controller and
// updates the cached sample so the next cycle reads the new frame even
// before the controller's next report arrives.
func (o *SerialOdometry) SetPose(p geom.Pose2) {
	cmd := fmt.Sprintf("SETPOSE,%.4f,%.4f,%.6f\n", p.X, p.Y, p.Heading)
	if _, err := o.rw.Write([]byte(cmd)); err != nil {
		monitoring.Logf("odom: failed to write SETPOSE: %v", err)
		return
	}

	o.mu.Lock()
	if o.have {
		o.latest.pose = p
		o.latest.at = time.Now()
	}
	o.mu.Unlock()
}

// Close closes the underlying stream, ending Monitor.
func (o *SerialOdometry) Close() error { return o.rw.Close() }

var (
	_ localize.Source     = (*SerialOdometry)(nil)
	_ localize.PoseSetter = (*SerialOdometry)(nil)
)
