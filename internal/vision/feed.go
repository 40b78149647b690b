// Package vision receives tag observations from the camera coprocessor
// over UDP and adapts them to the localize.ObservationProvider contract.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/localize"
	"github.com/banshee-data/fieldpose/internal/monitoring"
)

// datagram is the coprocessor's wire format: one JSON object per packet,
// describing the best tracked tag this frame. Pose fields are the tag in
// the camera frame, inches and radians.
type datagram struct {
	HasTarget bool    `json:"has_target"`
	TagID     int     `json:"tag_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Yaw       float64 `json:"yaw"`
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`
	AgeSec    float64 `json:"age_sec"`
}

// UDPFeed listens for observation datagrams and retains the most recent
// one. Latest ages the observation by time-in-hand so downstream freshness
// gates see the true latency, and reports no target once the feed goes
// quiet.
type UDPFeed struct {
	conn *net.UDPConn

	// StaleAfter is how long a retained observation stays visible with no
	// new datagrams. Zero means the default of one second.
	StaleAfter time.Duration

	mu         sync.Mutex
	obs        localize.TagObservation
	receivedAt time.Time
	have       bool

	received uint64
	dropped  uint64
}

// Listen opens a UDP socket on addr (for example ":5800").
func Listen(addr string) (*UDPFeed, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vision address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for vision on %s: %w", addr, err)
	}
	return &UDPFeed{conn: conn}, nil
}

// Serve reads datagrams until ctx is done or the socket closes. Malformed
// packets are counted and skipped.
func (f *UDPFeed) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		f.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, _, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("vision socket read: %w", err)
		}

		obs, err := parseDatagram(buf[:n])
		if err != nil {
			f.mu.Lock()
			f.dropped++
			f.mu.Unlock()
			monitoring.Logf("vision: %v", err)
			continue
		}

		f.mu.Lock()
		f.obs = obs
		f.receivedAt = time.Now()
		f.have = true
		f.received++
		f.mu.Unlock()
	}
}

// parseDatagram decodes and validates one observation packet.
func parseDatagram(data []byte) (localize.TagObservation, error) {
	var d datagram
	if err := json.Unmarshal(data, &d); err != nil {
		return localize.TagObservation{}, fmt.Errorf("bad observation packet: %w", err)
	}
	if d.AgeSec < 0 {
		return localize.TagObservation{}, fmt.Errorf("negative observation age %v", d.AgeSec)
	}

	return localize.TagObservation{
		HasTarget: d.HasTarget,
		TagID:     d.TagID,
		CameraToTag: geom.Pose3{
			X: d.X, Y: d.Y, Z: d.Z,
			Yaw: d.Yaw, Pitch: d.Pitch, Roll: d.Roll,
		},
		AgeSec: d.AgeSec,
	}, nil
}

// Latest returns the most recent observation with its age advanced by the
// time it has been held, or a no-target observation once stale.
func (f *UDPFeed) Latest() localize.TagObservation {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.have {
		return localize.TagObservation{}
	}

	held := time.Since(f.receivedAt)
	staleAfter := f.StaleAfter
	if staleAfter == 0 {
		staleAfter = time.Second
	}
	if held > staleAfter {
		return localize.TagObservation{}
	}

	obs := f.obs
	obs.AgeSec += held.Seconds()
	return obs
}

// Counts returns the number of accepted and dropped datagrams.
func (f *UDPFeed) Counts() (received, dropped uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received, f.dropped
}

// Close closes the socket, ending Serve.
func (f *UDPFeed) Close() error { return f.conn.Close() }

var _ localize.ObservationProvider = (*UDPFeed)(nil)
