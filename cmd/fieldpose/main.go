// Command fieldpose runs the localization control loop: it fuses wheel
// odometry from the drive controller with tag observations from the
// camera coprocessor and records the fused pose to a SQLite log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/fieldpose/internal/config"
	"github.com/banshee-data/fieldpose/internal/geom"
	"github.com/banshee-data/fieldpose/internal/localize"
	"github.com/banshee-data/fieldpose/internal/odom"
	"github.com/banshee-data/fieldpose/internal/poselog"
	"github.com/banshee-data/fieldpose/internal/version"
	"github.com/banshee-data/fieldpose/internal/vision"
)

var (
	tagMapPath  = flag.String("tags", "config/tags.json", "Tag map JSON file")
	tuningPath  = flag.String("config", "", "Optional tuning JSON file")
	serialPort  = flag.String("serial", "/dev/ttyACM0", "Drive controller serial port")
	baudRate    = flag.Int("baud", 115200, "Serial baud rate")
	visionAddr  = flag.String("vision-listen", ":5800", "UDP address for camera observations")
	cameraFlag  = flag.String("camera", "0,0,0,0,0,0", "Robot-to-camera extrinsics: x,y,z,yaw,pitch,roll")
	dbPath      = flag.String("db", "poselog.db", "Pose log database path")
	rateHz      = flag.Int("hz", 50, "Control loop rate")
	devMode     = flag.Bool("dev", false, "Replay fixtures.txt instead of opening the serial port")
	startPose   = flag.String("start", "", "Optional hard start pose: x,y,heading")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func parsePose2(s string) (geom.Pose2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.Pose2{}, fmt.Errorf("want x,y,heading, got %q", s)
	}
	var v [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geom.Pose2{}, fmt.Errorf("bad pose component %q: %w", part, err)
		}
		v[i] = f
	}
	return geom.Pose2{X: v[0], Y: v[1], Heading: geom.WrapToPi(v[2])}, nil
}

func parseMount(s string) (localize.CameraMount, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return localize.CameraMount{}, fmt.Errorf("want x,y,z,yaw,pitch,roll, got %q", s)
	}
	var v [6]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return localize.CameraMount{}, fmt.Errorf("bad extrinsic component %q: %w", part, err)
		}
		v[i] = f
	}
	return localize.CameraMount{RobotToCamera: geom.Pose3{
		X: v[0], Y: v[1], Z: v[2], Yaw: v[3], Pitch: v[4], Roll: v[5],
	}}, nil
}

func fusionConfig(t *config.Tuning) localize.FusionConfig {
	return localize.FusionConfig{
		MaxVisionAgeSec:           t.GetMaxVisionAgeSec(),
		MinVisionQuality:          t.GetMinVisionQuality(),
		VisionPositionGain:        t.GetVisionPositionGain(),
		VisionHeadingGain:         t.GetVisionHeadingGain(),
		MaxVisionPositionJumpIn:   t.GetMaxVisionPositionJumpIn(),
		MaxVisionHeadingJumpRad:   t.GetMaxVisionHeadingJumpRad(),
		AllowVisionInitialize:     t.GetAllowVisionInitialize(),
		PushCorrectionsToOdometry: t.GetPushCorrectionsToOdometry(),
		VisionConfidenceHoldSec:   t.GetVisionConfidenceHoldSec(),
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *rateHz <= 0 {
		log.Fatal("loop rate must be positive")
	}

	tuning := config.EmptyTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning: %v", err)
		}
	}

	tags, err := localize.LoadTagMap(*tagMapPath)
	if err != nil {
		log.Fatalf("failed to load tag map: %v", err)
	}
	log.Printf("loaded %d tags for field %q", tags.Len(), tags.Field())

	mount, err := parseMount(*cameraFlag)
	if err != nil {
		log.Fatalf("bad -camera: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Print("shutting down")
		cancel()
	}()

	var odomSource localize.Source
	if *devMode {
		data, err := os.ReadFile("fixtures.txt")
		if err != nil {
			log.Fatalf("failed to read fixtures file: %v", err)
		}
		odomSource = odom.NewMockOdometry(data)
	} else {
		serialOdom, err := odom.Open(*serialPort, *baudRate)
		if err != nil {
			log.Fatalf("failed to open odometry: %v", err)
		}
		defer serialOdom.Close()
		go func() {
			if err := serialOdom.Monitor(ctx); err != nil {
				log.Printf("odometry monitor exited: %v", err)
				cancel()
			}
		}()
		odomSource = serialOdom
	}

	feed, err := vision.Listen(*visionAddr)
	if err != nil {
		log.Fatalf("failed to open vision feed: %v", err)
	}
	defer feed.Close()
	go func() {
		if err := feed.Serve(ctx); err != nil {
			log.Printf("vision feed exited: %v", err)
			cancel()
		}
	}()

	tagEst := localize.NewTagEstimator(feed, tags, mount, localize.TagEstimatorConfig{
		MaxAbsBearingRad: tuning.GetMaxAbsBearingRad(),
	})
	fusion := localize.NewFusion(fusionConfig(tuning), odomSource, tagEst)

	if *startPose != "" {
		p, err := parsePose2(*startPose)
		if err != nil {
			log.Fatalf("bad -start: %v", err)
		}
		fusion.SetPose(p)
		log.Printf("start pose set to %s", p)
	}

	store, err := poselog.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open pose log: %v", err)
	}
	defer store.Close()

	session, err := store.BeginSession(tags.Field(), time.Now())
	if err != nil {
		log.Fatalf("failed to begin session: %v", err)
	}
	log.Printf("recording session %s at %d Hz", session, *rateHz)

	ticker := time.NewTicker(time.Second / time.Duration(*rateHz))
	defer ticker.Stop()
	statusEvery := time.NewTicker(5 * time.Second)
	defer statusEvery.Stop()

	for {
		select {
		case <-ctx.Done():
			stats := fusion.Stats()
			log.Printf("final: accepted=%d rejected=%d", stats.Accepted, stats.Rejected)
			return

		case <-statusEvery.C:
			stats := fusion.Stats()
			est := fusion.Estimate()
			if est.HasPose {
				log.Printf("pose %s quality=%.2f accepted=%d rejected=%d",
					geom.Planarize(est.Pose), est.Quality, stats.Accepted, stats.Rejected)
			} else {
				log.Print("no pose yet")
			}

		case <-ticker.C:
			before := fusion.Stats()
			now := time.Now()
			fusion.Update(now)
			after := fusion.Stats()
			est := fusion.Estimate()

			if est.HasPose {
				fused := geom.Planarize(est.Pose)
				if err := store.RecordPose(poselog.PoseSample{
					SessionID:      session,
					TSUnixNanos:    now.UnixNano(),
					X:              fused.X,
					Y:              fused.Y,
					HeadingRad:     fused.Heading,
					Quality:        est.Quality,
					VisionAccepted: after.Accepted > before.Accepted,
				}); err != nil {
					log.Printf("failed to record pose: %v", err)
				}
			}

			if after.Accepted+after.Rejected > before.Accepted+before.Rejected {
				fused := geom.Planarize(est.Pose)
				vis := geom.Planarize(tagEst.Estimate().Pose)
				if err := store.RecordVisionEvent(poselog.VisionEvent{
					SessionID:   session,
					TSUnixNanos: now.UnixNano(),
					TagID:       feed.Latest().TagID,
					DPosIn:      geom.PlanarDistance(fused, vis),
					DHeadingRad: geom.WrapToPi(vis.Heading - fused.Heading),
					Accepted:    after.Accepted > before.Accepted,
				}); err != nil {
					log.Printf("failed to record vision event: %v", err)
				}
			}
		}
	}
}
