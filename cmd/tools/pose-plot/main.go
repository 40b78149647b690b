// Command pose-plot renders a recorded localization session as a
// top-down trajectory plot, highlighting the cycles where a vision
// correction was accepted.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/fieldpose/internal/poselog"
)

var (
	dbPath    = flag.String("db", "poselog.db", "Pose log database path")
	sessionID = flag.String("session", "", "Session to plot (default: latest)")
	outPath   = flag.String("out", "trajectory.png", "Output PNG path")
)

func run() error {
	store, err := poselog.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	session := *sessionID
	if session == "" {
		latest, err := store.LatestSession()
		if err != nil {
			return fmt.Errorf("no session specified and none recorded: %w", err)
		}
		session = latest.ID
		log.Printf("plotting latest session %s (field %q)", session, latest.Field)
	}

	samples, err := store.Poses(session, 0)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("session %s has no pose samples", session)
	}

	trajectory := make(plotter.XYs, 0, len(samples))
	accepted := make(plotter.XYs, 0)
	for _, s := range samples {
		trajectory = append(trajectory, plotter.XY{X: s.X, Y: s.Y})
		if s.VisionAccepted {
			accepted = append(accepted, plotter.XY{X: s.X, Y: s.Y})
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Fused trajectory (%d samples)", len(samples))
	p.X.Label.Text = "X (inches)"
	p.Y.Label.Text = "Y (inches)"

	line, err := plotter.NewLine(trajectory)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("fused pose", line)

	if len(accepted) > 0 {
		scatter, err := plotter.NewScatter(accepted)
		if err != nil {
			return err
		}
		scatter.Radius = vg.Points(2)
		scatter.Color = color.RGBA{R: 220, G: 80, A: 255}
		p.Add(scatter)
		p.Legend.Add("vision accepted", scatter)
	}

	if err := p.Save(10*vg.Inch, 10*vg.Inch, *outPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	log.Printf("wrote %s", *outPath)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
