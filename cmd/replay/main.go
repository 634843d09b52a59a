// Command replay counts line crossings from a recorded track file without
// running detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nvr-ai/go-linecount/config"
	"github.com/nvr-ai/go-linecount/controller"
	"github.com/nvr-ai/go-linecount/export"
	"github.com/nvr-ai/go-linecount/util"
)

func main() {
	var (
		configPath string
		tracksPath string
		csvPath    string
		quiet      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file (defaults are used when empty)")
	flag.StringVar(&tracksPath, "tracks", "", "Recorded track file (JSON array of frames)")
	flag.StringVar(&csvPath, "csv", "", "CSV output, overrides output.csv")
	flag.BoolVar(&quiet, "quiet", false, "Do not log individual crossings")
	flag.Parse()

	if tracksPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -tracks tracks.json [-config linecount.yaml]")
		os.Exit(2)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	if csvPath != "" {
		cfg.Output.CSV = csvPath
	}
	if quiet {
		controller.SetLogger(nil)
	}

	frames, err := util.LoadTrackFile(tracksPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	crossings, err := cfg.NewDetector()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	start := crossings.Now()

	ctrl, err := controller.New(nil, nil, crossings, nil)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx := context.Background()
	for _, tracks := range frames {
		if _, err := ctrl.ProcessTracks(ctx, tracks); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	counters := crossings.Counters()
	events := crossings.Log().Events()
	fmt.Printf("📊 Replayed %d frames from %s, %d crossings\n", len(frames), tracksPath, len(events))
	for _, d := range counters.Enabled() {
		fmt.Printf("   %-6s %d\n", d, counters.Get(d))
	}

	res, err := cfg.Output.WriteAll(ctx, export.RunInfo{
		Source:    tracksPath,
		StartedAt: start,
		Frames:    len(frames),
	}, events, counters)
	for _, f := range res.Files {
		fmt.Printf("💾 Wrote %s\n", f)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}
