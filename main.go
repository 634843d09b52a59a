package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-linecount/annotate"
	"github.com/nvr-ai/go-linecount/config"
	"github.com/nvr-ai/go-linecount/controller"
	"github.com/nvr-ai/go-linecount/export"
	"github.com/nvr-ai/go-linecount/inference"
	"github.com/nvr-ai/go-linecount/models"
	"github.com/nvr-ai/go-linecount/models/postprocess"
	"github.com/nvr-ai/go-linecount/profiler"
	"github.com/nvr-ai/go-linecount/tracking"
	"github.com/nvr-ai/go-linecount/util"
	"github.com/nvr-ai/go-linecount/video"
)

// options are the command line settings that are not part of the config file.
type options struct {
	showWindow     bool
	reportInterval time.Duration
	recordTracks   string
}

func main() {
	var (
		configPath string
		videoPath  string
		outputPath string
		modelPath  string
		device     string
		libPath    string
		noSave     bool
		opts       options
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file (defaults are used when empty)")
	flag.StringVar(&videoPath, "video", "", "Input video, overrides video.input")
	flag.StringVar(&outputPath, "output", "", "Annotated output video, overrides video.output")
	flag.StringVar(&modelPath, "model", "", "ONNX model, overrides model.path")
	flag.StringVar(&device, "device", "", "Execution device (cpu, cuda, cuda:N, coreml, openvino), overrides model.device")
	flag.StringVar(&libPath, "onnxruntime-lib", "", "Path to the onnxruntime shared library")
	flag.BoolVar(&noSave, "no-save", false, "Do not write the annotated video")
	flag.BoolVar(&opts.showWindow, "show-window", false, "Show the annotated frames in a window")
	flag.StringVar(&opts.recordTracks, "record-tracks", "", "Write the tracked boxes of every frame to this JSON file for cmd/replay")
	flag.DurationVar(&opts.reportInterval, "report-interval", 5*time.Second, "Interval between profiler reports")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	if videoPath != "" {
		cfg.Video.Input = videoPath
	}
	if outputPath != "" {
		cfg.Video.Output = outputPath
	}
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if device != "" {
		cfg.Model.Device = device
	}
	if libPath != "" {
		cfg.Model.SharedLibraryPath = libPath
	}
	if noSave {
		cfg.Video.Save = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func printBanner(cfg config.Config) {
	fmt.Printf("\n🚀 Line Crossing Counter\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("   🎥 Input: %s (%dx%d)\n", cfg.Video.Input, cfg.Video.Width, cfg.Video.Height)
	if cfg.Video.Save {
		fmt.Printf("   💾 Output: %s\n", cfg.Video.Output)
	}
	fmt.Printf("   🤖 Model: %s on %s\n", cfg.Model.Path, cfg.Model.Device)
	fmt.Printf("   📊 Confidence: %.2f | NMS IoU: %.2f\n", cfg.Model.ConfidenceThreshold, cfg.Model.IoUThreshold)
	fmt.Printf("   🎯 Classes: %v\n", cfg.Model.Classes)
	for _, l := range cfg.Lines {
		fmt.Printf("   📏 Line %s (%s): %v -> %v\n", l.Name, l.Axis, l.Start, l.End)
	}
	fmt.Printf("   🔁 Dedup: %s | Max track age: %d frames\n", cfg.Tracking.Dedup, cfg.Tracking.MaxAge)
	fmt.Printf("=====================================\n\n")
}

// timedDetector records the detection latency of every frame.
type timedDetector struct {
	controller.Detector
	prof *profiler.Profiler
}

func (d timedDetector) Detect(ctx context.Context, frame controller.Frame) (postprocess.Detections, error) {
	defer d.prof.Time("detect_ms")()
	return d.Detector.Detect(ctx, frame)
}

func run(ctx context.Context, cfg config.Config, opts options) error {
	sessionConfig, err := cfg.SessionConfig()
	if err != nil {
		return err
	}
	session, err := inference.NewSession(sessionConfig)
	if err != nil {
		return errors.Wrap(err, "create inference session")
	}
	defer session.Close()
	fmt.Printf("✅ Inference session ready: %s\n", cfg.Model.Path)

	args, err := cfg.ModelArgs()
	if err != nil {
		return err
	}
	m, err := models.NewModel(args)
	if err != nil {
		return errors.Wrap(err, "create model")
	}
	detector, err := inference.NewONNXDetector(session, m)
	if err != nil {
		return err
	}

	crossings, err := cfg.NewDetector()
	if err != nil {
		return err
	}
	clock, err := cfg.NewClock()
	if err != nil {
		return err
	}

	start := clock.Now()
	size := image.Pt(cfg.Video.Width, cfg.Video.Height)
	capture, err := video.OpenCapture(cfg.Video.Input, size, start, clock.Step())
	if err != nil {
		return err
	}
	defer capture.Close()

	var writer *video.Writer
	if cfg.Video.Save {
		if writer, err = video.NewWriter(cfg.Video.Output, cfg.Clock.FPS, size); err != nil {
			return err
		}
		defer writer.Close()
	}

	var window *gocv.Window
	if opts.showWindow {
		window = gocv.NewWindow("Line Crossing Counter")
		defer window.Close()
	}

	tracker := tracking.NewTracker(cfg.TrackerConfig())
	prof := profiler.New(profiler.Options{ReportInterval: opts.reportInterval})
	prof.AddCollector(profiler.CollectorFunc(func() map[string]float64 {
		runs, avg := session.Metrics()
		return map[string]float64{
			"crossings":        float64(crossings.Counters().Total()),
			"tracks":           float64(crossings.Tracks()),
			"active_tracks":    float64(len(tracker.Active())),
			"inference_runs":   float64(runs),
			"inference_avg_ms": float64(avg.Microseconds()) / 1000,
		}
	}))
	profCtx, stopProf := context.WithCancel(ctx)
	defer stopProf()
	go prof.Run(profCtx)

	overlay := &annotate.Overlay{Target: capture.Mat(), Lines: crossings.Lines()}
	ctrl, err := controller.New(
		timedDetector{Detector: detector, prof: prof},
		tracker,
		crossings,
		overlay,
	)
	if err != nil {
		return err
	}

	var recorded [][]tracking.TrackedBox
	frames := 0
	for {
		frame, err := capture.Next(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Printf("🏁 End of video: %s\n", cfg.Video.Input)
			break
		}
		if errors.Is(err, context.Canceled) {
			fmt.Printf("⏹️  Interrupted after %d frames\n", frames)
			break
		}
		if err != nil {
			return err
		}

		done := prof.Time("frame_ms")
		result, err := ctrl.Process(ctx, frame)
		done()
		if errors.Is(err, context.Canceled) {
			fmt.Printf("⏹️  Interrupted after %d frames\n", frames)
			break
		}
		if err != nil {
			return err
		}
		frames++

		if opts.recordTracks != "" {
			boxes := make([]tracking.TrackedBox, len(result.Tracks))
			for i, t := range result.Tracks {
				boxes[i] = t.Box
			}
			recorded = append(recorded, boxes)
		}
		if writer != nil {
			if err := writer.Write(*capture.Mat()); err != nil {
				return err
			}
		}
		if window != nil {
			window.IMShow(*capture.Mat())
			if window.WaitKey(1) == 27 {
				fmt.Printf("⏹️  Stopped by user at frame %d\n", result.Frame)
				break
			}
		}
	}

	if opts.recordTracks != "" {
		if err := util.WriteTrackFile(opts.recordTracks, recorded); err != nil {
			return err
		}
		fmt.Printf("💾 Wrote %s\n", opts.recordTracks)
	}

	counters := crossings.Counters()
	events := crossings.Log().Events()
	fmt.Printf("\n📊 Processed %d frames, %d crossings\n", frames, len(events))
	for _, line := range annotate.CounterText(counters) {
		fmt.Printf("   %s\n", line)
	}

	// The run context may already be cancelled by an interrupt.
	res, err := cfg.Output.WriteAll(context.Background(), export.RunInfo{
		Source:    cfg.Video.Input,
		StartedAt: start,
		Frames:    frames,
	}, events, counters)
	for _, f := range res.Files {
		fmt.Printf("💾 Wrote %s\n", f)
	}
	if err != nil {
		return err
	}
	if cfg.Output.Database != "" {
		fmt.Printf("🗄️  Stored run %s in %s\n", res.RunID, cfg.Output.Database)
	}
	prof.Report()
	return nil
}
