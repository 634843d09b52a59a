// Package controller - This file contains the per-frame pipeline that routes frames
// through detection, tracking and line-crossing evaluation.
package controller

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/crossing"
	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/models/postprocess"
	"github.com/nvr-ai/go-linecount/tracking"
)

// Frame is a single frame of video.
type Frame struct {
	ID        int
	Image     image.Image
	Timestamp time.Time
}

// Detector is an interface for a detector.
type Detector interface {
	Detect(ctx context.Context, frame Frame) (postprocess.Detections, error)
}

// Tracker assigns persistent identities to the detections of a frame.
type Tracker interface {
	Update(frame int, dets []postprocess.Result) []tracking.TrackedBox
}

// Annotator renders the result of a frame, e.g. onto the frame itself.
type Annotator interface {
	Annotate(frame Frame, result FrameResult) error
}

// FrameSource yields frames in order. Next returns io.EOF when exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// TrackState is one tracked box of a frame and the lines it crossed.
type TrackState struct {
	Box tracking.TrackedBox
	// Center is the pixel evaluated against the reference lines.
	Center    images.Point
	Crossings []crossing.Crossing
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Frame     int
	Timestamp time.Time
	Tracks    []TrackState
	// Events are the crossings counted in this frame.
	Events   []crossing.CrossingEvent
	Counters crossing.Counters
	// Evicted are the track ids dropped from history after this frame.
	Evicted []int
}

// Summary describes a complete run.
type Summary struct {
	Frames   int
	Events   []crossing.CrossingEvent
	Counters crossing.Counters
}

// Controller drives frames through the pipeline. Frames are processed
// strictly in order; a frame is never abandoned halfway.
type Controller struct {
	Detector  Detector
	Tracker   Tracker
	Crossing  *crossing.Detector
	Annotator Annotator
}

// New creates a controller. The annotator may be nil.
//
// Arguments:
//   - detector: The detection collaborator. May be nil for replays that only
//     call ProcessTracks.
//   - tracker: The tracking collaborator.
//   - crossings: The crossing detector that owns counters and events.
//   - annotator: Optional renderer of each frame result.
//
// Returns:
//   - *Controller: The controller.
//   - error: If the crossing detector is missing.
func New(detector Detector, tracker Tracker, crossings *crossing.Detector, annotator Annotator) (*Controller, error) {
	if crossings == nil {
		return nil, errors.New("crossing detector is required")
	}
	return &Controller{
		Detector:  detector,
		Tracker:   tracker,
		Crossing:  crossings,
		Annotator: annotator,
	}, nil
}

// Process runs one frame through detection, tracking and crossing evaluation.
//
// Arguments:
//   - ctx: Checked before the frame is started.
//   - frame: The frame to process.
//
// Returns:
//   - FrameResult: The tracks, crossings and counters after the frame.
//   - error: If the context is done or detection fails.
func (c *Controller) Process(ctx context.Context, frame Frame) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, err
	}
	if c.Detector == nil || c.Tracker == nil {
		return FrameResult{}, errors.New("detector and tracker are required to process frames")
	}

	dets, err := c.Detector.Detect(ctx, frame)
	if err != nil {
		return FrameResult{}, errors.Wrapf(err, "detect frame %d", frame.ID)
	}
	tracks := c.Tracker.Update(frame.ID, dets.Results())

	result := c.evaluate(tracks)
	if c.Annotator != nil {
		if err := c.Annotator.Annotate(frame, result); err != nil {
			return result, errors.Wrapf(err, "annotate frame %d", frame.ID)
		}
	}
	return result, nil
}

// ProcessTracks evaluates an already tracked frame, as produced by an
// external tracker or a recorded track file.
func (c *Controller) ProcessTracks(ctx context.Context, tracks []tracking.TrackedBox) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, err
	}
	return c.evaluate(tracks), nil
}

func (c *Controller) evaluate(tracks []tracking.TrackedBox) FrameResult {
	result := FrameResult{
		Frame:     c.Crossing.Frame(),
		Timestamp: c.Crossing.Now(),
		Tracks:    make([]TrackState, 0, len(tracks)),
	}

	for _, t := range tracks {
		center := t.Center().Truncate()
		crossings := c.Crossing.Observe(t.TrackID, center)
		for _, x := range crossings {
			if x.Counted {
				result.Events = append(result.Events, x.Event)
				Logf("🚗 track %d crossed %s (%s) at %s", t.TrackID, x.Direction, x.Line, x.Event.FormatTimestamp())
			}
		}
		result.Tracks = append(result.Tracks, TrackState{
			Box:       t,
			Center:    center,
			Crossings: crossings,
		})
	}

	result.Counters = c.Crossing.Counters()
	result.Evicted = c.Crossing.EndFrame()
	return result
}

// Run processes frames from source until it is exhausted or ctx is done.
// Cancellation takes effect between frames.
//
// Returns:
//   - Summary: The frames processed, the events and the final counters.
//   - error: The first processing error, or the context error. io.EOF from
//     the source is not an error.
func (c *Controller) Run(ctx context.Context, source FrameSource) (Summary, error) {
	var summary Summary
	for {
		frame, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.summarize(summary), errors.Wrap(err, "read frame")
		}

		if _, err := c.Process(ctx, frame); err != nil {
			return c.summarize(summary), err
		}
		summary.Frames++
	}

	summary = c.summarize(summary)
	Logf("✅ processed %d frames, %d events, counters=%v", summary.Frames, len(summary.Events), summary.Counters.Snapshot())
	return summary, nil
}

func (c *Controller) summarize(s Summary) Summary {
	s.Events = c.Crossing.Log().Events()
	s.Counters = c.Crossing.Counters()
	return s
}
