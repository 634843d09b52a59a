package util

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/tracking"
)

// RecordedDetection is one tracked box as written by offline trackers.
type RecordedDetection struct {
	FrameIdx int     `json:"frame_idx"`
	TrackID  int     `json:"track_id"`
	Left     float32 `json:"left"`
	Top      float32 `json:"top"`
	Right    float32 `json:"right"`
	Bottom   float32 `json:"bottom"`
	Score    float32 `json:"score,omitempty"`
	Class    int     `json:"class,omitempty"`
}

// LoadTrackFile reads recorded tracker output: a JSON array indexed by frame,
// each entry an array of tracked boxes. A null frame has no detections.
//
// Arguments:
// - path: The track file.
//
// Returns:
// - [][]tracking.TrackedBox: The boxes of every frame, in frame order.
// - error: If the file cannot be read or parsed.
func LoadTrackFile(path string) ([][]tracking.TrackedBox, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read track file")
	}

	var recorded [][]RecordedDetection
	if err := json.Unmarshal(data, &recorded); err != nil {
		return nil, errors.Wrapf(err, "parse track file %s", path)
	}

	frames := make([][]tracking.TrackedBox, len(recorded))
	for idx, dets := range recorded {
		for _, d := range dets {
			frames[idx] = append(frames[idx], tracking.TrackedBox{
				TrackID: d.TrackID,
				Frame:   idx,
				Box:     images.Rect{X1: d.Left, Y1: d.Top, X2: d.Right, Y2: d.Bottom},
				Score:   d.Score,
				Class:   d.Class,
			})
		}
	}
	return frames, nil
}

// WriteTrackFile writes tracked boxes in the format read by LoadTrackFile.
func WriteTrackFile(path string, frames [][]tracking.TrackedBox) error {
	recorded := make([][]RecordedDetection, len(frames))
	for idx, boxes := range frames {
		for _, b := range boxes {
			recorded[idx] = append(recorded[idx], RecordedDetection{
				FrameIdx: idx,
				TrackID:  b.TrackID,
				Left:     b.Box.X1,
				Top:      b.Box.Y1,
				Right:    b.Box.X2,
				Bottom:   b.Box.Y2,
				Score:    b.Score,
				Class:    b.Class,
			})
		}
	}

	data, err := json.Marshal(recorded)
	if err != nil {
		return errors.Wrap(err, "encode tracks")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write track file")
}
