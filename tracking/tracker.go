package tracking

import (
	"sort"
	"sync"

	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// TrackedBox is a detection with the identity the tracker assigned to it.
type TrackedBox struct {
	TrackID int         `json:"track_id"`
	Frame   int         `json:"frame_idx"`
	Box     images.Rect `json:"box"`
	Score   float32     `json:"score"`
	Class   int         `json:"class"`
}

// Center returns the center of the tracked box.
func (b TrackedBox) Center() images.Point {
	return b.Box.Center()
}

type track struct {
	id       int
	last     TrackedBox
	lastSeen int
}

// TrackerConfig holds the association parameters.
type TrackerConfig struct {
	// MinIoU is the overlap a detection needs with a track's last box to
	// continue it.
	MinIoU float32 `json:"min_iou" yaml:"min_iou"`
	// MaxAge is the number of frames a track survives without a match.
	MaxAge int `json:"max_age" yaml:"max_age"`
}

// Tracker assigns persistent identities to per-frame detections by greedy
// IoU association with the previous box of each active track. Detections
// only continue tracks of the same class.
type Tracker struct {
	mu     sync.Mutex
	config TrackerConfig
	active map[int]*track
	nextID int
}

// NewTracker creates a tracker. Track ids start at 1.
func NewTracker(config TrackerConfig) *Tracker {
	if config.MaxAge <= 0 {
		config.MaxAge = 1
	}
	return &Tracker{
		config: config,
		active: make(map[int]*track),
		nextID: 1,
	}
}

type pairing struct {
	trackID   int
	detection int
	iou       float32
}

// Update associates one frame of detections with the active tracks.
//
// Arguments:
//   - frame: The frame index. Must increase between calls.
//   - dets: The decoded detections of the frame.
//
// Returns:
//   - []TrackedBox: One entry per detection, in detection order.
func (t *Tracker) Update(frame int, dets []postprocess.Result) []TrackedBox {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pairs []pairing
	for id, tr := range t.active {
		for j, d := range dets {
			if d.Class != tr.last.Class {
				continue
			}
			iou := images.CalculateIoU(tr.last.Box, d.Box)
			if iou < t.config.MinIoU || iou == 0 {
				continue
			}
			pairs = append(pairs, pairing{trackID: id, detection: j, iou: iou})
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].iou != pairs[b].iou {
			return pairs[a].iou > pairs[b].iou
		}
		if pairs[a].trackID != pairs[b].trackID {
			return pairs[a].trackID < pairs[b].trackID
		}
		return pairs[a].detection < pairs[b].detection
	})

	assigned := make([]int, len(dets))
	usedTracks := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		if assigned[p.detection] != 0 || usedTracks[p.trackID] {
			continue
		}
		assigned[p.detection] = p.trackID
		usedTracks[p.trackID] = true
	}

	out := make([]TrackedBox, len(dets))
	for j, d := range dets {
		id := assigned[j]
		if id == 0 {
			id = t.nextID
			t.nextID++
			t.active[id] = &track{id: id}
		}
		box := TrackedBox{TrackID: id, Frame: frame, Box: d.Box, Score: d.Score, Class: d.Class}
		tr := t.active[id]
		tr.last = box
		tr.lastSeen = frame
		out[j] = box
	}

	for id, tr := range t.active {
		if frame-tr.lastSeen >= t.config.MaxAge {
			delete(t.active, id)
		}
	}
	return out
}

// Active returns the ids of the live tracks in ascending order. It may be
// called while another goroutine runs Update.
func (t *Tracker) Active() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]int, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
