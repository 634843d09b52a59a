package crossing

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/tracking"
)

// DedupPolicy controls how repeated crossings of a track are suppressed.
type DedupPolicy uint8

const (
	// DedupPerTrack keeps one last-counted direction per track, shared by all
	// lines. A crossing is counted when it differs from that direction.
	DedupPerTrack DedupPolicy = iota
	// DedupPerAxis keeps one last-counted direction per track and axis, so a
	// crossing of one line does not re-arm the other.
	DedupPerAxis
)

func (p DedupPolicy) String() string {
	switch p {
	case DedupPerTrack:
		return "per-track"
	case DedupPerAxis:
		return "per-axis"
	default:
		return "unknown"
	}
}

// ParseDedupPolicy parses "per-track" or "per-axis". The empty string is
// DedupPerTrack.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch s {
	case "", "per-track":
		return DedupPerTrack, nil
	case "per-axis":
		return DedupPerAxis, nil
	default:
		return 0, errors.Errorf("unknown dedup policy %q", s)
	}
}

// Crossing is one line crossed by a track between two frames.
type Crossing struct {
	Line      string
	Axis      Axis
	Direction Direction
	// Counted is false when the dedup policy suppressed the crossing.
	Counted bool
	// Event is set when Counted is true.
	Event CrossingEvent
}

type dedupKey struct {
	trackID int
	axis    Axis
}

// Detector turns per-frame track centers into crossing events.
//
// It owns the track history, the dedup memory, the counters and the clock.
// Every method is serialized by a mutex, but the pipeline is expected to feed
// frames in order: all Observe calls of a frame, then EndFrame.
type Detector struct {
	mu          sync.Mutex
	lines       []ReferenceLine
	policy      DedupPolicy
	store       *tracking.Store
	lastCounted map[dedupKey]Direction
	counters    Counters
	log         *EventLog
	clock       *Clock
}

// DetectorOptions holds the optional collaborators of a Detector.
type DetectorOptions struct {
	Policy DedupPolicy
	// Store defaults to a store that never evicts.
	Store *tracking.Store
	// Log defaults to a new, empty log.
	Log *EventLog
	// Clock defaults to DefaultStart at DefaultFPS.
	Clock *Clock
}

// NewDetector creates a detector for the given lines.
//
// Arguments:
//   - lines: The reference lines, evaluated in order for every sample pair.
//   - opts: The dedup policy and optional collaborators.
//
// Returns:
//   - *Detector: The detector.
//   - error: If no line is given or a line is invalid.
//
// Example:
//
// ```go
//
//	d, err := NewDetector([]ReferenceLine{
//	    NewHorizontalLine(240, 640),
//	    NewPerpendicularLine(400, 384),
//	}, DetectorOptions{})
//
// ```
func NewDetector(lines []ReferenceLine, opts DetectorOptions) (*Detector, error) {
	if len(lines) == 0 {
		return nil, errors.New("at least one reference line is required")
	}
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Policy != DedupPerTrack && opts.Policy != DedupPerAxis {
		return nil, errors.Errorf("unknown dedup policy %d", opts.Policy)
	}

	if opts.Store == nil {
		opts.Store = tracking.NewStore(0)
	}
	if opts.Log == nil {
		opts.Log = NewEventLog()
	}
	if opts.Clock == nil {
		clock, err := NewClock(DefaultStart, DefaultFPS)
		if err != nil {
			return nil, err
		}
		opts.Clock = clock
	}

	return &Detector{
		lines:       append([]ReferenceLine(nil), lines...),
		policy:      opts.Policy,
		store:       opts.Store,
		lastCounted: make(map[dedupKey]Direction),
		counters:    NewCounters(lines...),
		log:         opts.Log,
		clock:       opts.Clock,
	}, nil
}

// Observe records the center of a track in the current frame and evaluates
// every line against the previous center. Nothing is evaluated on the first
// sighting of a track. The history is updated whatever the outcome.
//
// Arguments:
//   - trackID: The tracker-assigned identity.
//   - center: The center of the track's box.
//
// Returns:
//   - []Crossing: The lines crossed, in line order, counted or not.
func (d *Detector) Observe(trackID int, center images.Point) []Crossing {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.store.Observe(trackID, center)
	if !ok {
		return nil
	}

	var crossings []Crossing
	for _, line := range d.lines {
		dir, crossed := line.Cross(prev, center)
		if !crossed {
			continue
		}

		c := Crossing{Line: line.Name, Axis: line.Axis, Direction: dir}
		key := d.key(trackID, line.Axis)
		if last, seen := d.lastCounted[key]; !seen || last != dir {
			d.lastCounted[key] = dir
			c.Counted = true
			c.Event = CrossingEvent{TrackID: trackID, Timestamp: d.clock.Now(), Direction: dir}
			d.counters.inc(dir)
			d.log.Append(c.Event)
		}
		crossings = append(crossings, c)
	}
	return crossings
}

func (d *Detector) key(trackID int, axis Axis) dedupKey {
	if d.policy == DedupPerAxis {
		return dedupKey{trackID: trackID, axis: axis}
	}
	return dedupKey{trackID: trackID}
}

// Forget drops the dedup memory of the given tracks. A forgotten track that
// reappears is counted as a new one.
func (d *Detector) Forget(trackIDs ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forget(trackIDs)
}

func (d *Detector) forget(trackIDs []int) {
	for _, id := range trackIDs {
		delete(d.lastCounted, dedupKey{trackID: id})
		delete(d.lastCounted, dedupKey{trackID: id, axis: AxisHorizontal})
		delete(d.lastCounted, dedupKey{trackID: id, axis: AxisPerpendicular})
	}
}

// EndFrame closes the current frame: tracks that aged out of the history are
// evicted and forgotten, then the clock moves to the next frame.
//
// Returns:
//   - []int: The evicted track ids.
func (d *Detector) EndFrame() []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	evicted := d.store.Sweep(d.clock.Frame())
	d.forget(evicted)
	d.clock.Advance()
	return evicted
}

// Counters returns a snapshot of the direction counters.
func (d *Detector) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

// Log returns the event log the detector appends to.
func (d *Detector) Log() *EventLog {
	return d.log
}

// Lines returns the configured reference lines.
func (d *Detector) Lines() []ReferenceLine {
	return append([]ReferenceLine(nil), d.lines...)
}

// Now returns the simulated time of the current frame.
func (d *Detector) Now() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock.Now()
}

// Frame returns the index of the current frame.
func (d *Detector) Frame() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock.Frame()
}

// Tracks returns the number of tracks in the history.
func (d *Detector) Tracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Len()
}
