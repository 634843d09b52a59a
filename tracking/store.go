// Package tracking keeps per-track state between frames.
package tracking

import (
	"sort"

	"github.com/nvr-ai/go-linecount/images"
)

// record is one arena slot.
type record struct {
	id       int
	center   images.Point
	lastSeen int
	live     bool
}

// Store remembers the last observed center of every live track.
//
// Records are kept in an index-based arena. Freed slots are reused by later
// tracks, so a long-running stream does not grow the store without bound once
// MaxAge is set.
//
// A Store is not safe for concurrent use. The crossing detector serializes
// access to it.
type Store struct {
	// MaxAge is the number of consecutive frames a track may go unseen before
	// Sweep evicts it. Zero disables eviction.
	MaxAge int

	records []record
	index   map[int]int
	free    []int
	frame   int
}

// NewStore creates an empty store.
//
// Arguments:
//   - maxAge: Frames a track may be absent before eviction (0 = never).
//
// Returns:
//   - *Store: The store.
func NewStore(maxAge int) *Store {
	if maxAge < 0 {
		maxAge = 0
	}
	return &Store{
		MaxAge: maxAge,
		index:  make(map[int]int),
	}
}

// Observe records the center of a track for the current frame.
//
// Arguments:
//   - trackID: The tracker-assigned identity.
//   - center: The center of the track's box in this frame.
//
// Returns:
//   - images.Point: The center recorded by the previous observation.
//   - bool: False on the first sighting, in which case no previous center
//     exists and the returned point is the zero value.
func (s *Store) Observe(trackID int, center images.Point) (images.Point, bool) {
	if slot, ok := s.index[trackID]; ok {
		r := &s.records[slot]
		prev := r.center
		r.center = center
		r.lastSeen = s.frame
		return prev, true
	}

	r := record{id: trackID, center: center, lastSeen: s.frame, live: true}
	if n := len(s.free); n > 0 {
		slot := s.free[n-1]
		s.free = s.free[:n-1]
		s.records[slot] = r
		s.index[trackID] = slot
	} else {
		s.records = append(s.records, r)
		s.index[trackID] = len(s.records) - 1
	}
	return images.Point{}, false
}

// Get returns the last center of a live track.
func (s *Store) Get(trackID int) (images.Point, bool) {
	slot, ok := s.index[trackID]
	if !ok {
		return images.Point{}, false
	}
	return s.records[slot].center, true
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	return len(s.index)
}

// Sweep closes a frame. Tracks that were not observed during the last MaxAge
// frames (this one included) are evicted, and subsequent observations are
// stamped with frame+1.
//
// Arguments:
//   - frame: The index of the frame that just finished.
//
// Returns:
//   - []int: The evicted track ids in ascending order, nil when nothing was
//     evicted.
func (s *Store) Sweep(frame int) []int {
	s.frame = frame + 1
	if s.MaxAge == 0 {
		return nil
	}

	var evicted []int
	for slot := range s.records {
		r := &s.records[slot]
		if !r.live || frame-r.lastSeen < s.MaxAge {
			continue
		}
		evicted = append(evicted, r.id)
		delete(s.index, r.id)
		*r = record{}
		s.free = append(s.free, slot)
	}
	sort.Ints(evicted)
	return evicted
}
