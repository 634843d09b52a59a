// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/images"
)

// ErrInvalidThreshold is returned when an IoU threshold falls outside [0, 1].
var ErrInvalidThreshold = errors.New("iou threshold must be within [0, 1]")

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap at or above which a lower-scored box of the
	// same class is suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// NumWorkers is the number of goroutines suppressing classes in parallel.
	// Values below 2 run every class on the calling goroutine.
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}

// Validate rejects thresholds outside [0, 1]. Out-of-range thresholds are
// refused rather than clamped so that misconfiguration surfaces at startup.
func (c NMSConfig) Validate() error {
	if math32.IsNaN(c.IoUThreshold) || c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return errors.Wrapf(ErrInvalidThreshold, "got %v", c.IoUThreshold)
	}
	if c.NumWorkers < 0 {
		return errors.Errorf("num_workers must not be negative, got %d", c.NumWorkers)
	}
	return nil
}

// MultiClassNMS runs greedy Non-Maximum Suppression independently for every
// class and returns the indices of the boxes to keep.
//
// Within a class, candidates are visited by descending score with ties broken
// by ascending original index. The best remaining candidate is kept and every
// remaining candidate of the same class whose IoU with it is >= the threshold
// is dropped, until no candidates remain.
//
// Arguments:
//   - boxes: Boxes in corner form.
//   - scores: Confidence score per box.
//   - classIDs: Class id per box.
//   - config: NMS configuration.
//
// Returns:
//   - []int: Indices into boxes of the retained detections, ascending. Empty
//     input yields an empty slice.
//   - error: If the config is invalid or the slices differ in length.
//
// Example:
//
// ```go
//
//	keep, err := MultiClassNMS(
//		[]images.Rect{{0, 0, 10, 10}, {1, 1, 10, 10}},
//		[]float32{0.9, 0.8},
//		[]int{2, 2},
//		NMSConfig{IoUThreshold: 0.3},
//	)
//	// keep == []int{0}
//
// ```
func MultiClassNMS(boxes []images.Rect, scores []float32, classIDs []int, config NMSConfig) ([]int, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(boxes) != len(scores) || len(boxes) != len(classIDs) {
		return nil, errors.Errorf(
			"mismatched input lengths: %d boxes, %d scores, %d class ids",
			len(boxes), len(scores), len(classIDs),
		)
	}
	if len(boxes) == 0 {
		return []int{}, nil
	}

	partitions := partitionByClass(classIDs)
	kept := make([][]int, len(partitions))

	if config.NumWorkers < 2 || len(partitions) == 1 {
		for i, indices := range partitions {
			kept[i] = suppress(boxes, scores, indices, config.IoUThreshold)
		}
	} else {
		// Classes are disjoint, so each worker only writes its own slot.
		jobs := make(chan int, len(partitions))
		var wg sync.WaitGroup
		for w := 0; w < min(config.NumWorkers, len(partitions)); w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range jobs {
					kept[p] = suppress(boxes, scores, partitions[p], config.IoUThreshold)
				}
			}()
		}
		for p := range partitions {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
	}

	var out []int
	for _, k := range kept {
		out = append(out, k...)
	}
	sort.Ints(out)

	return out, nil
}

// partitionByClass groups indices by class id. Partitions are ordered by class
// id and each holds its indices in ascending order.
func partitionByClass(classIDs []int) [][]int {
	byClass := make(map[int][]int)
	var classes []int
	for i, c := range classIDs {
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	sort.Ints(classes)

	partitions := make([][]int, 0, len(classes))
	for _, c := range classes {
		partitions = append(partitions, byClass[c])
	}
	return partitions
}

// suppress performs greedy NMS over one class partition.
func suppress(boxes []images.Rect, scores []float32, indices []int, threshold float32) []int {
	order := make([]int, len(indices))
	copy(order, indices)
	// indices arrive ascending, so a stable sort breaks score ties by index.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	suppressed := make([]bool, len(order))
	keep := make([]int, 0, len(order))
	for i, anchor := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, anchor)

		for j := i + 1; j < len(order); j++ {
			if suppressed[j] {
				continue
			}
			if images.CalculateIoU(boxes[anchor], boxes[order[j]]) >= threshold {
				suppressed[j] = true
			}
		}
	}

	return keep
}

// ApplyNMS filters overlapping detections using class-aware Non-Maximum
// Suppression.
//
// Arguments:
//   - detections: Detections in any order.
//   - config: NMS configuration.
//
// Returns:
//   - []Result: The retained detections in their input order.
//   - error: If the config is invalid.
func ApplyNMS(detections []Result, config NMSConfig) ([]Result, error) {
	boxes := make([]images.Rect, len(detections))
	scores := make([]float32, len(detections))
	classIDs := make([]int, len(detections))
	for i, d := range detections {
		boxes[i] = d.Box
		scores[i] = d.Score
		classIDs[i] = d.Class
	}

	keep, err := MultiClassNMS(boxes, scores, classIDs, config)
	if err != nil {
		return nil, err
	}

	filtered := make([]Result, 0, len(keep))
	for _, i := range keep {
		filtered = append(filtered, detections[i])
	}
	return filtered, nil
}
