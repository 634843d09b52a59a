package crossing

// Counters holds one count per direction. Only the directions of the
// configured lines are reported. Counters is a value type, copies are
// independent snapshots.
type Counters struct {
	counts  [numDirections]int
	enabled [numDirections]bool
}

// NewCounters enables the directions reported by the given lines.
func NewCounters(lines ...ReferenceLine) Counters {
	var c Counters
	for _, l := range lines {
		if l.Increasing.Valid() {
			c.enabled[l.Increasing] = true
		}
		if l.Decreasing.Valid() {
			c.enabled[l.Decreasing] = true
		}
	}
	return c
}

func (c *Counters) inc(d Direction) {
	c.counts[d]++
	c.enabled[d] = true
}

// Get returns the count of a direction.
func (c Counters) Get(d Direction) int {
	if !d.Valid() {
		return 0
	}
	return c.counts[d]
}

// Enabled returns the reported directions in counter order.
func (c Counters) Enabled() []Direction {
	var out []Direction
	for _, d := range Directions() {
		if c.enabled[d] {
			out = append(out, d)
		}
	}
	return out
}

// Total returns the sum over all directions.
func (c Counters) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot returns the counts keyed by direction label.
func (c Counters) Snapshot() map[string]int {
	out := make(map[string]int, numDirections)
	for _, d := range c.Enabled() {
		out[d.String()] = c.counts[d]
	}
	return out
}
