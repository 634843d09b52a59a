// Package profiler keeps rolling statistics of pipeline stage timings and
// counters and reports them periodically.
package profiler

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Collector is polled for gauges on every snapshot.
type Collector interface {
	Collect() map[string]float64
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func() map[string]float64

// Collect implements Collector.
func (f CollectorFunc) Collect() map[string]float64 { return f() }

// Options configures a Profiler.
type Options struct {
	// ReportInterval is the time between two reports of Run (default: 5s).
	ReportInterval time.Duration
	// Window is the number of samples kept per series (default: 300).
	Window int
	// Logf receives report lines (default: log.Printf).
	Logf func(format string, args ...any)
}

// Series summarizes the samples currently held for one name.
type Series struct {
	Name  string
	Count int64
	Last  float64
	Mean  float64
	Min   float64
	Max   float64
}

// ring is a fixed size window of samples.
type ring struct {
	values []float64
	next   int
	full   bool
	count  int64
	last   float64
}

func (r *ring) add(v float64) {
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.next == 0 {
		r.full = true
	}
	r.count++
	r.last = v
}

func (r *ring) series(name string) Series {
	n := r.next
	if r.full {
		n = len(r.values)
	}
	s := Series{Name: name, Count: r.count, Last: r.last}
	if n == 0 {
		return s
	}
	s.Min, s.Max = r.values[0], r.values[0]
	var sum float64
	for _, v := range r.values[:n] {
		sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	s.Mean = sum / float64(n)
	return s
}

// Profiler records samples by name. It is safe for concurrent use.
type Profiler struct {
	opts  Options
	start time.Time

	mu         sync.Mutex
	series     map[string]*ring
	collectors []Collector
}

// New creates a profiler.
//
// Arguments:
//   - opts: Options, zero values take their defaults.
//
// Returns:
//   - *Profiler: The profiler.
func New(opts Options) *Profiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.Window <= 0 {
		opts.Window = 300
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Profiler{
		opts:   opts,
		start:  time.Now(),
		series: make(map[string]*ring),
	}
}

// AddCollector registers a collector.
func (p *Profiler) AddCollector(c Collector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collectors = append(p.collectors, c)
}

// Record adds a sample to the named series.
func (p *Profiler) Record(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(name, value)
}

func (p *Profiler) record(name string, value float64) {
	r, ok := p.series[name]
	if !ok {
		r = &ring{values: make([]float64, p.opts.Window)}
		p.series[name] = r
	}
	r.add(value)
}

// Time starts timing a stage. The returned function records the elapsed
// milliseconds under name.
//
// Example:
//
//	done := p.Time("detect")
//	dets, err := detector.Detect(ctx, frame)
//	done()
func (p *Profiler) Time(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, float64(time.Since(start).Microseconds())/1000)
	}
}

// Snapshot polls the collectors and returns every series ordered by name.
func (p *Profiler) Snapshot() []Series {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.collectors {
		for name, v := range c.Collect() {
			p.record(name, v)
		}
	}

	out := make([]Series, 0, len(p.series))
	for name, r := range p.series {
		out = append(out, r.series(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report writes one status report.
func (p *Profiler) Report() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.opts.Logf("📈 uptime=%v goroutines=%d heap=%s gc=%d",
		time.Since(p.start).Truncate(time.Millisecond), runtime.NumGoroutine(), formatBytes(mem.HeapAlloc), mem.NumGC)
	for _, s := range p.Snapshot() {
		p.opts.Logf("   %-24s last=%.2f avg=%.2f min=%.2f max=%.2f n=%d", s.Name, s.Last, s.Mean, s.Min, s.Max, s.Count)
	}
}

// Run reports every ReportInterval until ctx is done.
func (p *Profiler) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Report()
		}
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
