// Package profiler records how long each enhancement stage takes and reports
// the statistics through zerolog.
package profiler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultMaxSamples bounds the durations kept per stage.
const DefaultMaxSamples = 600

// StageStats summarises the timings of one stage. Count covers every sample
// recorded; the other figures cover the retained window.
type StageStats struct {
	Name    string        `json:"name"`
	Count   int64         `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Last    time.Duration `json:"last"`
}

// stageTracker tracks timing statistics over a sliding window of samples.
type stageTracker struct {
	durations []time.Duration
	totalTime time.Duration
	count     int64
}

// StageTimer is safe for concurrent use. The zero value is not usable; use
// NewStageTimer.
type StageTimer struct {
	mu         sync.Mutex
	maxSamples int
	stages     map[string]*stageTracker
	order      []string
}

// NewStageTimer creates a timer keeping at most maxSamples durations per
// stage. A non-positive maxSamples selects DefaultMaxSamples.
func NewStageTimer(maxSamples int) *StageTimer {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &StageTimer{
		maxSamples: maxSamples,
		stages:     make(map[string]*stageTracker),
	}
}

// Track begins timing a stage.
//
// Arguments:
// - name: The stage name.
//
// Returns:
// - A function to call when the stage completes. It returns the elapsed time.
//
// @example
// done := timer.Track("white balance")
// defer done()
func (st *StageTimer) Track(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		st.Record(name, elapsed)
		return elapsed
	}
}

// Record adds one duration sample for the stage.
func (st *StageTimer) Record(name string, duration time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	tracker, exists := st.stages[name]
	if !exists {
		tracker = &stageTracker{}
		st.stages[name] = tracker
		st.order = append(st.order, name)
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > st.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++
}

// Stats returns a snapshot of every stage in the order stages were first seen.
func (st *StageTimer) Stats() []StageStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats := make([]StageStats, 0, len(st.order))
	for _, name := range st.order {
		tracker := st.stages[name]
		s := StageStats{
			Name:  name,
			Count: tracker.count,
			Total: tracker.totalTime,
		}
		if n := len(tracker.durations); n > 0 {
			s.Average = tracker.totalTime / time.Duration(n)
			s.Min = lo.Min(tracker.durations)
			s.Max = lo.Max(tracker.durations)
			s.Last = tracker.durations[n-1]
		}
		stats = append(stats, s)
	}
	return stats
}

// Reset discards every sample.
func (st *StageTimer) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stages = make(map[string]*stageTracker)
	st.order = nil
}

// Report logs one info line per stage and a heap summary.
func (st *StageTimer) Report(log zerolog.Logger) {
	stats := st.Stats()
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Total > stats[j].Total })

	for _, s := range stats {
		log.Info().
			Str("stage", s.Name).
			Int64("count", s.Count).
			Dur("avg", s.Average.Truncate(time.Microsecond)).
			Dur("min", s.Min.Truncate(time.Microsecond)).
			Dur("max", s.Max.Truncate(time.Microsecond)).
			Msg("stage timing")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Debug().
		Str("heap_alloc", formatBytes(mem.HeapAlloc)).
		Str("total_alloc", formatBytes(mem.TotalAlloc)).
		Uint32("gc_cycles", mem.NumGC).
		Int("goroutines", runtime.NumGoroutine()).
		Msg("memory usage")
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
