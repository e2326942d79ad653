// Package history keeps a bounded window of recent samples per charted
// metric.
//
// A History has a single writer, the goroutine that receives snapshots
// from the scheduler, and is not safe for concurrent use.
package history

import (
	"github.com/prabalesh/crophud/internal/models"
)

type History struct {
	capacity int
	tracked  [models.MetricCount]bool
	samples  [models.MetricCount][]float64
}

// New returns a History keeping up to capacity samples for each of
// metrics. Capacity below one is treated as one.
func New(capacity int, metrics ...models.Metric) *History {
	if capacity < 1 {
		capacity = 1
	}
	h := &History{capacity: capacity}
	for _, metric := range metrics {
		if !metric.Valid() || h.tracked[metric] {
			continue
		}
		h.tracked[metric] = true
		h.samples[metric] = make([]float64, 0, capacity)
	}
	return h
}

func (h *History) Capacity() int { return h.capacity }

// Tracks reports whether metric keeps history.
func (h *History) Tracks(metric models.Metric) bool {
	return metric.Valid() && h.tracked[metric]
}

// Push appends the chartable form of value, evicting the oldest sample
// when full. Unavailable values and untracked metrics are ignored; it
// reports whether a sample was added.
func (h *History) Push(metric models.Metric, value models.Value) bool {
	if !h.Tracks(metric) {
		return false
	}
	sample, ok := value.Chartable()
	if !ok {
		return false
	}

	window := h.samples[metric]
	if len(window) == h.capacity {
		copy(window, window[1:])
		window[len(window)-1] = sample
	} else {
		window = append(window, sample)
	}
	h.samples[metric] = window
	return true
}

// Record pushes every tracked metric from snapshot.
func (h *History) Record(snapshot models.Snapshot) {
	for metric := range h.tracked {
		if h.tracked[metric] {
			h.Push(models.Metric(metric), snapshot.Get(models.Metric(metric)))
		}
	}
}

// Samples returns a copy of metric's samples, oldest first.
func (h *History) Samples(metric models.Metric) []float64 {
	if !h.Tracks(metric) {
		return nil
	}
	return append([]float64(nil), h.samples[metric]...)
}

func (h *History) Len(metric models.Metric) int {
	if !h.Tracks(metric) {
		return 0
	}
	return len(h.samples[metric])
}

// Metrics lists the tracked metrics in declaration order.
func (h *History) Metrics() []models.Metric {
	var metrics []models.Metric
	for metric, tracked := range h.tracked {
		if tracked {
			metrics = append(metrics, models.Metric(metric))
		}
	}
	return metrics
}
