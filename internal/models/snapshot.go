package models

import "time"

// Snapshot is the set of metric values collected in one tick. It is a
// plain value: copies share nothing, and there are no mutating methods.
type Snapshot struct {
	taken      time.Time
	values     [MetricCount]Value
	registered [MetricCount]bool
}

// NewSnapshot builds a Snapshot taken at the given time. Metrics listed
// in registered but absent from values read as unavailable; metrics not
// listed are reported as unregistered.
func NewSnapshot(taken time.Time, registered []Metric, values map[Metric]Value) Snapshot {
	snapshot := Snapshot{taken: taken}
	for _, metric := range registered {
		if !metric.Valid() {
			continue
		}
		snapshot.registered[metric] = true
		if value, ok := values[metric]; ok && value.Matches(metric.Shape()) {
			snapshot.values[metric] = value
		}
	}
	return snapshot
}

func (s Snapshot) Taken() time.Time { return s.taken }

// Get returns the value for metric, or Unavailable when the metric was
// not collected.
func (s Snapshot) Get(metric Metric) Value {
	if !metric.Valid() {
		return Unavailable()
	}
	return s.values[metric]
}

// Registered reports whether metric was part of this collection.
func (s Snapshot) Registered(metric Metric) bool {
	return metric.Valid() && s.registered[metric]
}

// Metrics returns the registered metrics in declaration order.
func (s Snapshot) Metrics() []Metric {
	var metrics []Metric
	for i, ok := range s.registered {
		if ok {
			metrics = append(metrics, Metric(i))
		}
	}
	return metrics
}

// Available counts registered metrics that resolved to a value.
func (s Snapshot) Available() int {
	count := 0
	for i, ok := range s.registered {
		if ok && s.values[i].Available() {
			count++
		}
	}
	return count
}
