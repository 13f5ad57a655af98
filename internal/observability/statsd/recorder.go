package statsd

import (
	"sync"
	"time"
)

// Kind is the StatsD metric type.
type Kind string

const (
	KindCount  Kind = "c"
	KindGauge  Kind = "g"
	KindTiming Kind = "ms"
)

// Sample is one emitted metric.
type Sample struct {
	Kind  Kind
	Name  string
	Value float64
	Tags  map[string]string
}

func countSample(name string, value int64, tags map[string]string) Sample {
	return Sample{Kind: KindCount, Name: name, Value: float64(value), Tags: cloneTags(tags)}
}

func gaugeSample(name string, value float64, tags map[string]string) Sample {
	return Sample{Kind: KindGauge, Name: name, Value: value, Tags: cloneTags(tags)}
}

func timingSample(name string, value time.Duration, tags map[string]string) Sample {
	return Sample{Kind: KindTiming, Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cloneTags(tags)}
}

// Recorder is an in-memory Sink. The CLI uses it when StatsD is disabled so the
// status command can still print counters; tests use it to assert emissions.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(countSample(name, value, tags))
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(gaugeSample(name, value, tags))
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(timingSample(name, value, tags))
}

func (r *Recorder) add(s Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// Samples returns every recorded sample in emission order.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Named returns the samples recorded under name.
func (r *Recorder) Named(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.samples {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Total sums the counter values recorded under name.
func (r *Recorder) Total(name string) int64 {
	var n int64
	for _, s := range r.Named(name) {
		if s.Kind == KindCount {
			n += int64(s.Value)
		}
	}
	return n
}
