package bench

import (
	"math"
	"sort"
	"time"
)

// Recorder collects the outcome of every operation, one shard per worker.
type Recorder struct {
	shards  []*shard
	started time.Time
	elapsed time.Duration
}

type shard struct {
	latencies []time.Duration
	failed    int64
	errors    map[string]int64
	samples   map[string]string
}

// NewRecorder creates a recorder for the given number of workers.
func NewRecorder(workers int) *Recorder {
	r := &Recorder{
		shards:  make([]*shard, workers),
		started: time.Now(),
	}
	for i := range r.shards {
		r.shards[i] = &shard{
			errors:  make(map[string]int64),
			samples: make(map[string]string),
		}
	}
	return r
}

func (r *Recorder) shard(i int) *shard {
	return r.shards[i]
}

func (r *Recorder) finish() {
	r.elapsed = time.Since(r.started)
}

func (s *shard) record(d time.Duration, err error) {
	s.latencies = append(s.latencies, d)
	if err == nil {
		return
	}
	s.failed++
	key := classify(err)
	s.errors[key]++
	if _, ok := s.samples[key]; !ok {
		s.samples[key] = err.Error()
	}
}

// Elapsed returns the wall time of the run.
func (r *Recorder) Elapsed() time.Duration {
	return r.elapsed
}

// Summary merges the shards.
func (r *Recorder) Summary() Summary {
	var (
		all    []time.Duration
		failed int64
	)
	errs := make(map[string]int64)
	samples := make(map[string]string)

	for _, s := range r.shards {
		all = append(all, s.latencies...)
		failed += s.failed
		for k, n := range s.errors {
			errs[k] += n
		}
		for k, msg := range s.samples {
			if _, ok := samples[k]; !ok {
				samples[k] = msg
			}
		}
	}

	sum := Summary{
		Operations: int64(len(all)),
		Failed:     failed,
		Succeeded:  int64(len(all)) - failed,
		Latency:    summarize(all),
	}
	if len(errs) > 0 {
		sum.Errors = errs
		sum.ErrorSamples = samples
	}
	if secs := r.elapsed.Seconds(); secs > 0 {
		sum.Throughput = float64(sum.Operations) / secs
	}
	return sum
}

// Summary is the merged outcome of a run.
type Summary struct {
	Operations   int64             `json:"operations"`
	Succeeded    int64             `json:"succeeded"`
	Failed       int64             `json:"failed"`
	Throughput   float64           `json:"throughput_per_sec"`
	Errors       map[string]int64  `json:"errors,omitempty"`
	ErrorSamples map[string]string `json:"error_samples,omitempty"`
	Latency      Latency           `json:"latency"`
}

// Latency holds latency statistics in milliseconds.
type Latency struct {
	Min float64 `json:"min_ms"`
	Avg float64 `json:"avg_ms"`
	Max float64 `json:"max_ms"`
	P50 float64 `json:"p50_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
}

func summarize(ds []time.Duration) Latency {
	if len(ds) == 0 {
		return Latency{}
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })

	var total time.Duration
	for _, d := range ds {
		total += d
	}

	return Latency{
		Min: ms(ds[0]),
		Avg: ms(total / time.Duration(len(ds))),
		Max: ms(ds[len(ds)-1]),
		P50: ms(percentile(ds, 50)),
		P95: ms(percentile(ds, 95)),
		P99: ms(percentile(ds, 99)),
	}
}

// percentile uses the nearest rank on sorted ds.
func percentile(ds []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p / 100 * float64(len(ds))))
	if rank < 1 {
		rank = 1
	}
	return ds[rank-1]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
