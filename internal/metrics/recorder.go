package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// Recorder tracks a batch while it runs. It implements dispatch.Observer.
//
// # Thread Safety
//
// Recorder is safe for concurrent use. Counters use atomic operations and
// the histogram is guarded by a mutex, since HDR histograms are not
// safe for concurrent writes.
type Recorder struct {
	total int64

	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
	peak      atomic.Int64

	startTime time.Time
}

// Progress is a point-in-time view of a running batch.
type Progress struct {
	Total     int64
	Started   int64
	Completed int64
	Failed    int64
	InFlight  int64
	Peak      int64
	P95       time.Duration
	Elapsed   time.Duration
}

// Fraction returns completed/total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// NewRecorder creates a recorder for a batch of total calls.
func NewRecorder(total int) *Recorder {
	return &Recorder{
		total:     int64(total),
		hist:      hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		startTime: time.Now(),
	}
}

// Started implements dispatch.Observer.
func (r *Recorder) Started(_ int, _ target.Target) {
	r.started.Add(1)
	n := r.inFlight.Add(1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

// Finished implements dispatch.Observer.
func (r *Recorder) Finished(o dispatch.Outcome) {
	r.histMu.Lock()
	_ = r.hist.RecordValue(clampMicros(o.Elapsed))
	r.histMu.Unlock()

	if o.Failed() {
		r.failed.Add(1)
	}
	r.completed.Add(1)
	r.inFlight.Add(-1)
}

// Progress returns the current state of the batch.
func (r *Recorder) Progress() Progress {
	r.histMu.Lock()
	p95 := time.Duration(r.hist.ValueAtQuantile(95)) * time.Microsecond
	r.histMu.Unlock()

	return Progress{
		Total:     r.total,
		Started:   r.started.Load(),
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		InFlight:  r.inFlight.Load(),
		Peak:      r.peak.Load(),
		P95:       p95,
		Elapsed:   time.Since(r.startTime),
	}
}
