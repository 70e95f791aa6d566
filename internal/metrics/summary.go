// Package metrics aggregates dispatch outcomes into run statistics.
package metrics

import (
	"errors"
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
)

// ErrEmptyInput is returned by Summarize when there is nothing to aggregate.
var ErrEmptyInput = errors.New("no outcomes to summarize")

// Histogram bounds in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	StdDev time.Duration `json:"stdDev" yaml:"stdDev"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Count  int64         `json:"count" yaml:"count"`
}

// Report is the aggregate view of one run.
type Report struct {
	Count     int `json:"count" yaml:"count"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`

	// MeanLatencySeconds averages every outcome, failed ones included.
	MeanLatencySeconds float64 `json:"meanLatencySeconds" yaml:"meanLatencySeconds"`

	// TotalWallSeconds is set by the caller that timed dispatch and aggregation.
	TotalWallSeconds float64 `json:"totalWallSeconds" yaml:"totalWallSeconds"`

	Latency     LatencyStats                   `json:"latency" yaml:"latency"`
	StatusCodes map[int]int                    `json:"statusCodes" yaml:"statusCodes"`
	Failures    map[dispatch.FailureReason]int `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Summarize computes the report for a completed batch.
//
// The mean is the exact arithmetic mean of every outcome's elapsed time,
// including timeouts and transport failures. Percentiles come from an HDR
// histogram and are accurate to three significant figures.
func Summarize(outcomes []dispatch.Outcome) (*Report, error) {
	if len(outcomes) == 0 {
		return nil, ErrEmptyInput
	}

	hist := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
	report := &Report{
		Count:       len(outcomes),
		StatusCodes: make(map[int]int),
		Failures:    make(map[dispatch.FailureReason]int),
	}

	var sum, sumSquares float64
	for _, o := range outcomes {
		seconds := o.ElapsedSeconds()
		sum += seconds
		sumSquares += seconds * seconds

		_ = hist.RecordValue(clampMicros(o.Elapsed))

		if o.Failed() {
			report.Failed++
			report.Failures[o.Failure]++
		} else {
			report.Succeeded++
			report.StatusCodes[o.StatusCode]++
		}
	}

	n := float64(len(outcomes))
	mean := sum / n
	variance := sumSquares/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	report.MeanLatencySeconds = mean
	report.Latency = LatencyStats{
		Min:    time.Duration(hist.Min()) * time.Microsecond,
		Max:    time.Duration(hist.Max()) * time.Microsecond,
		Mean:   secondsToDuration(mean),
		StdDev: secondsToDuration(math.Sqrt(variance)),
		P50:    time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  hist.TotalCount(),
	}

	return report, nil
}

// WithWallTime records the wall-clock duration of the whole batch.
func (r *Report) WithWallTime(d time.Duration) *Report {
	r.TotalWallSeconds = d.Seconds()
	return r
}

// ErrorRate returns the fraction of outcomes that received no response.
func (r *Report) ErrorRate() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Count)
}

// Throughput returns completed calls per wall-clock second.
func (r *Report) Throughput() float64 {
	if r.TotalWallSeconds <= 0 {
		return 0
	}
	return float64(r.Count) / r.TotalWallSeconds
}

func clampMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < histogramMin {
		return histogramMin
	}
	if us > histogramMax {
		return histogramMax
	}
	return us
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
