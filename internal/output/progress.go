package output

import (
	"fmt"
	"time"

	"github.com/wesleyorama2/athenaprobe/internal/metrics"
)

// FormatProgress renders a one-line view of a running batch.
func FormatProgress(p metrics.Progress) string {
	return fmt.Sprintf("[%3.0f%%] %d/%d calls, %d in flight, %d failed, p95 %s, %s elapsed",
		p.Fraction()*100, p.Completed, p.Total, p.InFlight, p.Failed,
		formatDuration(p.P95), p.Elapsed.Truncate(100*time.Millisecond))
}
