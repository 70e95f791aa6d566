package output

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"

	"github.com/wesleyorama2/athenaprobe/internal/probe"
)

// maxErrorLength truncates error messages in the outcome table.
const maxErrorLength = 60

// Formatter renders results as human-readable text.
type Formatter struct {
	Options
	colors *ColorScheme
}

// NewFormatter creates a new text formatter with the given options
func NewFormatter(opts Options) *Formatter {
	colors := DefaultColorScheme()
	if opts.NoColor {
		colors = NoColorScheme()
	}
	return &Formatter{Options: opts, colors: colors}
}

// FormatResult formats a finished run.
func (f *Formatter) FormatResult(result *probe.Result) (string, error) {
	var buf strings.Builder
	r := result.Report
	c := f.colors

	buf.WriteString(c.Title.Sprintf("▶ PROBE: %d calls", r.Count))
	buf.WriteString("\n")
	f.writeProviders(&buf, result.Plan)

	succeeded := c.Success.Sprint(r.Succeeded)
	failed := strconv.Itoa(r.Failed)
	if r.Failed > 0 {
		failed = c.Error.Sprint(r.Failed)
	}
	fmt.Fprintf(&buf, "  %s %s responded, %s failed (%.1f%%)\n",
		c.Label.Sprint("Calls:"), succeeded, failed, r.ErrorRate()*100)

	if len(r.StatusCodes) > 0 {
		var parts []string
		for _, code := range sortedKeys(r.StatusCodes) {
			parts = append(parts, fmt.Sprintf("%s×%d", c.Status(code).Sprint(code), r.StatusCodes[code]))
		}
		fmt.Fprintf(&buf, "  %s %s\n", c.Label.Sprint("Status codes:"), strings.Join(parts, " "))
	}

	if len(r.Failures) > 0 {
		var parts []string
		for reason, n := range r.Failures {
			parts = append(parts, fmt.Sprintf("%s×%d", reason, n))
		}
		sort.Strings(parts)
		fmt.Fprintf(&buf, "  %s %s\n", c.Label.Sprint("Failures:"), c.Error.Sprint(strings.Join(parts, " ")))
	}

	l := r.Latency
	fmt.Fprintf(&buf, "  %s min %s  p50 %s  p90 %s  p95 %s  p99 %s  max %s\n",
		c.Label.Sprint("Latency:"),
		formatDuration(l.Min), formatDuration(l.P50), formatDuration(l.P90),
		formatDuration(l.P95), formatDuration(l.P99), formatDuration(l.Max))
	if result.Progress.Peak > 0 {
		fmt.Fprintf(&buf, "  %s %d\n", c.Label.Sprint("Peak in flight:"), result.Progress.Peak)
	}
	fmt.Fprintf(&buf, "  %s %s\n", c.Label.Sprint("Mean latency:"), c.Highlight.Sprintf("%.4fs", r.MeanLatencySeconds))
	fmt.Fprintf(&buf, "  %s %s (%.1f req/s)\n", c.Label.Sprint("Total time:"), c.Highlight.Sprintf("%.4fs", r.TotalWallSeconds), r.Throughput())

	if f.Outcomes && len(result.Outcomes) > 0 {
		buf.WriteString("\n")
		buf.WriteString(f.outcomeTable(result))
	}

	return buf.String(), nil
}

// FormatPlan formats a worklist.
func (f *Formatter) FormatPlan(plan *probe.Plan) (string, error) {
	var buf strings.Builder
	buf.WriteString(f.colors.Title.Sprintf("▶ WORKLIST: %d targets", len(plan.Worklist)))
	buf.WriteString("\n")
	f.writeProviders(&buf, *plan)

	if len(plan.Worklist) == 0 {
		return buf.String(), nil
	}

	var tableData [][]string
	for i, t := range plan.Worklist {
		tableData = append(tableData, []string{strconv.Itoa(i), t.Region, t.Name})
	}

	table := new(bytes.Buffer)
	tw := tablewriter.NewWriter(table)
	tw.SetHeader([]string{"#", "Region", "Name"})
	tw.SetBorder(true)
	tw.AppendBulk(tableData)
	tw.Render()

	buf.WriteString("\n")
	buf.WriteString(table.String())
	return buf.String(), nil
}

func (f *Formatter) writeProviders(buf *strings.Builder, plan probe.Plan) {
	if len(plan.Providers) > 0 {
		fmt.Fprintf(buf, "  %s %s %s\n", SuccessIcon(f.NoColor), f.colors.Label.Sprint("Providers:"), strings.Join(plan.Providers, ", "))
	}
	for _, pf := range plan.Failures {
		fmt.Fprintf(buf, "  %s %s %s\n", WarningIcon(f.NoColor), f.colors.Label.Sprintf("Skipped %s:", pf.Provider), pf.Err)
	}
}

func (f *Formatter) outcomeTable(result *probe.Result) string {
	var tableData [][]string
	for _, o := range result.Outcomes {
		status := "-"
		if !o.Failed() {
			status = f.colors.Status(o.StatusCode).Sprint(o.StatusCode)
		}
		errMsg := ""
		if o.Failed() {
			errMsg = o.Failure.String()
			if msg := o.Error(); msg != "" {
				errMsg += ": " + msg
			}
			errMsg = truncate(errMsg, maxErrorLength)
		}
		tableData = append(tableData, []string{
			strconv.Itoa(o.Index),
			o.Target.Region,
			f.colors.Target.Sprint(o.Target.Name),
			status,
			fmt.Sprintf("%.4fs", o.ElapsedSeconds()),
			errMsg,
		})
	}

	buf := new(bytes.Buffer)
	table := tablewriter.NewWriter(buf)
	table.SetHeader([]string{"#", "Region", "Name", "Status", "Elapsed", "Error"})
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.AppendBulk(tableData)
	table.Render()
	return buf.String()
}

// formatDuration prints sub-second durations in milliseconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	return d.Round(time.Millisecond).String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
