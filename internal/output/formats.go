package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	"github.com/wesleyorama2/athenaprobe/internal/metrics"
	"github.com/wesleyorama2/athenaprobe/internal/probe"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Options control what a formatter includes.
type Options struct {
	// Outcomes adds one entry per call to the report.
	Outcomes bool
	NoColor  bool
	Pretty   bool
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatResult(result *probe.Result) (string, error)
	FormatPlan(plan *probe.Plan) (string, error)
}

// GetFormatter returns the formatter for format, falling back to text.
func GetFormatter(format OutputFormat, opts Options) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Options: opts}
	case FormatYAML:
		return &YAMLFormatter{Options: opts}
	default:
		return NewFormatter(opts)
	}
}

// LatencyData is the latency distribution in milliseconds.
type LatencyData struct {
	Min    float64 `json:"minMs" yaml:"minMs"`
	Mean   float64 `json:"meanMs" yaml:"meanMs"`
	StdDev float64 `json:"stdDevMs" yaml:"stdDevMs"`
	P50    float64 `json:"p50Ms" yaml:"p50Ms"`
	P90    float64 `json:"p90Ms" yaml:"p90Ms"`
	P95    float64 `json:"p95Ms" yaml:"p95Ms"`
	P99    float64 `json:"p99Ms" yaml:"p99Ms"`
	Max    float64 `json:"maxMs" yaml:"maxMs"`
}

// ProviderFailureData describes a provider that contributed nothing.
type ProviderFailureData struct {
	Provider string `json:"provider" yaml:"provider"`
	Error    string `json:"error" yaml:"error"`
}

// OutcomeData is the serialized form of one call.
type OutcomeData struct {
	Index          int     `json:"index" yaml:"index"`
	Region         string  `json:"region" yaml:"region"`
	Name           string  `json:"name" yaml:"name"`
	StatusCode     int     `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Failure        string  `json:"failure,omitempty" yaml:"failure,omitempty"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds" yaml:"elapsedSeconds"`
}

// ReportData is the serialized form of a finished run.
type ReportData struct {
	Count              int                   `json:"count" yaml:"count"`
	Succeeded          int                   `json:"succeeded" yaml:"succeeded"`
	Failed             int                   `json:"failed" yaml:"failed"`
	ErrorRate          float64               `json:"errorRate" yaml:"errorRate"`
	MeanLatencySeconds float64               `json:"meanLatencySeconds" yaml:"meanLatencySeconds"`
	TotalWallSeconds   float64               `json:"totalWallSeconds" yaml:"totalWallSeconds"`
	Throughput         float64               `json:"throughput" yaml:"throughput"`
	PeakInFlight       int64                 `json:"peakInFlight" yaml:"peakInFlight"`
	Latency            LatencyData           `json:"latency" yaml:"latency"`
	StatusCodes        map[int]int           `json:"statusCodes" yaml:"statusCodes"`
	Failures           map[string]int        `json:"failures,omitempty" yaml:"failures,omitempty"`
	Providers          []string              `json:"providers" yaml:"providers"`
	ProviderFailures   []ProviderFailureData `json:"providerFailures,omitempty" yaml:"providerFailures,omitempty"`
	Outcomes           []OutcomeData         `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Timestamp          string                `json:"timestamp" yaml:"timestamp"`
}

// TargetData is one worklist entry.
type TargetData struct {
	Region string `json:"region" yaml:"region"`
	Name   string `json:"name" yaml:"name"`
}

// PlanData is the serialized form of a worklist.
type PlanData struct {
	Count            int                   `json:"count" yaml:"count"`
	Providers        []string              `json:"providers" yaml:"providers"`
	ProviderFailures []ProviderFailureData `json:"providerFailures,omitempty" yaml:"providerFailures,omitempty"`
	Targets          []TargetData          `json:"targets" yaml:"targets"`
}

// NewReportData converts a run result into its serialized form.
func NewReportData(result *probe.Result, withOutcomes bool) ReportData {
	r := result.Report
	data := ReportData{
		Count:              r.Count,
		Succeeded:          r.Succeeded,
		Failed:             r.Failed,
		ErrorRate:          r.ErrorRate(),
		MeanLatencySeconds: r.MeanLatencySeconds,
		TotalWallSeconds:   r.TotalWallSeconds,
		Throughput:         r.Throughput(),
		PeakInFlight:       result.Progress.Peak,
		Latency:            newLatencyData(r.Latency),
		StatusCodes:        r.StatusCodes,
		Providers:          nonNil(result.Providers),
		ProviderFailures:   providerFailures(result.Plan),
		Timestamp:          time.Now().Format(time.RFC3339),
	}

	if len(r.Failures) > 0 {
		data.Failures = make(map[string]int, len(r.Failures))
		for reason, n := range r.Failures {
			data.Failures[reason.String()] = n
		}
	}

	if withOutcomes {
		data.Outcomes = make([]OutcomeData, 0, len(result.Outcomes))
		for _, o := range result.Outcomes {
			data.Outcomes = append(data.Outcomes, newOutcomeData(o))
		}
	}
	return data
}

// NewPlanData converts a worklist into its serialized form.
func NewPlanData(plan *probe.Plan) PlanData {
	data := PlanData{
		Count:            len(plan.Worklist),
		Providers:        nonNil(plan.Providers),
		ProviderFailures: providerFailures(*plan),
		Targets:          make([]TargetData, 0, len(plan.Worklist)),
	}
	for _, t := range plan.Worklist {
		data.Targets = append(data.Targets, TargetData{Region: t.Region, Name: t.Name})
	}
	return data
}

func newOutcomeData(o dispatch.Outcome) OutcomeData {
	d := OutcomeData{
		Index:          o.Index,
		Region:         o.Target.Region,
		Name:           o.Target.Name,
		StatusCode:     o.StatusCode,
		ElapsedSeconds: o.ElapsedSeconds(),
	}
	if o.Failed() {
		d.Failure = o.Failure.String()
		d.Error = o.Error()
	}
	return d
}

func newLatencyData(l metrics.LatencyStats) LatencyData {
	return LatencyData{
		Min:    millis(l.Min),
		Mean:   millis(l.Mean),
		StdDev: millis(l.StdDev),
		P50:    millis(l.P50),
		P90:    millis(l.P90),
		P95:    millis(l.P95),
		P99:    millis(l.P99),
		Max:    millis(l.Max),
	}
}

func providerFailures(plan probe.Plan) []ProviderFailureData {
	var out []ProviderFailureData
	for _, f := range plan.Failures {
		out = append(out, ProviderFailureData{Provider: f.Provider, Error: f.Err.Error()})
	}
	return out
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Options
}

// FormatResult formats a run result as JSON
func (f *JSONFormatter) FormatResult(result *probe.Result) (string, error) {
	return f.marshal(NewReportData(result, f.Outcomes))
}

// FormatPlan formats a worklist as JSON
func (f *JSONFormatter) FormatPlan(plan *probe.Plan) (string, error) {
	return f.marshal(NewPlanData(plan))
}

func (f *JSONFormatter) marshal(v interface{}) (string, error) {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(output), nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	Options
}

// FormatResult formats a run result as YAML
func (f *YAMLFormatter) FormatResult(result *probe.Result) (string, error) {
	return marshalYAML(NewReportData(result, f.Outcomes))
}

// FormatPlan formats a worklist as YAML
func (f *YAMLFormatter) FormatPlan(plan *probe.Plan) (string, error) {
	return marshalYAML(NewPlanData(plan))
}

func marshalYAML(v interface{}) (string, error) {
	output, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(output), nil
}
