package output

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/metrics"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

func TestFormatCall(t *testing.T) {
	resp := &probehttp.Response{
		StatusCode:   200,
		Status:       "200 OK",
		Headers:      http.Header{"Content-Type": []string{"application/json"}},
		ResponseTime: 123 * time.Millisecond,
		Timing: probehttp.TimingInfo{
			DNSLookupTime:   2 * time.Millisecond,
			TCPConnectTime:  3 * time.Millisecond,
			TimeToFirstByte: 100 * time.Millisecond,
			TotalTime:       123 * time.Millisecond,
			ConnReused:      true,
		},
		BytesReceived: 42,
	}

	f := NewFormatter(Options{NoColor: true})
	out := f.FormatCall(target.New("NA1", "CE Fed"), "http://athena/NA1/CE%20Fed", resp)

	for _, want := range []string{
		"▶ CALL: NA1/CE Fed http://athena/NA1/CE%20Fed",
		"◀ RESPONSE: 200 OK (123ms)",
		"Timing: (reused connection)",
		"DNS Lookup:         2.0ms",
		"Headers Received:   123.0ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatCall() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Received: 42 bytes") {
		t.Error("details should only be shown when requested")
	}

	detailed := NewFormatter(Options{NoColor: true, Outcomes: true}).FormatCall(target.New("NA1", "x"), "u", resp)
	if !strings.Contains(detailed, "Received: 42 bytes") || !strings.Contains(detailed, "Content-Type: application/json") {
		t.Errorf("detailed FormatCall() = %s", detailed)
	}
}

func TestFormatCallError(t *testing.T) {
	out := NewFormatter(Options{NoColor: true}).FormatCallError(target.New("KR", "Faker"), "http://x", 1500*time.Millisecond, errors.New("connection refused"))
	if !strings.Contains(out, "✗ connection refused after 1.5s") {
		t.Errorf("FormatCallError() = %q", out)
	}
}

func TestFormatJSONString(t *testing.T) {
	if got := formatJSONString("not json"); got != "not json" {
		t.Errorf("formatJSONString() = %q", got)
	}
	if got := formatJSONString(`{"a":1}`); !strings.Contains(got, "\"a\": 1") {
		t.Errorf("formatJSONString() = %q", got)
	}
}

func TestFormatProgress(t *testing.T) {
	got := FormatProgress(metrics.Progress{
		Total:     120,
		Completed: 30,
		InFlight:  12,
		Failed:    1,
		P95:       250 * time.Millisecond,
		Elapsed:   2345 * time.Millisecond,
	})
	want := "[ 25%] 30/120 calls, 12 in flight, 1 failed, p95 250.0ms, 2.3s elapsed"
	if got != want {
		t.Errorf("FormatProgress() = %q, want %q", got, want)
	}
}
