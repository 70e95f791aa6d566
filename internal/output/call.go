package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// FormatCall formats a single call made outside a batch.
func (f *Formatter) FormatCall(t target.Target, url string, resp *probehttp.Response) string {
	var buf strings.Builder
	c := f.colors

	fmt.Fprintf(&buf, "▶ CALL: %s %s\n", c.Target.Sprint(t), url)
	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%dms)\n", c.Status(resp.StatusCode).Sprint(resp.Status), resp.GetResponseTimeMillis())

	tm := resp.Timing
	reused := ""
	if tm.ConnReused {
		reused = " (reused connection)"
	}
	buf.WriteString("  Timing:" + reused + "\n")
	fmt.Fprintf(&buf, "    DNS Lookup:         %s\n", formatDuration(tm.DNSLookupTime))
	fmt.Fprintf(&buf, "    TCP Connection:     %s\n", formatDuration(tm.TCPConnectTime))
	fmt.Fprintf(&buf, "    TLS Handshake:      %s\n", formatDuration(tm.TLSHandshakeTime))
	fmt.Fprintf(&buf, "    Time to First Byte: %s\n", formatDuration(tm.TimeToFirstByte))
	fmt.Fprintf(&buf, "    Content Transfer:   %s\n", formatDuration(tm.ContentTransferTime))
	fmt.Fprintf(&buf, "    Headers Received:   %s\n", c.Highlight.Sprint(formatDuration(tm.TotalTime)))

	if f.Outcomes {
		fmt.Fprintf(&buf, "  Received: %d bytes\n", resp.BytesReceived)
		if ct := resp.GetHeader("Content-Type"); ct != "" {
			fmt.Fprintf(&buf, "  Content-Type: %s\n", ct)
		}
		if body, err := resp.GetBodyAsString(); err == nil && body != "" {
			buf.WriteString("  Body:\n")
			buf.WriteString(formatJSONString(body))
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, []byte(s), "  ", "  "); err != nil {
		return s
	}
	return "  " + prettyJSON.String()
}

// FormatCallError formats a call that got no response.
func (f *Formatter) FormatCallError(t target.Target, url string, elapsed time.Duration, err error) string {
	return fmt.Sprintf("▶ CALL: %s %s\n%s %s after %s\n",
		f.colors.Target.Sprint(t), url, ErrorIcon(f.NoColor), f.colors.Error.Sprint(err), formatDuration(elapsed))
}
