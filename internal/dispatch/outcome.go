package dispatch

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// FailureReason marks an outcome for which no HTTP response was received.
// The zero value means a response arrived, whatever its status code.
type FailureReason string

const (
	FailureNone              FailureReason = ""
	FailureTimeout           FailureReason = "timeout"
	FailureConnectionRefused FailureReason = "connection_refused"
	FailureDNS               FailureReason = "dns"
	FailureCancelled         FailureReason = "cancelled"
	FailureInvalidRequest    FailureReason = "invalid_request"
	FailureTransport         FailureReason = "transport"
)

func (r FailureReason) String() string {
	if r == FailureNone {
		return "none"
	}
	return string(r)
}

// Outcome is the terminal result of dispatching one worklist entry.
type Outcome struct {
	// Index is the position of Target in the dispatched worklist.
	Index      int           `json:"index" yaml:"index"`
	Target     target.Target `json:"target" yaml:"target"`
	StatusCode int           `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Failure    FailureReason `json:"failure,omitempty" yaml:"failure,omitempty"`
	Err        error         `json:"-" yaml:"-"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Failed reports whether the call ended without an HTTP response.
func (o Outcome) Failed() bool {
	return o.Failure != FailureNone
}

// ElapsedSeconds returns the call latency in seconds.
func (o Outcome) ElapsedSeconds() float64 {
	return o.Elapsed.Seconds()
}

// Error returns the failure cause as text, or "" for responses.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// classify maps a transport error to a FailureReason.
// parent is the batch context; its cancellation wins over any per-call timeout.
func classify(parent context.Context, err error) FailureReason {
	if parent.Err() != nil {
		return FailureCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return FailureCancelled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return FailureTimeout
		}
		return FailureDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureConnectionRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	return FailureTransport
}
