// Package dispatch issues one HTTP call per worklist entry and records how each ended.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

const (
	// DefaultConcurrency bounds in-flight calls when none is configured.
	DefaultConcurrency = 50

	// DefaultTimeout is the per-call timeout when none is configured.
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid dispatch configuration")

	// ErrCancelled is returned when the batch context ends before every call completed.
	ErrCancelled = errors.New("dispatch cancelled")
)

// Session is the shared connection resource calls go through.
// *probehttp.Client satisfies it.
type Session interface {
	Do(ctx context.Context, req *probehttp.Request) (*probehttp.Response, error)
	CloseIdleConnections()
}

// Observer is notified around every call. Implementations must be safe for
// concurrent use; Started and Finished run on the calling goroutine.
type Observer interface {
	Started(index int, t target.Target)
	Finished(outcome Outcome)
}

// Config holds the dispatch settings.
type Config struct {
	// Endpoint is the URL template; see NewEndpoint.
	Endpoint string

	// BaseURL replaces {{baseUrl}} in Endpoint.
	BaseURL string

	// Concurrency caps in-flight calls. Zero means one goroutine per target.
	Concurrency int

	// Timeout bounds each call. Must be positive.
	Timeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers an observer for call start and completion.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, o)
	}
}

// Dispatcher fans a worklist out over a shared session.
type Dispatcher struct {
	session     Session
	endpoint    *Endpoint
	concurrency int
	timeout     time.Duration
	observers   []Observer
}

// New creates a Dispatcher. It fails with ErrInvalidConfig when the endpoint
// template, concurrency or timeout is unusable.
func New(session Session, cfg Config, opts ...Option) (*Dispatcher, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidConfig)
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must be >= 0, got %d", ErrInvalidConfig, cfg.Concurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0, got %v", ErrInvalidConfig, cfg.Timeout)
	}

	endpoint, err := NewEndpoint(cfg.Endpoint, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		session:     session,
		endpoint:    endpoint,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Endpoint returns the resolved endpoint template.
func (d *Dispatcher) Endpoint() *Endpoint {
	return d.endpoint
}

// Dispatch issues one call per worklist entry and waits for all of them.
//
// The returned slice has exactly len(worklist) entries and outcomes[i]
// belongs to worklist[i], regardless of completion order. Failed calls are
// outcomes, not errors. The only error is ErrCancelled, returned when ctx
// ends while calls are still pending; partial outcomes are discarded then.
func (d *Dispatcher) Dispatch(ctx context.Context, worklist []target.Target) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	outcomes := make([]Outcome, len(worklist))

	// cutShort is set when a target was never launched or a call was
	// aborted by ctx; a batch that completed before ctx ended is kept.
	var cutShort atomic.Bool

	p := pool.New()
	if d.concurrency > 0 {
		p = p.WithMaxGoroutines(d.concurrency)
	}

	for i, t := range worklist {
		if ctx.Err() != nil {
			cutShort.Store(true)
			break
		}
		p.Go(func() {
			outcomes[i] = d.call(ctx, i, t)
			if outcomes[i].Failure == FailureCancelled && ctx.Err() != nil {
				cutShort.Store(true)
			}
		})
	}
	p.Wait()

	if cutShort.Load() {
		d.session.CloseIdleConnections()
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}

	return outcomes, nil
}

func (d *Dispatcher) call(ctx context.Context, index int, t target.Target) Outcome {
	for _, o := range d.observers {
		o.Started(index, t)
	}

	outcome := Outcome{Index: index, Target: t}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	req := probehttp.NewRequest(http.MethodGet, d.endpoint.Resolve(t)).WithDiscardBody()
	resp, err := d.session.Do(callCtx, req)

	if err != nil {
		outcome.Err = err
		var reqErr *probehttp.RequestError
		if errors.As(err, &reqErr) {
			outcome.Elapsed = reqErr.Elapsed
			outcome.Failure = classify(ctx, err)
		} else {
			outcome.Elapsed = time.Since(start)
			outcome.Failure = FailureInvalidRequest
		}
		log.Debug().
			Str("region", t.Region).
			Str("name", t.Name).
			Str("failure", outcome.Failure.String()).
			Err(err).
			Dur("completed_in", outcome.Elapsed).
			Msg("Request failed")
	} else {
		outcome.StatusCode = resp.StatusCode
		outcome.Elapsed = resp.Timing.TotalTime
		log.Debug().
			Str("region", t.Region).
			Str("name", t.Name).
			Int("code", resp.StatusCode).
			Dur("completed_in", outcome.Elapsed).
			Msg("Got response")
	}

	for _, o := range d.observers {
		o.Finished(outcome)
	}
	return outcome
}
