// Package probe runs one probe end to end: query the providers, build the
// worklist, dispatch it, and summarize the outcomes.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wesleyorama2/athenaprobe/internal/config"
	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/metrics"
	"github.com/wesleyorama2/athenaprobe/internal/provider"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// providerTimeout bounds the provider phase. Dispatch calls are bounded by
// the configured per-call timeout instead.
const providerTimeout = 30 * time.Second

// defaultIdleConns sizes the connection pool when concurrency is unbounded.
const defaultIdleConns = 100

// Plan is the worklist for a run and how it was assembled.
type Plan struct {
	Worklist []target.Target

	// Providers names the providers that contributed, in registration order.
	Providers []string

	// Failures lists the providers that contributed nothing.
	Failures []*provider.Error
}

// Result is everything a finished run produced.
type Result struct {
	Plan
	Report   *metrics.Report
	Outcomes []dispatch.Outcome
	Progress metrics.Progress
}

// Option customizes a run.
type Option func(*runner)

// WithObserver registers an additional dispatch observer.
func WithObserver(o dispatch.Observer) Option {
	return func(r *runner) {
		r.observers = append(r.observers, o)
	}
}

// WithProviders replaces the providers named in the configuration.
func WithProviders(providers ...provider.Provider) Option {
	return func(r *runner) {
		r.providers = providers
		r.providersSet = true
	}
}

// WithSession runs the probe over an existing session. The caller keeps
// ownership and is responsible for closing its idle connections.
func WithSession(session *probehttp.Client) Option {
	return func(r *runner) {
		r.session = session
	}
}

// OnDispatch is called with the batch recorder right before dispatch starts.
func OnDispatch(fn func(*metrics.Recorder)) Option {
	return func(r *runner) {
		r.onDispatch = fn
	}
}

type runner struct {
	cfg          config.Config
	session      *probehttp.Client
	ownSession   bool
	providers    []provider.Provider
	providersSet bool
	observers    []dispatch.Observer
	onDispatch   func(*metrics.Recorder)
}

func newRunner(cfg config.Config, opts []Option) (*runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.session == nil {
		r.session = NewSession(cfg)
		r.ownSession = true
	}
	if !r.providersSet {
		r.providers = Providers(cfg, r.session)
	}
	return r, nil
}

func (r *runner) close() {
	if r.ownSession {
		r.session.CloseIdleConnections()
	}
}

// NewSession creates the shared session for a run. Calls are bounded by
// their own context, so the client-level timeout is disabled.
func NewSession(cfg config.Config) *probehttp.Client {
	idle := cfg.Concurrency
	if idle <= 0 {
		idle = defaultIdleConns
	}
	return probehttp.NewClient(
		probehttp.WithTimeout(0),
		probehttp.WithMaxIdleConnsPerHost(idle),
		probehttp.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)
}

// Providers builds the providers named in cfg.Providers, in order.
// Names are assumed to be validated.
func Providers(cfg config.Config, session provider.Session) []provider.Provider {
	var providers []provider.Provider
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderRiot:
			providers = append(providers, provider.NewRiot(session, provider.RiotConfig{
				APIKey:  cfg.Riot.APIKey,
				Regions: cfg.Riot.Regions,
				URL:     cfg.Riot.URL,
			}))
		case config.ProviderGraphQL:
			providers = append(providers, provider.NewGraphQL(session, provider.GraphQLConfig{
				URL:          cfg.GraphQL.URL,
				Top:          cfg.GraphQL.Top,
				RegionSuffix: cfg.GraphQL.RegionSuffix,
			}))
		}
	}
	return providers
}

// Targets queries the providers and builds the worklist without dispatching it.
func Targets(ctx context.Context, cfg config.Config, opts ...Option) (*Plan, error) {
	r, err := newRunner(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer r.close()

	return r.plan(ctx)
}

func (r *runner) plan(ctx context.Context) (*Plan, error) {
	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	collection := provider.Collect(pctx, r.providers)

	static, err := provider.NewStatic(r.cfg.Static.Region, r.cfg.Static.Names).FetchTargets(pctx)
	if err != nil {
		return nil, err
	}

	worklist, err := target.Build(collection.Sources, static, r.cfg.Replication)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("providers", len(collection.Providers)).
		Int("failed", len(collection.Failures)).
		Int("provider_targets", collection.Total()).
		Int("static", len(static)).
		Int("replication", r.cfg.Replication).
		Int("worklist", len(worklist)).
		Msg("Built worklist")

	return &Plan{
		Worklist:  worklist,
		Providers: collection.Providers,
		Failures:  collection.Failures,
	}, nil
}

// Run performs a complete probe.
//
// Provider failures are reported in Result.Failures and do not fail the run.
// The returned error is a configuration error, dispatch.ErrCancelled, or
// metrics.ErrEmptyInput when no target was left to call.
func Run(ctx context.Context, cfg config.Config, opts ...Option) (*Result, error) {
	r, err := newRunner(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer r.close()

	plan, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder(len(plan.Worklist))
	d, err := dispatch.New(r.session, cfg.DispatchConfig(), r.dispatchOptions(recorder)...)
	if err != nil {
		return nil, err
	}
	if r.onDispatch != nil {
		r.onDispatch(recorder)
	}

	log.Info().
		Str("endpoint", d.Endpoint().String()).
		Int("targets", len(plan.Worklist)).
		Int("concurrency", cfg.Concurrency).
		Dur("timeout", cfg.Timeout).
		Msg("Dispatching")

	start := time.Now()
	outcomes, err := d.Dispatch(ctx, plan.Worklist)
	if err != nil {
		return nil, err
	}

	report, err := metrics.Summarize(outcomes)
	if err != nil {
		return nil, fmt.Errorf("summarizing outcomes: %w", err)
	}
	report.WithWallTime(time.Since(start))

	log.Info().
		Int("count", report.Count).
		Int("failed", report.Failed).
		Float64("mean_latency_s", report.MeanLatencySeconds).
		Float64("wall_s", report.TotalWallSeconds).
		Msg("Run complete")

	return &Result{
		Plan:     *plan,
		Report:   report,
		Outcomes: outcomes,
		Progress: recorder.Progress(),
	}, nil
}

func (r *runner) dispatchOptions(recorder *metrics.Recorder) []dispatch.Option {
	opts := []dispatch.Option{dispatch.WithObserver(recorder)}
	for _, o := range r.observers {
		opts = append(opts, dispatch.WithObserver(o))
	}
	return opts
}
