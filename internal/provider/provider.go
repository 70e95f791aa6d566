// Package provider turns external data sources into probe targets.
//
// Every source is wrapped in a Provider. Providers fail as a whole: a
// provider that returns an error contributes no targets, and Collect keeps
// one failing provider from affecting the others.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// Causes wrapped by Error.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnauthorized       = errors.New("authentication rejected")
	ErrUnexpectedStatus   = errors.New("unexpected status")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrQueryFailed        = errors.New("query returned errors")
)

// Provider enumerates targets from one data source.
type Provider interface {
	// Name identifies the provider in logs and reports.
	Name() string

	// FetchTargets returns the source's targets, or an error and no targets.
	FetchTargets(ctx context.Context) ([]target.Target, error)
}

// Session is the HTTP capability providers need.
type Session interface {
	Do(ctx context.Context, req *probehttp.Request) (*probehttp.Response, error)
}

// Error reports why a provider contributed nothing.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Collection is the result of querying every registered provider.
type Collection struct {
	// Sources holds one slice per successful provider, in registration order.
	Sources [][]target.Target

	// Providers names the provider behind each entry of Sources.
	Providers []string

	// Failures lists the providers that were skipped.
	Failures []*Error
}

// Total returns the number of targets across all sources.
func (c *Collection) Total() int {
	n := 0
	for _, src := range c.Sources {
		n += len(src)
	}
	return n
}

type fetchResult struct {
	targets []target.Target
	err     error
}

// Collect queries all providers concurrently and keeps their registration order.
// A failure is logged and recorded; it never aborts the other providers.
func Collect(ctx context.Context, providers []Provider) *Collection {
	results := iter.Map(providers, func(p *Provider) fetchResult {
		targets, err := (*p).FetchTargets(ctx)
		return fetchResult{targets: targets, err: err}
	})

	c := &Collection{}
	for i, res := range results {
		name := providers[i].Name()
		if res.err != nil {
			var perr *Error
			if !errors.As(res.err, &perr) {
				perr = &Error{Provider: name, Err: res.err}
			}
			log.Warn().Err(perr.Err).Str("provider", name).Msg("Provider failed, skipping its targets")
			c.Failures = append(c.Failures, perr)
			continue
		}

		log.Info().Str("provider", name).Int("targets", len(res.targets)).Msg("Fetched targets")
		c.Sources = append(c.Sources, res.targets)
		c.Providers = append(c.Providers, name)
	}

	return c
}

// checkStatus maps non-2xx provider responses to error causes.
func checkStatus(resp *probehttp.Response) error {
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case !resp.IsSuccess():
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}
