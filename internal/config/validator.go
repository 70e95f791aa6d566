package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Has reports whether field has at least one error.
func (e *ValidationErrors) Has(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks the configuration before any provider is queried.
//
// Returns nil if valid, or a *ValidationErrors listing every problem.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Replication < 1 {
		errs.Add("replication", fmt.Sprintf("must be at least 1, got %d", c.Replication))
	}
	if c.Concurrency < 0 {
		errs.Add("concurrency", fmt.Sprintf("must be >= 0 (0 = unbounded), got %d", c.Concurrency))
	}
	if c.Timeout <= 0 {
		errs.Add("timeout", fmt.Sprintf("must be greater than 0, got %v", c.Timeout))
	}

	validateEndpoint(c, errs)
	validateProviders(c, errs)

	if len(c.Static.Names) > 0 && c.Static.Region == "" {
		errs.Add("static.region", "region is required when static names are set")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateEndpoint(c *Config, errs *ValidationErrors) {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("base_url", fmt.Sprintf("not an absolute URL: %q", c.BaseURL))
			return
		}
	}

	if c.BaseURL == "" && strings.Contains(c.endpointTemplate(), dispatch.PlaceholderBaseURL) {
		errs.Add("base_url", "base URL is required (set ATHENA_BASE_URL or --base-url)")
		return
	}

	if _, err := dispatch.NewEndpoint(c.Endpoint, c.BaseURL); err != nil {
		errs.Add("endpoint", err.Error())
	}
}

func validateProviders(c *Config, errs *ValidationErrors) {
	seen := make(map[string]bool)
	for i, name := range c.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		switch name {
		case ProviderRiot:
			if len(c.Riot.Regions) == 0 {
				errs.Add("riot.regions", "at least one region is required")
			}
			if !strings.Contains(c.Riot.URL, "{{region}}") {
				errs.Add("riot.url", "url must contain {{region}}")
			}
		case ProviderGraphQL:
			if c.GraphQL.URL == "" {
				errs.Add("graphql.url", "url is required")
			}
			if c.GraphQL.Top <= 0 {
				errs.Add("graphql.top", "top must be greater than 0")
			}
		default:
			errs.Add(field, fmt.Sprintf("unknown provider: %s", name))
			continue
		}

		if seen[name] {
			errs.Add(field, fmt.Sprintf("provider %s listed twice", name))
		}
		seen[name] = true
	}
}

func (c *Config) endpointTemplate() string {
	if c.Endpoint == "" {
		return dispatch.DefaultEndpoint
	}
	return c.Endpoint
}
