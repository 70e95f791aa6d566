// Package config provides the explicit configuration for a probe run.
//
// Values come from, in decreasing precedence: command-line flags,
// environment variables, an optional YAML file, and built-in defaults.
//
// Example YAML:
//
//	base_url: "https://athena.example.com"
//	replication: 3
//	concurrency: 50
//	timeout: 10s        # or seconds: 2.5
//	providers: [riot, graphql]
//	riot:
//	  regions: [NA1, EUW1, KR]
//	static:
//	  region: NA1
//	  names: ["Qwacker", "CE Fed"]
package config

import (
	"time"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	"github.com/wesleyorama2/athenaprobe/internal/provider"
)

// Provider names accepted in Config.Providers.
const (
	ProviderRiot    = "riot"
	ProviderGraphQL = "graphql"
)

// Config is the root configuration for a probe run.
type Config struct {
	// BaseURL of the probed service; fills {{baseUrl}} in Endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Endpoint is the per-target URL template.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Replication repeats the merged target list this many times (>= 1).
	Replication int `mapstructure:"replication" yaml:"replication"`

	// Concurrency caps in-flight calls (0 = unbounded).
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// Timeout bounds each call (> 0). Bare numbers are read as seconds.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// InsecureSkipVerify skips TLS verification for every call.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	// Providers lists the enabled providers in registration order.
	Providers []string `mapstructure:"providers" yaml:"providers"`

	Riot    RiotConfig    `mapstructure:"riot" yaml:"riot"`
	GraphQL GraphQLConfig `mapstructure:"graphql" yaml:"graphql"`
	Static  StaticConfig  `mapstructure:"static" yaml:"static"`
}

// RiotConfig configures the featured-games provider.
type RiotConfig struct {
	APIKey  string   `mapstructure:"api_key" yaml:"api_key"`
	Regions []string `mapstructure:"regions" yaml:"regions"`
	URL     string   `mapstructure:"url" yaml:"url"`
}

// GraphQLConfig configures the live-games provider.
type GraphQLConfig struct {
	URL          string `mapstructure:"url" yaml:"url"`
	Top          int    `mapstructure:"top" yaml:"top"`
	RegionSuffix string `mapstructure:"region_suffix" yaml:"region_suffix"`
}

// StaticConfig is the hard-coded target list appended after all providers.
type StaticConfig struct {
	Region string   `mapstructure:"region" yaml:"region"`
	Names  []string `mapstructure:"names" yaml:"names"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Endpoint:    dispatch.DefaultEndpoint,
		Replication: 3,
		Concurrency: dispatch.DefaultConcurrency,
		Timeout:     dispatch.DefaultTimeout,
		Providers:   []string{ProviderRiot, ProviderGraphQL},
		Riot: RiotConfig{
			Regions: append([]string(nil), provider.DefaultRiotRegions...),
			URL:     provider.DefaultRiotURL,
		},
		GraphQL: GraphQLConfig{
			URL:          provider.DefaultGraphQLURL,
			Top:          72,
			RegionSuffix: "1",
		},
		Static: StaticConfig{
			Region: provider.DefaultStaticRegion,
			Names:  append([]string(nil), provider.DefaultStaticNames...),
		},
	}
}

// DispatchConfig returns the dispatcher settings.
func (c *Config) DispatchConfig() dispatch.Config {
	return dispatch.Config{
		Endpoint:    c.Endpoint,
		BaseURL:     c.BaseURL,
		Concurrency: c.Concurrency,
		Timeout:     c.Timeout,
	}
}
