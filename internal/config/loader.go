package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables read for them.
var envBindings = map[string]string{
	"base_url":             "ATHENA_BASE_URL",
	"endpoint":             "ATHENA_ENDPOINT",
	"replication":          "ATHENA_REPLICATION",
	"concurrency":          "ATHENA_CONCURRENCY",
	"timeout":              "ATHENA_TIMEOUT",
	"insecure_skip_verify": "ATHENA_INSECURE_SKIP_VERIFY",
	"providers":            "ATHENA_PROVIDERS",
	"riot.api_key":         "RIOT_API_KEY",
	"riot.regions":         "RIOT_REGIONS",
	"riot.url":             "RIOT_URL",
	"graphql.url":          "GRAPHQL_URL",
	"graphql.top":          "GRAPHQL_TOP",
}

// flagBindings maps configuration keys to command-line flag names.
var flagBindings = map[string]string{
	"base_url":             "base-url",
	"endpoint":             "endpoint",
	"replication":          "replication",
	"concurrency":          "concurrency",
	"timeout":              "timeout",
	"insecure_skip_verify": "insecure",
	"providers":            "providers",
}

// LoadOptions selects the sources Load reads besides the environment.
type LoadOptions struct {
	// File is an optional YAML config file.
	File string

	// Flags are bound by name when present; only flags set by the user
	// override other sources.
	Flags *pflag.FlagSet
}

// Load builds and validates the configuration.
//
// Each call uses its own viper instance, so no state is shared between loads.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if opts.File != "" {
		if _, err := os.Stat(opts.File); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", opts.File)
		}
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hooks); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Providers = splitList(cfg.Providers)
	cfg.Riot.Regions = splitList(cfg.Riot.Regions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("replication", d.Replication)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("insecure_skip_verify", d.InsecureSkipVerify)
	v.SetDefault("providers", d.Providers)
	v.SetDefault("riot.api_key", d.Riot.APIKey)
	v.SetDefault("riot.regions", d.Riot.Regions)
	v.SetDefault("riot.url", d.Riot.URL)
	v.SetDefault("graphql.url", d.GraphQL.URL)
	v.SetDefault("graphql.top", d.GraphQL.Top)
	v.SetDefault("graphql.region_suffix", d.GraphQL.RegionSuffix)
	v.SetDefault("static.region", d.Static.Region)
	v.SetDefault("static.names", d.Static.Names)
}

// secondsToDurationHook reads a bare number as seconds when the target is a
// time.Duration, so "2.5" and 2.5 both mean 2.5s. Duration strings such as
// "1500ms" are left for the next hook.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return data, nil
			}
			return seconds(secs), nil
		case float64:
			return seconds(v), nil
		case float32:
			return seconds(float64(v)), nil
		case int:
			return seconds(float64(v)), nil
		case int64:
			return seconds(float64(v)), nil
		case uint64:
			return seconds(float64(v)), nil
		}
		return data, nil
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// splitList normalizes list values that may arrive as one comma-separated
// element from a flag or environment variable.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
