package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	fs.Int("replication", 3, "")
	fs.Int("concurrency", dispatch.DefaultConcurrency, "")
	fs.String("timeout", dispatch.DefaultTimeout.String(), "")
	fs.StringSlice("providers", nil, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ATHENA_BASE_URL", "https://athena.example.com")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://athena.example.com", cfg.BaseURL)
	assert.Equal(t, 3, cfg.Replication)
	assert.Equal(t, dispatch.DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, dispatch.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, []string{ProviderRiot, ProviderGraphQL}, cfg.Providers)
	assert.Len(t, cfg.Riot.Regions, 10)
	assert.Equal(t, "NA1", cfg.Static.Region)
	assert.Contains(t, cfg.Static.Names, "CE Fed")
	assert.Equal(t, 72, cfg.GraphQL.Top)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ATHENA_BASE_URL", "https://athena.example.com")
	t.Setenv("ATHENA_REPLICATION", "5")
	t.Setenv("ATHENA_CONCURRENCY", "0")
	t.Setenv("ATHENA_TIMEOUT", "1500ms")
	t.Setenv("ATHENA_PROVIDERS", "graphql")
	t.Setenv("RIOT_API_KEY", "RGAPI-secret")
	t.Setenv("RIOT_REGIONS", "NA1,KR")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Replication)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{ProviderGraphQL}, cfg.Providers)
	assert.Equal(t, "RGAPI-secret", cfg.Riot.APIKey)
	assert.Equal(t, []string{"NA1", "KR"}, cfg.Riot.Regions)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://from-file.example.com
replication: 2
concurrency: 8
timeout: 3s
providers: [riot]
riot:
  regions: [EUW1]
static:
  region: EUW1
  names: ["Caps", "Rekkles"]
`), 0o644))

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example.com", cfg.BaseURL)
	assert.Equal(t, 2, cfg.Replication)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, []string{ProviderRiot}, cfg.Providers)
	assert.Equal(t, []string{"EUW1"}, cfg.Riot.Regions)
	assert.Equal(t, StaticConfig{Region: "EUW1", Names: []string{"Caps", "Rekkles"}}, cfg.Static)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example.com\nreplication: 2\nconcurrency: 4\n"), 0o644))
	t.Setenv("ATHENA_REPLICATION", "6")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--concurrency", "16"}))

	cfg, err := Load(LoadOptions{File: path, Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.BaseURL, "file beats defaults")
	assert.Equal(t, 6, cfg.Replication, "env beats file")
	assert.Equal(t, 16, cfg.Concurrency, "flag beats file")
	assert.Equal(t, dispatch.DefaultTimeout, cfg.Timeout, "unset flag keeps default")
}

func TestLoad_Flags(t *testing.T) {
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{
		"--base-url", "http://localhost:8080",
		"--replication", "1",
		"--timeout", "250ms",
		"--providers", "graphql,riot",
	}))

	cfg, err := Load(LoadOptions{Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 1, cfg.Replication)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{ProviderGraphQL, ProviderRiot}, cfg.Providers)
}

func TestLoad_TimeoutInSeconds(t *testing.T) {
	t.Setenv("ATHENA_BASE_URL", "https://athena.example.com")

	t.Run("env", func(t *testing.T) {
		t.Setenv("ATHENA_TIMEOUT", "2.5")
		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	})

	t.Run("file", func(t *testing.T) {
		for body, want := range map[string]time.Duration{
			"timeout: 1.5\n": 1500 * time.Millisecond,
			"timeout: 4\n":   4 * time.Second,
			"timeout: 2m\n":  2 * time.Minute,
		} {
			path := filepath.Join(t.TempDir(), "probe.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			cfg, err := Load(LoadOptions{File: path})
			require.NoError(t, err, body)
			assert.Equal(t, want, cfg.Timeout, body)
		}
	})

	t.Run("flag", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--timeout", "0.25"}))
		cfg, err := Load(LoadOptions{Flags: fs})
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	})

	t.Run("zero is rejected", func(t *testing.T) {
		t.Setenv("ATHENA_TIMEOUT", "0")
		_, err := Load(LoadOptions{})
		var verrs *ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.True(t, verrs.Has("timeout"))
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("ATHENA_BASE_URL", "https://athena.example.com")
	t.Setenv("ATHENA_REPLICATION", "0")
	t.Setenv("ATHENA_CONCURRENCY", "-2")

	_, err := Load(LoadOptions{})
	require.Error(t, err)

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("replication"))
	assert.True(t, verrs.Has("concurrency"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}
