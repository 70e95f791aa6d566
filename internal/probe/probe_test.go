package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/athenaprobe/internal/config"
	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	"github.com/wesleyorama2/athenaprobe/internal/metrics"
	"github.com/wesleyorama2/athenaprobe/internal/provider"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// athena records every summoner path it is asked about.
type athena struct {
	*httptest.Server
	mu    sync.Mutex
	paths map[string]int
	hits  atomic.Int32
}

func newAthena(t *testing.T, handler http.HandlerFunc) *athena {
	t.Helper()
	a := &athena{paths: make(map[string]int)}
	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.hits.Add(1)
		a.mu.Lock()
		a.paths[r.URL.Path]++
		a.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"groups":[]}`))
	}))
	t.Cleanup(a.Close)
	return a
}

func newRiot(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Riot-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"gameList":[` +
			`{"participants":[{"summonerName":"Doublelift"},{"summonerName":"x"}]},` +
			`{"participants":[{"summonerName":"Bjergsen"}]}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newGraphQL(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"lol":{"liveGames":{"games":[` +
			`{"participants":[{"summoner":{"name":"Faker","region":"KR"}}]}]}}}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Concurrency = 4
	cfg.Timeout = 2 * time.Second
	cfg.Providers = nil
	cfg.Static = config.StaticConfig{Region: "NA1", Names: []string{"CE Fed"}}
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	svc := newAthena(t, nil)
	riot := newRiot(t)
	gql := newGraphQL(t, http.StatusOK)

	cfg := testConfig(svc.URL)
	cfg.Providers = []string{config.ProviderRiot, config.ProviderGraphQL}
	cfg.Riot = config.RiotConfig{APIKey: "secret", Regions: []string{"NA1"}, URL: riot.URL + "/{{region}}/featured-games"}
	cfg.GraphQL.URL = gql.URL

	var recorder *metrics.Recorder
	result, err := Run(context.Background(), cfg, OnDispatch(func(r *metrics.Recorder) { recorder = r }))
	require.NoError(t, err)

	// (2 riot + 1 graphql + 1 static) * 3
	require.Len(t, result.Worklist, 12)
	assert.Equal(t, []target.Target{
		target.New("NA1", "Doublelift"),
		target.New("NA1", "Bjergsen"),
		target.New("KR1", "Faker"),
		target.New("NA1", "CE Fed"),
	}, result.Worklist[:4])
	assert.Equal(t, []string{"riot", "graphql"}, result.Providers)
	assert.Empty(t, result.Failures)

	assert.Equal(t, int32(12), svc.hits.Load())
	assert.Equal(t, 3, svc.paths["/current/by-summoner-name/KR1/Faker/groups"])
	assert.Equal(t, 3, svc.paths["/current/by-summoner-name/NA1/CE Fed/groups"])

	require.Len(t, result.Outcomes, 12)
	assert.Equal(t, 12, result.Report.Count)
	assert.Equal(t, 12, result.Report.StatusCodes[http.StatusOK])
	assert.Greater(t, result.Report.MeanLatencySeconds, 0.0)
	assert.Greater(t, result.Report.TotalWallSeconds, 0.0)

	require.NotNil(t, recorder)
	assert.Equal(t, int64(12), result.Progress.Completed)
	assert.LessOrEqual(t, result.Progress.Peak, int64(cfg.Concurrency))
}

func TestRun_ProviderIsolation(t *testing.T) {
	svc := newAthena(t, nil)
	gql := newGraphQL(t, http.StatusInternalServerError)

	cfg := testConfig(svc.URL)
	cfg.Providers = []string{config.ProviderRiot, config.ProviderGraphQL}
	cfg.Riot.APIKey = ""
	cfg.GraphQL.URL = gql.URL

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Failures, 2)
	assert.ErrorIs(t, result.Failures[0], provider.ErrMissingCredentials)
	assert.ErrorIs(t, result.Failures[1], provider.ErrUnexpectedStatus)

	assert.Equal(t, []target.Target{
		target.New("NA1", "CE Fed"),
		target.New("NA1", "CE Fed"),
		target.New("NA1", "CE Fed"),
	}, result.Worklist)
	assert.Equal(t, 3, result.Report.Count)
}

type stubProvider struct {
	name    string
	targets []target.Target
	err     error
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) FetchTargets(context.Context) ([]target.Target, error) {
	return s.targets, s.err
}

func TestRun_OneOfThreeProvidersFails(t *testing.T) {
	svc := newAthena(t, nil)
	cfg := testConfig(svc.URL)
	cfg.Replication = 1

	result, err := Run(context.Background(), cfg, WithProviders(
		stubProvider{name: "a", targets: []target.Target{target.New("NA1", "a1"), target.New("NA1", "a2")}},
		stubProvider{name: "b", err: errors.New("boom")},
		stubProvider{name: "c", targets: []target.Target{target.New("EUW1", "c1")}},
	))
	require.NoError(t, err)

	names := make([]string, 0, len(result.Worklist))
	for _, tg := range result.Worklist {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"a1", "a2", "c1", "CE Fed"}, names)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b", result.Failures[0].Provider)
}

func TestRun_EmptyWorklist(t *testing.T) {
	svc := newAthena(t, nil)
	cfg := testConfig(svc.URL)
	cfg.Static = config.StaticConfig{}

	result, err := Run(context.Background(), cfg, WithProviders(stubProvider{name: "down", err: errors.New("unreachable")}))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, metrics.ErrEmptyInput)
	assert.Zero(t, svc.hits.Load())
}

func TestRun_FailedCallsCountTowardMean(t *testing.T) {
	svc := newAthena(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/slow/") {
			<-r.Context().Done()
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	cfg := testConfig(svc.URL)
	cfg.Replication = 1
	cfg.Timeout = 200 * time.Millisecond
	cfg.Static = config.StaticConfig{}

	result, err := Run(context.Background(), cfg, WithProviders(stubProvider{
		name:    "stub",
		targets: []target.Target{target.New("slow", "hung"), target.New("NA1", "fast")},
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Report.Count)
	assert.Equal(t, 1, result.Report.Failed)
	assert.Equal(t, 1, result.Report.Failures[dispatch.FailureTimeout])
	assert.Equal(t, 1, result.Report.StatusCodes[http.StatusNotFound])

	want := (result.Outcomes[0].ElapsedSeconds() + result.Outcomes[1].ElapsedSeconds()) / 2
	assert.InDelta(t, want, result.Report.MeanLatencySeconds, 1e-9)
	assert.GreaterOrEqual(t, result.Report.MeanLatencySeconds, 0.1)
}

func TestRun_Cancelled(t *testing.T) {
	svc := newAthena(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	})

	cfg := testConfig(svc.URL)
	cfg.Timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	observer := &cancelAfterStart{cancel: cancel}

	result, err := Run(ctx, cfg, WithObserver(observer))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, dispatch.ErrCancelled)
}

type cancelAfterStart struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (c *cancelAfterStart) Started(int, target.Target) {
	c.once.Do(func() {
		go func() {
			time.Sleep(50 * time.Millisecond)
			c.cancel()
		}()
	})
}

func (c *cancelAfterStart) Finished(dispatch.Outcome) {}

func TestRun_InvalidConfig(t *testing.T) {
	var called atomic.Bool
	p := providerFunc(func() { called.Store(true) })

	cfg := testConfig("http://localhost")
	cfg.Replication = 0

	_, err := Run(context.Background(), cfg, WithProviders(p))
	var verrs *config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("replication"))
	assert.False(t, called.Load(), "providers must not be queried for an invalid config")
}

type providerFunc func()

func (f providerFunc) Name() string { return "func" }

func (f providerFunc) FetchTargets(context.Context) ([]target.Target, error) {
	f()
	return nil, nil
}

func TestTargets(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Replication = 2

	plan, err := Targets(context.Background(), cfg, WithProviders(
		stubProvider{name: "one", targets: []target.Target{target.New("KR", "x")}},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"one"}, plan.Providers)
	assert.Equal(t, []target.Target{
		target.New("KR", "x"), target.New("NA1", "CE Fed"),
		target.New("KR", "x"), target.New("NA1", "CE Fed"),
	}, plan.Worklist)
}

func TestProviders_FollowsConfigOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = []string{config.ProviderGraphQL, config.ProviderRiot}

	ps := Providers(cfg, NewSession(cfg))
	require.Len(t, ps, 2)

	got := make([]string, len(ps))
	for i, p := range ps {
		got[i] = p.Name()
	}
	assert.Equal(t, []string{"graphql", "riot"}, got, fmt.Sprintf("providers: %v", got))
}
