package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/tidwall/gjson"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// DefaultRiotURL is the featured-games endpoint; {{region}} is replaced per region.
const DefaultRiotURL = "https://{{region}}.api.riotgames.com/lol/spectator/v4/featured-games"

// DefaultRiotRegions are the platform routing values queried by default.
var DefaultRiotRegions = []string{"NA1", "EUW1", "BR1", "EUN1", "JP1", "KR", "LA1", "LA2", "OC1", "TR1"}

// RiotConfig configures the featured-games provider.
type RiotConfig struct {
	APIKey  string
	Regions []string
	URL     string
}

// Riot reads the first participant of every featured game in each region.
type Riot struct {
	session Session
	cfg     RiotConfig
}

// NewRiot creates the featured-games provider.
func NewRiot(session Session, cfg RiotConfig) *Riot {
	if cfg.URL == "" {
		cfg.URL = DefaultRiotURL
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = DefaultRiotRegions
	}
	return &Riot{session: session, cfg: cfg}
}

// Name implements Provider.
func (r *Riot) Name() string {
	return "riot"
}

// FetchTargets queries every region concurrently. One failing region fails
// the provider, so a partial region set is never returned.
func (r *Riot) FetchTargets(ctx context.Context) ([]target.Target, error) {
	if r.cfg.APIKey == "" {
		return nil, &Error{Provider: r.Name(), Err: fmt.Errorf("%w: riot API key is not set", ErrMissingCredentials)}
	}

	perRegion := make([][]target.Target, len(r.cfg.Regions))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, region := range r.cfg.Regions {
		p.Go(func(ctx context.Context) error {
			targets, err := r.fetchRegion(ctx, region)
			if err != nil {
				return fmt.Errorf("region %s: %w", region, err)
			}
			perRegion[i] = targets
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, &Error{Provider: r.Name(), Err: err}
	}

	var targets []target.Target
	for _, ts := range perRegion {
		targets = append(targets, ts...)
	}
	return targets, nil
}

func (r *Riot) fetchRegion(ctx context.Context, region string) ([]target.Target, error) {
	endpoint := strings.ReplaceAll(r.cfg.URL, "{{region}}", region)
	req := probehttp.NewRequest(http.MethodGet, endpoint).
		WithHeader("X-Riot-Token", r.cfg.APIKey).
		WithHeader("Accept", "application/json")

	resp, err := r.session.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := resp.GetBody()
	if err != nil {
		return nil, err
	}
	if err := validatePayload(featuredGames, body); err != nil {
		return nil, err
	}

	var targets []target.Target
	gjson.GetBytes(body, "gameList.#.participants.0.summonerName").ForEach(func(_, name gjson.Result) bool {
		targets = append(targets, target.New(region, name.String()))
		return true
	})
	return targets, nil
}
