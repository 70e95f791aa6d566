package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// DefaultGraphQLURL is the live-games GraphQL endpoint.
const DefaultGraphQLURL = "https://app.mobalytics.gg/api/lol/graphql/v1/query"

const liveGamesQuery = `query LiveGamesQuery($region: Region, $champion: ID, $tier: SummonerTier, $skip: Int!, $top: Int!) {` +
	`  lol {    liveGames(top: $top, skip: $skip, region: $region, champion: $champion, tier: $tier) {` +
	`      games {        ...LiveGameFragment        __typename      }      total      __typename    }    __typename  }}` +
	`fragment LiveGameFragment on LiveGame {  participants {     summoner {      name region }  }}`

// GraphQLConfig configures the live-games provider.
type GraphQLConfig struct {
	URL  string
	Top  int
	Skip int

	// RegionSuffix is appended to the region the API reports ("NA" -> "NA1").
	RegionSuffix string
}

// GraphQL reads the first participant of every live game from a GraphQL API.
type GraphQL struct {
	session Session
	cfg     GraphQLConfig
}

type graphQLRequest struct {
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Query         string                 `json:"query"`
}

// NewGraphQL creates the live-games provider.
func NewGraphQL(session Session, cfg GraphQLConfig) *GraphQL {
	if cfg.URL == "" {
		cfg.URL = DefaultGraphQLURL
	}
	if cfg.Top <= 0 {
		cfg.Top = 72
	}
	if cfg.RegionSuffix == "" {
		cfg.RegionSuffix = "1"
	}
	return &GraphQL{session: session, cfg: cfg}
}

// Name implements Provider.
func (g *GraphQL) Name() string {
	return "graphql"
}

// FetchTargets implements Provider.
func (g *GraphQL) FetchTargets(ctx context.Context) ([]target.Target, error) {
	targets, err := g.fetch(ctx)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	return targets, nil
}

func (g *GraphQL) fetch(ctx context.Context) ([]target.Target, error) {
	payload := graphQLRequest{
		OperationName: "LiveGamesQuery",
		Variables: map[string]interface{}{
			"top":      g.cfg.Top,
			"skip":     g.cfg.Skip,
			"tier":     nil,
			"region":   nil,
			"champion": nil,
		},
		Query: liveGamesQuery,
	}

	req := probehttp.NewRequest(http.MethodPost, g.cfg.URL).
		WithHeader("Content-Type", "application/json").
		WithBody(payload)

	resp, err := g.session.Do(ctx, req)
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

	// GraphQL reports query failures in-band, usually with a 200.
	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		var msgs []string
		for _, e := range errs.Array() {
			msgs = append(msgs, e.Get("message").String())
		}
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, strings.Join(msgs, "; "))
	}

	if err := validatePayload(liveGames, body); err != nil {
		return nil, err
	}

	var targets []target.Target
	gjson.GetBytes(body, "data.lol.liveGames.games").ForEach(func(_, game gjson.Result) bool {
		summoner := game.Get("participants.0.summoner")
		region := summoner.Get("region").String() + g.cfg.RegionSuffix
		targets = append(targets, target.New(region, summoner.Get("name").String()))
		return true
	})
	return targets, nil
}
