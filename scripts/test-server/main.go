// Command test-server is a local stand-in for the athena service and both
// providers, for trying athenaprobe without credentials:
//
//	go run ./scripts/test-server --addr :8080
//	athenaprobe run --base-url http://localhost:8080 \
//	  -c scripts/test-server/probe.yaml
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var names = []string{"Faker", "Caps", "Doublelift", "Bjergsen", "Rekkles", "Chovy", "Tyler1", "Uzi"}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	addr := pflag.String("addr", ":8080", "Listen address")
	minLatency := pflag.Duration("min-latency", 5*time.Millisecond, "Minimum athena response latency")
	maxLatency := pflag.Duration("max-latency", 50*time.Millisecond, "Maximum athena response latency")
	notFound := pflag.Float64("not-found", 0.1, "Fraction of summoners answered with 404")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.000"})

	mux := http.NewServeMux()

	// athena: /current/by-summoner-name/{region}/{name}/groups
	mux.HandleFunc("/current/by-summoner-name/", func(w http.ResponseWriter, r *http.Request) {
		spread := int64(*maxLatency - *minLatency)
		delay := *minLatency
		if spread > 0 {
			delay += time.Duration(rand.Int63n(spread))
		}
		time.Sleep(delay)

		if rand.Float64() < *notFound {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"groups":[]}`)
	})

	// riot: /riot/{region}/featured-games
	mux.HandleFunc("/riot/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Riot-Token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var games []map[string]interface{}
		for _, n := range pick(5) {
			games = append(games, map[string]interface{}{
				"participants": []map[string]string{{"summonerName": n}},
			})
		}
		writeJSON(w, map[string]interface{}{"gameList": games, "clientRefreshInterval": 300})
	})

	// graphql live games
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var games []map[string]interface{}
		for _, n := range pick(5) {
			games = append(games, map[string]interface{}{
				"participants": []map[string]interface{}{
					{"summoner": map[string]string{"name": n, "region": "EUW"}},
				},
			})
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"lol": map[string]interface{}{"liveGames": map[string]interface{}{"games": games}},
			},
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "healthy")
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(mux),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
	}

	log.Info().Str("addr", *addr).Int("cpus", runtime.NumCPU()).Msg("Starting test server")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func pick(n int) []string {
	out := make([]string, 0, n)
	for _, i := range rand.Perm(len(names))[:n] {
		out = append(out, names[i])
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Encoding response")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", strings.TrimPrefix(r.URL.Path, "/")).
			Dur("took", time.Since(start)).
			Msg("Handled")
	})
}
