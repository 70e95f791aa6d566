package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// Template placeholders understood by Endpoint.
const (
	PlaceholderBaseURL = "{{baseUrl}}"
	PlaceholderRegion  = "{{region}}"
	PlaceholderName    = "{{name}}"
)

// DefaultEndpoint is the groups lookup of the probed service.
const DefaultEndpoint = PlaceholderBaseURL + "/current/by-summoner-name/" + PlaceholderRegion + "/" + PlaceholderName + "/groups"

// Endpoint expands a URL template for each target.
type Endpoint struct {
	template string
}

// NewEndpoint resolves {{baseUrl}} in template and checks that the result
// still carries both per-target placeholders and parses as an absolute URL.
func NewEndpoint(template, baseURL string) (*Endpoint, error) {
	if template == "" {
		template = DefaultEndpoint
	}

	resolved := template
	if strings.Contains(resolved, PlaceholderBaseURL) {
		if baseURL == "" {
			return nil, fmt.Errorf("%w: endpoint uses %s but no base URL is set", ErrInvalidConfig, PlaceholderBaseURL)
		}
		resolved = strings.ReplaceAll(resolved, PlaceholderBaseURL, strings.TrimRight(baseURL, "/"))
	}

	for _, p := range []string{PlaceholderRegion, PlaceholderName} {
		if !strings.Contains(resolved, p) {
			return nil, fmt.Errorf("%w: endpoint %q is missing %s", ErrInvalidConfig, template, p)
		}
	}

	sample := (&Endpoint{template: resolved}).Resolve(target.New("NA1", "probe"))
	u, err := url.Parse(sample)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint %q: %v", ErrInvalidConfig, template, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q is not an absolute URL", ErrInvalidConfig, template)
	}

	return &Endpoint{template: resolved}, nil
}

// Resolve substitutes the target's region and name into the template.
// Values are path-escaped so names with spaces or slashes stay one segment.
func (e *Endpoint) Resolve(t target.Target) string {
	r := strings.NewReplacer(
		PlaceholderRegion, url.PathEscape(t.Region),
		PlaceholderName, url.PathEscape(t.Name),
	)
	return r.Replace(e.template)
}

// String returns the template with the base URL resolved.
func (e *Endpoint) String() string {
	return e.template
}
