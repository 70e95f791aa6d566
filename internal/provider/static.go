package provider

import (
	"context"

	"github.com/wesleyorama2/athenaprobe/internal/target"
)

// DefaultStaticRegion and DefaultStaticNames are the hard-coded NA pro accounts.
const DefaultStaticRegion = "NA1"

var DefaultStaticNames = []string{
	"Qwacker", "FTWWW", "Matty", "CE Fed", "Hakuho",
	"Blitz", "TF Blade", "ShorterACE", "Command Attack", "Red Robin",
}

// Static serves a fixed list of names in one region. It never fails.
type Static struct {
	Region string
	Names  []string
}

// NewStatic creates a static provider.
func NewStatic(region string, names []string) *Static {
	return &Static{Region: region, Names: names}
}

// Name implements Provider.
func (s *Static) Name() string {
	return "static"
}

// FetchTargets implements Provider.
func (s *Static) FetchTargets(context.Context) ([]target.Target, error) {
	return target.FromNames(s.Region, s.Names), nil
}
