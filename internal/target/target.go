// Package target defines the unit of probe work and builds the worklist for a run.
package target

import "fmt"

// Target identifies one request to issue against the probed service.
//
// Targets are plain values and are never mutated once built. Duplicates are
// valid and represent repeated load against the same summoner.
type Target struct {
	Region string `json:"region" yaml:"region"`
	Name   string `json:"name" yaml:"name"`
}

// New creates a Target.
func New(region, name string) Target {
	return Target{Region: region, Name: name}
}

// String returns the target in region/name form.
func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Region, t.Name)
}

// FromNames builds targets for a list of names that share one region.
func FromNames(region string, names []string) []Target {
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		targets = append(targets, New(region, name))
	}
	return targets
}
