package target

import (
	"errors"
	"fmt"
)

// ErrInvalidReplication is returned when the replication factor is below 1.
var ErrInvalidReplication = errors.New("replication factor must be at least 1")

// Build merges provider outputs and the static list into the worklist for a run.
//
// Sources are concatenated in the order given (provider registration order),
// followed by static. The merged list is then repeated replication times by
// concatenation, so every target appears exactly replication times as often
// as it does in the inputs.
//
// The returned slice never aliases any input slice.
func Build(sources [][]Target, static []Target, replication int) ([]Target, error) {
	if replication < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidReplication, replication)
	}

	size := len(static)
	for _, src := range sources {
		size += len(src)
	}

	merged := make([]Target, 0, size)
	for _, src := range sources {
		merged = append(merged, src...)
	}
	merged = append(merged, static...)

	worklist := make([]Target, 0, size*replication)
	for i := 0; i < replication; i++ {
		worklist = append(worklist, merged...)
	}

	return worklist, nil
}
