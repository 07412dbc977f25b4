package orchestration

import (
	"slices"

	"github.com/agbru/tieraccel/internal/ops"
)

// RunnerSource is the subset of ops.Factory used to pick runners.
type RunnerSource interface {
	List() []string
	Get(name string) (ops.Runner, error)
}

// SelectRunners returns the runners for names, or every runner in source
// when names is empty. Runners come back in name order so runs are
// reproducible.
func SelectRunners(names []string, source RunnerSource) ([]ops.Runner, error) {
	if len(names) == 0 {
		names = source.List()
	} else {
		names = slices.Clone(names)
		slices.Sort(names)
		names = slices.Compact(names)
	}
	runners := make([]ops.Runner, 0, len(names))
	for _, name := range names {
		r, err := source.Get(name)
		if err != nil {
			return nil, err
		}
		runners = append(runners, r)
	}
	return runners, nil
}

// BuildWorkloads pairs each runner with the same sizes and iteration count.
func BuildWorkloads(runners []ops.Runner, sizes []int, iterations int) []Workload {
	workloads := make([]Workload, len(runners))
	for i, r := range runners {
		workloads[i] = Workload{Runner: r, Sizes: slices.Clone(sizes), Iterations: iterations}
	}
	return workloads
}
