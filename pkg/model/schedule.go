package model

// Load is a workload reference bound to the Info governing it. The concrete
// workload implementation is resolved by the runner at execution time and
// kept in a side table there; the Load value itself stays immutable and
// trivially serializable.
type Load struct {
	Workload string `json:"workload"`
	Info     *Info  `json:"info"`
}

// Step is one sequencing unit of a Schedule: an ordered, non-empty group of
// loads meant to run concurrently, sharing one Info.
type Step struct {
	Workloads []*Load `json:"workloads"`
	Info      *Info   `json:"info"`
}

// Schedule is an ordered, non-empty list of steps plus the top-level Info.
// It is the unit of serialization, persistence, and execution, and is
// immutable once built.
type Schedule struct {
	Steps []*Step `json:"steps"`
	Info  *Info   `json:"info"`
}

// Verify is the single structural gate the runner trusts before execution.
// It is applied both after building and after deserializing: steps must be
// non-empty, every step must carry at least one load, and every Info in the
// tree must pass its own invariants.
func (s *Schedule) Verify() error {
	if len(s.Steps) == 0 {
		return NewConstraintError("schedule: needs at least one step")
	}
	for n, step := range s.Steps {
		if step == nil {
			return NewConstraintError("schedule: step %d is nil", n)
		}
		if step.Info == nil {
			return NewConstraintError("schedule: step %d has no info", n)
		}
		if err := step.Info.Validate(); err != nil {
			return NewConstraintError("schedule: step %d info: %v", n, err)
		}
		if len(step.Workloads) == 0 {
			return NewConstraintError("schedule: step %d has no workloads", n)
		}
		for _, load := range step.Workloads {
			if load == nil {
				return NewConstraintError("schedule: step %d has a nil load", n)
			}
			if load.Workload == "" {
				return NewConstraintError("schedule: step %d has a load with no workload name", n)
			}
			if load.Info == nil {
				return NewConstraintError("schedule: step %d load %q has no info", n, load.Workload)
			}
			if err := load.Info.Validate(); err != nil {
				return NewConstraintError("schedule: step %d load %q info: %v", n, load.Workload, err)
			}
		}
	}
	if s.Info == nil {
		return NewConstraintError("schedule: missing top-level info")
	}
	if err := s.Info.Validate(); err != nil {
		return NewConstraintError("schedule info: %v", err)
	}
	return nil
}

// WorkloadNames returns the workload names of each step, in schedule order.
func (s *Schedule) WorkloadNames() [][]string {
	names := make([][]string, len(s.Steps))
	for n, step := range s.Steps {
		for _, load := range step.Workloads {
			names[n] = append(names[n], load.Workload)
		}
	}
	return names
}
