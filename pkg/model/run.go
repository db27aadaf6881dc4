package model

import "time"

// WorkloadOutput is the captured result of running one Load on one node.
type WorkloadOutput struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
	Folder     string `json:"folder,omitempty"`
	Log        string `json:"log,omitempty"`
}

// RunState represents the lifecycle state of a schedule run.
type RunState string

const (
	RunStatePending   RunState = "PENDING"
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
)

func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// Run records one execution of a schedule.
type Run struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Seed        int64        `json:"seed"`
	State       RunState     `json:"state"`
	Error       string       `json:"error,omitempty"`
	Results     []LoadResult `json:"results,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// LoadResult ties one WorkloadOutput to the step, node, and workload that
// produced it.
type LoadResult struct {
	Step     int            `json:"step"`
	Node     string         `json:"node"`
	Workload string         `json:"workload"`
	Output   WorkloadOutput `json:"output"`
}

// RunResult is the aggregation the runner returns: every LoadResult produced
// by a run, in completion order within each step.
type RunResult struct {
	Results []LoadResult `json:"results"`
}

// Output returns the output for the given step/node/workload identity, or nil.
func (r *RunResult) Output(step int, node, workload string) *WorkloadOutput {
	for i := range r.Results {
		lr := &r.Results[i]
		if lr.Step == step && lr.Node == node && lr.Workload == workload {
			return &lr.Output
		}
	}
	return nil
}
