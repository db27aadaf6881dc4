package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func testSchedule() *Schedule {
	info, _ := NewInfo(validInfo())
	return &Schedule{
		Steps: []*Step{
			{Workloads: []*Load{{Workload: "example", Info: info}}, Info: info},
			{Workloads: []*Load{
				{Workload: "nst", Info: info},
				{Workload: "sandstone", Info: info},
			}, Info: info},
		},
		Info: info,
	}
}

func TestScheduleVerify_Valid(t *testing.T) {
	if err := testSchedule().Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestScheduleVerify_Invalid(t *testing.T) {
	info, _ := NewInfo(validInfo())
	badInfo := validInfo()
	badInfo.Accelerators = 0

	cases := []struct {
		name    string
		sched   *Schedule
		wantMsg string
	}{
		{"no steps", &Schedule{Info: info}, "at least one step"},
		{
			"nil step",
			&Schedule{Steps: []*Step{nil}, Info: info},
			"step 0 is nil",
		},
		{
			"step without info",
			&Schedule{Steps: []*Step{{Workloads: []*Load{{Workload: "nst", Info: info}}}}, Info: info},
			"has no info",
		},
		{
			"step without workloads",
			&Schedule{Steps: []*Step{{Info: info}}, Info: info},
			"has no workloads",
		},
		{
			"load without name",
			&Schedule{Steps: []*Step{{Workloads: []*Load{{Info: info}}, Info: info}}, Info: info},
			"no workload name",
		},
		{
			"load without info",
			&Schedule{Steps: []*Step{{Workloads: []*Load{{Workload: "nst"}}, Info: info}}, Info: info},
			"has no info",
		},
		{
			"load info violates invariants",
			&Schedule{Steps: []*Step{{Workloads: []*Load{{Workload: "nst", Info: &badInfo}}, Info: info}}, Info: info},
			"accelerator",
		},
		{
			"missing top-level info",
			&Schedule{Steps: []*Step{{Workloads: []*Load{{Workload: "nst", Info: info}}, Info: info}}},
			"missing top-level info",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sched.Verify()
			if err == nil {
				t.Fatal("Verify succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestScheduleWorkloadNames(t *testing.T) {
	got := testSchedule().WorkloadNames()
	want := [][]string{{"example"}, {"nst", "sandstone"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WorkloadNames = %v, want %v", got, want)
	}
}

func TestScheduleJSONRoundTrip(t *testing.T) {
	sched := testSchedule()
	data, err := json.Marshal(sched)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Schedule
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := back.Verify(); err != nil {
		t.Fatalf("round-tripped schedule fails Verify: %v", err)
	}
	if !reflect.DeepEqual(back.WorkloadNames(), sched.WorkloadNames()) {
		t.Errorf("workload names changed across round trip")
	}
}

func TestRunResultOutput(t *testing.T) {
	res := &RunResult{Results: []LoadResult{
		{Step: 0, Node: ".", Workload: "nst", Output: WorkloadOutput{Stdout: "ok", ReturnCode: 0}},
		{Step: 1, Node: ".", Workload: "sandstone", Output: WorkloadOutput{ReturnCode: 2}},
	}}

	out := res.Output(1, ".", "sandstone")
	if out == nil {
		t.Fatal("Output returned nil for recorded result")
	}
	if out.ReturnCode != 2 {
		t.Errorf("ReturnCode = %d, want 2", out.ReturnCode)
	}
	if res.Output(0, ".", "missing") != nil {
		t.Error("Output returned a result for an unknown workload")
	}
}

func TestRunState(t *testing.T) {
	if !RunStateCompleted.IsTerminal() || !RunStateFailed.IsTerminal() {
		t.Error("completed and failed must be terminal")
	}
	if RunStatePending.IsTerminal() || RunStateRunning.IsTerminal() {
		t.Error("pending and running must not be terminal")
	}
}
