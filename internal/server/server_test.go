package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/me/xbench/internal/config"
	"github.com/me/xbench/internal/schedule"
	"github.com/me/xbench/internal/store"
	"github.com/me/xbench/internal/workload"
	"github.com/me/xbench/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	logger := testLogger()
	reg := workload.NewRegistry(logger)
	reg.Register("nst", func() (workload.Workload, error) {
		return &workload.Command{Cfg: workload.Config{Name: "nst"}}, nil
	})
	builder := schedule.NewBuilder(config.NewValidator(logger), logger)
	return New(DefaultConfig(), st, reg, builder, logger)
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

// envelope decodes the standard response envelope.
type envelope struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
}

func do(t *testing.T, srv *Server, method, path, body string, wantStatus int) envelope {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: status=%d, want %d, body=%s", method, path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v", method, path, err)
	}
	return env
}

func TestRequestIDPropagation(t *testing.T) {
	srv := testServer(t, testStore(t))

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	header := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(header, "req_") {
		t.Fatalf("X-Request-ID = %q, want req_ prefix", header)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.RequestID != header {
		t.Errorf("envelope request_id = %q, header = %q; want the same ID", env.RequestID, header)
	}
}

func TestRequestIDFromContext_Untagged(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("RequestIDFromContext = %q, want empty for an untagged context", id)
	}
}

func TestHealth(t *testing.T) {
	env := do(t, testServer(t, testStore(t)), "GET", "/healthz", "", http.StatusOK)
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data healthResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Store != "available" {
		t.Errorf("store = %q, want available", data.Store)
	}
	if data.Workloads != 1 {
		t.Errorf("workloads = %d, want 1", data.Workloads)
	}
}

func TestListWorkloads(t *testing.T) {
	env := do(t, testServer(t, nil), "GET", "/api/workloads", "", http.StatusOK)
	var names []string
	if err := json.Unmarshal(env.Data, &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "nst" {
		t.Errorf("workloads = %v, want [nst]", names)
	}
}

func TestRunEndpoints(t *testing.T) {
	st := testStore(t)
	srv := testServer(t, st)
	ctx := context.Background()

	run := &model.Run{
		ID: "run_1", Name: "Burn In", Seed: 12345,
		State: model.RunStateCompleted, CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := st.AddResult(ctx, "run_1", model.LoadResult{
		Step: 0, Node: ".", Workload: "nst",
		Output: model.WorkloadOutput{Stdout: "ok"},
	}); err != nil {
		t.Fatal(err)
	}

	env := do(t, srv, "GET", "/api/runs", "", http.StatusOK)
	var runs []model.Run
	if err := json.Unmarshal(env.Data, &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "run_1" {
		t.Errorf("runs = %+v, want the recorded run", runs)
	}

	env = do(t, srv, "GET", "/api/runs/run_1", "", http.StatusOK)
	var got model.Run
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.State != model.RunStateCompleted || len(got.Results) != 1 {
		t.Errorf("run = %+v, want completed with one result", got)
	}

	env = do(t, srv, "GET", "/api/runs/run_1/results", "", http.StatusOK)
	var results []model.LoadResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Output.Stdout != "ok" {
		t.Errorf("results = %+v", results)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	env := do(t, testServer(t, testStore(t)), "GET", "/api/runs/ghost", "", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestRunEndpoints_WithoutStore(t *testing.T) {
	srv := testServer(t, nil)
	for _, path := range []string{"/api/runs", "/api/runs/x", "/api/runs/x/results"} {
		env := do(t, srv, "GET", path, "", http.StatusNotFound)
		if env.Error == nil || env.Error.Code != model.ErrNotFound {
			t.Errorf("%s: error = %+v, want NOT_FOUND", path, env.Error)
		}
	}
}

func TestBuildSchedule(t *testing.T) {
	srv := testServer(t, nil)
	body := `{
  "name": "Burn In",
  "description": "Overnight burn in",
  "accelerators": 8,
  "timeout": 3600,
  "workloads": ["nst", ["nst", "nst"]]
}`
	env := do(t, srv, "POST", "/api/schedule", body, http.StatusOK)

	var sched model.Schedule
	if err := json.Unmarshal(env.Data, &sched); err != nil {
		t.Fatal(err)
	}
	if len(sched.Steps) != 2 {
		t.Errorf("steps = %d, want 2", len(sched.Steps))
	}
	if err := sched.Verify(); err != nil {
		t.Errorf("returned schedule fails Verify: %v", err)
	}
}

func TestBuildSchedule_ValidationError(t *testing.T) {
	srv := testServer(t, nil)
	env := do(t, srv, "POST", "/api/schedule", `{"name": "x"}`, http.StatusUnprocessableEntity)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Fatalf("error = %+v, want validation error", env.Error)
	}
	if len(env.Error.Details) == 0 {
		t.Error("validation error carries no field details")
	}
}

func TestBuildSchedule_ConstraintError(t *testing.T) {
	srv := testServer(t, nil)
	body := `{"name": "x", "description": "y", "accelerators": 0, "timeout": 60, "workloads": ["nst"]}`
	env := do(t, srv, "POST", "/api/schedule", body, http.StatusUnprocessableEntity)
	if env.Error == nil || env.Error.Code != model.ErrConstraint {
		t.Fatalf("error = %+v, want constraint error", env.Error)
	}
}
