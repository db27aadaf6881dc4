package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_TypedDecode(t *testing.T) {
	cfg, err := Parse([]byte(validConfigYAML), NewValidator(testLogger()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "Burn In" {
		t.Errorf("Name = %q, want Burn In", cfg.Name)
	}
	if cfg.Accelerators == nil || *cfg.Accelerators != 8 {
		t.Errorf("Accelerators = %v, want 8", cfg.Accelerators)
	}
	if cfg.Timeout == nil || *cfg.Timeout != 3600 {
		t.Errorf("Timeout = %v, want 3600", cfg.Timeout)
	}
	if cfg.Seed != nil {
		t.Errorf("Seed = %v, want nil for omitted field", cfg.Seed)
	}
	if len(cfg.Workloads) != 3 {
		t.Fatalf("Workloads = %d entries, want 3", len(cfg.Workloads))
	}
	if cfg.Workloads[1].Kind != EntryGroup {
		t.Errorf("workloads[1] kind = %d, want EntryGroup", cfg.Workloads[1].Kind)
	}
}

func TestParse_ValidationFailureYieldsNoConfig(t *testing.T) {
	cfg, err := Parse([]byte("name: x\ndescription: y\n"), NewValidator(testLogger()))
	if err == nil {
		t.Fatal("Parse accepted config without mandatory keys")
	}
	if cfg != nil {
		t.Error("Parse returned a config alongside the validation error")
	}
}

func TestLoad_JSONSharesTheYAMLPath(t *testing.T) {
	src := `{
  "name": "Burn In",
  "description": "Overnight burn in",
  "accelerators": 4,
  "timeout": 600,
  "workloads": ["nst", ["nst", "sandstone"]]
}`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, NewValidator(testLogger()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if len(cfg.Workloads) != 2 || cfg.Workloads[1].Kind != EntryGroup {
		t.Errorf("JSON workloads grammar not decoded: %+v", cfg.Workloads)
	}
}

func TestLoad_RejectsUnsupportedExtension(t *testing.T) {
	_, err := Load("config.toml", NewValidator(testLogger()))
	if err == nil || !strings.Contains(err.Error(), "unsupported extension") {
		t.Fatalf("Load = %v, want unsupported extension error", err)
	}
}
